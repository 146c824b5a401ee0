/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"
	"io"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/metrics"
	"invest-ledger-go/internal/objectstore"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

const (
	opDeposit            = "deposit"
	opDepositProof       = "deposit_proof"
	opWithdrawal         = "withdrawal"
	opInvestment         = "investment"
	opCopyTrade          = "copy_trade"
	opSignalSubscription = "signal_subscription"
	opKYC                = "kyc"
	opReview             = "review"
)

// FileStore persists uploaded files and returns where they can be fetched
type FileStore interface {
	Put(ctx context.Context, bucket, owner, filename string, r io.Reader, maxBytes int64) (*objectstore.Object, error)
}

// Upload is a file received from the account holder
type Upload struct {
	Filename string
	Body     io.Reader
}

// LedgerService turns store outcomes into user-facing results. A failed
// precondition becomes Success=false with the rejection message; only
// lookups and infrastructure failures are returned as errors.
type LedgerService struct {
	db             store.LedgerStore
	files          FileStore
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func NewLedgerService(db store.LedgerStore, files FileStore, m *metrics.Metrics) *LedgerService {
	if m == nil {
		m = metrics.New()
	}
	return &LedgerService{
		db:             db,
		files:          files,
		metrics:        m,
		maxUploadBytes: 10 << 20,
	}
}

// WithMaxUploadBytes overrides the per-file upload limit
func (s *LedgerService) WithMaxUploadBytes(n int64) *LedgerService {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

func (s *LedgerService) Store() store.LedgerStore {
	return s.db
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// rejected reports whether err is a failed precondition, counting it if so.
func (s *LedgerService) rejected(op, userId string, err error) (string, bool) {
	r, ok := ledger.AsRejection(err)
	if !ok {
		return "", false
	}
	s.metrics.Rejections.WithLabelValues(op, string(r.Reason)).Inc()
	zap.L().Info("Request rejected",
		zap.String("operation", op),
		zap.String("user_id", userId),
		zap.String("reason", string(r.Reason)),
		zap.String("message", r.Message))
	return r.Message, true
}

func (s *LedgerService) accepted(op string) {
	s.metrics.Submissions.WithLabelValues(op).Inc()
}
