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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultEntryLimit = 20
	maxEntryLimit     = 100
)

// newEntryParams holds the columns written when an entry is first created
type newEntryParams struct {
	UserId          string
	Kind            models.EntryKind
	Status          models.EntryStatus
	Amount          decimal.Decimal
	CryptoType      string
	WalletAddress   string
	TransactionHash string
	IdempotencyKey  string
}

func (s *Service) insertEntry(ctx context.Context, tx *sql.Tx, params newEntryParams) (*models.LedgerEntry, error) {
	entryId := uuid.New().String()
	createdAt := now()

	_, err := tx.ExecContext(ctx, queryInsertEntry,
		entryId, params.UserId, params.Kind, params.Status, params.Amount.String(), s.currency,
		params.CryptoType, params.WalletAddress, params.TransactionHash, params.IdempotencyKey,
		createdAt, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s entry: %w", params.Kind, err)
	}

	return loadEntry(ctx, tx, entryId)
}

func loadEntry(ctx context.Context, q queryer, entryId string) (*models.LedgerEntry, error) {
	entry, err := scanEntry(q.QueryRowContext(ctx, queryGetEntryById, entryId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return entry, nil
}

// findByIdempotencyKey returns the entry previously created under key, or nil
func findByIdempotencyKey(ctx context.Context, q queryer, userId string, kind models.EntryKind, key string) (*models.LedgerEntry, error) {
	if key == "" {
		return nil, nil
	}
	entry, err := scanEntry(q.QueryRowContext(ctx, queryGetEntryByIdempotencyKey, userId, kind, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return entry, nil
}

// CreateDeposit records a pending deposit. Balances are untouched until review.
func (s *Service) CreateDeposit(ctx context.Context, params store.DepositParams) (*models.LedgerEntry, error) {
	zap.L().Info("Processing deposit request",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("crypto_type", params.CryptoType))

	var entry *models.LedgerEntry
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadAccount(ctx, tx, params.UserId); err != nil {
			return err
		}

		existing, err := findByIdempotencyKey(ctx, tx, params.UserId, models.KindDeposit, params.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			zap.L().Warn("Duplicate idempotency key, returning original deposit",
				zap.String("idempotency_key", params.IdempotencyKey),
				zap.String("entry_id", existing.Id))
			entry = existing
			return nil
		}

		if err := s.policy.EvaluateDeposit(params.Amount); err != nil {
			return err
		}

		entry, err = s.insertEntry(ctx, tx, newEntryParams{
			UserId:          params.UserId,
			Kind:            models.KindDeposit,
			Status:          models.EntryPending,
			Amount:          params.Amount,
			CryptoType:      params.CryptoType,
			TransactionHash: params.TransactionHash,
			IdempotencyKey:  params.IdempotencyKey,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit recorded", zap.String("entry_id", entry.Id), zap.String("status", string(entry.Status)))
	return entry, nil
}

// CreateWithdrawal evaluates every withdrawal gate against a fresh read of the
// account and records a pending withdrawal.
func (s *Service) CreateWithdrawal(ctx context.Context, params store.WithdrawalParams) (*models.LedgerEntry, error) {
	zap.L().Info("Processing withdrawal request",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("crypto_type", params.CryptoType))

	var entry *models.LedgerEntry
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}

		existing, err := findByIdempotencyKey(ctx, tx, params.UserId, models.KindWithdrawal, params.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			entry = existing
			return nil
		}

		err = s.policy.EvaluateWithdrawal(account, ledger.WithdrawalRequest{
			Amount:         params.Amount,
			Address:        strings.TrimSpace(params.WalletAddress),
			WithdrawalCode: params.WithdrawalCode,
			TaxCode:        params.TaxCode,
		})
		if err != nil {
			return err
		}

		entry, err = s.insertEntry(ctx, tx, newEntryParams{
			UserId:         params.UserId,
			Kind:           models.KindWithdrawal,
			Status:         models.EntryPending,
			Amount:         params.Amount,
			CryptoType:     params.CryptoType,
			WalletAddress:  strings.TrimSpace(params.WalletAddress),
			IdempotencyKey: params.IdempotencyKey,
		})
		return err
	})
	if err != nil {
		if r, ok := ledger.AsRejection(err); ok {
			zap.L().Info("Withdrawal rejected",
				zap.String("user_id", params.UserId),
				zap.String("reason", string(r.Reason)))
		}
		return nil, err
	}

	zap.L().Info("Withdrawal recorded", zap.String("entry_id", entry.Id), zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// AttachDepositProof stores a proof reference on the owner's own pending deposit
func (s *Service) AttachDepositProof(ctx context.Context, userId, entryId, proofURL string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := loadEntry(ctx, tx, entryId)
		if err != nil {
			return err
		}
		if current.UserId != userId || current.Kind != models.KindDeposit {
			return store.ErrEntryNotFound
		}
		if current.Status != models.EntryPending {
			return fmt.Errorf("%w: proof can only be attached to a pending deposit", store.ErrInvalidTransition)
		}

		if _, err := tx.ExecContext(ctx, queryUpdateEntryProof, proofURL, now(), entryId, userId); err != nil {
			return fmt.Errorf("failed to attach proof: %w", err)
		}
		entry, err = loadEntry(ctx, tx, entryId)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit proof attached", zap.String("entry_id", entryId), zap.String("user_id", userId))
	return entry, nil
}

func (s *Service) GetEntry(ctx context.Context, entryId string) (*models.LedgerEntry, error) {
	return loadEntry(ctx, s.db, entryId)
}

// ListEntries returns entries newest first, optionally filtered by owner, kind and status
func (s *Service) ListEntries(ctx context.Context, filter store.EntryFilter) ([]models.LedgerEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEntryLimit
	}
	if limit > maxEntryLimit {
		limit = maxEntryLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var where []string
	var args []any
	if filter.UserId != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserId)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := "SELECT " + entryColumns + " FROM ledger_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	zap.L().Debug("Getting entry history",
		zap.String("user_id", filter.UserId),
		zap.String("kind", string(filter.Kind)),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry history: %w", err)
	}
	return collect(rows, scanEntry)
}
