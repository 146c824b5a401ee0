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
	"errors"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/objectstore"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// SubmitDeposit records a pending deposit request
func (s *LedgerService) SubmitDeposit(ctx context.Context, params store.DepositParams) (*models.SubmissionResult, error) {
	zap.L().Info("Processing deposit submission",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("crypto_type", params.CryptoType))

	entry, err := s.db.CreateDeposit(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opDeposit, params.UserId, err); ok {
			return &models.SubmissionResult{Success: false, Error: msg}, nil
		}
		zap.L().Error("Deposit submission failed",
			zap.String("user_id", params.UserId),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		return nil, err
	}

	s.accepted(opDeposit)
	zap.L().Info("Deposit submitted successfully",
		zap.String("user_id", params.UserId),
		zap.String("entry_id", entry.Id),
		zap.String("amount", entry.Amount.String()))

	return &models.SubmissionResult{Success: true, Entry: EntryRecord(entry)}, nil
}

// AttachDepositProof uploads a proof file and links it to the caller's pending deposit
func (s *LedgerService) AttachDepositProof(ctx context.Context, userId, entryId string, file Upload) (*models.SubmissionResult, error) {
	current, err := s.db.GetEntry(ctx, entryId)
	if err != nil {
		return nil, err
	}
	if current.UserId != userId || current.Kind != models.KindDeposit {
		return nil, store.ErrEntryNotFound
	}
	if current.Status != models.EntryPending {
		return &models.SubmissionResult{Success: false, Error: "Proof can only be attached to a pending deposit"}, nil
	}

	obj, err := s.files.Put(ctx, objectstore.BucketDepositProof, userId, file.Filename, file.Body, s.maxUploadBytes)
	if err != nil {
		if msg, ok := uploadRejection(err); ok {
			return &models.SubmissionResult{Success: false, Error: msg}, nil
		}
		zap.L().Error("Failed to store deposit proof", zap.String("entry_id", entryId), zap.Error(err))
		return nil, err
	}

	entry, err := s.db.AttachDepositProof(ctx, userId, entryId, obj.URL)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return &models.SubmissionResult{Success: false, Error: "Proof can only be attached to a pending deposit"}, nil
		}
		return nil, err
	}

	s.accepted(opDepositProof)
	return &models.SubmissionResult{Success: true, Entry: EntryRecord(entry)}, nil
}

// uploadRejection maps file validation failures to a user-facing message
func uploadRejection(err error) (string, bool) {
	switch {
	case errors.Is(err, objectstore.ErrTooLarge):
		return "File is too large", true
	case errors.Is(err, objectstore.ErrUnsupportedType):
		return "Unsupported file type", true
	case errors.Is(err, objectstore.ErrEmpty):
		return "File is empty", true
	}
	return "", false
}
