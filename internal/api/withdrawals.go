package api

import (
	"context"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// SubmitWithdrawal evaluates the withdrawal gates and records a pending request.
// Funds move only when an administrator approves it.
func (s *LedgerService) SubmitWithdrawal(ctx context.Context, params store.WithdrawalParams) (*models.SubmissionResult, error) {
	zap.L().Info("Processing withdrawal submission",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("crypto_type", params.CryptoType))

	entry, err := s.db.CreateWithdrawal(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opWithdrawal, params.UserId, err); ok {
			return &models.SubmissionResult{Success: false, Error: msg}, nil
		}
		zap.L().Error("Withdrawal submission failed",
			zap.String("user_id", params.UserId),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		return nil, err
	}

	s.accepted(opWithdrawal)
	zap.L().Info("Withdrawal submitted successfully",
		zap.String("user_id", params.UserId),
		zap.String("entry_id", entry.Id),
		zap.String("amount", entry.Amount.String()))

	return &models.SubmissionResult{Success: true, Entry: EntryRecord(entry)}, nil
}
