package api

import (
	"context"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ReviewEntry applies an administrator decision. Approval can still be
// refused when settlement finds the funds gone since submission.
func (s *LedgerService) ReviewEntry(ctx context.Context, params store.ReviewParams) (*models.SubmissionResult, error) {
	entry, err := s.db.ReviewEntry(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opReview, params.AdminId, err); ok {
			return &models.SubmissionResult{Success: false, Error: msg}, nil
		}
		zap.L().Error("Entry review failed",
			zap.String("entry_id", params.EntryId),
			zap.String("status", string(params.Status)),
			zap.Error(err))
		return nil, err
	}

	s.metrics.Reviews.WithLabelValues(string(entry.Kind), string(entry.Status)).Inc()
	return &models.SubmissionResult{Success: true, Entry: EntryRecord(entry)}, nil
}
