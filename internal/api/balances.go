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

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetAccount returns the caller's account with derived balances
func (s *LedgerService) GetAccount(ctx context.Context, userId string) (*models.AccountView, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	account, err := s.db.GetAccount(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get account", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}
	return AccountView(account), nil
}

// GetBalances returns the three sub-balances and their spendable total
func (s *LedgerService) GetBalances(ctx context.Context, userId string) (models.BalanceSummary, error) {
	account, err := s.db.GetAccount(ctx, userId)
	if err != nil {
		return models.BalanceSummary{}, err
	}
	return balanceSummary(account), nil
}

// GetEntryHistory returns paginated ledger history for a user, optionally for one kind
func (s *LedgerService) GetEntryHistory(ctx context.Context, userId string, kind models.EntryKind, limit, offset int) ([]models.EntryRecord, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.db.ListEntries(ctx, store.EntryFilter{
		UserId: userId,
		Kind:   kind,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		zap.L().Error("Failed to get entry history",
			zap.String("user_id", userId),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve entry history: %w", err)
	}

	result := make([]models.EntryRecord, len(entries))
	for i := range entries {
		result[i] = *EntryRecord(&entries[i])
	}
	return result, nil
}
