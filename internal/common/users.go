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

package common

import (
	"context"
	"fmt"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// LookupAccounts retrieves accounts based on an optional email filter.
// If emailFilter is provided, returns the single account with that email.
// If emailFilter is empty, returns all accounts.
func LookupAccounts(ctx context.Context, dbService store.LedgerStore, emailFilter string, logger *zap.Logger) ([]models.Account, error) {
	var accounts []models.Account

	if emailFilter != "" {
		logger.Info("Looking up account by email", zap.String("email", emailFilter))
		account, err := dbService.GetAccountByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		accounts = append(accounts, *account)
	} else {
		all, err := dbService.ListAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get accounts: %w", err)
		}
		accounts = all
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
