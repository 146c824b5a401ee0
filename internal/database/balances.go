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

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// loadAccount reads an account through q, which inside a write transaction
// is the *sql.Tx so the read and the guarded write see the same row.
func loadAccount(ctx context.Context, q queryer, accountId string) (*models.Account, error) {
	account, err := scanAccount(q.QueryRowContext(ctx, queryGetAccountById, accountId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// checkGuardedWrite turns a zero-row version-guarded update into ErrConcurrentModification
func checkGuardedWrite(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s update failed - %w", what, store.ErrConcurrentModification)
	}
	return nil
}

// writeBalances persists new sub-balances for account, failing if another
// writer has bumped the version since it was read.
func writeBalances(ctx context.Context, tx *sql.Tx, account *models.Account, next ledger.Balances) error {
	if err := next.Validate(); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccountBalances,
		next.Deposit.String(), next.Profit.String(), next.Bonus.String(), now(),
		account.Id, account.Version)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if err := checkGuardedWrite(result, "balance"); err != nil {
		return err
	}

	zap.L().Info("Account balances updated",
		zap.String("user_id", account.Id),
		zap.String("old_deposit", account.BalanceDeposit.String()),
		zap.String("new_deposit", next.Deposit.String()),
		zap.String("old_spendable", ledger.SpendableTotal(account).String()),
		zap.String("new_spendable", next.Spendable().String()))

	account.BalanceDeposit = next.Deposit
	account.BalanceProfit = next.Profit
	account.BalanceBonus = next.Bonus
	account.Version++
	return nil
}

// GetBalances returns the sub-balances and spendable total of an account
func (s *Service) GetBalances(ctx context.Context, accountId string) (models.BalanceSummary, error) {
	zap.L().Debug("Getting balances", zap.String("user_id", accountId))

	account, err := loadAccount(ctx, s.db, accountId)
	if err != nil {
		return models.BalanceSummary{}, err
	}

	b := ledger.BalancesOf(account)
	return models.BalanceSummary{
		Deposit:   b.Deposit,
		Profit:    b.Profit,
		Bonus:     b.Bonus,
		Spendable: b.Spendable(),
	}, nil
}
