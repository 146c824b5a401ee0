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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	accountId := params.Id
	if accountId == "" {
		accountId = uuid.New().String()
	}
	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	zap.L().Info("Creating account",
		zap.String("id", accountId),
		zap.String("name", params.Name),
		zap.String("email", params.Email),
		zap.String("role", string(role)))

	result, err := s.db.ExecContext(ctx, queryInsertAccount, accountId, params.Name, params.Email, role)
	if err != nil {
		zap.L().Error("Failed to insert account", zap.String("email", params.Email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		zap.L().Error("Failed to get rows affected", zap.Error(err))
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateAccount, params.Email)
	}

	zap.L().Info("Account created successfully", zap.String("id", accountId), zap.String("email", params.Email))

	return s.GetAccount(ctx, accountId)
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	zap.L().Debug("Querying account by ID", zap.String("user_id", accountId))

	account, err := loadAccount(ctx, s.db, accountId)
	if err != nil {
		if !errors.Is(err, store.ErrAccountNotFound) {
			zap.L().Error("Failed to query account by ID", zap.String("user_id", accountId), zap.Error(err))
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	zap.L().Debug("Querying account by email", zap.String("email", email))

	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		zap.L().Error("Failed to query account by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query account by email: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Querying accounts")

	rows, err := s.db.QueryContext(ctx, queryListAccounts)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}

	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("unable to list accounts: %w", err)
	}

	zap.L().Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}

// writeControls persists every admin-editable column of account under the version guard
func writeControls(ctx context.Context, tx *sql.Tx, account *models.Account) error {
	if err := ledger.BalancesOf(account).Validate(); err != nil {
		return err
	}
	if err := ledger.ValidateTradeCounters(account.RequiredTrades, account.CompletedTrades); err != nil {
		return err
	}
	if err := ledger.ValidateStatuses(account.KYCStatus, account.Status); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccountControls,
		account.BalanceDeposit.String(), account.BalanceProfit.String(), account.BalanceBonus.String(),
		account.CanTrade, account.CanWithdraw, account.RequiredTrades, account.CompletedTrades,
		account.WithdrawalCode, account.TaxCode, account.KYCStatus, account.Status, now(),
		account.Id, account.Version)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if err := checkGuardedWrite(result, "account"); err != nil {
		return err
	}
	account.Version++
	return nil
}

// UpdateAccount applies an administrator's edit of balances, flags and codes
func (s *Service) UpdateAccount(ctx context.Context, accountId string, update store.AccountUpdate) (*models.Account, error) {
	var account *models.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = loadAccount(ctx, tx, accountId)
		if err != nil {
			return err
		}

		applyAccountUpdate(account, update)
		return writeControls(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account updated",
		zap.String("user_id", accountId),
		zap.String("deposit", account.BalanceDeposit.String()),
		zap.String("profit", account.BalanceProfit.String()),
		zap.String("bonus", account.BalanceBonus.String()),
		zap.Bool("can_withdraw", account.CanWithdraw),
		zap.String("kyc_status", string(account.KYCStatus)))
	return account, nil
}

func applyAccountUpdate(a *models.Account, u store.AccountUpdate) {
	if u.BalanceDeposit != nil {
		a.BalanceDeposit = *u.BalanceDeposit
	}
	if u.BalanceProfit != nil {
		a.BalanceProfit = *u.BalanceProfit
	}
	if u.BalanceBonus != nil {
		a.BalanceBonus = *u.BalanceBonus
	}
	if u.CanTrade != nil {
		a.CanTrade = *u.CanTrade
	}
	if u.CanWithdraw != nil {
		a.CanWithdraw = *u.CanWithdraw
	}
	if u.RequiredTrades != nil {
		a.RequiredTrades = *u.RequiredTrades
	}
	if u.CompletedTrades != nil {
		a.CompletedTrades = *u.CompletedTrades
	}
	if u.WithdrawalCode != nil {
		a.WithdrawalCode = *u.WithdrawalCode
	}
	if u.TaxCode != nil {
		a.TaxCode = *u.TaxCode
	}
	if u.KYCStatus != nil {
		a.KYCStatus = *u.KYCStatus
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
}

func (s *Service) SubmitKYC(ctx context.Context, params store.KYCSubmission) (*models.Account, error) {
	if params.DocumentType == "" || params.DocumentURL == "" || params.SelfieURL == "" {
		return nil, ledger.Reject(ledger.ReasonInvalidInput, "Please upload both your ID document and a selfie")
	}

	var account *models.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		if err := ledger.EvaluateKYCSubmission(account); err != nil {
			return err
		}

		submittedAt := now()
		result, err := tx.ExecContext(ctx, queryUpdateAccountKYC,
			models.KYCPending, params.DocumentType, params.DocumentURL, params.SelfieURL,
			submittedAt, submittedAt, account.Id, account.Version)
		if err != nil {
			return fmt.Errorf("failed to record KYC submission: %w", err)
		}
		if err := checkGuardedWrite(result, "kyc"); err != nil {
			return err
		}

		account.KYCStatus = models.KYCPending
		account.KYCDocumentType = params.DocumentType
		account.KYCDocumentURL = params.DocumentURL
		account.KYCSelfieURL = params.SelfieURL
		account.KYCSubmittedAt = &submittedAt
		account.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("KYC submitted",
		zap.String("user_id", params.UserId),
		zap.String("document_type", params.DocumentType))
	return account, nil
}

func (s *Service) ReviewKYC(ctx context.Context, params store.KYCReview) (*models.Account, error) {
	if params.Status != models.KYCApproved && params.Status != models.KYCRejected {
		return nil, fmt.Errorf("%w: kyc review must approve or reject, got %q", store.ErrInvalidTransition, params.Status)
	}

	var account *models.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}

		account.KYCStatus = params.Status
		if err := writeControls(ctx, tx, account); err != nil {
			return err
		}

		title, message, kind := "KYC Approved", "Your identity verification has been approved.", "success"
		if params.Status == models.KYCRejected {
			title, message, kind = "KYC Rejected", "Your identity verification was rejected. Please resubmit your documents.", "error"
			if params.Notes != "" {
				message += " Reason: " + params.Notes
			}
		}
		_, err = insertNotification(ctx, tx, store.NotificationParams{
			UserId:  account.Id,
			Title:   title,
			Message: message,
			Type:    kind,
			Link:    "/dashboard/kyc",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("KYC reviewed",
		zap.String("user_id", params.UserId),
		zap.String("admin_id", params.AdminId),
		zap.String("status", string(params.Status)))
	return account, nil
}
