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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func loadPosition(ctx context.Context, q queryer, positionId string) (*models.InvestmentPosition, error) {
	position, err := scanPosition(q.QueryRowContext(ctx, queryGetPositionById, positionId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	return position, nil
}

// OpenPosition creates an investment and debits its principal from the
// deposit sub-balance. Both writes commit together or not at all.
func (s *Service) OpenPosition(ctx context.Context, params store.InvestParams) (*models.InvestmentPosition, error) {
	zap.L().Info("Processing investment",
		zap.String("user_id", params.UserId),
		zap.String("plan_id", params.PlanId),
		zap.String("amount", params.Amount.String()))

	var position *models.InvestmentPosition
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		plan, err := loadPlan(ctx, tx, params.PlanId)
		if err != nil {
			return err
		}

		quote, err := ledger.EvaluateInvestment(account, plan, params.Amount, now())
		if err != nil {
			return err
		}

		positionId := uuid.New().String()
		_, err = tx.ExecContext(ctx, queryInsertPosition,
			positionId, account.Id, plan.Id, quote.Principal.String(), quote.ExpectedReturn.String(),
			decimal.Zero.String(), models.PositionActive, quote.StartDate, quote.EndDate, quote.StartDate)
		if err != nil {
			return fmt.Errorf("failed to insert position: %w", err)
		}

		next, err := ledger.BalancesOf(account).DebitDeposit(quote.Principal)
		if err != nil {
			return err
		}
		if err := writeBalances(ctx, tx, account, next); err != nil {
			return err
		}

		if _, err := s.insertEntry(ctx, tx, newEntryParams{
			UserId: account.Id,
			Kind:   models.KindInvestment,
			Status: models.EntryApproved,
			Amount: quote.Principal,
		}); err != nil {
			return err
		}

		position, err = loadPosition(ctx, tx, positionId)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment opened",
		zap.String("position_id", position.Id),
		zap.String("user_id", position.UserId),
		zap.String("expected_return", position.ExpectedReturn.String()),
		zap.Time("end_date", position.EndDate))
	return position, nil
}

func (s *Service) ListPositions(ctx context.Context, userId string) ([]models.InvestmentPosition, error) {
	rows, err := s.db.QueryContext(ctx, queryListPositionsByUser, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query positions: %w", err)
	}
	return collect(rows, scanPosition)
}

// SetAccruedReturn records an administrator-entered return on an active position
func (s *Service) SetAccruedReturn(ctx context.Context, positionId string, amount decimal.Decimal) (*models.InvestmentPosition, error) {
	if amount.IsNegative() {
		return nil, ledger.Reject(ledger.ReasonInvalidAmount, "Return cannot be negative")
	}

	var position *models.InvestmentPosition
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := loadPosition(ctx, tx, positionId)
		if err != nil {
			return err
		}
		if current.Status != models.PositionActive {
			return fmt.Errorf("%w: position is %s", store.ErrInvalidTransition, current.Status)
		}

		if _, err := tx.ExecContext(ctx, queryUpdatePositionReturn, amount.String(), positionId); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}
		position, err = loadPosition(ctx, tx, positionId)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Position return updated",
		zap.String("position_id", positionId),
		zap.String("current_return", amount.String()))
	return position, nil
}

// ClosePosition completes or cancels an active position. No balance moves;
// payouts go through an account edit.
func (s *Service) ClosePosition(ctx context.Context, positionId string, status models.PositionStatus) (*models.InvestmentPosition, error) {
	var position *models.InvestmentPosition
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := loadPosition(ctx, tx, positionId)
		if err != nil {
			return err
		}
		if err := ledger.CheckPositionTransition(current.Status, status); err != nil {
			return fmt.Errorf("%w: %s", store.ErrInvalidTransition, err.Error())
		}

		result, err := tx.ExecContext(ctx, queryClosePosition, status, now(), positionId)
		if err != nil {
			return fmt.Errorf("failed to close position: %w", err)
		}
		if err := checkGuardedWrite(result, "position"); err != nil {
			return err
		}
		position, err = loadPosition(ctx, tx, positionId)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Position closed", zap.String("position_id", positionId), zap.String("status", string(status)))
	return position, nil
}
