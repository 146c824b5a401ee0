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
	"go.uber.org/zap"
)

func validateDepositAddress(params store.DepositAddressParams) error {
	if strings.TrimSpace(params.Symbol) == "" || strings.TrimSpace(params.Address) == "" {
		return ledger.Reject(ledger.ReasonInvalidInput, "Symbol and wallet address are required")
	}
	return nil
}

func (s *Service) CreateDepositAddress(ctx context.Context, params store.DepositAddressParams) (*models.DepositAddress, error) {
	if err := validateDepositAddress(params); err != nil {
		return nil, err
	}

	zap.L().Info("Storing deposit address",
		zap.String("symbol", params.Symbol),
		zap.String("network", params.Network),
		zap.String("address", params.Address))

	// Generate UUID for the address
	addressId := uuid.New().String()
	createdAt := now()

	_, err := s.db.ExecContext(ctx, queryInsertDepositAddress,
		addressId, strings.ToUpper(params.Symbol), params.Name, params.Network, strings.TrimSpace(params.Address),
		params.IsActive, createdAt, createdAt)
	if err != nil {
		zap.L().Error("Failed to insert deposit address",
			zap.String("symbol", params.Symbol),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert deposit address: %w", err)
	}

	zap.L().Info("Deposit address stored successfully", zap.String("id", addressId))
	return s.getDepositAddress(ctx, addressId)
}

func (s *Service) UpdateDepositAddress(ctx context.Context, addressId string, params store.DepositAddressParams) (*models.DepositAddress, error) {
	if err := validateDepositAddress(params); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, queryUpdateDepositAddress,
		strings.ToUpper(params.Symbol), params.Name, params.Network, strings.TrimSpace(params.Address),
		params.IsActive, now(), addressId)
	if err != nil {
		return nil, fmt.Errorf("unable to update deposit address: %w", err)
	}
	if err := requireRow(result, store.ErrAddressNotFound); err != nil {
		return nil, err
	}

	zap.L().Info("Deposit address updated", zap.String("id", addressId), zap.Bool("active", params.IsActive))
	return s.getDepositAddress(ctx, addressId)
}

func (s *Service) DeleteDepositAddress(ctx context.Context, addressId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteDepositAddress, addressId)
	if err != nil {
		return fmt.Errorf("unable to delete deposit address: %w", err)
	}
	if err := requireRow(result, store.ErrAddressNotFound); err != nil {
		return err
	}

	zap.L().Info("Deposit address deleted", zap.String("id", addressId))
	return nil
}

func (s *Service) getDepositAddress(ctx context.Context, addressId string) (*models.DepositAddress, error) {
	addr, err := scanDepositAddress(s.db.QueryRowContext(ctx, queryGetDepositAddressById, addressId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAddressNotFound
		}
		return nil, fmt.Errorf("unable to query deposit address: %w", err)
	}
	return addr, nil
}

func (s *Service) ListDepositAddresses(ctx context.Context, activeOnly bool) ([]models.DepositAddress, error) {
	zap.L().Debug("Querying deposit addresses", zap.Bool("active_only", activeOnly))

	rows, err := s.db.QueryContext(ctx, queryListDepositAddresses, activeOnly)
	if err != nil {
		zap.L().Error("Failed to query deposit addresses", zap.Error(err))
		return nil, fmt.Errorf("unable to query deposit addresses: %w", err)
	}

	addresses, err := collect(rows, scanDepositAddress)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Retrieved deposit addresses", zap.Int("count", len(addresses)))
	return addresses, nil
}
