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
	"time"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db               *sql.DB
	policy           ledger.Policy
	settleOnApproval bool
	currency         string
}

func NewService(ctx context.Context, cfg models.DatabaseConfig, policy models.PolicyConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))

	// _txlock=immediate takes the write lock at BEGIN so every balance check
	// inside a transaction reads the state it will write against.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=%d&_txlock=immediate&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service, err := newServiceFromDB(ctx, db, policy)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, err
	}

	zap.L().Info("Database service initialized successfully",
		zap.Bool("settle_on_approval", policy.SettleOnApproval),
		zap.String("trade_gate", string(policy.TradeGate)))
	return service, nil
}

func newServiceFromDB(ctx context.Context, db *sql.DB, policy models.PolicyConfig) (*Service, error) {
	currency := policy.Currency
	if currency == "" {
		currency = "USD"
	}
	service := &Service{
		db:               db,
		policy:           ledger.PolicyFromConfig(policy),
		settleOnApproval: policy.SettleOnApproval,
		currency:         currency,
	}
	if err := service.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}
	return service, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// queryer is satisfied by both *sql.DB and *sql.Tx. Code running inside a
// transaction must only ever use the *sql.Tx it was handed.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a single write transaction, committing only if fn returns nil.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Accounts carry the three sub-balances; version guards every write
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'user',
		account_status TEXT NOT NULL DEFAULT 'active',
		kyc_status TEXT NOT NULL DEFAULT 'pending',
		balance_deposit TEXT NOT NULL DEFAULT '0',
		balance_profit TEXT NOT NULL DEFAULT '0',
		balance_bonus TEXT NOT NULL DEFAULT '0',
		can_trade BOOLEAN NOT NULL DEFAULT 1,
		can_withdraw BOOLEAN NOT NULL DEFAULT 1,
		required_trades INTEGER NOT NULL DEFAULT 10,
		completed_trades INTEGER NOT NULL DEFAULT 0,
		withdrawal_code TEXT NOT NULL DEFAULT '',
		tax_code TEXT NOT NULL DEFAULT '',
		kyc_document_type TEXT NOT NULL DEFAULT '',
		kyc_document_url TEXT NOT NULL DEFAULT '',
		kyc_selfie_url TEXT NOT NULL DEFAULT '',
		kyc_submitted_at TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);

	-- Deposit and withdrawal requests with their review lifecycle
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		crypto_type TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL DEFAULT '',
		transaction_hash TEXT NOT NULL DEFAULT '',
		proof_url TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT NOT NULL DEFAULT '',
		admin_notes TEXT NOT NULL DEFAULT '',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_kind ON ledger_entries(user_id, kind);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_status ON ledger_entries(status);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_created_at ON ledger_entries(created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_entries_idempotency
		ON ledger_entries(user_id, kind, idempotency_key) WHERE idempotency_key != '';

	CREATE TABLE IF NOT EXISTS investment_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		plan_type TEXT NOT NULL,
		min_amount TEXT NOT NULL,
		max_amount TEXT NOT NULL,
		roi_percentage TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		features TEXT NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		plan_id TEXT NOT NULL REFERENCES investment_plans(id),
		amount TEXT NOT NULL,
		expected_return TEXT NOT NULL,
		current_return TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
	CREATE INDEX IF NOT EXISTS idx_investments_plan_id ON investments(plan_id);

	CREATE TABLE IF NOT EXISTS copy_experts (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL UNIQUE,
		bio TEXT NOT NULL DEFAULT '',
		total_followers INTEGER NOT NULL DEFAULT 0,
		success_rate TEXT NOT NULL DEFAULT '0',
		total_profit TEXT NOT NULL DEFAULT '0',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS copy_subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		expert_id TEXT NOT NULL REFERENCES copy_experts(id),
		amount TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_copy_subscriptions_active
		ON copy_subscriptions(user_id, expert_id) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS signal_providers (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL,
		success_rate TEXT NOT NULL DEFAULT '0',
		total_signals INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS signal_subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		provider_id TEXT NOT NULL REFERENCES signal_providers(id),
		price TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_signal_subscriptions_active
		ON signal_subscriptions(user_id, provider_id) WHERE is_active = 1;

	-- Platform-wide wallets users send deposits to
	CREATE TABLE IF NOT EXISTS deposit_addresses (
		id TEXT PRIMARY KEY,
		crypto_symbol TEXT NOT NULL,
		crypto_name TEXT NOT NULL,
		network TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deposit_addresses_symbol ON deposit_addresses(crypto_symbol);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'info',
		is_read BOOLEAN NOT NULL DEFAULT 0,
		link TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id, created_at);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		trade_type TEXT NOT NULL CHECK (trade_type IN ('buy', 'sell')),
		amount TEXT NOT NULL,
		entry_price TEXT NOT NULL,
		exit_price TEXT NOT NULL,
		profit_loss TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'closed',
		placed_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades(user_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
