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

const (
	accountColumns = `id, name, email, role, account_status, kyc_status,
		balance_deposit, balance_profit, balance_bonus, can_trade, can_withdraw,
		required_trades, completed_trades, withdrawal_code, tax_code,
		kyc_document_type, kyc_document_url, kyc_selfie_url, kyc_submitted_at,
		version, created_at, updated_at`

	entryColumns = `id, user_id, kind, status, amount, currency, crypto_type, wallet_address,
		transaction_hash, proof_url, idempotency_key, admin_notes, approved_by, approved_at,
		created_at, updated_at`

	planColumns = `id, name, plan_type, min_amount, max_amount, roi_percentage, duration_days,
		description, features, is_active, created_at, updated_at`

	positionColumns = `id, user_id, plan_id, amount, expected_return, current_return, status,
		start_date, end_date, completed_at, created_at`

	expertColumns = `id, display_name, bio, total_followers, success_rate, total_profit, is_active, created_at`

	providerColumns = `id, display_name, description, price, success_rate, total_signals, is_active, created_at`

	depositAddressColumns = `id, crypto_symbol, crypto_name, network, wallet_address, is_active, created_at, updated_at`

	notificationColumns = `id, user_id, title, message, type, is_read, link, created_at`

	tradeColumns = `id, user_id, symbol, trade_type, amount, entry_price, exit_price, profit_loss,
		status, placed_by, created_at`
)

const (
	// Account queries
	queryInsertAccount = `
		INSERT INTO accounts (id, name, email, role) VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`

	queryGetAccountById = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryGetAccountByEmail = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER(?)`

	queryListAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC`

	queryListAccountIds = `
		SELECT id FROM accounts ORDER BY created_at`

	// Every account write goes through the version guard
	queryUpdateAccountBalances = `
		UPDATE accounts
		SET balance_deposit = ?, balance_profit = ?, balance_bonus = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryUpdateAccountControls = `
		UPDATE accounts
		SET balance_deposit = ?, balance_profit = ?, balance_bonus = ?,
		    can_trade = ?, can_withdraw = ?, required_trades = ?, completed_trades = ?,
		    withdrawal_code = ?, tax_code = ?, kyc_status = ?, account_status = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryUpdateAccountKYC = `
		UPDATE accounts
		SET kyc_status = ?, kyc_document_type = ?, kyc_document_url = ?, kyc_selfie_url = ?,
		    kyc_submitted_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	// Ledger entry queries
	queryInsertEntry = `
		INSERT INTO ledger_entries (
			id, user_id, kind, status, amount, currency, crypto_type, wallet_address,
			transaction_hash, idempotency_key, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetEntryById = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE id = ?`

	queryGetEntryByIdempotencyKey = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE user_id = ? AND kind = ? AND idempotency_key = ?`

	queryUpdateEntryStatus = `
		UPDATE ledger_entries
		SET status = ?, admin_notes = ?, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	queryUpdateEntryProof = `
		UPDATE ledger_entries
		SET proof_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND kind = 'deposit' AND status = 'pending'`

	// Investment plan queries
	queryInsertPlan = `
		INSERT INTO investment_plans (
			id, name, plan_type, min_amount, max_amount, roi_percentage, duration_days,
			description, features, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdatePlan = `
		UPDATE investment_plans
		SET name = ?, plan_type = ?, min_amount = ?, max_amount = ?, roi_percentage = ?,
		    duration_days = ?, description = ?, features = ?, is_active = ?, updated_at = ?
		WHERE id = ?`

	querySetPlanActive = `
		UPDATE investment_plans SET is_active = ?, updated_at = ? WHERE id = ?`

	queryDeletePlan = `
		DELETE FROM investment_plans WHERE id = ?`

	queryCountPlanPositions = `
		SELECT COUNT(*) FROM investments WHERE plan_id = ?`

	queryGetPlanById = `
		SELECT ` + planColumns + `
		FROM investment_plans
		WHERE id = ?`

	queryListPlans = `
		SELECT ` + planColumns + `
		FROM investment_plans
		WHERE is_active = 1 OR ? = 0
		ORDER BY CAST(min_amount AS REAL), name`

	// Investment position queries
	queryInsertPosition = `
		INSERT INTO investments (
			id, user_id, plan_id, amount, expected_return, current_return, status,
			start_date, end_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPositionById = `
		SELECT ` + positionColumns + `
		FROM investments
		WHERE id = ?`

	queryListPositionsByUser = `
		SELECT ` + positionColumns + `
		FROM investments
		WHERE user_id = ?
		ORDER BY created_at DESC`

	queryUpdatePositionReturn = `
		UPDATE investments SET current_return = ? WHERE id = ? AND status = 'active'`

	queryClosePosition = `
		UPDATE investments SET status = ?, completed_at = ? WHERE id = ? AND status = 'active'`

	// Copy trading queries
	queryInsertExpert = `
		INSERT INTO copy_experts (id, display_name, bio, total_followers, success_rate, total_profit, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetExpertById = `
		SELECT ` + expertColumns + `
		FROM copy_experts
		WHERE id = ?`

	queryListExperts = `
		SELECT ` + expertColumns + `
		FROM copy_experts
		WHERE is_active = 1 OR ? = 0
		ORDER BY total_followers DESC, display_name`

	querySetExpertActive = `
		UPDATE copy_experts SET is_active = ? WHERE id = ?`

	queryIncrementExpertFollowers = `
		UPDATE copy_experts SET total_followers = total_followers + 1 WHERE id = ?`

	queryHasActiveCopy = `
		SELECT COUNT(*) FROM copy_subscriptions WHERE user_id = ? AND expert_id = ? AND is_active = 1`

	queryInsertCopySubscription = `
		INSERT INTO copy_subscriptions (id, user_id, expert_id, amount, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`

	// Signal provider queries
	queryInsertProvider = `
		INSERT INTO signal_providers (id, display_name, description, price, success_rate, total_signals, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetProviderById = `
		SELECT ` + providerColumns + `
		FROM signal_providers
		WHERE id = ?`

	queryListProviders = `
		SELECT ` + providerColumns + `
		FROM signal_providers
		WHERE is_active = 1 OR ? = 0
		ORDER BY display_name`

	querySetProviderActive = `
		UPDATE signal_providers SET is_active = ? WHERE id = ?`

	queryHasActiveSignal = `
		SELECT COUNT(*) FROM signal_subscriptions WHERE user_id = ? AND provider_id = ? AND is_active = 1`

	queryInsertSignalSubscription = `
		INSERT INTO signal_subscriptions (id, user_id, provider_id, price, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`

	// Deposit address queries
	queryInsertDepositAddress = `
		INSERT INTO deposit_addresses (id, crypto_symbol, crypto_name, network, wallet_address, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateDepositAddress = `
		UPDATE deposit_addresses
		SET crypto_symbol = ?, crypto_name = ?, network = ?, wallet_address = ?, is_active = ?, updated_at = ?
		WHERE id = ?`

	queryDeleteDepositAddress = `
		DELETE FROM deposit_addresses WHERE id = ?`

	queryGetDepositAddressById = `
		SELECT ` + depositAddressColumns + `
		FROM deposit_addresses
		WHERE id = ?`

	queryListDepositAddresses = `
		SELECT ` + depositAddressColumns + `
		FROM deposit_addresses
		WHERE is_active = 1 OR ? = 0
		ORDER BY crypto_symbol, network`

	// Notification queries
	queryInsertNotification = `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, link, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`

	queryListNotifications = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryMarkNotificationRead = `
		UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`

	// Trade queries
	queryInsertTrade = `
		INSERT INTO trades (` + tradeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListTrades = `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = ? OR ? = ''
		ORDER BY created_at DESC
		LIMIT ?`
)
