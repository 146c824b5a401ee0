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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSummary represents an account's sub-balances and spendable total
type BalanceSummary struct {
	Deposit   decimal.Decimal `json:"deposit"`
	Profit    decimal.Decimal `json:"profit"`
	Bonus     decimal.Decimal `json:"bonus"`
	Spendable decimal.Decimal `json:"spendable"`
}

// AccountView is the account as returned to its owner or an administrator
type AccountView struct {
	Id              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Role            Role           `json:"role"`
	Status          AccountStatus  `json:"account_status"`
	KYCStatus       KYCStatus      `json:"kyc_status"`
	Balances        BalanceSummary `json:"balances"`
	CanTrade        bool           `json:"can_trade"`
	CanWithdraw     bool           `json:"can_withdraw"`
	RequiredTrades  int            `json:"required_trades"`
	CompletedTrades int            `json:"completed_trades"`
	HasWithdrawCode bool           `json:"has_withdrawal_code"`
	HasTaxCode      bool           `json:"has_tax_code"`
	KYCSubmittedAt  *time.Time     `json:"kyc_submitted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// EntryRecord represents a ledger entry in the user's history
type EntryRecord struct {
	Id              string          `json:"id"`
	Kind            EntryKind       `json:"type"`
	Status          EntryStatus     `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	CryptoType      string          `json:"crypto_type,omitempty"`
	WalletAddress   string          `json:"wallet_address,omitempty"`
	TransactionHash string          `json:"transaction_hash,omitempty"`
	ProofURL        string          `json:"proof_url,omitempty"`
	AdminNotes      string          `json:"admin_notes,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SubmissionResult represents the outcome of a user submission. A rejected
// precondition is reported through Error with Success=false.
type SubmissionResult struct {
	Success bool         `json:"success"`
	Entry   *EntryRecord `json:"entry,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type PlanView struct {
	Id            string          `json:"id"`
	Name          string          `json:"name"`
	PlanType      string          `json:"plan_type"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	ROIPercentage decimal.Decimal `json:"roi_percentage"`
	DurationDays  int             `json:"duration_days"`
	Description   string          `json:"description,omitempty"`
	Features      []string        `json:"features"`
	IsActive      bool            `json:"is_active"`
}

type PositionView struct {
	Id             string          `json:"id"`
	PlanId         string          `json:"plan_id"`
	Amount         decimal.Decimal `json:"amount"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	CurrentReturn  decimal.Decimal `json:"current_return"`
	Status         PositionStatus  `json:"status"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// InvestmentResult represents the outcome of opening a position
type InvestmentResult struct {
	Success  bool          `json:"success"`
	Position *PositionView `json:"position,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// SubscriptionResult represents the outcome of a copy-trading or signal subscription
type SubscriptionResult struct {
	Success        bool            `json:"success"`
	SubscriptionId string          `json:"subscription_id,omitempty"`
	Amount         decimal.Decimal `json:"amount,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// KYCResult represents the outcome of an identity document submission
type KYCResult struct {
	Success   bool      `json:"success"`
	KYCStatus KYCStatus `json:"kyc_status,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type ExpertView struct {
	Id             string          `json:"id"`
	DisplayName    string          `json:"display_name"`
	Bio            string          `json:"bio,omitempty"`
	TotalFollowers int             `json:"total_followers"`
	SuccessRate    decimal.Decimal `json:"success_rate"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
}

type ProviderView struct {
	Id           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	SuccessRate  decimal.Decimal `json:"success_rate"`
	TotalSignals int             `json:"total_signals"`
}
