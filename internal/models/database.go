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

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
	AccountPending AccountStatus = "pending"
)

func (s AccountStatus) Valid() bool {
	return s == AccountActive || s == AccountBlocked || s == AccountPending
}

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

func (s KYCStatus) Valid() bool {
	return s == KYCPending || s == KYCApproved || s == KYCRejected
}

type EntryKind string

const (
	KindDeposit    EntryKind = "deposit"
	KindWithdrawal EntryKind = "withdrawal"
	KindProfit     EntryKind = "profit"
	KindBonus      EntryKind = "bonus"
	KindReferral   EntryKind = "referral"
	KindInvestment EntryKind = "investment"
)

type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryProcessing EntryStatus = "processing"
	EntryApproved   EntryStatus = "approved"
	EntryRejected   EntryStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s EntryStatus) Terminal() bool {
	return s == EntryApproved || s == EntryRejected
}

type PositionStatus string

const (
	PositionActive    PositionStatus = "active"
	PositionCompleted PositionStatus = "completed"
	PositionCancelled PositionStatus = "cancelled"
)

func (s PositionStatus) Terminal() bool {
	return s == PositionCompleted || s == PositionCancelled
}

// Account represents an account holder and their three sub-balances
type Account struct {
	Id              string          `db:"id"`
	Name            string          `db:"name"`
	Email           string          `db:"email"`
	Role            Role            `db:"role"`
	Status          AccountStatus   `db:"account_status"`
	KYCStatus       KYCStatus       `db:"kyc_status"`
	BalanceDeposit  decimal.Decimal `db:"balance_deposit"`
	BalanceProfit   decimal.Decimal `db:"balance_profit"`
	BalanceBonus    decimal.Decimal `db:"balance_bonus"`
	CanTrade        bool            `db:"can_trade"`
	CanWithdraw     bool            `db:"can_withdraw"`
	RequiredTrades  int             `db:"required_trades"`
	CompletedTrades int             `db:"completed_trades"`
	WithdrawalCode  string          `db:"withdrawal_code"`
	TaxCode         string          `db:"tax_code"`
	KYCDocumentType string          `db:"kyc_document_type"`
	KYCDocumentURL  string          `db:"kyc_document_url"`
	KYCSelfieURL    string          `db:"kyc_selfie_url"`
	KYCSubmittedAt  *time.Time      `db:"kyc_submitted_at"`
	Version         int64           `db:"version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// LedgerEntry is a deposit or withdrawal request and its review lifecycle
type LedgerEntry struct {
	Id              string          `db:"id"`
	UserId          string          `db:"user_id"`
	Kind            EntryKind       `db:"kind"`
	Status          EntryStatus     `db:"status"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	CryptoType      string          `db:"crypto_type"`
	WalletAddress   string          `db:"wallet_address"`
	TransactionHash string          `db:"transaction_hash"`
	ProofURL        string          `db:"proof_url"`
	IdempotencyKey  string          `db:"idempotency_key"`
	AdminNotes      string          `db:"admin_notes"`
	ApprovedBy      string          `db:"approved_by"`
	ApprovedAt      *time.Time      `db:"approved_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// InvestmentPlan is an admin-authored tier users can invest into
type InvestmentPlan struct {
	Id            string          `db:"id"`
	Name          string          `db:"name"`
	PlanType      string          `db:"plan_type"`
	MinAmount     decimal.Decimal `db:"min_amount"`
	MaxAmount     decimal.Decimal `db:"max_amount"`
	ROIPercentage decimal.Decimal `db:"roi_percentage"`
	DurationDays  int             `db:"duration_days"`
	Description   string          `db:"description"`
	Features      []string        `db:"features"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// InvestmentPosition is a user's stake in a plan
type InvestmentPosition struct {
	Id             string          `db:"id"`
	UserId         string          `db:"user_id"`
	PlanId         string          `db:"plan_id"`
	Amount         decimal.Decimal `db:"amount"`
	ExpectedReturn decimal.Decimal `db:"expected_return"`
	CurrentReturn  decimal.Decimal `db:"current_return"`
	Status         PositionStatus  `db:"status"`
	StartDate      time.Time       `db:"start_date"`
	EndDate        time.Time       `db:"end_date"`
	CompletedAt    *time.Time      `db:"completed_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

type CopyExpert struct {
	Id             string          `db:"id"`
	DisplayName    string          `db:"display_name"`
	Bio            string          `db:"bio"`
	TotalFollowers int             `db:"total_followers"`
	SuccessRate    decimal.Decimal `db:"success_rate"`
	TotalProfit    decimal.Decimal `db:"total_profit"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
}

type CopySubscription struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	ExpertId  string          `db:"expert_id"`
	Amount    decimal.Decimal `db:"amount"`
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
}

type SignalProvider struct {
	Id           string          `db:"id"`
	DisplayName  string          `db:"display_name"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	SuccessRate  decimal.Decimal `db:"success_rate"`
	TotalSignals int             `db:"total_signals"`
	IsActive     bool            `db:"is_active"`
	CreatedAt    time.Time       `db:"created_at"`
}

type SignalSubscription struct {
	Id         string          `db:"id"`
	UserId     string          `db:"user_id"`
	ProviderId string          `db:"provider_id"`
	Price      decimal.Decimal `db:"price"`
	IsActive   bool            `db:"is_active"`
	CreatedAt  time.Time       `db:"created_at"`
}

// DepositAddress is a platform-wide wallet users send deposits to
type DepositAddress struct {
	Id        string    `db:"id" json:"id"`
	Symbol    string    `db:"crypto_symbol" json:"crypto_symbol"`
	Name      string    `db:"crypto_name" json:"crypto_name"`
	Network   string    `db:"network" json:"network"`
	Address   string    `db:"wallet_address" json:"wallet_address"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Notification struct {
	Id        string    `db:"id" json:"id"`
	UserId    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	Link      string    `db:"link" json:"link,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// TradeClosed is the only status a recorded trade carries
const TradeClosed = "closed"

// Trade is a closed trade placed on an account holder's behalf. Each one
// counts toward the withdrawal trade gate.
type Trade struct {
	Id         string          `db:"id" json:"id"`
	UserId     string          `db:"user_id" json:"user_id"`
	Symbol     string          `db:"symbol" json:"symbol"`
	TradeType  TradeSide       `db:"trade_type" json:"trade_type"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	EntryPrice decimal.Decimal `db:"entry_price" json:"entry_price"`
	ExitPrice  decimal.Decimal `db:"exit_price" json:"exit_price"`
	ProfitLoss decimal.Decimal `db:"profit_loss" json:"profit_loss"`
	Status     string          `db:"status" json:"status"`
	PlacedBy   string          `db:"placed_by" json:"placed_by,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
