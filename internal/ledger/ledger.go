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

// Package ledger decides whether a balance-affecting action is allowed and
// computes its numeric effect. It performs no I/O; the database layer calls it
// inside the write transaction that persists the result.
package ledger

import (
	"errors"
	"fmt"

	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Reason classifies a rejected precondition
type Reason string

const (
	ReasonBelowMinimum        Reason = "below_minimum"
	ReasonKYCRequired         Reason = "kyc_required"
	ReasonTradesRequired      Reason = "trades_required"
	ReasonWithdrawalsDisabled Reason = "withdrawals_disabled"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonMissingAddress      Reason = "missing_address"
	ReasonInvalidCode         Reason = "invalid_withdrawal_code"
	ReasonInvalidTaxCode      Reason = "invalid_tax_code"
	ReasonOutOfBounds         Reason = "out_of_bounds"
	ReasonUnavailable         Reason = "unavailable"
	ReasonAlreadySubscribed   Reason = "already_subscribed"
	ReasonInvalidAmount       Reason = "invalid_amount"
	ReasonInvalidTransition   Reason = "invalid_transition"
	ReasonKYCUnderReview      Reason = "kyc_under_review"
	ReasonInvalidInput        Reason = "invalid_input"
)

// Rejection is a failed precondition. Message is the single human-readable
// string shown to the submitter.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Is matches another *Rejection with the same Reason, so callers can write
// errors.Is(err, &ledger.Rejection{Reason: ledger.ReasonInsufficientBalance}).
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return t.Reason == r.Reason
}

// Reject builds a Rejection with a formatted message
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err to a *Rejection if it carries one
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Policy holds the static thresholds the evaluator checks against
type Policy struct {
	MinDeposit          decimal.Decimal
	MinWithdrawal       decimal.Decimal
	MinCopyAmount       decimal.Decimal
	WithdrawalMinTrades int
	TradeGate           models.TradeGateMode
}

func DefaultPolicy() Policy {
	return Policy{
		MinDeposit:          decimal.NewFromInt(100),
		MinWithdrawal:       decimal.NewFromInt(50),
		MinCopyAmount:       decimal.NewFromInt(100),
		WithdrawalMinTrades: 2,
		TradeGate:           models.TradeGateFixed,
	}
}

// PolicyFromConfig builds a Policy from configuration. Zero minimums and an
// empty trade gate keep the defaults; a zero trade count is honoured.
func PolicyFromConfig(cfg models.PolicyConfig) Policy {
	p := DefaultPolicy()
	if !cfg.MinDeposit.IsZero() {
		p.MinDeposit = cfg.MinDeposit
	}
	if !cfg.MinWithdrawal.IsZero() {
		p.MinWithdrawal = cfg.MinWithdrawal
	}
	if !cfg.MinCopyAmount.IsZero() {
		p.MinCopyAmount = cfg.MinCopyAmount
	}
	if cfg.TradeGate != "" {
		p.TradeGate = cfg.TradeGate
	}
	p.WithdrawalMinTrades = cfg.WithdrawalMinTrades
	return p
}

// SpendableTotal returns deposit + profit + bonus
func SpendableTotal(a *models.Account) decimal.Decimal {
	return BalancesOf(a).Spendable()
}

// EvaluateDeposit checks a proposed deposit. There is no upper bound.
func (p Policy) EvaluateDeposit(amount decimal.Decimal) error {
	if amount.LessThan(p.MinDeposit) || !amount.IsPositive() {
		return Reject(ReasonBelowMinimum, "Minimum deposit amount is $%s", p.MinDeposit.String())
	}
	return nil
}

// WithdrawalRequest is a proposed withdrawal as submitted by the account holder
type WithdrawalRequest struct {
	Amount         decimal.Decimal
	Address        string
	WithdrawalCode string
	TaxCode        string
}

// TradeThreshold returns the completed-trade count a withdrawal requires
func (p Policy) TradeThreshold(a *models.Account) int {
	if p.TradeGate == models.TradeGateAccount {
		return a.RequiredTrades
	}
	return p.WithdrawalMinTrades
}

// EvaluateWithdrawal checks every withdrawal precondition in a fixed order and
// returns the first one that fails.
func (p Policy) EvaluateWithdrawal(a *models.Account, req WithdrawalRequest) error {
	if a.KYCStatus != models.KYCApproved {
		return Reject(ReasonKYCRequired, "Please complete KYC verification before withdrawing.")
	}

	threshold := p.TradeThreshold(a)
	if a.CompletedTrades < threshold {
		return Reject(ReasonTradesRequired, "You need to complete at least %d trades before withdrawing.", threshold)
	}

	if !a.CanWithdraw {
		return Reject(ReasonWithdrawalsDisabled, "Withdrawals are currently disabled on your account.")
	}

	if req.Amount.LessThan(p.MinWithdrawal) || !req.Amount.IsPositive() {
		return Reject(ReasonBelowMinimum, "Minimum withdrawal amount is $%s", p.MinWithdrawal.String())
	}

	if req.Amount.GreaterThan(SpendableTotal(a)) {
		return Reject(ReasonInsufficientBalance, "Insufficient balance")
	}

	if req.Address == "" {
		return Reject(ReasonMissingAddress, "Please enter your wallet address")
	}

	if a.WithdrawalCode != "" && a.WithdrawalCode != req.WithdrawalCode {
		return Reject(ReasonInvalidCode, "Invalid withdrawal code")
	}

	if a.TaxCode != "" && a.TaxCode != req.TaxCode {
		return Reject(ReasonInvalidTaxCode, "Invalid Tax/MFI code. Please enter the correct code to proceed.")
	}

	return nil
}

// EvaluateCopyTrade checks a copy-trading allocation. The allocation is
// debited from the deposit sub-balance, so that is what must cover it.
func (p Policy) EvaluateCopyTrade(a *models.Account, amount decimal.Decimal, alreadyCopying bool) error {
	if amount.LessThan(p.MinCopyAmount) || !amount.IsPositive() {
		return Reject(ReasonBelowMinimum, "Minimum investment amount is $%s", p.MinCopyAmount.String())
	}
	if amount.GreaterThan(a.BalanceDeposit) {
		return Reject(ReasonInsufficientBalance, "Insufficient balance")
	}
	if alreadyCopying {
		return Reject(ReasonAlreadySubscribed, "You are already copying this trader")
	}
	return nil
}

// EvaluateSignalSubscription checks a subscription at the provider's exact price
func EvaluateSignalSubscription(a *models.Account, provider *models.SignalProvider, alreadySubscribed bool) error {
	if !provider.IsActive {
		return Reject(ReasonUnavailable, "This signal provider is not currently available")
	}
	if provider.Price.GreaterThan(a.BalanceDeposit) {
		return Reject(ReasonInsufficientBalance, "Insufficient balance")
	}
	if alreadySubscribed {
		return Reject(ReasonAlreadySubscribed, "You are already subscribed to this provider")
	}
	return nil
}

// EvaluateKYCSubmission allows a first submission or a retry after rejection
func EvaluateKYCSubmission(a *models.Account) error {
	switch {
	case a.KYCStatus == models.KYCApproved:
		return Reject(ReasonKYCUnderReview, "Your identity has already been verified")
	case a.KYCSubmittedAt != nil && a.KYCStatus != models.KYCRejected:
		return Reject(ReasonKYCUnderReview, "Your documents are already under review")
	}
	return nil
}

// ValidateTradeCounters rejects negative trade counters set by an administrator
func ValidateTradeCounters(required, completed int) error {
	if required < 0 || completed < 0 {
		return Reject(ReasonInvalidInput, "Trade counters cannot be negative")
	}
	return nil
}

// ValidateStatuses rejects KYC and account statuses outside the known sets
func ValidateStatuses(kyc models.KYCStatus, status models.AccountStatus) error {
	if !kyc.Valid() {
		return Reject(ReasonInvalidInput, "Unknown KYC status %q", string(kyc))
	}
	if !status.Valid() {
		return Reject(ReasonInvalidInput, "Unknown account status %q", string(status))
	}
	return nil
}

// ValidateTrade checks a closed trade entered by an administrator
func ValidateTrade(symbol string, side models.TradeSide, amount, entry, exit decimal.Decimal) error {
	switch {
	case symbol == "":
		return Reject(ReasonInvalidInput, "Symbol is required")
	case side != models.TradeBuy && side != models.TradeSell:
		return Reject(ReasonInvalidInput, "Trade type must be buy or sell")
	case !amount.IsPositive():
		return Reject(ReasonInvalidAmount, "Trade amount must be greater than zero")
	case !entry.IsPositive() || exit.IsNegative():
		return Reject(ReasonInvalidAmount, "Entry price must be positive and exit price cannot be negative")
	}
	return nil
}

// TradeProfitLoss is the stake times the relative price move, negated for a
// short, rounded to cents. entry must be positive.
func TradeProfitLoss(side models.TradeSide, amount, entry, exit decimal.Decimal) decimal.Decimal {
	move := exit.Sub(entry)
	if side == models.TradeSell {
		move = move.Neg()
	}
	return amount.Mul(move).Div(entry).Round(2)
}
