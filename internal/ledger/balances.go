package ledger

import (
	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Balances is the three sub-balances of an account as a value
type Balances struct {
	Deposit decimal.Decimal
	Profit  decimal.Decimal
	Bonus   decimal.Decimal
}

func BalancesOf(a *models.Account) Balances {
	return Balances{Deposit: a.BalanceDeposit, Profit: a.BalanceProfit, Bonus: a.BalanceBonus}
}

func (b Balances) Spendable() decimal.Decimal {
	return b.Deposit.Add(b.Profit).Add(b.Bonus)
}

// Validate rejects any negative sub-balance
func (b Balances) Validate() error {
	if b.Deposit.IsNegative() || b.Profit.IsNegative() || b.Bonus.IsNegative() {
		return Reject(ReasonInvalidAmount, "Balances cannot be negative")
	}
	return nil
}

// DebitDeposit removes amount from the deposit sub-balance only
func (b Balances) DebitDeposit(amount decimal.Decimal) (Balances, error) {
	if amount.GreaterThan(b.Deposit) {
		return b, Reject(ReasonInsufficientBalance, "Insufficient balance")
	}
	b.Deposit = b.Deposit.Sub(amount)
	return b, nil
}

func (b Balances) CreditDeposit(amount decimal.Decimal) Balances {
	b.Deposit = b.Deposit.Add(amount)
	return b
}

// DebitSpendable removes amount drawing from deposit, then profit, then bonus.
func (b Balances) DebitSpendable(amount decimal.Decimal) (Balances, error) {
	if amount.GreaterThan(b.Spendable()) {
		return b, Reject(ReasonInsufficientBalance, "Insufficient balance")
	}

	remaining := amount
	take := func(available decimal.Decimal) decimal.Decimal {
		used := decimal.Min(available, remaining)
		remaining = remaining.Sub(used)
		return available.Sub(used)
	}
	b.Deposit = take(b.Deposit)
	b.Profit = take(b.Profit)
	b.Bonus = take(b.Bonus)
	return b, nil
}
