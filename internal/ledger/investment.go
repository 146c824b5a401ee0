package ledger

import (
	"time"

	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// InvestmentQuote is the computed effect of an accepted investment
type InvestmentQuote struct {
	Principal      decimal.Decimal
	ExpectedReturn decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
}

// ExpectedReturn returns principal × roi / 100
func ExpectedReturn(principal, roiPercentage decimal.Decimal) decimal.Decimal {
	return principal.Mul(roiPercentage).Div(hundred)
}

// EvaluateInvestment checks a proposed principal against the plan bounds and
// the deposit sub-balance it will be debited from.
func EvaluateInvestment(a *models.Account, plan *models.InvestmentPlan, amount decimal.Decimal, now time.Time) (*InvestmentQuote, error) {
	if !plan.IsActive {
		return nil, Reject(ReasonUnavailable, "This plan is not currently available")
	}

	if amount.LessThan(plan.MinAmount) || amount.GreaterThan(plan.MaxAmount) || !amount.IsPositive() {
		return nil, Reject(ReasonOutOfBounds, "Amount must be between $%s and $%s",
			plan.MinAmount.String(), plan.MaxAmount.String())
	}

	if amount.GreaterThan(a.BalanceDeposit) {
		return nil, Reject(ReasonInsufficientBalance, "Insufficient balance")
	}

	return &InvestmentQuote{
		Principal:      amount,
		ExpectedReturn: ExpectedReturn(amount, plan.ROIPercentage),
		StartDate:      now,
		EndDate:        now.AddDate(0, 0, plan.DurationDays),
	}, nil
}

// ValidatePlan checks an admin-authored plan definition
func ValidatePlan(plan *models.InvestmentPlan) error {
	if plan.Name == "" {
		return Reject(ReasonInvalidAmount, "Plan name is required")
	}
	if !plan.MinAmount.IsPositive() || plan.MaxAmount.LessThan(plan.MinAmount) {
		return Reject(ReasonOutOfBounds, "Plan bounds must satisfy 0 < min <= max")
	}
	if plan.ROIPercentage.IsNegative() {
		return Reject(ReasonInvalidAmount, "ROI percentage cannot be negative")
	}
	if plan.DurationDays <= 0 {
		return Reject(ReasonInvalidAmount, "Duration must be at least one day")
	}
	return nil
}
