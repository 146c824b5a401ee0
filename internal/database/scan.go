package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"invest-ledger-go/internal/models"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var kycSubmittedAt sql.NullTime
	err := row.Scan(&a.Id, &a.Name, &a.Email, &a.Role, &a.Status, &a.KYCStatus,
		&a.BalanceDeposit, &a.BalanceProfit, &a.BalanceBonus, &a.CanTrade, &a.CanWithdraw,
		&a.RequiredTrades, &a.CompletedTrades, &a.WithdrawalCode, &a.TaxCode,
		&a.KYCDocumentType, &a.KYCDocumentURL, &a.KYCSelfieURL, &kycSubmittedAt,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.KYCSubmittedAt = nullTimePtr(kycSubmittedAt)
	return &a, nil
}

func scanEntry(row rowScanner) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var approvedAt sql.NullTime
	err := row.Scan(&e.Id, &e.UserId, &e.Kind, &e.Status, &e.Amount, &e.Currency, &e.CryptoType,
		&e.WalletAddress, &e.TransactionHash, &e.ProofURL, &e.IdempotencyKey, &e.AdminNotes,
		&e.ApprovedBy, &approvedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ApprovedAt = nullTimePtr(approvedAt)
	return &e, nil
}

func scanPlan(row rowScanner) (*models.InvestmentPlan, error) {
	var p models.InvestmentPlan
	var features string
	err := row.Scan(&p.Id, &p.Name, &p.PlanType, &p.MinAmount, &p.MaxAmount, &p.ROIPercentage,
		&p.DurationDays, &p.Description, &features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("failed to parse features of plan %s: %w", p.Id, err)
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan features: %w", err)
	}
	return string(b), nil
}

func scanPosition(row rowScanner) (*models.InvestmentPosition, error) {
	var p models.InvestmentPosition
	var completedAt sql.NullTime
	err := row.Scan(&p.Id, &p.UserId, &p.PlanId, &p.Amount, &p.ExpectedReturn, &p.CurrentReturn,
		&p.Status, &p.StartDate, &p.EndDate, &completedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CompletedAt = nullTimePtr(completedAt)
	return &p, nil
}

func scanExpert(row rowScanner) (*models.CopyExpert, error) {
	var e models.CopyExpert
	err := row.Scan(&e.Id, &e.DisplayName, &e.Bio, &e.TotalFollowers, &e.SuccessRate,
		&e.TotalProfit, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanProvider(row rowScanner) (*models.SignalProvider, error) {
	var p models.SignalProvider
	err := row.Scan(&p.Id, &p.DisplayName, &p.Description, &p.Price, &p.SuccessRate,
		&p.TotalSignals, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanDepositAddress(row rowScanner) (*models.DepositAddress, error) {
	var a models.DepositAddress
	err := row.Scan(&a.Id, &a.Symbol, &a.Name, &a.Network, &a.Address, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.Id, &n.UserId, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.Link, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.Id, &t.UserId, &t.Symbol, &t.TradeType, &t.Amount, &t.EntryPrice, &t.ExitPrice,
		&t.ProfitLoss, &t.Status, &t.PlacedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// collect drains rows through scan, closing them when done
func collect[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer closeRows(rows)

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		items = append(items, *item)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}
