package database

import (
	"context"
	"database/sql"
	"testing"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func testPolicy() models.PolicyConfig {
	return models.PolicyConfig{
		MinDeposit:          decimal.NewFromInt(100),
		MinWithdrawal:       decimal.NewFromInt(50),
		MinCopyAmount:       decimal.NewFromInt(100),
		WithdrawalMinTrades: 2,
		TradeGate:           models.TradeGateFixed,
		SettleOnApproval:    true,
		Currency:            "USD",
	}
}

func setupTestDb(t *testing.T) (*Service, func()) {
	return setupTestDbWithPolicy(t, testPolicy())
}

func setupTestDbWithPolicy(t *testing.T, policy models.PolicyConfig) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	// Use the actual schema initialization
	service, err := newServiceFromDB(context.Background(), db, policy)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

type accountSeed struct {
	deposit, profit, bonus string
	kyc                    models.KYCStatus
	completedTrades        int
	canWithdraw            bool
	withdrawalCode         string
	taxCode                string
}

func eligibleSeed(deposit string) accountSeed {
	return accountSeed{
		deposit:         deposit,
		profit:          "0",
		bonus:           "0",
		kyc:             models.KYCApproved,
		completedTrades: 2,
		canWithdraw:     true,
	}
}

func seedAccount(t *testing.T, s *Service, email string, seed accountSeed) *models.Account {
	t.Helper()
	ctx := context.Background()

	account, err := s.CreateAccount(ctx, store.CreateAccountParams{Name: "Test User", Email: email})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	if seed.kyc == "" {
		seed.kyc = models.KYCPending
	}
	deposit := decimal.RequireFromString(seed.deposit)
	profit := decimal.RequireFromString(seed.profit)
	bonus := decimal.RequireFromString(seed.bonus)
	account, err = s.UpdateAccount(ctx, account.Id, store.AccountUpdate{
		BalanceDeposit:  &deposit,
		BalanceProfit:   &profit,
		BalanceBonus:    &bonus,
		KYCStatus:       &seed.kyc,
		CompletedTrades: &seed.completedTrades,
		CanWithdraw:     &seed.canWithdraw,
		WithdrawalCode:  &seed.withdrawalCode,
		TaxCode:         &seed.taxCode,
	})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	return account
}

func expectRejection(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected rejection %q, got nil", message)
	}
	r, ok := ledger.AsRejection(err)
	if !ok {
		t.Fatalf("Expected rejection %q, got error: %v", message, err)
	}
	if r.Message != message {
		t.Errorf("Expected rejection %q, got %q", message, r.Message)
	}
}

func expectBalances(t *testing.T, s *Service, accountId, deposit, profit, bonus string) {
	t.Helper()
	account, err := s.GetAccount(context.Background(), accountId)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"deposit", account.BalanceDeposit, deposit},
		{"profit", account.BalanceProfit, profit},
		{"bonus", account.BalanceBonus, bonus},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.expected)) {
			t.Errorf("Expected %s balance %s, got %s", c.name, c.expected, c.got.String())
		}
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: 1}},
		{"no connections", models.DatabaseConfig{Path: "x.db", PingTimeout: 1}},
		{"negative idle", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: 1}},
		{"no ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(ctx, tt.cfg, testPolicy()); err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}
		})
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.initSchema(context.Background()); err != nil {
		t.Fatalf("Second schema initialization failed: %v", err)
	}
	if err := service.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
