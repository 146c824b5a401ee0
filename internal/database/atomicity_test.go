package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func mockService(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	service := &Service{
		db:               db,
		policy:           ledger.PolicyFromConfig(testPolicy()),
		settleOnApproval: true,
		currency:         "USD",
	}
	return service, mock, func() { db.Close() }
}

func mockAccountRows(deposit string, version int64) *sqlmock.Rows {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "email", "role", "account_status", "kyc_status",
		"balance_deposit", "balance_profit", "balance_bonus", "can_trade", "can_withdraw",
		"required_trades", "completed_trades", "withdrawal_code", "tax_code",
		"kyc_document_type", "kyc_document_url", "kyc_selfie_url", "kyc_submitted_at",
		"version", "created_at", "updated_at",
	}).AddRow(
		"user-1", "Test", "t@example.com", "user", "active", "approved",
		deposit, "0", "0", true, true,
		10, 2, "", "",
		"", "", "", nil,
		version, ts, ts,
	)
}

func mockPlanRows() *sqlmock.Rows {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "plan_type", "min_amount", "max_amount", "roi_percentage", "duration_days",
		"description", "features", "is_active", "created_at", "updated_at",
	}).AddRow("plan-1", "Silver", "silver", "500", "10000", "15", 30, "", "[]", true, ts, ts)
}

func TestOpenPosition_FailedDebitRollsBack(t *testing.T) {
	service, mock, cleanup := mockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts").WithArgs("user-1").WillReturnRows(mockAccountRows("2000", 4))
	mock.ExpectQuery("FROM investment_plans").WithArgs("plan-1").WillReturnRows(mockPlanRows())
	mock.ExpectExec("INSERT INTO investments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE accounts").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err := service.OpenPosition(context.Background(), store.InvestParams{
		UserId: "user-1", PlanId: "plan-1", Amount: decimal.NewFromInt(1000),
	})
	if err == nil {
		t.Fatalf("Expected error from failed debit, got nil")
	}
	if _, ok := ledger.AsRejection(err); ok {
		t.Errorf("Expected infrastructure error, got rejection %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpenPosition_StaleVersionRollsBack(t *testing.T) {
	service, mock, cleanup := mockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts").WithArgs("user-1").WillReturnRows(mockAccountRows("2000", 4))
	mock.ExpectQuery("FROM investment_plans").WithArgs("plan-1").WillReturnRows(mockPlanRows())
	mock.ExpectExec("INSERT INTO investments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE accounts").
		WithArgs("1000", "0", "0", sqlmock.AnyArg(), "user-1", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := service.OpenPosition(context.Background(), store.InvestParams{
		UserId: "user-1", PlanId: "plan-1", Amount: decimal.NewFromInt(1000),
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCopyExpert_RejectionWritesNothing(t *testing.T) {
	service, mock, cleanup := mockService(t)
	defer cleanup()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts").WithArgs("user-1").WillReturnRows(mockAccountRows("50", 1))
	mock.ExpectQuery("FROM copy_experts").WithArgs("expert-1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "display_name", "bio", "total_followers", "success_rate", "total_profit", "is_active", "created_at"}).
			AddRow("expert-1", "Alpha", "", 3, "90", "1000", true, ts))
	mock.ExpectQuery("FROM copy_subscriptions").WithArgs("user-1", "expert-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := service.CopyExpert(context.Background(), store.CopyTradeParams{
		UserId: "user-1", ExpertId: "expert-1", Amount: decimal.NewFromInt(100),
	})
	expectRejection(t, err, "Insufficient balance")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
