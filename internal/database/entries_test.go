package database

import (
	"context"
	"errors"
	"testing"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateDeposit_BelowMinimum(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := seedAccount(t, service, "dep@example.com", eligibleSeed("0"))

	_, err := service.CreateDeposit(context.Background(), store.DepositParams{
		UserId: account.Id,
		Amount: decimal.RequireFromString("99.99"),
	})
	expectRejection(t, err, "Minimum deposit amount is $100")

	entries, err := service.ListEntries(context.Background(), store.EntryFilter{UserId: account.Id})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after rejection, got %d", len(entries))
	}
}

func TestCreateDeposit_TwiceWithoutKeyCreatesTwoEntries(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "dep@example.com", eligibleSeed("0"))
	params := store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(250), CryptoType: "BTC"}

	first, err := service.CreateDeposit(ctx, params)
	if err != nil {
		t.Fatalf("First CreateDeposit failed: %v", err)
	}
	second, err := service.CreateDeposit(ctx, params)
	if err != nil {
		t.Fatalf("Second CreateDeposit failed: %v", err)
	}

	if first.Id == second.Id {
		t.Errorf("Expected two distinct entries, got the same id %s", first.Id)
	}
	for _, e := range []*models.LedgerEntry{first, second} {
		if e.Status != models.EntryPending {
			t.Errorf("Expected pending deposit, got %s", e.Status)
		}
	}

	// No balance change until review
	expectBalances(t, service, account.Id, "0", "0", "0")
}

func TestCreateDeposit_IdempotencyKey(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "dep@example.com", eligibleSeed("0"))
	params := store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(500), IdempotencyKey: "form-123"}

	first, err := service.CreateDeposit(ctx, params)
	if err != nil {
		t.Fatalf("First CreateDeposit failed: %v", err)
	}
	second, err := service.CreateDeposit(ctx, params)
	if err != nil {
		t.Fatalf("Second CreateDeposit failed: %v", err)
	}
	if first.Id != second.Id {
		t.Errorf("Expected original entry %s, got %s", first.Id, second.Id)
	}

	entries, err := service.ListEntries(ctx, store.EntryFilter{UserId: account.Id, Kind: models.KindDeposit})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestCreateDeposit_UnknownAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.CreateDeposit(context.Background(), store.DepositParams{UserId: "ghost", Amount: decimal.NewFromInt(100)})
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateWithdrawal_Gates(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	tradesShort := eligibleSeed("500")
	tradesShort.completedTrades = 1
	acct := seedAccount(t, service, "trades@example.com", tradesShort)
	_, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: acct.Id, Amount: decimal.NewFromInt(60), WalletAddress: "bc1q"})
	expectRejection(t, err, "You need to complete at least 2 trades before withdrawing.")

	poor := seedAccount(t, service, "poor@example.com", eligibleSeed("40"))
	_, err = service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: poor.Id, Amount: decimal.NewFromInt(50), WalletAddress: "bc1q"})
	expectRejection(t, err, "Insufficient balance")

	coded := eligibleSeed("500")
	coded.withdrawalCode = "WD-778"
	coded.taxCode = "TAX-1"
	acct = seedAccount(t, service, "coded@example.com", coded)
	_, err = service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId: acct.Id, Amount: decimal.NewFromInt(60), WalletAddress: "bc1q", WithdrawalCode: "WD-778", TaxCode: "TAX-2",
	})
	expectRejection(t, err, "Invalid Tax/MFI code. Please enter the correct code to proceed.")

	entry, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId: acct.Id, Amount: decimal.NewFromInt(60), WalletAddress: "  bc1q  ", WithdrawalCode: "WD-778", TaxCode: "TAX-1",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	if entry.Status != models.EntryPending || entry.Kind != models.KindWithdrawal {
		t.Errorf("Expected pending withdrawal, got %s %s", entry.Status, entry.Kind)
	}
	if entry.WalletAddress != "bc1q" {
		t.Errorf("Expected trimmed address, got %q", entry.WalletAddress)
	}
	expectBalances(t, service, acct.Id, "500", "0", "0")
}

func TestReviewEntry_DepositApprovalCredits(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "dep@example.com", eligibleSeed("10"))
	entry, err := service.CreateDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.RequireFromString("150.25")})
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	reviewed, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryApproved})
	if err != nil {
		t.Fatalf("ReviewEntry failed: %v", err)
	}
	if reviewed.Status != models.EntryApproved || reviewed.ApprovedBy != "admin-1" || reviewed.ApprovedAt == nil {
		t.Errorf("Expected approved entry with approver, got %+v", reviewed)
	}
	expectBalances(t, service, account.Id, "160.25", "0", "0")

	notes, err := service.ListNotifications(ctx, account.Id, 10)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Deposit Approved" {
		t.Errorf("Expected one approval notification, got %+v", notes)
	}

	// Terminal states are immutable
	_, err = service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryRejected})
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
	expectBalances(t, service, account.Id, "160.25", "0", "0")
}

func TestReviewEntry_WithdrawalDebitOrder(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	seed := eligibleSeed("100")
	seed.profit = "50"
	seed.bonus = "30"
	account := seedAccount(t, service, "wd@example.com", seed)

	entry, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: account.Id, Amount: decimal.NewFromInt(120), WalletAddress: "bc1q"})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	if _, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryProcessing}); err != nil {
		t.Fatalf("Move to processing failed: %v", err)
	}
	expectBalances(t, service, account.Id, "100", "50", "30")

	if _, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryApproved}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	expectBalances(t, service, account.Id, "0", "30", "30")
}

func TestReviewEntry_WithdrawalInsufficientAtApproval(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "wd@example.com", eligibleSeed("100"))

	first, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: account.Id, Amount: decimal.NewFromInt(80), WalletAddress: "bc1q"})
	if err != nil {
		t.Fatalf("First CreateWithdrawal failed: %v", err)
	}
	second, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: account.Id, Amount: decimal.NewFromInt(80), WalletAddress: "bc1q"})
	if err != nil {
		t.Fatalf("Second CreateWithdrawal failed: %v", err)
	}

	if _, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: first.Id, AdminId: "admin-1", Status: models.EntryApproved}); err != nil {
		t.Fatalf("Approve first failed: %v", err)
	}

	_, err = service.ReviewEntry(ctx, store.ReviewParams{EntryId: second.Id, AdminId: "admin-1", Status: models.EntryApproved})
	expectRejection(t, err, "Insufficient balance")

	still, err := service.GetEntry(ctx, second.Id)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if still.Status != models.EntryPending {
		t.Errorf("Expected second withdrawal to stay pending, got %s", still.Status)
	}
	expectBalances(t, service, account.Id, "20", "0", "0")
}

func TestReviewEntry_StatusOnlyWithoutSettlement(t *testing.T) {
	policy := testPolicy()
	policy.SettleOnApproval = false
	service, cleanup := setupTestDbWithPolicy(t, policy)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "dep@example.com", eligibleSeed("0"))
	entry, err := service.CreateDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	if _, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryApproved}); err != nil {
		t.Fatalf("ReviewEntry failed: %v", err)
	}
	expectBalances(t, service, account.Id, "0", "0", "0")
}

func TestReviewEntry_RejectKeepsBalances(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "wd@example.com", eligibleSeed("100"))
	entry, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{UserId: account.Id, Amount: decimal.NewFromInt(60), WalletAddress: "bc1q"})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	reviewed, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: entry.Id, AdminId: "admin-1", Status: models.EntryRejected, Notes: "address mismatch"})
	if err != nil {
		t.Fatalf("ReviewEntry failed: %v", err)
	}
	if reviewed.AdminNotes != "address mismatch" {
		t.Errorf("Expected admin notes to be stored, got %q", reviewed.AdminNotes)
	}
	expectBalances(t, service, account.Id, "100", "0", "0")

	_, err = service.ReviewEntry(ctx, store.ReviewParams{EntryId: "missing", Status: models.EntryApproved})
	if !errors.Is(err, store.ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}

func TestAttachDepositProof(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	owner := seedAccount(t, service, "owner@example.com", eligibleSeed("0"))
	other := seedAccount(t, service, "other@example.com", eligibleSeed("0"))
	entry, err := service.CreateDeposit(ctx, store.DepositParams{UserId: owner.Id, Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	if _, err := service.AttachDepositProof(ctx, other.Id, entry.Id, "http://files/x.png"); !errors.Is(err, store.ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound for another user's entry, got %v", err)
	}

	updated, err := service.AttachDepositProof(ctx, owner.Id, entry.Id, "http://files/x.png")
	if err != nil {
		t.Fatalf("AttachDepositProof failed: %v", err)
	}
	if updated.ProofURL != "http://files/x.png" {
		t.Errorf("Expected proof url to be stored, got %q", updated.ProofURL)
	}
}

func TestListEntries_Pagination(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, service, "dep@example.com", eligibleSeed("0"))
	for i := 0; i < 5; i++ {
		if _, err := service.CreateDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(int64(100 + i))}); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}
	}

	page, err := service.ListEntries(ctx, store.EntryFilter{UserId: account.Id, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(page))
	}

	pending, err := service.ListEntries(ctx, store.EntryFilter{Status: models.EntryPending, Limit: 1000})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(pending) != 5 {
		t.Errorf("Expected 5 pending entries, got %d", len(pending))
	}
}
