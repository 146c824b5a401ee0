package api

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/metrics"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/objectstore"
	"invest-ledger-go/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*LedgerService, *database.Service, *metrics.Metrics) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(dir, "api.db"),
		MaxOpenConns: 1,
		PingTimeout:  time.Second,
		BusyTimeout:  time.Second,
	}, models.PolicyConfig{
		MinDeposit:          decimal.NewFromInt(100),
		MinWithdrawal:       decimal.NewFromInt(50),
		MinCopyAmount:       decimal.NewFromInt(100),
		WithdrawalMinTrades: 2,
		TradeGate:           models.TradeGateFixed,
		SettleOnApproval:    true,
		Currency:            "USD",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	files, err := objectstore.New(filepath.Join(dir, "uploads"), "http://files.test")
	require.NoError(t, err)

	m := metrics.New()
	return NewLedgerService(db, files, m).WithMaxUploadBytes(64), db, m
}

func createFundedAccount(t *testing.T, db *database.Service, email, deposit string) *models.Account {
	t.Helper()
	ctx := context.Background()
	account, err := db.CreateAccount(ctx, store.CreateAccountParams{Name: "Test", Email: email})
	require.NoError(t, err)

	amount := decimal.RequireFromString(deposit)
	approved := models.KYCApproved
	completed := 2
	account, err = db.UpdateAccount(ctx, account.Id, store.AccountUpdate{
		BalanceDeposit:  &amount,
		KYCStatus:       &approved,
		CompletedTrades: &completed,
	})
	require.NoError(t, err)
	return account
}

func TestSubmitDeposit_RejectionIsAResult(t *testing.T) {
	service, db, m := setupService(t)
	ctx := context.Background()
	account := createFundedAccount(t, db, "dep@example.com", "0")

	result, err := service.SubmitDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(99)})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Minimum deposit amount is $100", result.Error)
	require.Equal(t, float64(1), testutil.ToFloat64(m.Rejections.WithLabelValues(opDeposit, "below_minimum")))

	result, err = service.SubmitDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(100), CryptoType: "USDT"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, models.EntryPending, result.Entry.Status)

	// balances move only on approval
	balances, err := service.GetBalances(ctx, account.Id)
	require.NoError(t, err)
	require.True(t, balances.Deposit.IsZero())

	_, err = service.SubmitDeposit(ctx, store.DepositParams{UserId: "ghost", Amount: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestSubmitWithdrawal_InsufficientAndApproval(t *testing.T) {
	service, db, m := setupService(t)
	ctx := context.Background()
	account := createFundedAccount(t, db, "wd@example.com", "40")

	result, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: account.Id, Amount: decimal.NewFromInt(50), WalletAddress: "bc1q",
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Insufficient balance", result.Error)

	more := decimal.NewFromInt(200)
	_, err = db.UpdateAccount(ctx, account.Id, store.AccountUpdate{BalanceDeposit: &more})
	require.NoError(t, err)

	result, err = service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: account.Id, Amount: decimal.NewFromInt(150), WalletAddress: "  bc1q  ",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "bc1q", result.Entry.WalletAddress)

	reviewed, err := service.ReviewEntry(ctx, store.ReviewParams{EntryId: result.Entry.Id, AdminId: "admin", Status: models.EntryApproved})
	require.NoError(t, err)
	require.True(t, reviewed.Success)
	require.Equal(t, float64(1), testutil.ToFloat64(m.Reviews.WithLabelValues("withdrawal", "approved")))

	balances, err := service.GetBalances(ctx, account.Id)
	require.NoError(t, err)
	require.Equal(t, "50", balances.Deposit.String())

	// a second decision on a terminal entry is an invalid transition, not a rejection
	_, err = service.ReviewEntry(ctx, store.ReviewParams{EntryId: result.Entry.Id, AdminId: "admin", Status: models.EntryRejected})
	require.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestInvest_ExpectedReturn(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	plan, err := db.CreatePlan(ctx, models.InvestmentPlan{
		Name: "Silver", PlanType: "silver", MinAmount: decimal.NewFromInt(500), MaxAmount: decimal.NewFromInt(10000),
		ROIPercentage: decimal.NewFromInt(15), DurationDays: 30, IsActive: true,
	})
	require.NoError(t, err)
	account := createFundedAccount(t, db, "inv@example.com", "2000")

	result, err := service.Invest(ctx, store.InvestParams{UserId: account.Id, PlanId: plan.Id, Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "150", result.Position.ExpectedReturn.String())
	require.Equal(t, 30*24*time.Hour, result.Position.EndDate.Sub(result.Position.StartDate))

	result, err = service.Invest(ctx, store.InvestParams{UserId: account.Id, PlanId: plan.Id, Amount: decimal.NewFromInt(20000)})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Amount must be between $500 and $10000", result.Error)

	positions, err := service.ListPositions(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, positions, 1)
}

func TestCopyAndSignalResults(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	expert, err := db.CreateExpert(ctx, models.CopyExpert{DisplayName: "Alpha", IsActive: true})
	require.NoError(t, err)
	provider, err := db.CreateSignalProvider(ctx, models.SignalProvider{DisplayName: "Calls", Price: decimal.NewFromInt(25), IsActive: true})
	require.NoError(t, err)
	account := createFundedAccount(t, db, "copy@example.com", "150")

	copied, err := service.CopyExpert(ctx, store.CopyTradeParams{UserId: account.Id, ExpertId: expert.Id, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.True(t, copied.Success)
	require.NotEmpty(t, copied.SubscriptionId)

	again, err := service.CopyExpert(ctx, store.CopyTradeParams{UserId: account.Id, ExpertId: expert.Id, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.False(t, again.Success)

	signal, err := service.SubscribeSignal(ctx, store.SignalSubscribeParams{UserId: account.Id, ProviderId: provider.Id})
	require.NoError(t, err)
	require.True(t, signal.Success)
	require.Equal(t, "25", signal.Amount.String())

	balances, err := service.GetBalances(ctx, account.Id)
	require.NoError(t, err)
	require.Equal(t, "25", balances.Deposit.String())

	experts, err := service.ListExperts(ctx)
	require.NoError(t, err)
	require.Len(t, experts, 1)
	require.Equal(t, 1, experts[0].TotalFollowers)
}

func TestSubmitKYC_UploadsAndGuardsResubmission(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	account, err := db.CreateAccount(ctx, store.CreateAccountParams{Name: "Kyc", Email: "kyc@example.com"})
	require.NoError(t, err)

	tooBig := Upload{Filename: "id.png", Body: strings.NewReader(strings.Repeat("x", 65))}
	result, err := service.SubmitKYC(ctx, account.Id, "passport", tooBig, Upload{Filename: "me.png", Body: strings.NewReader("selfie")})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "File is too large", result.Error)

	result, err = service.SubmitKYC(ctx, account.Id, "passport",
		Upload{Filename: "id.png", Body: strings.NewReader("document")},
		Upload{Filename: "me.jpg", Body: strings.NewReader("selfie")})
	require.NoError(t, err)
	require.True(t, result.Success)

	stored, err := db.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored.KYCDocumentURL, "http://files.test/files/kyc-documents/"+account.Id+"/"))

	result, err = service.SubmitKYC(ctx, account.Id, "passport",
		Upload{Filename: "id.png", Body: strings.NewReader("document")},
		Upload{Filename: "me.jpg", Body: strings.NewReader("selfie")})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Your documents are already under review", result.Error)
}

func TestAttachDepositProof(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	owner := createFundedAccount(t, db, "owner@example.com", "0")
	other := createFundedAccount(t, db, "other@example.com", "0")

	submitted, err := service.SubmitDeposit(ctx, store.DepositParams{UserId: owner.Id, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	_, err = service.AttachDepositProof(ctx, other.Id, submitted.Entry.Id, Upload{Filename: "proof.pdf", Body: strings.NewReader("pdf")})
	require.ErrorIs(t, err, store.ErrEntryNotFound)

	result, err := service.AttachDepositProof(ctx, owner.Id, submitted.Entry.Id, Upload{Filename: "proof.pdf", Body: strings.NewReader("pdf")})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.Entry.ProofURL, "/files/deposit-proofs/")

	_, err = service.ReviewEntry(ctx, store.ReviewParams{EntryId: submitted.Entry.Id, AdminId: "admin", Status: models.EntryApproved})
	require.NoError(t, err)

	result, err = service.AttachDepositProof(ctx, owner.Id, submitted.Entry.Id, Upload{Filename: "proof.pdf", Body: strings.NewReader("pdf")})
	require.NoError(t, err)
	require.False(t, result.Success)
}

func TestGetEntryHistory_ClampsLimit(t *testing.T) {
	service, db, _ := setupService(t)
	ctx := context.Background()
	account := createFundedAccount(t, db, "hist@example.com", "0")

	for i := 0; i < 3; i++ {
		_, err := service.SubmitDeposit(ctx, store.DepositParams{UserId: account.Id, Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}

	history, err := service.GetEntryHistory(ctx, account.Id, models.KindDeposit, 1000, -5)
	require.NoError(t, err)
	require.Len(t, history, 3)

	page, err := service.GetEntryHistory(ctx, account.Id, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)

	view, err := service.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	require.False(t, view.HasWithdrawCode)
	require.Equal(t, models.KYCApproved, view.KYCStatus)
}
