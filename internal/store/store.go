package store

import (
	"context"
	"errors"

	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateAccount       = errors.New("account with this email already exists")
	ErrDuplicateName          = errors.New("name is already in use")
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrPlanNotFound           = errors.New("investment plan not found")
	ErrPlanInUse              = errors.New("investment plan is referenced by positions")
	ErrPositionNotFound       = errors.New("investment position not found")
	ErrExpertNotFound         = errors.New("copy expert not found")
	ErrProviderNotFound       = errors.New("signal provider not found")
	ErrAddressNotFound        = errors.New("deposit address not found")
	ErrNotificationNotFound   = errors.New("notification not found")
)

// CreateAccountParams contains the parameters for registering an account holder.
type CreateAccountParams struct {
	Id    string // optional, generated when empty
	Name  string
	Email string
	Role  models.Role
}

// AccountUpdate is an administrator's edit of account controls. Nil fields are left unchanged.
type AccountUpdate struct {
	BalanceDeposit  *decimal.Decimal
	BalanceProfit   *decimal.Decimal
	BalanceBonus    *decimal.Decimal
	CanTrade        *bool
	CanWithdraw     *bool
	RequiredTrades  *int
	CompletedTrades *int
	WithdrawalCode  *string
	TaxCode         *string
	KYCStatus       *models.KYCStatus
	Status          *models.AccountStatus
}

// KYCSubmission carries the object-storage URLs of an uploaded identity document and selfie.
type KYCSubmission struct {
	UserId       string
	DocumentType string
	DocumentURL  string
	SelfieURL    string
}

type KYCReview struct {
	UserId  string
	AdminId string
	Status  models.KYCStatus
	Notes   string
}

// DepositParams is a proposed deposit. A non-empty IdempotencyKey makes
// resubmission return the original entry instead of creating a new one.
type DepositParams struct {
	UserId          string
	Amount          decimal.Decimal
	CryptoType      string
	TransactionHash string
	IdempotencyKey  string
}

type WithdrawalParams struct {
	UserId         string
	Amount         decimal.Decimal
	CryptoType     string
	WalletAddress  string
	WithdrawalCode string
	TaxCode        string
	IdempotencyKey string
}

// ReviewParams moves a ledger entry along its lifecycle
type ReviewParams struct {
	EntryId string
	AdminId string
	Status  models.EntryStatus
	Notes   string
}

type EntryFilter struct {
	UserId string
	Kind   models.EntryKind
	Status models.EntryStatus
	Limit  int
	Offset int
}

type InvestParams struct {
	UserId string
	PlanId string
	Amount decimal.Decimal
}

type CopyTradeParams struct {
	UserId   string
	ExpertId string
	Amount   decimal.Decimal
}

type SignalSubscribeParams struct {
	UserId     string
	ProviderId string
}

type DepositAddressParams struct {
	Symbol   string
	Name     string
	Network  string
	Address  string
	IsActive bool
}

type NotificationParams struct {
	UserId  string
	Title   string
	Message string
	Type    string
	Link    string
}

// TradeParams records a closed trade. A nil ProfitLoss is derived from the
// entry and exit prices.
type TradeParams struct {
	UserId     string
	AdminId    string
	Symbol     string
	Side       models.TradeSide
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	ProfitLoss *decimal.Decimal
}

// LedgerStore defines the contract every backend must satisfy. Every method
// that moves money evaluates its preconditions and persists the result in a
// single transaction; a failed precondition is returned as a *ledger.Rejection.
type LedgerStore interface {
	// --- Accounts ---
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, accountId string, update AccountUpdate) (*models.Account, error)
	RecordCompletedTrade(ctx context.Context, params TradeParams) (*models.Trade, error)
	ListTrades(ctx context.Context, userId string, limit int) ([]models.Trade, error)
	SubmitKYC(ctx context.Context, params KYCSubmission) (*models.Account, error)
	ReviewKYC(ctx context.Context, params KYCReview) (*models.Account, error)

	// --- Ledger entries ---
	CreateDeposit(ctx context.Context, params DepositParams) (*models.LedgerEntry, error)
	CreateWithdrawal(ctx context.Context, params WithdrawalParams) (*models.LedgerEntry, error)
	AttachDepositProof(ctx context.Context, userId, entryId, proofURL string) (*models.LedgerEntry, error)
	GetEntry(ctx context.Context, entryId string) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]models.LedgerEntry, error)
	ReviewEntry(ctx context.Context, params ReviewParams) (*models.LedgerEntry, error)

	// --- Plans and positions ---
	CreatePlan(ctx context.Context, plan models.InvestmentPlan) (*models.InvestmentPlan, error)
	UpdatePlan(ctx context.Context, plan models.InvestmentPlan) (*models.InvestmentPlan, error)
	SetPlanActive(ctx context.Context, planId string, active bool) (*models.InvestmentPlan, error)
	DeletePlan(ctx context.Context, planId string) error
	GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error)
	OpenPosition(ctx context.Context, params InvestParams) (*models.InvestmentPosition, error)
	ListPositions(ctx context.Context, userId string) ([]models.InvestmentPosition, error)
	SetAccruedReturn(ctx context.Context, positionId string, amount decimal.Decimal) (*models.InvestmentPosition, error)
	ClosePosition(ctx context.Context, positionId string, status models.PositionStatus) (*models.InvestmentPosition, error)

	// --- Copy trading and signals ---
	CreateExpert(ctx context.Context, expert models.CopyExpert) (*models.CopyExpert, error)
	SetExpertActive(ctx context.Context, expertId string, active bool) (*models.CopyExpert, error)
	ListExperts(ctx context.Context, activeOnly bool) ([]models.CopyExpert, error)
	CopyExpert(ctx context.Context, params CopyTradeParams) (*models.CopySubscription, error)
	CreateSignalProvider(ctx context.Context, provider models.SignalProvider) (*models.SignalProvider, error)
	SetSignalProviderActive(ctx context.Context, providerId string, active bool) (*models.SignalProvider, error)
	ListSignalProviders(ctx context.Context, activeOnly bool) ([]models.SignalProvider, error)
	SubscribeSignal(ctx context.Context, params SignalSubscribeParams) (*models.SignalSubscription, error)

	// --- Deposit addresses ---
	CreateDepositAddress(ctx context.Context, params DepositAddressParams) (*models.DepositAddress, error)
	UpdateDepositAddress(ctx context.Context, addressId string, params DepositAddressParams) (*models.DepositAddress, error)
	DeleteDepositAddress(ctx context.Context, addressId string) error
	ListDepositAddresses(ctx context.Context, activeOnly bool) ([]models.DepositAddress, error)

	// --- Notifications ---
	CreateNotification(ctx context.Context, params NotificationParams) (*models.Notification, error)
	ListNotifications(ctx context.Context, userId string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userId, notificationId string) error
	Broadcast(ctx context.Context, title, message, kind string) (int, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
