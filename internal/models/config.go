package models

import (
	"net/netip"
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Policy      PolicyConfig
	CatalogFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	JWTSecret       string
	AdminPin        string
	AdminPinHash    string
	PinAttempts     int
	PinWindow       time.Duration
	TrustedProxies  []netip.Prefix
	UploadDir       string
	PublicBaseURL   string
	MaxUploadBytes  int64
}

// TradeGateMode selects where the withdrawal trade-count threshold comes from
type TradeGateMode string

const (
	TradeGateFixed   TradeGateMode = "fixed"
	TradeGateAccount TradeGateMode = "account"
)

// PolicyConfig holds the static thresholds used by the eligibility evaluator
type PolicyConfig struct {
	MinDeposit          decimal.Decimal
	MinWithdrawal       decimal.Decimal
	MinCopyAmount       decimal.Decimal
	WithdrawalMinTrades int
	TradeGate           TradeGateMode
	SettleOnApproval    bool
	Currency            string
}
