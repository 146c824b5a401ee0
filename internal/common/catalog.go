package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Amounts are kept as strings so they parse through decimal rather than float64.
type PlanConfig struct {
	Name          string   `yaml:"name"`
	PlanType      string   `yaml:"plan_type"`
	MinAmount     string   `yaml:"min_amount"`
	MaxAmount     string   `yaml:"max_amount"`
	ROIPercentage string   `yaml:"roi_percentage"`
	DurationDays  int      `yaml:"duration_days"`
	Description   string   `yaml:"description"`
	Features      []string `yaml:"features"`
	Inactive      bool     `yaml:"inactive"`
}

type ExpertConfig struct {
	DisplayName string `yaml:"display_name"`
	Bio         string `yaml:"bio"`
	SuccessRate string `yaml:"success_rate"`
	TotalProfit string `yaml:"total_profit"`
}

type ProviderConfig struct {
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	SuccessRate string `yaml:"success_rate"`
}

type DepositAddressConfig struct {
	Symbol  string `yaml:"symbol"`
	Name    string `yaml:"name"`
	Network string `yaml:"network"`
	Address string `yaml:"address"`
}

type CatalogConfig struct {
	Plans            []PlanConfig           `yaml:"plans"`
	CopyExperts      []ExpertConfig         `yaml:"copy_experts"`
	SignalProviders  []ProviderConfig       `yaml:"signal_providers"`
	DepositAddresses []DepositAddressConfig `yaml:"deposit_addresses"`
}

// Catalog is the parsed, validated form of the catalog file
type Catalog struct {
	Plans            []models.InvestmentPlan
	CopyExperts      []models.CopyExpert
	SignalProviders  []models.SignalProvider
	DepositAddresses []store.DepositAddressParams
}

func LoadCatalog(catalogFile string) (*Catalog, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var config CatalogConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse catalog: %w", err)
	}

	catalog := &Catalog{}

	for i, p := range config.Plans {
		plan := models.InvestmentPlan{
			Name:         p.Name,
			PlanType:     p.PlanType,
			DurationDays: p.DurationDays,
			Description:  p.Description,
			Features:     p.Features,
			IsActive:     !p.Inactive,
		}
		var err error
		if plan.MinAmount, err = parseAmount(p.MinAmount); err != nil {
			return nil, fmt.Errorf("plan at index %d: min_amount: %w", i, err)
		}
		if plan.MaxAmount, err = parseAmount(p.MaxAmount); err != nil {
			return nil, fmt.Errorf("plan at index %d: max_amount: %w", i, err)
		}
		if plan.ROIPercentage, err = parseAmount(p.ROIPercentage); err != nil {
			return nil, fmt.Errorf("plan at index %d: roi_percentage: %w", i, err)
		}
		if err := ledger.ValidatePlan(&plan); err != nil {
			return nil, fmt.Errorf("plan at index %d: %w", i, err)
		}
		catalog.Plans = append(catalog.Plans, plan)
	}

	for i, e := range config.CopyExperts {
		if e.DisplayName == "" {
			return nil, fmt.Errorf("copy expert at index %d missing display_name", i)
		}
		expert := models.CopyExpert{DisplayName: e.DisplayName, Bio: e.Bio, IsActive: true}
		var err error
		if expert.SuccessRate, err = parseAmount(e.SuccessRate); err != nil {
			return nil, fmt.Errorf("copy expert at index %d: success_rate: %w", i, err)
		}
		if expert.TotalProfit, err = parseAmount(e.TotalProfit); err != nil {
			return nil, fmt.Errorf("copy expert at index %d: total_profit: %w", i, err)
		}
		catalog.CopyExperts = append(catalog.CopyExperts, expert)
	}

	for i, p := range config.SignalProviders {
		if p.DisplayName == "" {
			return nil, fmt.Errorf("signal provider at index %d missing display_name", i)
		}
		provider := models.SignalProvider{DisplayName: p.DisplayName, Description: p.Description, IsActive: true}
		var err error
		if provider.Price, err = parseAmount(p.Price); err != nil {
			return nil, fmt.Errorf("signal provider at index %d: price: %w", i, err)
		}
		if provider.SuccessRate, err = parseAmount(p.SuccessRate); err != nil {
			return nil, fmt.Errorf("signal provider at index %d: success_rate: %w", i, err)
		}
		catalog.SignalProviders = append(catalog.SignalProviders, provider)
	}

	for i, a := range config.DepositAddresses {
		if a.Symbol == "" {
			return nil, fmt.Errorf("deposit address at index %d missing symbol", i)
		}
		if a.Network == "" {
			return nil, fmt.Errorf("deposit address at index %d missing network", i)
		}
		if a.Address == "" {
			return nil, fmt.Errorf("deposit address at index %d missing address", i)
		}
		catalog.DepositAddresses = append(catalog.DepositAddresses, store.DepositAddressParams{
			Symbol: a.Symbol, Name: a.Name, Network: a.Network, Address: a.Address, IsActive: true,
		})
	}

	return catalog, nil
}

// empty means zero
func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative, got %s", d.String())
	}
	return d, nil
}

// SeedSummary counts the catalog rows created by SeedCatalog
type SeedSummary struct {
	Plans            int
	CopyExperts      int
	SignalProviders  int
	DepositAddresses int
}

// SeedCatalog creates every catalog entry that does not already exist. Plans,
// experts and providers match by name; deposit addresses by symbol and network.
func SeedCatalog(ctx context.Context, db store.LedgerStore, catalog *Catalog) (SeedSummary, error) {
	var summary SeedSummary

	plans, err := db.ListPlans(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("failed to list plans: %w", err)
	}
	planNames := make(map[string]bool, len(plans))
	for _, p := range plans {
		planNames[p.Name] = true
	}
	for _, plan := range catalog.Plans {
		if planNames[plan.Name] {
			continue
		}
		if _, err := db.CreatePlan(ctx, plan); err != nil {
			return summary, fmt.Errorf("failed to create plan %s: %w", plan.Name, err)
		}
		zap.L().Info("Seeded investment plan", zap.String("name", plan.Name))
		summary.Plans++
	}

	experts, err := db.ListExperts(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("failed to list copy experts: %w", err)
	}
	expertNames := make(map[string]bool, len(experts))
	for _, e := range experts {
		expertNames[e.DisplayName] = true
	}
	for _, expert := range catalog.CopyExperts {
		if expertNames[expert.DisplayName] {
			continue
		}
		if _, err := db.CreateExpert(ctx, expert); err != nil {
			return summary, fmt.Errorf("failed to create copy expert %s: %w", expert.DisplayName, err)
		}
		zap.L().Info("Seeded copy expert", zap.String("name", expert.DisplayName))
		summary.CopyExperts++
	}

	providers, err := db.ListSignalProviders(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("failed to list signal providers: %w", err)
	}
	providerNames := make(map[string]bool, len(providers))
	for _, p := range providers {
		providerNames[p.DisplayName] = true
	}
	for _, provider := range catalog.SignalProviders {
		if providerNames[provider.DisplayName] {
			continue
		}
		if _, err := db.CreateSignalProvider(ctx, provider); err != nil {
			return summary, fmt.Errorf("failed to create signal provider %s: %w", provider.DisplayName, err)
		}
		zap.L().Info("Seeded signal provider", zap.String("name", provider.DisplayName))
		summary.SignalProviders++
	}

	addresses, err := db.ListDepositAddresses(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("failed to list deposit addresses: %w", err)
	}
	known := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		known[addressKey(a.Symbol, a.Network)] = true
	}
	for _, params := range catalog.DepositAddresses {
		if known[addressKey(params.Symbol, params.Network)] {
			continue
		}
		if _, err := db.CreateDepositAddress(ctx, params); err != nil {
			return summary, fmt.Errorf("failed to create deposit address %s-%s: %w", params.Symbol, params.Network, err)
		}
		zap.L().Info("Seeded deposit address",
			zap.String("symbol", params.Symbol),
			zap.String("network", params.Network))
		summary.DepositAddresses++
	}

	return summary, nil
}

func addressKey(symbol, network string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(symbol), network)
}
