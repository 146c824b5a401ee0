/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts  int
	fundedAccounts int
	totalSpendable decimal.Decimal
}

func printAccountHeader(account models.Account) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", account.Name, account.Email)
	fmt.Printf("│  ID: %s  role=%s  kyc=%s  trades=%d/%d (v%d)\n",
		account.Id, account.Role, account.KYCStatus, account.CompletedTrades, account.RequiredTrades, account.Version)
	common.PrintBoxSeparator(78)
}

func printBalances(summary models.BalanceSummary, currency string) {
	common.PrintBalanceLine("deposit", summary.Deposit, currency, false)
	common.PrintBalanceLine("profit", summary.Profit, currency, false)
	common.PrintBalanceLine("bonus", summary.Bonus, currency, false)
	common.PrintBalanceLine("spendable", summary.Spendable, currency, true)
}

func processAccount(ctx context.Context, account models.Account, dbService *database.Service, currency string) (decimal.Decimal, error) {
	summary, err := dbService.GetBalances(ctx, account.Id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balances: %w", err)
	}

	printAccountHeader(account)
	printBalances(summary, currency)

	return summary.Spendable, nil
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []models.Account, dbService *database.Service, currency string, logger *zap.Logger) balanceStats {
	stats := balanceStats{totalSpendable: decimal.Zero}

	for _, account := range accounts {
		stats.totalAccounts++

		spendable, err := processAccount(ctx, account, dbService, currency)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("account_id", account.Id),
				zap.String("email", account.Email),
				zap.Error(err))
			continue
		}

		if spendable.IsPositive() {
			stats.fundedAccounts++
			stats.totalSpendable = stats.totalSpendable.Add(spendable)
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific account email (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := common.LookupAccounts(ctx, dbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to look up accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.DefaultWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, dbService, cfg.Policy.Currency, logger)

	summary := fmt.Sprintf("SUMMARY: %d funded accounts of %d queried, %s spendable in total",
		stats.fundedAccounts, stats.totalAccounts, common.FormatMoney(stats.totalSpendable, cfg.Policy.Currency))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("funded_accounts", stats.fundedAccounts),
		zap.String("total_spendable", stats.totalSpendable.String()))
}
