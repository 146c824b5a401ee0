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
	"sort"

	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/models"

	"go.uber.org/zap"
)

type reportStats struct {
	totalAddresses  int
	activeAddresses int
	symbols         int
}

func groupBySymbol(addresses []models.DepositAddress) ([]string, map[string][]models.DepositAddress) {
	groups := make(map[string][]models.DepositAddress)
	for _, addr := range addresses {
		groups[addr.Symbol] = append(groups[addr.Symbol], addr)
	}
	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, groups
}

func printSymbolHeader(symbol string, addresses []models.DepositAddress) {
	fmt.Printf("\n┌─ %s (%s)\n", symbol, addresses[0].Name)
	fmt.Printf("│  Addresses: %d\n", len(addresses))
	common.PrintBoxSeparator(98)
}

func printAddress(addr models.DepositAddress, isLast bool) {
	state := "active"
	if !addr.IsActive {
		state = "inactive"
	}
	fmt.Printf("%s %-20s → %s\n", common.BoxPrefix(isLast), addr.Network, addr.Address)
	fmt.Printf("%s   ID: %s (%s)\n", common.BoxDetailPrefix(isLast), addr.Id, state)
}

func printReport(addresses []models.DepositAddress) reportStats {
	symbols, groups := groupBySymbol(addresses)
	stats := reportStats{symbols: len(symbols)}

	for _, symbol := range symbols {
		group := groups[symbol]
		printSymbolHeader(symbol, group)
		for i, addr := range group {
			printAddress(addr, i == len(group)-1)
			stats.totalAddresses++
			if addr.IsActive {
				stats.activeAddresses++
			}
		}
	}
	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	activeOnly := flag.Bool("active", false, "Only list addresses shown to depositors")
	flag.Parse()

	logger.Info("Starting deposit address query")

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

	addresses, err := dbService.ListDepositAddresses(ctx, *activeOnly)
	if err != nil {
		logger.Fatal("Failed to list deposit addresses", zap.Error(err))
	}

	common.PrintHeader("DEPOSIT ADDRESSES REPORT", common.WideWidth)

	stats := printReport(addresses)

	summary := fmt.Sprintf("SUMMARY: %d addresses across %d assets (%d active)",
		stats.totalAddresses, stats.symbols, stats.activeAddresses)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Deposit address query completed",
		zap.Int("assets", stats.symbols),
		zap.Int("total_addresses", stats.totalAddresses),
		zap.Int("active_addresses", stats.activeAddresses))
}
