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
	"invest-ledger-go/internal/pin"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	catalogFlag := flag.String("catalog", "", "Catalog file to seed (default: CATALOG_FILE)")
	dryRun := flag.Bool("dry-run", false, "Validate the catalog without touching the database")
	hashPin := flag.String("hash-pin", "", "Print the ADMIN_PIN_HASH value for this PIN and exit")
	flag.Parse()

	if *hashPin != "" {
		hashed, err := pin.Hash(*hashPin)
		if err != nil {
			zap.L().Fatal("Failed to hash PIN", zap.Error(err))
		}
		fmt.Printf("ADMIN_PIN_HASH=%s\n", hashed)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	catalogFile := cfg.CatalogFile
	if *catalogFlag != "" {
		catalogFile = *catalogFlag
	}

	zap.L().Info("Loading catalog", zap.String("file", catalogFile))
	catalog, err := common.LoadCatalog(catalogFile)
	if err != nil {
		zap.L().Fatal("Failed to load catalog", zap.Error(err))
	}
	zap.L().Info("Catalog loaded",
		zap.Int("plans", len(catalog.Plans)),
		zap.Int("copy_experts", len(catalog.CopyExperts)),
		zap.Int("signal_providers", len(catalog.SignalProviders)),
		zap.Int("deposit_addresses", len(catalog.DepositAddresses)))

	if *dryRun {
		fmt.Println("Catalog is valid")
		return
	}

	// NewService creates the schema on first open
	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	summary, err := common.SeedCatalog(ctx, dbService, catalog)
	if err != nil {
		zap.L().Fatal("Failed to seed catalog", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("CATALOG SEEDED", common.DefaultWidth)
	fmt.Printf("Plans created:             %d\n", summary.Plans)
	fmt.Printf("Copy experts created:      %d\n", summary.CopyExperts)
	fmt.Printf("Signal providers created:  %d\n", summary.SignalProviders)
	fmt.Printf("Deposit addresses created: %d\n", summary.DepositAddresses)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Initialization complete")
}
