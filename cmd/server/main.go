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
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/pin"
	"invest-ledger-go/internal/server"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

func main() {
	seedFlag := flag.Bool("seed", false, "Seed the catalog file before serving")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Server.JWTSecret == "" {
		zap.L().Fatal("JWT_SECRET must be set to serve the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *seedFlag {
		catalog, err := common.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			zap.L().Fatal("Failed to load catalog", zap.Error(err))
		}
		summary, err := common.SeedCatalog(ctx, services.DbService, catalog)
		if err != nil {
			zap.L().Fatal("Failed to seed catalog", zap.Error(err))
		}
		zap.L().Info("Catalog seeded",
			zap.Int("plans", summary.Plans),
			zap.Int("copy_experts", summary.CopyExperts),
			zap.Int("signal_providers", summary.SignalProviders),
			zap.Int("deposit_addresses", summary.DepositAddresses))
	}

	pins := pin.NewVerifier(cfg.Server.AdminPin, cfg.Server.AdminPinHash, cfg.Server.PinAttempts, cfg.Server.PinWindow)
	if !pins.Configured() {
		zap.L().Warn("No admin PIN configured, deposit address changes are disabled")
	}
	pins.StartCleanup(ctx, cfg.Server.PinWindow)
	if len(cfg.Server.TrustedProxies) > 0 {
		zap.L().Info("Honoring X-Forwarded-For from trusted proxies", zap.Int("prefixes", len(cfg.Server.TrustedProxies)))
	}

	srv := server.New(services.LedgerService, services.Metrics, services.Files.Handler(), pins, cfg.Server)

	// h2c lets clients speak HTTP/2 without TLS behind a terminating proxy
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("Ledger API listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("Shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("Server stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}
