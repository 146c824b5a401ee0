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

package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	pinWindow, err := getEnvDuration("ADMIN_PIN_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	trustedProxies, err := getEnvPrefixes("TRUSTED_PROXIES")
	if err != nil {
		return nil, err
	}

	minDeposit, err := getEnvDecimal("MIN_DEPOSIT", decimal.NewFromInt(100))
	if err != nil {
		return nil, err
	}

	minWithdrawal, err := getEnvDecimal("MIN_WITHDRAWAL", decimal.NewFromInt(50))
	if err != nil {
		return nil, err
	}

	minCopyAmount, err := getEnvDecimal("MIN_COPY_AMOUNT", decimal.NewFromInt(100))
	if err != nil {
		return nil, err
	}

	tradeGate := models.TradeGateMode(getEnvString("WITHDRAWAL_TRADE_GATE", string(models.TradeGateFixed)))
	if tradeGate != models.TradeGateFixed && tradeGate != models.TradeGateAccount {
		return nil, fmt.Errorf("invalid WITHDRAWAL_TRADE_GATE %q: must be %q or %q", tradeGate, models.TradeGateFixed, models.TradeGateAccount)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AdminPin:        os.Getenv("ADMIN_PIN"),
			AdminPinHash:    os.Getenv("ADMIN_PIN_HASH"),
			PinAttempts:     getEnvInt("ADMIN_PIN_ATTEMPTS", 5),
			PinWindow:       pinWindow,
			TrustedProxies:  trustedProxies,
			UploadDir:       getEnvString("UPLOAD_DIR", "uploads"),
			PublicBaseURL:   getEnvString("PUBLIC_BASE_URL", "http://localhost:8080"),
			MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Policy: models.PolicyConfig{
			MinDeposit:          minDeposit,
			MinWithdrawal:       minWithdrawal,
			MinCopyAmount:       minCopyAmount,
			WithdrawalMinTrades: getEnvInt("WITHDRAWAL_MIN_TRADES", 2),
			TradeGate:           tradeGate,
			SettleOnApproval:    getEnvBool("SETTLE_ON_APPROVAL", true),
			Currency:            getEnvString("LEDGER_CURRENCY", "USD"),
		},
		CatalogFile: getEnvString("CATALOG_FILE", "catalog.yaml"),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

// getEnvPrefixes parses a comma-separated list of CIDRs or bare addresses
func getEnvPrefixes(key string) ([]netip.Prefix, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	var prefixes []netip.Prefix
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if addr, err := netip.ParseAddr(item); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, fmt.Errorf("invalid entry for %s: %q (%w)", key, item, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
