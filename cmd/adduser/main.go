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
	"fmt"
	"regexp"
	"strings"
	"time"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Account holder's full name (required)")
	emailFlag := flag.String("email", "", "Account holder's email address (required)")
	adminFlag := flag.Bool("admin", false, "Grant the administrator role")
	tokenTTL := flag.Duration("token", 0, "Also print a bearer token valid for this long (e.g. 24h)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	role := models.RoleUser
	if *adminFlag {
		role = models.RoleAdmin
	}

	zap.L().Info("Starting account creation",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag),
		zap.String("role", string(role)))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	if *tokenTTL > 0 && cfg.Server.JWTSecret == "" {
		zap.L().Fatal("JWT_SECRET must be set to issue a token")
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	account, err := dbService.CreateAccount(ctx, store.CreateAccountParams{
		Id:    uuid.New().String(),
		Name:  strings.TrimSpace(*nameFlag),
		Email: strings.ToLower(strings.TrimSpace(*emailFlag)),
		Role:  role,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			zap.L().Fatal("Account already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:    %s\n", account.Id)
	fmt.Printf("Name:  %s\n", account.Name)
	fmt.Printf("Email: %s\n", account.Email)
	fmt.Printf("Role:  %s\n", account.Role)
	fmt.Printf("KYC:   %s\n", account.KYCStatus)

	if *tokenTTL > 0 {
		token, err := auth.Sign([]byte(cfg.Server.JWTSecret), account.Id, *tokenTTL)
		if err != nil {
			zap.L().Fatal("Failed to sign token", zap.Error(err))
		}
		fmt.Printf("Token: %s\n", token)
		fmt.Printf("       expires %s\n", time.Now().Add(*tokenTTL).UTC().Format(time.RFC3339))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created successfully", zap.String("id", account.Id))
}
