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
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

type reviewRequest struct {
	entryId    string
	adminEmail string
	status     models.EntryStatus
	notes      string
}

func parseAndValidateFlags() (*reviewRequest, bool, error) {
	listFlag := flag.Bool("list", false, "List pending entries instead of reviewing one")
	entryFlag := flag.String("entry", "", "Ledger entry id (required unless --list)")
	adminFlag := flag.String("admin", "", "Reviewing administrator's email (required unless --list)")
	statusFlag := flag.String("status", "", "New status: processing, approved or rejected")
	notesFlag := flag.String("notes", "", "Optional note stored on the entry")
	flag.Parse()

	if *listFlag {
		return nil, true, nil
	}

	if *entryFlag == "" || *adminFlag == "" || *statusFlag == "" {
		return nil, false, fmt.Errorf("flags are required: --entry, --admin, --status")
	}

	status := models.EntryStatus(*statusFlag)
	switch status {
	case models.EntryProcessing, models.EntryApproved, models.EntryRejected:
	default:
		return nil, false, fmt.Errorf("invalid status %q", *statusFlag)
	}

	return &reviewRequest{
		entryId:    *entryFlag,
		adminEmail: *adminFlag,
		status:     status,
		notes:      *notesFlag,
	}, false, nil
}

func listPending(ctx context.Context, db store.LedgerStore, currency string) error {
	entries, err := db.ListEntries(ctx, store.EntryFilter{Status: models.EntryPending, Limit: 100})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	common.PrintHeader("PENDING ENTRIES", common.WideWidth)
	for i, entry := range entries {
		fmt.Printf("%s %-10s %18s  %s\n", common.BoxPrefix(i == len(entries)-1),
			entry.Kind, common.FormatMoney(entry.Amount, currency), entry.Id)
		fmt.Printf("%s   user=%s created=%s\n", common.BoxDetailPrefix(i == len(entries)-1),
			entry.UserId, entry.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d pending entries", len(entries)), common.WideWidth)
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, listOnly, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if listOnly {
		if err := listPending(ctx, services.DbService, cfg.Policy.Currency); err != nil {
			zap.L().Fatal("Failed to list pending entries", zap.Error(err))
		}
		return
	}

	admin, err := services.DbService.GetAccountByEmail(ctx, req.adminEmail)
	if err != nil {
		zap.L().Fatal("Administrator not found", zap.String("email", req.adminEmail), zap.Error(err))
	}
	if admin.Role != models.RoleAdmin {
		zap.L().Fatal("Account is not an administrator", zap.String("email", req.adminEmail))
	}

	result, err := services.LedgerService.ReviewEntry(ctx, store.ReviewParams{
		EntryId: req.entryId,
		AdminId: admin.Id,
		Status:  req.status,
		Notes:   req.notes,
	})
	if err != nil {
		zap.L().Fatal("Failed to review entry", zap.String("entry_id", req.entryId), zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("ENTRY REVIEW", common.DefaultWidth)
	if !result.Success {
		fmt.Printf("Rejected: %s\n", result.Error)
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Warn("Review refused", zap.String("entry_id", req.entryId), zap.String("reason", result.Error))
		return
	}

	entry := result.Entry
	fmt.Printf("Entry:   %s\n", entry.Id)
	fmt.Printf("Kind:    %s\n", entry.Kind)
	fmt.Printf("Amount:  %s\n", common.FormatMoney(entry.Amount, entry.Currency))
	fmt.Printf("Status:  %s\n", entry.Status)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Entry reviewed",
		zap.String("entry_id", entry.Id),
		zap.String("status", string(entry.Status)))
}
