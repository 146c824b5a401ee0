package common

import (
	"context"
	"log"
	"strings"

	"invest-ledger-go/internal/api"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/metrics"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/objectstore"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	Files         *objectstore.Store
	Metrics       *metrics.Metrics
	LedgerService *api.LedgerService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database and object store and assembles the
// ledger service the HTTP server runs on.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database, cfg.Policy)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Opening object store", zap.String("dir", cfg.Server.UploadDir))
	files, err := objectstore.New(cfg.Server.UploadDir, cfg.Server.PublicBaseURL)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	m := metrics.New()
	ledgerService := api.NewLedgerService(dbService, files, m)

	return &Services{
		DbService:     dbService,
		Files:         files,
		Metrics:       m,
		LedgerService: ledgerService,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for command-line operations like seeding or reporting
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database, cfg.Policy)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
