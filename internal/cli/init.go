// Package cli holds the startup sequence shared by the binaries: .env
// loading, configuration, logging, and the exporter client both the server
// and the worker can construct.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"vydaje/internal/config"
	"vydaje/internal/log"
	gsheet "vydaje/internal/sheets/google"
)

// Bootstrap loads .env and the environment configuration, installs the
// process logger, and exits with a clear message when the configuration is
// invalid.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
		Format:    cfg.LogFormat,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SheetsExporter builds the Google Sheets client from the configuration.
func SheetsExporter(ctx context.Context, cfg *config.Config) (*gsheet.Client, error) {
	return gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredsJSON,
		CredentialsFile: cfg.GoogleCredsFile,
	})
}
