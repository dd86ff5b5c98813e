package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vydaje/internal/amqp"
	"vydaje/internal/cli"
	"vydaje/internal/log"
	"vydaje/internal/storage"
	"vydaje/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if !cfg.SheetsConfigured() {
		logger.Error("Google Sheets export is not configured, nothing to sync to")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLite(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("sqlite init failed", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	exporter, err := cli.SheetsExporter(ctx, cfg)
	if err != nil {
		logger.Error("sheets init failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("sheets exporter ready", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.Connect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("amqp connect failed", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(store, exporter, cfg.SyncBatchSize)

	// rows written while the worker was down have no message coming;
	// drain them before consuming
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("startup sync check failed", log.FieldError, err)
	}

	// polling fallback for messages lost between publish and consume
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.ProcessPending(ctx); err != nil {
					logger.Error("periodic sync failed", log.FieldError, err)
				}
			}
		}
	}()

	logger.Info("consuming sync messages", "queue", cfg.AMQPQueue)
	err = client.ConsumeSync(ctx, func(msg *amqp.SyncMessage) error {
		return syncWorker.HandleSyncMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consume loop failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
