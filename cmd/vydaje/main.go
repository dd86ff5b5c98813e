package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vydaje/internal/amqp"
	"vydaje/internal/cache"
	"vydaje/internal/cli"
	"vydaje/internal/currency"
	apphttp "vydaje/internal/http"
	"vydaje/internal/log"
	"vydaje/internal/services"
	"vydaje/internal/storage"
	"vydaje/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	switch cfg.Backend {
	case "sqlite":
		sq, err := storage.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("sqlite init failed", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sq.Close()
		store = sq
		logger.Info("sqlite backend ready", "path", cfg.SQLiteDBPath)
	default:
		store = storage.NewMemory()
		logger.Info("memory backend ready")
	}

	rates := currency.NewSource(cfg.RateFeedURL, cfg.RateRefreshEach)

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("amqp init failed", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("amqp publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("amqp disabled, sync rows wait for the outbox processor")
	}

	groups := services.NewGroupService(store)
	txs := services.NewTransactionService(store, rates, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, groups, txs, store, logger)

	caches := cache.NewManager()
	srv.RegisterCaches(caches)
	caches.Start(10 * time.Minute)
	defer caches.Stop()

	// without a broker the API drains its own outbox, but only when the
	// exporter is configured; otherwise rows wait for vydaje-worker
	var processor *services.OutboxProcessor
	if cfg.SheetsConfigured() && publisher == nil {
		exporter, err := cli.SheetsExporter(ctx, cfg)
		if err != nil {
			logger.Error("sheets init failed", log.FieldError, err)
			os.Exit(1)
		}
		outbox, ok := store.(storage.Outbox)
		if !ok {
			logger.Error("storage backend has no outbox, cannot drain sync rows")
			os.Exit(1)
		}
		processor = services.NewOutboxProcessor(
			worker.NewSyncWorker(outbox, exporter, cfg.SyncBatchSize),
			cfg.SyncInterval,
		)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "port", cfg.Port, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := rates.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if processor != nil {
		g.Go(func() error {
			if err := processor.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return processor.Stop(stopCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
