// Package worker drains the transaction outbox into the spreadsheet
// exporter, either from AMQP messages or by polling storage directly.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vydaje/internal/amqp"
	"vydaje/internal/core"
	"vydaje/internal/sheets"
	"vydaje/internal/storage"
)

var syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vydaje_sync_total",
	Help: "Transaction sync attempts by outcome.",
}, []string{"outcome"})

// SyncWorker exports transactions to the spreadsheet and maintains their
// sync state in storage.
type SyncWorker struct {
	outbox    storage.Outbox
	exporter  sheets.Exporter
	batchSize int
}

func NewSyncWorker(outbox storage.Outbox, exporter sheets.Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		outbox:    outbox,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one AMQP notification. The authoritative row
// is always re-read from storage; the message only says which one changed.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	return w.syncOne(ctx, msg.TransactionID)
}

// ProcessPending replays unsynced rows from storage. This is the fallback
// path when AMQP is absent or messages were lost; errors on individual rows
// are recorded and do not stop the batch.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.outbox.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "processing pending transactions", "count", len(pending))
	for _, p := range pending {
		if err := w.syncOne(ctx, p.TransactionID); err != nil {
			slog.ErrorContext(ctx, "sync failed",
				"transaction_id", p.TransactionID,
				"error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger backlog once at startup to recover from
// downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.outbox.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "no pending transactions on startup")
		return nil
	}

	slog.InfoContext(ctx, "found pending transactions on startup", "count", len(pending))
	var synced, failed int
	for _, p := range pending {
		if err := w.syncOne(ctx, p.TransactionID); err != nil {
			slog.ErrorContext(ctx, "startup sync failed",
				"transaction_id", p.TransactionID,
				"error", err)
			failed++
			continue
		}
		synced++
	}
	slog.InfoContext(ctx, "startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncOne(ctx context.Context, txID string) error {
	stored, err := w.outbox.GetTransaction(ctx, txID)
	if errors.Is(err, core.ErrUnknownTransaction) {
		// row vanished between enqueue and processing; nothing to export
		slog.WarnContext(ctx, "pending transaction no longer exists", "transaction_id", txID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", txID, err)
	}

	if stored.Deleted {
		if err := w.exporter.DeleteTransaction(ctx, txID); err != nil {
			w.recordFailure(ctx, txID, err)
			return fmt.Errorf("delete from exporter: %w", err)
		}
	} else {
		row := sheets.NewRow(stored.GroupName, stored.Transaction)
		ref, err := w.exporter.AppendTransaction(ctx, row)
		if err != nil {
			w.recordFailure(ctx, txID, err)
			return fmt.Errorf("append to exporter: %w", err)
		}
		slog.InfoContext(ctx, "transaction synced",
			"transaction_id", txID,
			"sheets_ref", ref)
	}

	if err := w.outbox.MarkSynced(ctx, txID); err != nil {
		// the export itself worked; keep going
		slog.ErrorContext(ctx, "mark synced failed", "transaction_id", txID, "error", err)
	}
	syncOutcomes.WithLabelValues("success").Inc()
	return nil
}

func (w *SyncWorker) recordFailure(ctx context.Context, txID string, cause error) {
	syncOutcomes.WithLabelValues("error").Inc()
	if err := w.outbox.MarkSyncError(ctx, txID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "mark sync error failed", "transaction_id", txID, "error", err)
	}
}
