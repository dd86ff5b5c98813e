// Package services composes the ledger core with storage, the exchange
// rate source and the sync outbox.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vydaje/internal/amqp"
	"vydaje/internal/core"
	"vydaje/internal/currency"
	"vydaje/internal/ledger"
	"vydaje/internal/storage"
)

var transactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vydaje_transactions_total",
	Help: "Transactions created by kind.",
}, []string{"kind"})

// RateProvider yields the current conversion table.
type RateProvider interface {
	Table() currency.Rates
}

// SyncPublisher notifies the export worker of a changed transaction. A nil
// publisher is valid; the polling outbox processor picks the rows up
// instead.
type SyncPublisher interface {
	PublishSync(ctx context.Context, msg *amqp.SyncMessage) error
}

// TransactionService runs the write operations: validate against a fresh
// group snapshot, persist, then enqueue for export.
type TransactionService struct {
	store     storage.Store
	rates     RateProvider
	publisher SyncPublisher
}

func NewTransactionService(store storage.Store, rates RateProvider, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		rates:     rates,
		publisher: publisher,
	}
}

// AddExpense validates and persists an expense. When the custom split does
// not add up and confirm is false, nothing is persisted and the warning is
// returned for the caller to surface; with confirm true the expense is
// stored with the amounts exactly as entered.
func (s *TransactionService) AddExpense(ctx context.Context, groupID string, in ledger.ExpenseInput, confirm bool) (core.Transaction, *core.SplitMismatchWarning, error) {
	var none core.Transaction

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return none, nil, fmt.Errorf("load group: %w", err)
	}

	tx, warning, err := ledger.AddExpense(group, in, s.rates.Table())
	if err != nil {
		return none, nil, err
	}
	if warning != nil && !confirm {
		return none, warning, nil
	}

	if err := s.store.AppendTransaction(ctx, groupID, tx); err != nil {
		return none, nil, fmt.Errorf("persist expense: %w", err)
	}
	transactionsCreated.WithLabelValues(string(core.KindExpense)).Inc()
	s.publish(ctx, groupID, tx.ID, false)
	return tx, warning, nil
}

// AddIncome validates and persists an income.
func (s *TransactionService) AddIncome(ctx context.Context, groupID string, in ledger.IncomeInput) (core.Transaction, error) {
	var none core.Transaction

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return none, fmt.Errorf("load group: %w", err)
	}

	tx, err := ledger.AddIncome(group, in, s.rates.Table())
	if err != nil {
		return none, err
	}
	if err := s.store.AppendTransaction(ctx, groupID, tx); err != nil {
		return none, fmt.Errorf("persist income: %w", err)
	}
	transactionsCreated.WithLabelValues(string(core.KindIncome)).Inc()
	s.publish(ctx, groupID, tx.ID, false)
	return tx, nil
}

// DeleteTransaction removes a transaction on behalf of its creator.
func (s *TransactionService) DeleteTransaction(ctx context.Context, groupID, txID, actor string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if err := ledger.DeleteTransaction(group, txID, actor); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, groupID, txID); err != nil {
		return fmt.Errorf("persist deletion: %w", err)
	}
	s.publish(ctx, groupID, txID, true)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, groupID, txID string, deleted bool) {
	if s.publisher == nil {
		return
	}
	// publish is best effort; unsent rows stay pending and the outbox
	// processor replays them
	if err := s.publisher.PublishSync(ctx, amqp.NewSyncMessage(groupID, txID, deleted)); err != nil {
		slog.WarnContext(ctx, "sync publish failed, row stays queued",
			"transaction_id", txID,
			"error", err)
	}
}
