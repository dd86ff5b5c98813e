// Package storage persists groups, transactions and settlements, and keeps
// the sync state the outbox replays from. Two implementations exist: SQLite
// for real deployments and an in-memory store for tests and dev mode.
package storage

import (
	"context"
	"time"

	"vydaje/internal/core"
)

// Store is the persistence surface the service layer works against. Group
// snapshots returned by Get/List are detached copies; callers mutate them
// freely and persist the outcome through the write methods.
type Store interface {
	CreateGroup(ctx context.Context, group core.Group, categories []core.Category) error
	GetGroup(ctx context.Context, id string) (*core.Group, error)
	ListGroups(ctx context.Context) ([]core.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	SetMembers(ctx context.Context, groupID string, members []string) error

	AppendTransaction(ctx context.Context, groupID string, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, groupID, txID string) error
	AppendSettlement(ctx context.Context, groupID string, s core.Settlement) error
	ClearGroupData(ctx context.Context, groupID string) error

	ListCategories(ctx context.Context, groupID string) ([]core.Category, error)
	SaveCategories(ctx context.Context, groupID string, categories []core.Category) error

	Ping(ctx context.Context) error
	Close() error
}

// PendingTransaction is one outbox row awaiting export.
type PendingTransaction struct {
	TransactionID string
	GroupID       string
	Deleted       bool
	CreatedAt     time.Time
}

// StoredTransaction is a transaction loaded for export, with its sync
// envelope.
type StoredTransaction struct {
	GroupID     string
	GroupName   string
	Transaction core.Transaction
	Deleted     bool
}

// Outbox exposes the sync queue. Writes mark rows pending; the worker and
// the polling processor drain them.
type Outbox interface {
	PendingSync(ctx context.Context, limit int) ([]PendingTransaction, error)
	GetTransaction(ctx context.Context, txID string) (*StoredTransaction, error)
	MarkSynced(ctx context.Context, txID string) error
	MarkSyncError(ctx context.Context, txID string, message string) error
}
