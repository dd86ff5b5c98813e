package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"vydaje/internal/core"
)

// Memory is the in-process Store and Outbox used by tests and dev mode.
// Snapshots are copied on the way in and out.
type Memory struct {
	mu         sync.Mutex
	groups     map[string]*core.Group
	order      []string
	categories map[string][]core.Category
	pending    map[string]*memoryOutboxRow
}

type memoryOutboxRow struct {
	groupID   string
	tx        core.Transaction
	deleted   bool
	synced    bool
	syncError string
	createdAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		groups:     make(map[string]*core.Group),
		categories: make(map[string][]core.Category),
		pending:    make(map[string]*memoryOutboxRow),
	}
}

func (m *Memory) Close() error               { return nil }
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateGroup(_ context.Context, group core.Group, categories []core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := copyGroup(&group)
	m.groups[group.ID] = g
	m.order = append(m.order, group.ID)
	m.categories[group.ID] = append([]core.Category(nil), categories...)
	return nil
}

func (m *Memory) GetGroup(_ context.Context, id string) (*core.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[id]
	if !ok {
		return nil, core.ErrUnknownGroup
	}
	return copyGroup(g), nil
}

func (m *Memory) ListGroups(_ context.Context) ([]core.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make([]core.Group, 0, len(m.order))
	for _, id := range m.order {
		groups = append(groups, *copyGroup(m.groups[id]))
	}
	return groups, nil
}

func (m *Memory) DeleteGroup(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[id]; !ok {
		return core.ErrUnknownGroup
	}
	delete(m.groups, id)
	delete(m.categories, id)
	for i, gid := range m.order {
		if gid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SetMembers(_ context.Context, groupID string, members []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return core.ErrUnknownGroup
	}
	g.Members = append([]string(nil), members...)
	return nil
}

func (m *Memory) AppendTransaction(_ context.Context, groupID string, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return core.ErrUnknownGroup
	}
	g.Transactions = append(g.Transactions, tx)
	m.pending[tx.ID] = &memoryOutboxRow{
		groupID:   groupID,
		tx:        tx,
		createdAt: time.Now(),
	}
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, groupID, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return core.ErrUnknownGroup
	}
	for i := range g.Transactions {
		if g.Transactions[i].ID != txID {
			continue
		}
		g.Transactions = append(g.Transactions[:i], g.Transactions[i+1:]...)
		if row, ok := m.pending[txID]; ok {
			row.deleted = true
			row.synced = false
			row.syncError = ""
		} else {
			m.pending[txID] = &memoryOutboxRow{
				groupID:   groupID,
				deleted:   true,
				createdAt: time.Now(),
			}
		}
		return nil
	}
	return core.ErrUnknownTransaction
}

func (m *Memory) AppendSettlement(_ context.Context, groupID string, s core.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return core.ErrUnknownGroup
	}
	g.Settlements = append(g.Settlements, s)
	return nil
}

func (m *Memory) ClearGroupData(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return core.ErrUnknownGroup
	}
	g.Transactions = nil
	g.Settlements = nil
	return nil
}

func (m *Memory) ListCategories(_ context.Context, groupID string) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[groupID]; !ok {
		return nil, core.ErrUnknownGroup
	}
	return append([]core.Category(nil), m.categories[groupID]...), nil
}

func (m *Memory) SaveCategories(_ context.Context, groupID string, categories []core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[groupID]; !ok {
		return core.ErrUnknownGroup
	}
	m.categories[groupID] = append([]core.Category(nil), categories...)
	return nil
}

func (m *Memory) PendingSync(_ context.Context, limit int) ([]PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []PendingTransaction
	for id, row := range m.pending {
		if row.synced {
			continue
		}
		pending = append(pending, PendingTransaction{
			TransactionID: id,
			GroupID:       row.groupID,
			Deleted:       row.deleted,
			CreatedAt:     row.createdAt,
		})
	}
	sortPending(pending)
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *Memory) GetTransaction(_ context.Context, txID string) (*StoredTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.pending[txID]
	if !ok {
		return nil, core.ErrUnknownTransaction
	}
	var groupName string
	if g, ok := m.groups[row.groupID]; ok {
		groupName = g.Name
	}
	return &StoredTransaction{
		GroupID:     row.groupID,
		GroupName:   groupName,
		Transaction: row.tx,
		Deleted:     row.deleted,
	}, nil
}

func (m *Memory) MarkSynced(_ context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.pending[txID]; ok {
		row.synced = true
		row.syncError = ""
	}
	return nil
}

func (m *Memory) MarkSyncError(_ context.Context, txID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.pending[txID]; ok {
		row.syncError = message
	}
	return nil
}

func copyGroup(g *core.Group) *core.Group {
	out := *g
	out.Members = append([]string(nil), g.Members...)
	out.Transactions = append([]core.Transaction(nil), g.Transactions...)
	out.Settlements = append([]core.Settlement(nil), g.Settlements...)
	return &out
}

func sortPending(pending []PendingTransaction) {
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
}
