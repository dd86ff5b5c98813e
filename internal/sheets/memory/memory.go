// Package memory is the in-process exporter used by tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "vydaje/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows []ports.Row

	// FailAppend makes the next appends error, for sync-error paths.
	FailAppend bool
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) AppendTransaction(_ context.Context, row ports.Row) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailAppend {
		return "", fmt.Errorf("append %s: exporter unavailable", row.TransactionID)
	}
	e.rows = append(e.rows, row)
	return fmt.Sprintf("memory!A%d", len(e.rows)), nil
}

func (e *Exporter) DeleteTransaction(_ context.Context, transactionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range e.rows {
		if row.TransactionID == transactionID {
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []ports.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Row(nil), e.rows...)
}
