// Package sheets defines the spreadsheet export ports and the row format
// written to the transactions sheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"vydaje/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, row Row) (rowRef string, err error)
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, transactionID string) error
	}

	Exporter interface {
		TransactionWriter
		TransactionDeleter
	}
)

// Row is one exported transaction. The transaction id in the first column
// is what DeleteTransaction looks rows up by.
type Row struct {
	TransactionID string
	Date          string
	Group         string
	Kind          string
	Description   string
	Amount        string
	Currency      string
	LedgerAmount  int64
	Counterparty  string
	Category      string
	Split         string
}

// NewRow flattens a transaction into its sheet representation.
func NewRow(groupName string, t core.Transaction) Row {
	row := Row{
		TransactionID: t.ID,
		Date:          t.OccurredAt.Format("2006-01-02"),
		Group:         groupName,
		Kind:          string(t.Detail.Kind()),
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Currency:      t.Currency,
		LedgerAmount:  t.LedgerAmount,
	}
	switch d := t.Detail.(type) {
	case core.ExpenseDetail:
		row.Counterparty = d.Payer
		row.Category = d.Category
		row.Split = splitSummary(d)
	case core.IncomeDetail:
		row.Counterparty = d.Recipient
	}
	return row
}

// Values returns the row as sheet cell values, ID first.
func (r Row) Values() []any {
	return []any{
		r.TransactionID, r.Date, r.Group, r.Kind, r.Description,
		r.Amount, r.Currency, r.LedgerAmount, r.Counterparty, r.Category, r.Split,
	}
}

func splitSummary(d core.ExpenseDetail) string {
	if d.Mode == core.SplitEqual {
		return fmt.Sprintf("equal/%d", len(d.Shares))
	}
	parts := make([]string, 0, len(d.Shares))
	for _, s := range d.Shares {
		if s.Fixed != nil {
			parts = append(parts, fmt.Sprintf("%s:%d", s.Member, *s.Fixed))
		}
	}
	return strings.Join(parts, " ")
}
