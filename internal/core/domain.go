package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the two transaction variants.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// SplitMode selects how an expense is divided among its shares.
type SplitMode string

const (
	SplitEqual  SplitMode = "equal"
	SplitCustom SplitMode = "custom"
)

// Epsilon is the ledger-currency tolerance below which amounts are treated
// as settled. Balances within ±Epsilon of zero are considered even.
const Epsilon = 0.01

type (
	// Share assigns a portion of an expense to one member. Fixed is nil
	// under SplitEqual; under SplitCustom it holds the member's
	// ledger-currency amount, frozen at creation time.
	Share struct {
		Member string
		Fixed  *int64
	}

	// ExpenseDetail is the payload of an expense transaction.
	ExpenseDetail struct {
		Payer    string
		Category string
		Mode     SplitMode
		Shares   []Share
	}

	// IncomeDetail is the payload of an income transaction.
	IncomeDetail struct {
		Recipient string
	}

	// Transaction is the common envelope around either detail. Amount is in
	// the original currency; LedgerAmount is the whole-unit ledger
	// conversion frozen at creation time and never recomputed.
	Transaction struct {
		ID           string
		Description  string
		Amount       decimal.Decimal
		Currency     string
		LedgerAmount int64
		OccurredAt   time.Time
		Note         string
		CreatedBy    string
		Detail       Detail
	}

	// Settlement records a real-world payment that clears (some of) a
	// computed debt. Purely informational: the balance fold never reads it.
	Settlement struct {
		ID         string
		From       string
		To         string
		Amount     float64
		RecordedAt time.Time
		RecordedBy string
	}

	// Category tags expenses; at least one must always exist.
	Category struct {
		Name string
		Icon string
	}

	// Group owns its members, transactions and settlements. Members is
	// ordered and must hold at least two entries.
	Group struct {
		ID           string
		Name         string
		Members      []string
		Transactions []Transaction
		Settlements  []Settlement
		CreatedAt    time.Time
	}
)

// Detail is the kind-specific payload of a Transaction.
type Detail interface {
	Kind() Kind
}

func (ExpenseDetail) Kind() Kind { return KindExpense }
func (IncomeDetail) Kind() Kind  { return KindIncome }

var (
	ErrGroupTooSmall      = errors.New("group needs at least two members")
	ErrLastGroup          = errors.New("at least one group must remain")
	ErrLastCategory       = errors.New("at least one category must remain")
	ErrDuplicateMember    = errors.New("member already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrUnknownGroup       = errors.New("group not found")
	ErrUnknownTransaction = errors.New("transaction not found")
	ErrUnknownCategory    = errors.New("category not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidSplitMode   = errors.New("invalid split mode")
	ErrNotMember          = errors.New("not a member of the group")
)

// MissingFieldError reports a required input that was absent. The operation
// is aborted with no partial state change.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// PermissionError reports an actor trying to modify a transaction they did
// not create.
type PermissionError struct {
	Actor         string
	TransactionID string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("actor %q is not the creator of transaction %s", e.Actor, e.TransactionID)
}

// SplitMismatchWarning is raised when the sum of custom split amounts
// differs from the expense's ledger amount by more than Epsilon. It is
// non-fatal: callers may proceed after explicit confirmation, and the
// amounts are kept exactly as entered.
type SplitMismatchWarning struct {
	LedgerAmount int64
	SplitSum     int64
}

func (w SplitMismatchWarning) Error() string {
	return fmt.Sprintf("custom split sum %d differs from ledger amount %d", w.SplitSum, w.LedgerAmount)
}

// HasMember reports whether name is a current member of the group.
func (g *Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}

// FindTransaction returns the transaction with the given id, or nil.
func (g *Group) FindTransaction(id string) *Transaction {
	for i := range g.Transactions {
		if g.Transactions[i].ID == id {
			return &g.Transactions[i]
		}
	}
	return nil
}

func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return MissingFieldError{Field: "name"}
	}
	if len(g.Members) < 2 {
		return ErrGroupTooSmall
	}
	return nil
}

func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return MissingFieldError{Field: "description"}
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Detail == nil {
		return MissingFieldError{Field: "detail"}
	}
	switch d := t.Detail.(type) {
	case ExpenseDetail:
		if d.Payer == "" {
			return MissingFieldError{Field: "payer"}
		}
		if len(d.Shares) == 0 {
			return MissingFieldError{Field: "split"}
		}
	case IncomeDetail:
		if d.Recipient == "" {
			return MissingFieldError{Field: "recipient"}
		}
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Detail.Kind())
	}
	return nil
}
