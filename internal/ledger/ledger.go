// Package ledger implements the write operations on a group snapshot:
// adding expenses and incomes, validating splits, and creator-only
// deletion. All functions are pure over the snapshot they receive; callers
// persist the mutated group themselves.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vydaje/internal/core"
	"vydaje/internal/currency"
)

// SplitInput is one selected member in an expense split. Amount is the
// user-entered custom share in the transaction's original currency; it is
// ignored under equal mode.
type SplitInput struct {
	Member string
	Amount string
}

// ExpenseInput carries the raw fields of an add-expense request.
type ExpenseInput struct {
	Description string
	Amount      string
	Currency    string
	Payer       string
	Category    string
	Mode        core.SplitMode
	Splits      []SplitInput
	Note        string
	OccurredAt  time.Time
	Actor       string
}

// IncomeInput carries the raw fields of an add-income request.
type IncomeInput struct {
	Description string
	Amount      string
	Currency    string
	Recipient   string
	Note        string
	OccurredAt  time.Time
	Actor       string
}

// AddExpense validates the input, freezes the ledger conversion, and
// appends the expense to the group.
//
// Under custom mode, each entered share is converted to ledger units at the
// same rate table; entries with a zero or unparsable amount are silently
// dropped rather than stored as zero. When the surviving shares do not sum
// to the transaction's ledger amount, the expense is still appended and a
// SplitMismatchWarning is returned alongside it — the caller decides
// whether to keep it or roll the snapshot back after asking the user.
func AddExpense(group *core.Group, in ExpenseInput, rates currency.Rates) (core.Transaction, *core.SplitMismatchWarning, error) {
	var none core.Transaction

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return none, nil, core.MissingFieldError{Field: "description"}
	}
	if strings.TrimSpace(in.Amount) == "" {
		return none, nil, core.MissingFieldError{Field: "amount"}
	}
	if in.Payer == "" {
		return none, nil, core.MissingFieldError{Field: "payer"}
	}
	if len(in.Splits) == 0 {
		return none, nil, core.MissingFieldError{Field: "split"}
	}
	if !group.HasMember(in.Payer) {
		return none, nil, fmt.Errorf("payer %q: %w", in.Payer, core.ErrNotMember)
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return none, nil, err
	}

	code := in.Currency
	if code == "" {
		code = currency.Ledger
	}
	ledgerAmount := currency.Convert(amount, code, rates)

	mode := in.Mode
	if mode == "" {
		mode = core.SplitEqual
	}
	if mode != core.SplitEqual && mode != core.SplitCustom {
		return none, nil, fmt.Errorf("split mode %q: %w", mode, core.ErrInvalidSplitMode)
	}

	shares := make([]core.Share, 0, len(in.Splits))
	seen := make(map[string]bool, len(in.Splits))
	var splitSum int64
	for _, s := range in.Splits {
		if !group.HasMember(s.Member) {
			return none, nil, fmt.Errorf("split member %q: %w", s.Member, core.ErrNotMember)
		}
		if seen[s.Member] {
			return none, nil, fmt.Errorf("split member %q listed twice: %w", s.Member, core.ErrDuplicateMember)
		}
		seen[s.Member] = true
		if mode == core.SplitEqual {
			shares = append(shares, core.Share{Member: s.Member})
			continue
		}
		entered, err := core.ParseAmount(s.Amount)
		if err != nil {
			// zero or unparsable custom shares are dropped, not stored
			continue
		}
		fixed := currency.Convert(entered, code, rates)
		if fixed <= 0 {
			continue
		}
		splitSum += fixed
		shares = append(shares, core.Share{Member: s.Member, Fixed: &fixed})
	}
	if len(shares) == 0 {
		return none, nil, core.MissingFieldError{Field: "split"}
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	tx := core.Transaction{
		ID:           uuid.New().String(),
		Description:  description,
		Amount:       amount,
		Currency:     code,
		LedgerAmount: ledgerAmount,
		OccurredAt:   occurredAt,
		Note:         strings.TrimSpace(in.Note),
		CreatedBy:    in.Actor,
		Detail: core.ExpenseDetail{
			Payer:    in.Payer,
			Category: in.Category,
			Mode:     mode,
			Shares:   shares,
		},
	}
	if err := tx.Validate(); err != nil {
		return none, nil, err
	}

	// ledger amounts are whole units, so any nonzero difference is a mismatch
	var warning *core.SplitMismatchWarning
	if mode == core.SplitCustom && splitSum != ledgerAmount {
		warning = &core.SplitMismatchWarning{LedgerAmount: ledgerAmount, SplitSum: splitSum}
	}

	group.Transactions = append(group.Transactions, tx)
	return tx, warning, nil
}

// AddIncome validates the input, freezes the ledger conversion, and
// appends the income to the group. Incomes carry no split.
func AddIncome(group *core.Group, in IncomeInput, rates currency.Rates) (core.Transaction, error) {
	var none core.Transaction

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return none, core.MissingFieldError{Field: "description"}
	}
	if strings.TrimSpace(in.Amount) == "" {
		return none, core.MissingFieldError{Field: "amount"}
	}
	if in.Recipient == "" {
		return none, core.MissingFieldError{Field: "recipient"}
	}
	if !group.HasMember(in.Recipient) {
		return none, fmt.Errorf("recipient %q: %w", in.Recipient, core.ErrNotMember)
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return none, err
	}

	code := in.Currency
	if code == "" {
		code = currency.Ledger
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	tx := core.Transaction{
		ID:           uuid.New().String(),
		Description:  description,
		Amount:       amount,
		Currency:     code,
		LedgerAmount: currency.Convert(amount, code, rates),
		OccurredAt:   occurredAt,
		Note:         strings.TrimSpace(in.Note),
		CreatedBy:    in.Actor,
		Detail:       core.IncomeDetail{Recipient: in.Recipient},
	}
	if err := tx.Validate(); err != nil {
		return none, err
	}

	group.Transactions = append(group.Transactions, tx)
	return tx, nil
}

// DeleteTransaction removes the transaction with the given id. Only the
// creator may delete; deletion is permanent and immediately visible to the
// balance fold. Edits are expressed as delete-then-recreate with a new id.
func DeleteTransaction(group *core.Group, id, actor string) error {
	for i := range group.Transactions {
		if group.Transactions[i].ID != id {
			continue
		}
		if group.Transactions[i].CreatedBy != actor {
			return core.PermissionError{Actor: actor, TransactionID: id}
		}
		group.Transactions = append(group.Transactions[:i], group.Transactions[i+1:]...)
		return nil
	}
	return core.ErrUnknownTransaction
}
