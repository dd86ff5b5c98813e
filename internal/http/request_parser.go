package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"vydaje/internal/balance"
	"vydaje/internal/core"
	"vydaje/internal/ledger"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON value from the request body, rejecting bodies
// over 1 MiB and trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// actor resolves the acting collaborator from the X-Actor header. Identity
// is handled by the caller; the header is trusted as-is.
func actor(r *http.Request) (string, error) {
	a := r.Header.Get("X-Actor")
	if a == "" {
		return "", core.MissingFieldError{Field: "actor"}
	}
	return a, nil
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type memberRequest struct {
	Name string `json:"name"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type splitRequest struct {
	Member string `json:"member"`
	Amount string `json:"amount,omitempty"`
}

type expenseRequest struct {
	Description string         `json:"description"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Payer       string         `json:"payer"`
	Category    string         `json:"category,omitempty"`
	Mode        string         `json:"mode,omitempty"`
	Splits      []splitRequest `json:"splits"`
	Note        string         `json:"note,omitempty"`
	OccurredAt  string         `json:"occurred_at,omitempty"`
	Confirm     bool           `json:"confirm,omitempty"`
}

func (req expenseRequest) toInput(actor string) (ledger.ExpenseInput, error) {
	occurred, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	splits := make([]ledger.SplitInput, 0, len(req.Splits))
	for _, s := range req.Splits {
		splits = append(splits, ledger.SplitInput{Member: s.Member, Amount: s.Amount})
	}
	return ledger.ExpenseInput{
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Payer:       req.Payer,
		Category:    req.Category,
		Mode:        core.SplitMode(req.Mode),
		Splits:      splits,
		Note:        req.Note,
		OccurredAt:  occurred,
		Actor:       actor,
	}, nil
}

type incomeRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Recipient   string `json:"recipient"`
	Note        string `json:"note,omitempty"`
	OccurredAt  string `json:"occurred_at,omitempty"`
}

func (req incomeRequest) toInput(actor string) (ledger.IncomeInput, error) {
	occurred, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		return ledger.IncomeInput{}, err
	}
	return ledger.IncomeInput{
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Recipient:   req.Recipient,
		Note:        req.Note,
		OccurredAt:  occurred,
		Actor:       actor,
	}, nil
}

type settlementRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func (req settlementRequest) toTransfer() balance.Transfer {
	return balance.Transfer{From: req.From, To: req.To, Amount: req.Amount}
}

// parseOccurredAt accepts RFC 3339 or a bare date; empty means "now",
// decided further down the stack.
func parseOccurredAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid occurred_at %q, want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
