package http

import (
	"time"

	"vydaje/internal/core"
)

type shareResponse struct {
	Member string `json:"member"`
	Fixed  *int64 `json:"fixed,omitempty"`
}

type transactionResponse struct {
	ID           string          `json:"id"`
	Kind         core.Kind       `json:"kind"`
	Description  string          `json:"description"`
	Amount       string          `json:"amount"`
	Currency     string          `json:"currency"`
	LedgerAmount int64           `json:"ledger_amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Note         string          `json:"note,omitempty"`
	CreatedBy    string          `json:"created_by"`
	Payer        string          `json:"payer,omitempty"`
	Recipient    string          `json:"recipient,omitempty"`
	Category     string          `json:"category,omitempty"`
	SplitMode    core.SplitMode  `json:"split_mode,omitempty"`
	Splits       []shareResponse `json:"splits,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:           tx.ID,
		Kind:         tx.Detail.Kind(),
		Description:  tx.Description,
		Amount:       tx.Amount.String(),
		Currency:     tx.Currency,
		LedgerAmount: tx.LedgerAmount,
		OccurredAt:   tx.OccurredAt,
		Note:         tx.Note,
		CreatedBy:    tx.CreatedBy,
	}
	switch d := tx.Detail.(type) {
	case core.ExpenseDetail:
		resp.Payer = d.Payer
		resp.Category = d.Category
		resp.SplitMode = d.Mode
		for _, share := range d.Shares {
			resp.Splits = append(resp.Splits, shareResponse{Member: share.Member, Fixed: share.Fixed})
		}
	case core.IncomeDetail:
		resp.Recipient = d.Recipient
	}
	return resp
}

type settlementResponse struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Amount     float64   `json:"amount"`
	RecordedAt time.Time `json:"recorded_at"`
	RecordedBy string    `json:"recorded_by"`
}

func toSettlementResponse(s core.Settlement) settlementResponse {
	return settlementResponse{
		ID:         s.ID,
		From:       s.From,
		To:         s.To,
		Amount:     s.Amount,
		RecordedAt: s.RecordedAt,
		RecordedBy: s.RecordedBy,
	}
}

type groupResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Members      []string              `json:"members"`
	CreatedAt    time.Time             `json:"created_at"`
	Transactions []transactionResponse `json:"transactions"`
	Settlements  []settlementResponse  `json:"settlements"`
}

func toGroupResponse(g *core.Group) groupResponse {
	resp := groupResponse{
		ID:           g.ID,
		Name:         g.Name,
		Members:      g.Members,
		CreatedAt:    g.CreatedAt,
		Transactions: make([]transactionResponse, 0, len(g.Transactions)),
		Settlements:  make([]settlementResponse, 0, len(g.Settlements)),
	}
	for _, tx := range g.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}
	for _, s := range g.Settlements {
		resp.Settlements = append(resp.Settlements, toSettlementResponse(s))
	}
	return resp
}

type groupSummaryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Members      []string  `json:"members"`
	CreatedAt    time.Time `json:"created_at"`
	Transactions int       `json:"transaction_count"`
}

type categoryResponse struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type warningResponse struct {
	Message      string `json:"message"`
	LedgerAmount int64  `json:"ledger_amount"`
	SplitSum     int64  `json:"split_sum"`
}

func toWarningResponse(w *core.SplitMismatchWarning) *warningResponse {
	if w == nil {
		return nil
	}
	return &warningResponse{
		Message:      w.Error(),
		LedgerAmount: w.LedgerAmount,
		SplitSum:     w.SplitSum,
	}
}

type transferResponse struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Amount  float64 `json:"amount"`
	Settled bool    `json:"settled"`
}

type balancesResponse struct {
	Balances      map[string]float64 `json:"balances"`
	TotalExpenses int64              `json:"total_expenses"`
	TotalIncomes  int64              `json:"total_incomes"`
	Transfers     []transferResponse `json:"transfers"`
}
