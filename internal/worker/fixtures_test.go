package worker

import (
	"time"

	"github.com/shopspring/decimal"

	"vydaje/internal/core"
)

func testGroup() core.Group {
	return core.Group{
		ID:        "g1",
		Name:      "Výlet",
		Members:   []string{"Alena", "Bára"},
		CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testExpense(id string) core.Transaction {
	return core.Transaction{
		ID:           id,
		Description:  "Večeře",
		Amount:       decimal.NewFromInt(300),
		Currency:     "CZK",
		LedgerAmount: 300,
		OccurredAt:   time.Date(2025, 7, 10, 19, 0, 0, 0, time.UTC),
		CreatedBy:    "Alena",
		Detail: core.ExpenseDetail{
			Payer: "Alena",
			Mode:  core.SplitEqual,
			Shares: []core.Share{
				{Member: "Alena"}, {Member: "Bára"},
			},
		},
	}
}
