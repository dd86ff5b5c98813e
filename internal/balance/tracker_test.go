package balance

import (
	"testing"
	"time"

	"vydaje/internal/core"
)

func TestIsSettled(t *testing.T) {
	settlements := []core.Settlement{
		{From: "B", To: "A", Amount: 100, RecordedAt: time.Now()},
		{From: "C", To: "A", Amount: 40.004, RecordedAt: time.Now()},
	}

	cases := []struct {
		name     string
		transfer Transfer
		want     bool
	}{
		{"exact match", Transfer{From: "B", To: "A", Amount: 100}, true},
		{"within epsilon", Transfer{From: "C", To: "A", Amount: 40}, true},
		{"amount differs", Transfer{From: "B", To: "A", Amount: 99}, false},
		{"direction differs", Transfer{From: "A", To: "B", Amount: 100}, false},
		{"unknown pair", Transfer{From: "D", To: "A", Amount: 100}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSettled(settlements, tc.transfer); got != tc.want {
				t.Fatalf("IsSettled(%+v) = %v, want %v", tc.transfer, got, tc.want)
			}
		})
	}
}

func TestIsSettledDoesNotAffectCompute(t *testing.T) {
	group := &core.Group{
		ID: "g1", Name: "Trip", Members: []string{"A", "B"},
		Transactions: []core.Transaction{
			expense("t1", 200, "A", core.SplitEqual, equalShares("A", "B")...),
		},
	}

	before := Compute(group)
	group.Settlements = append(group.Settlements,
		NewSettlement(Transfer{From: "B", To: "A", Amount: 100}, "adam@example.com", time.Now()))
	after := Compute(group)

	for member, want := range before {
		if after[member] != want {
			t.Fatalf("recording a settlement changed balance[%s]: %v vs %v", member, want, after[member])
		}
	}
}

func TestNewSettlement(t *testing.T) {
	now := time.Now()
	s := NewSettlement(Transfer{From: "B", To: "A", Amount: 75}, "adam@example.com", now)
	if s.ID == "" {
		t.Fatal("settlement needs an id")
	}
	if s.From != "B" || s.To != "A" || s.Amount != 75 {
		t.Fatalf("settlement = %+v", s)
	}
	if !s.RecordedAt.Equal(now) || s.RecordedBy != "adam@example.com" {
		t.Fatalf("settlement metadata = %+v", s)
	}
}
