package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vydaje/internal/core"
)

// storeUnderTest is both a Store and an Outbox; the two implementations
// share one behavioral suite.
type storeUnderTest interface {
	Store
	Outbox
}

func openStores(t *testing.T) map[string]storeUnderTest {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "vydaje.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]storeUnderTest{
		"sqlite": sqlite,
		"memory": NewMemory(),
	}
}

func seedGroup(t *testing.T, s Store) core.Group {
	t.Helper()
	group := core.Group{
		ID:        "g1",
		Name:      "Výlet",
		Members:   []string{"Alena", "Bára", "Cyril"},
		CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	categories := []core.Category{{Name: "Jídlo", Icon: "🍽️"}, {Name: "Ostatní", Icon: "📦"}}
	if err := s.CreateGroup(context.Background(), group, categories); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return group
}

func sampleExpense(id string) core.Transaction {
	sixty := int64(60)
	forty := int64(40)
	return core.Transaction{
		ID:           id,
		Description:  "Lístky",
		Amount:       decimal.NewFromInt(4),
		Currency:     "EUR",
		LedgerAmount: 100,
		OccurredAt:   time.Date(2025, 7, 10, 18, 0, 0, 0, time.UTC),
		Note:         "muzeum",
		CreatedBy:    "Alena",
		Detail: core.ExpenseDetail{
			Payer:    "Alena",
			Category: "Jídlo",
			Mode:     core.SplitCustom,
			Shares: []core.Share{
				{Member: "Bára", Fixed: &sixty},
				{Member: "Cyril", Fixed: &forty},
			},
		},
	}
}

func TestGroupRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := seedGroup(t, s)

			got, err := s.GetGroup(ctx, want.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			if got.Name != want.Name {
				t.Errorf("Name = %q, want %q", got.Name, want.Name)
			}
			if len(got.Members) != 3 || got.Members[0] != "Alena" || got.Members[2] != "Cyril" {
				t.Errorf("Members = %v, want ordered [Alena Bára Cyril]", got.Members)
			}

			cats, err := s.ListCategories(ctx, want.ID)
			if err != nil {
				t.Fatalf("ListCategories: %v", err)
			}
			if len(cats) != 2 || cats[0].Name != "Jídlo" {
				t.Errorf("categories = %v", cats)
			}

			if _, err := s.GetGroup(ctx, "nope"); !errors.Is(err, core.ErrUnknownGroup) {
				t.Errorf("GetGroup(nope) = %v, want ErrUnknownGroup", err)
			}

			groups, err := s.ListGroups(ctx)
			if err != nil {
				t.Fatalf("ListGroups: %v", err)
			}
			if len(groups) != 1 {
				t.Errorf("ListGroups returned %d groups, want 1", len(groups))
			}
		})
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			want := sampleExpense("t1")

			if err := s.AppendTransaction(ctx, group.ID, want); err != nil {
				t.Fatalf("AppendTransaction: %v", err)
			}

			got, err := s.GetGroup(ctx, group.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			if len(got.Transactions) != 1 {
				t.Fatalf("got %d transactions, want 1", len(got.Transactions))
			}
			tx := got.Transactions[0]
			if tx.ID != want.ID || tx.Description != want.Description {
				t.Errorf("transaction = %+v", tx)
			}
			if !tx.Amount.Equal(want.Amount) {
				t.Errorf("Amount = %s, want %s", tx.Amount, want.Amount)
			}
			if tx.LedgerAmount != 100 || tx.Currency != "EUR" {
				t.Errorf("frozen conversion lost: %d %s", tx.LedgerAmount, tx.Currency)
			}
			detail, ok := tx.Detail.(core.ExpenseDetail)
			if !ok {
				t.Fatalf("Detail is %T, want ExpenseDetail", tx.Detail)
			}
			if len(detail.Shares) != 2 || detail.Shares[0].Member != "Bára" ||
				detail.Shares[0].Fixed == nil || *detail.Shares[0].Fixed != 60 {
				t.Errorf("shares = %+v", detail.Shares)
			}
		})
	}
}

func TestIncomeRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			income := core.Transaction{
				ID:           "t2",
				Description:  "Vratka",
				Amount:       decimal.NewFromInt(500),
				Currency:     "CZK",
				LedgerAmount: 500,
				OccurredAt:   time.Date(2025, 7, 11, 9, 0, 0, 0, time.UTC),
				CreatedBy:    "Bára",
				Detail:       core.IncomeDetail{Recipient: "Bára"},
			}
			if err := s.AppendTransaction(ctx, group.ID, income); err != nil {
				t.Fatalf("AppendTransaction: %v", err)
			}
			got, err := s.GetGroup(ctx, group.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			detail, ok := got.Transactions[0].Detail.(core.IncomeDetail)
			if !ok {
				t.Fatalf("Detail is %T, want IncomeDetail", got.Transactions[0].Detail)
			}
			if detail.Recipient != "Bára" {
				t.Errorf("Recipient = %q", detail.Recipient)
			}
		})
	}
}

func TestDeleteTransactionHidesAndQueues(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			if err := s.AppendTransaction(ctx, group.ID, sampleExpense("t1")); err != nil {
				t.Fatalf("AppendTransaction: %v", err)
			}
			if err := s.MarkSynced(ctx, "t1"); err != nil {
				t.Fatalf("MarkSynced: %v", err)
			}

			if err := s.DeleteTransaction(ctx, group.ID, "t1"); err != nil {
				t.Fatalf("DeleteTransaction: %v", err)
			}
			got, err := s.GetGroup(ctx, group.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			if len(got.Transactions) != 0 {
				t.Error("deleted transaction still visible in snapshot")
			}

			pending, err := s.PendingSync(ctx, 10)
			if err != nil {
				t.Fatalf("PendingSync: %v", err)
			}
			if len(pending) != 1 || !pending[0].Deleted {
				t.Fatalf("pending = %+v, want one deleted row", pending)
			}

			if err := s.DeleteTransaction(ctx, group.ID, "t1"); !errors.Is(err, core.ErrUnknownTransaction) {
				t.Errorf("second delete = %v, want ErrUnknownTransaction", err)
			}
		})
	}
}

func TestOutboxFlow(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			if err := s.AppendTransaction(ctx, group.ID, sampleExpense("t1")); err != nil {
				t.Fatalf("AppendTransaction: %v", err)
			}

			pending, err := s.PendingSync(ctx, 10)
			if err != nil {
				t.Fatalf("PendingSync: %v", err)
			}
			if len(pending) != 1 || pending[0].TransactionID != "t1" || pending[0].Deleted {
				t.Fatalf("pending = %+v", pending)
			}

			stored, err := s.GetTransaction(ctx, "t1")
			if err != nil {
				t.Fatalf("GetTransaction: %v", err)
			}
			if stored.GroupID != group.ID || stored.GroupName != group.Name {
				t.Errorf("stored group = %q/%q", stored.GroupID, stored.GroupName)
			}
			if stored.Transaction.LedgerAmount != 100 {
				t.Errorf("LedgerAmount = %d", stored.Transaction.LedgerAmount)
			}

			if err := s.MarkSyncError(ctx, "t1", "sheets unavailable"); err != nil {
				t.Fatalf("MarkSyncError: %v", err)
			}
			pending, err = s.PendingSync(ctx, 10)
			if err != nil {
				t.Fatalf("PendingSync: %v", err)
			}
			if len(pending) != 1 {
				t.Fatal("errored row must stay pending")
			}

			if err := s.MarkSynced(ctx, "t1"); err != nil {
				t.Fatalf("MarkSynced: %v", err)
			}
			pending, err = s.PendingSync(ctx, 10)
			if err != nil {
				t.Fatalf("PendingSync: %v", err)
			}
			if len(pending) != 0 {
				t.Errorf("pending after sync = %+v", pending)
			}
		})
	}
}

func TestMembersAndSettlements(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)

			if err := s.SetMembers(ctx, group.ID, []string{"Alena", "Bára"}); err != nil {
				t.Fatalf("SetMembers: %v", err)
			}
			st := core.Settlement{
				ID: "s1", From: "Bára", To: "Alena", Amount: 100,
				RecordedAt: time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC),
				RecordedBy: "Bára",
			}
			if err := s.AppendSettlement(ctx, group.ID, st); err != nil {
				t.Fatalf("AppendSettlement: %v", err)
			}

			got, err := s.GetGroup(ctx, group.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			if len(got.Members) != 2 {
				t.Errorf("Members = %v, want 2", got.Members)
			}
			if len(got.Settlements) != 1 || got.Settlements[0].From != "Bára" {
				t.Errorf("Settlements = %+v", got.Settlements)
			}
		})
	}
}

func TestClearGroupData(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			if err := s.AppendTransaction(ctx, group.ID, sampleExpense("t1")); err != nil {
				t.Fatalf("AppendTransaction: %v", err)
			}
			if err := s.AppendSettlement(ctx, group.ID, core.Settlement{
				ID: "s1", From: "Bára", To: "Alena", Amount: 50, RecordedAt: time.Now(),
			}); err != nil {
				t.Fatalf("AppendSettlement: %v", err)
			}

			if err := s.ClearGroupData(ctx, group.ID); err != nil {
				t.Fatalf("ClearGroupData: %v", err)
			}
			got, err := s.GetGroup(ctx, group.ID)
			if err != nil {
				t.Fatalf("GetGroup: %v", err)
			}
			if len(got.Transactions) != 0 || len(got.Settlements) != 0 {
				t.Error("group data was not cleared")
			}
			if len(got.Members) != 3 {
				t.Error("members must survive a data clear")
			}
		})
	}
}

func TestDeleteGroup(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			if err := s.DeleteGroup(ctx, group.ID); err != nil {
				t.Fatalf("DeleteGroup: %v", err)
			}
			if _, err := s.GetGroup(ctx, group.ID); !errors.Is(err, core.ErrUnknownGroup) {
				t.Errorf("GetGroup after delete = %v, want ErrUnknownGroup", err)
			}
			if err := s.DeleteGroup(ctx, group.ID); !errors.Is(err, core.ErrUnknownGroup) {
				t.Errorf("second delete = %v, want ErrUnknownGroup", err)
			}
		})
	}
}

func TestSaveCategories(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := seedGroup(t, s)
			next := []core.Category{{Name: "Sport", Icon: "⚽"}}
			if err := s.SaveCategories(ctx, group.ID, next); err != nil {
				t.Fatalf("SaveCategories: %v", err)
			}
			got, err := s.ListCategories(ctx, group.ID)
			if err != nil {
				t.Fatalf("ListCategories: %v", err)
			}
			if len(got) != 1 || got[0].Name != "Sport" {
				t.Errorf("categories = %+v", got)
			}
		})
	}
}

func TestSchemaVersionAfterMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vydaje.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if dirty {
		t.Error("schema reported dirty after a clean migration run")
	}
	if version == 0 {
		t.Error("schema version is 0, want the applied migration version")
	}
}
