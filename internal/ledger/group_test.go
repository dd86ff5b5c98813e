package ledger

import (
	"errors"
	"testing"
	"time"

	"vydaje/internal/core"
)

func TestNewGroup(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	g, err := NewGroup("Výlet", []string{" Alena ", "Bára", ""}, now)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	if g.ID == "" {
		t.Error("group has no id")
	}
	if len(g.Members) != 2 || g.Members[0] != "Alena" || g.Members[1] != "Bára" {
		t.Errorf("members = %v, want [Alena Bára]", g.Members)
	}
	if !g.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", g.CreatedAt, now)
	}
}

func TestNewGroupValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewGroup("", []string{"A", "B"}, now); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewGroup("x", []string{"A"}, now); !errors.Is(err, core.ErrGroupTooSmall) {
		t.Errorf("err = %v, want ErrGroupTooSmall", err)
	}
	if _, err := NewGroup("x", []string{"A", "A"}, now); !errors.Is(err, core.ErrDuplicateMember) {
		t.Errorf("err = %v, want ErrDuplicateMember", err)
	}
}

func TestAddMember(t *testing.T) {
	g := testGroup()
	if err := AddMember(g, "Dana"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if !g.HasMember("Dana") {
		t.Error("Dana was not added")
	}
	if err := AddMember(g, "Dana"); !errors.Is(err, core.ErrDuplicateMember) {
		t.Errorf("err = %v, want ErrDuplicateMember", err)
	}
	if err := AddMember(g, "  "); err == nil {
		t.Error("expected error for blank member name")
	}
}

func TestRemoveMember(t *testing.T) {
	g := testGroup()
	if err := RemoveMember(g, "Cyril"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if g.HasMember("Cyril") {
		t.Error("Cyril was not removed")
	}
	if err := RemoveMember(g, "Bára"); !errors.Is(err, core.ErrGroupTooSmall) {
		t.Errorf("err = %v, want ErrGroupTooSmall", err)
	}
}

func TestRemoveMemberUnknown(t *testing.T) {
	if err := RemoveMember(testGroup(), "Dana"); err == nil {
		t.Error("expected error for unknown member")
	}
}

func TestClearData(t *testing.T) {
	g := testGroup()
	g.Transactions = []core.Transaction{{ID: "t1"}}
	g.Settlements = []core.Settlement{{ID: "s1"}}
	ClearData(g)
	if len(g.Transactions) != 0 || len(g.Settlements) != 0 {
		t.Error("group data was not cleared")
	}
	if len(g.Members) != 3 {
		t.Error("members must survive a data clear")
	}
}

func TestCategories(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) == 0 {
		t.Fatal("no default categories")
	}

	cats, err := AddCategory(cats, core.Category{Name: "Sport", Icon: "⚽"})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := AddCategory(cats, core.Category{Name: "Sport"}); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Errorf("err = %v, want ErrDuplicateCategory", err)
	}
	if _, err := AddCategory(cats, core.Category{Name: " "}); err == nil {
		t.Error("expected error for blank category name")
	}

	cats, err = RemoveCategory(cats, "Sport")
	if err != nil {
		t.Fatalf("RemoveCategory: %v", err)
	}
	for _, c := range cats {
		if c.Name == "Sport" {
			t.Error("Sport was not removed")
		}
	}
	if _, err := RemoveCategory(cats, "Neexistuje"); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}

	single := []core.Category{{Name: "Ostatní"}}
	if _, err := RemoveCategory(single, "Ostatní"); !errors.Is(err, core.ErrLastCategory) {
		t.Errorf("err = %v, want ErrLastCategory", err)
	}
}
