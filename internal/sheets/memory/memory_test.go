package memory

import (
	"context"
	"testing"

	ports "vydaje/internal/sheets"
)

func TestAppendAndDelete(t *testing.T) {
	e := New()
	ctx := context.Background()

	ref, err := e.AppendTransaction(ctx, ports.Row{TransactionID: "t1", Description: "Večeře"})
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if ref == "" {
		t.Error("empty row reference")
	}
	if _, err := e.AppendTransaction(ctx, ports.Row{TransactionID: "t2"}); err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}

	if err := e.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	rows := e.Rows()
	if len(rows) != 1 || rows[0].TransactionID != "t2" {
		t.Errorf("rows = %+v, want only t2", rows)
	}

	// deleting an unknown id is a no-op
	if err := e.DeleteTransaction(ctx, "missing"); err != nil {
		t.Errorf("DeleteTransaction(missing) = %v", err)
	}
}

func TestFailAppend(t *testing.T) {
	e := New()
	e.FailAppend = true
	if _, err := e.AppendTransaction(context.Background(), ports.Row{TransactionID: "t1"}); err == nil {
		t.Error("expected append failure")
	}
	if len(e.Rows()) != 0 {
		t.Error("failed append stored a row")
	}
}
