package google

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func TestBuildRows(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, Owner: "alice", Details: core.Details{
			Date: core.NewDate(2024, 1, 12), Kind: core.Income, Category: "Salary",
			Amount: decimal.RequireFromString("1500"), Currency: "EUR", Description: "January",
		}},
		{ID: 3, Owner: "alice", Details: core.Details{
			Date: core.NewDate(2024, 1, 13), Kind: core.Expense, Category: "Food",
			Amount: decimal.RequireFromString("12.5"), Currency: "EUR",
		}},
	}

	rows := buildRows(txs)
	if len(rows) != 3 {
		t.Fatalf("buildRows() returned %d rows, want 3", len(rows))
	}
	wantHeader := []any{"id", "owner", "date", "kind", "category", "amount", "currency", "description"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	want := []any{"3", "alice", "2024-01-13", "Expense", "Food", "12.50", "EUR", ""}
	if !reflect.DeepEqual(rows[2], want) {
		t.Errorf("row = %v, want %v", rows[2], want)
	}
}

func TestBuildRows_EmptyLedgerKeepsHeader(t *testing.T) {
	if rows := buildRows(nil); len(rows) != 1 {
		t.Errorf("buildRows(nil) returned %d rows, want 1", len(rows))
	}
}

func TestTabName(t *testing.T) {
	tests := []struct {
		prefix, owner, want string
	}{
		{"Ledger", "alice", "Ledger alice"},
		{"", "alice", "alice"},
		{"  Ledger", "bob", "Ledger bob"},
	}
	for _, tt := range tests {
		if got := TabName(tt.prefix, tt.owner); got != tt.want {
			t.Errorf("TabName(%q, %q) = %q, want %q", tt.prefix, tt.owner, got, tt.want)
		}
	}
}

func TestQuoteTab(t *testing.T) {
	if got := quoteTab("Ledger o'brien"); got != "'Ledger o''brien'" {
		t.Errorf("quoteTab() = %q", got)
	}
}

func TestNew_RequiresConfiguration(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, " ", "Ledger", Credentials{JSON: "{}"}, nil); err == nil ||
		!strings.Contains(err.Error(), "spreadsheet id") {
		t.Errorf("New() with no spreadsheet id = %v", err)
	}
	if _, err := New(ctx, "sheet-id", "Ledger", Credentials{}, nil); err == nil ||
		!strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("New() with no credentials = %v", err)
	}
	if _, err := New(ctx, "sheet-id", "Ledger", Credentials{File: t.TempDir() + "/missing.json"}, nil); err == nil ||
		!strings.Contains(err.Error(), "read service account file") {
		t.Errorf("New() with missing file = %v", err)
	}
}
