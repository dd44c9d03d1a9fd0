package category

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func tx(id int64, category string, kind core.Kind, amount string, day core.Date) core.Transaction {
	return core.Transaction{
		ID:    id,
		Owner: "alice",
		Details: core.Details{
			Date:     day,
			Kind:     kind,
			Category: category,
			Amount:   decimal.RequireFromString(amount),
			Currency: "EUR",
		},
	}
}

func TestIndex_SameCategoryAggregates(t *testing.T) {
	d := core.NewDate(2024, 1, 12)
	x := NewIndex()
	x.Rebuild([]core.Transaction{
		tx(1, "Food", core.Expense, "300", d),
		tx(2, "Food", core.Expense, "150", d),
	})

	got := x.InOrder()
	require.Len(t, got, 1)
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "450.00", got[0].TotalSpent.StringFixed(2))
	assert.Equal(t, []int64{1, 2}, x.IDs("Food"))
}

func TestIndex_InOrderIsSortedByName(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	x := NewIndex()
	for i, name := range []string{"Rent", "Food", "Travel", "Books", "Salary", "Gym"} {
		x.Insert(tx(int64(i+1), name, core.Expense, "1", d))
	}

	var names []string
	for _, ct := range x.InOrder() {
		names = append(names, ct.Category)
	}
	assert.Equal(t, []string{"Books", "Food", "Gym", "Rent", "Salary", "Travel"}, names)
	assert.Equal(t, 6, x.Len())
}

func TestIndex_IncomeCountsButDoesNotAddToTotal(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	x := NewIndex()
	x.Insert(tx(1, "Salary", core.Income, "2500", d))
	x.Insert(tx(2, "Food", core.Expense, "12.50", d))

	salary, ok := x.Lookup("Salary")
	require.True(t, ok)
	assert.Equal(t, 1, salary.Count)
	assert.True(t, salary.TotalSpent.IsZero())

	assert.Equal(t, "12.50", x.GrandTotal().StringFixed(2))

	_, ok = x.Lookup("Missing")
	assert.False(t, ok)
	assert.Nil(t, x.IDs("Missing"))
}

func TestIndex_DegenerateTreeWalks(t *testing.T) {
	// sorted insertion degrades the tree to a list
	d := core.NewDate(2024, 3, 1)
	x := NewIndex()
	var want []string
	for i := 0; i < 5000; i++ {
		name := string(rune('a'+i/676%26)) + string(rune('a'+i/26%26)) + string(rune('a'+i%26))
		x.Insert(tx(int64(i+1), name, core.Expense, "1", d))
		want = append(want, name)
	}

	got := x.InOrder()
	require.Len(t, got, len(want))
	assert.Equal(t, want[0], got[0].Category)
	assert.Equal(t, want[len(want)-1], got[len(got)-1].Category)
	assert.Equal(t, "5000", x.GrandTotal().String())
}

func TestIndex_RebuildDiscardsPreviousState(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	x := NewIndex()
	x.Insert(tx(1, "Food", core.Expense, "10", d))
	x.Rebuild([]core.Transaction{tx(2, "Rent", core.Expense, "700", d)})

	_, ok := x.Lookup("Food")
	assert.False(t, ok)
	assert.Equal(t, 1, x.Len())
	assert.Equal(t, "700", x.GrandTotal().String())
}
