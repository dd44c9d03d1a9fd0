package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestEncode(t *testing.T) {
	tx := core.Transaction{
		ID:    12,
		Owner: "alice",
		Details: core.Details{
			Date:        core.NewDate(2024, 1, 12),
			Kind:        core.Expense,
			Category:    "Food",
			Amount:      decimal.RequireFromString("4.5"),
			Currency:    "EUR",
			Description: "lunch, with friends",
		},
	}
	assert.Equal(t,
		[]string{"12", "alice", "2024-01-12", "Expense", "Food", "4.50", "EUR", "lunch, with friends"},
		Encode(tx))

	got, err := Decode(Encode(tx))
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, got.Amount.Equal(tx.Amount))
	assert.True(t, got.Date.Equal(tx.Date))
}

func TestDecode_Errors(t *testing.T) {
	valid := []string{"1", "alice", "2024-01-12", "Expense", "Food", "4.50", "EUR", ""}
	with := func(i int, v string) []string {
		out := append([]string(nil), valid...)
		out[i] = v
		return out
	}

	tests := []struct {
		name   string
		fields []string
		want   error
	}{
		{"bad id", with(0, "x"), core.ErrInvalidID},
		{"negative id", with(0, "-3"), core.ErrInvalidID},
		{"empty owner", with(1, ""), core.ErrEmptyOwner},
		{"bad date", with(2, "2024-02-30"), core.ErrInvalidDate},
		{"bad kind", with(3, "Transfer"), core.ErrInvalidKind},
		{"empty category", with(4, ""), core.ErrEmptyCategory},
		{"bad amount", with(5, "-1"), core.ErrInvalidAmount},
		{"bad currency", with(6, "EU"), core.ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.fields)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}

	_, err := Decode(valid[:7])
	assert.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	fields := []string{"bob", "2024-03-01", "income", "Salary", "2500", "USD", "monthly"}
	rt, err := DecodeTemplate(fields)
	require.NoError(t, err)
	assert.Equal(t, core.Income, rt.Kind)
	assert.Equal(t, []string{"bob", "2024-03-01", "Income", "Salary", "2500.00", "USD", "monthly"}, EncodeTemplate(rt))
}
