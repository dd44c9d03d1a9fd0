package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

func details(category, amount string) core.Details {
	return core.Details{
		Date:        core.NewDate(2024, 1, 12),
		Kind:        core.Expense,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "EUR",
		Description: `quoted "text", commas`,
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	txs := []core.Transaction{
		{ID: 1, Owner: "alice", Details: details("Food", "300")},
		{ID: 2, Owner: "alice", Details: details("Transport", "1.5")},
	}
	require.NoError(t, s.Save(ctx, "alice", txs))

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, `quoted "text", commas`, got[1].Description)
	assert.Equal(t, "1.50", got[1].Amount.StringFixed(2))

	require.NoError(t, s.Save(ctx, "alice", nil))
	got, err = s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	txs, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, txs)

	items, err := s.LoadRecurring(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_OwnerCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../evil", []core.Transaction{
		{ID: 1, Owner: "../evil", Details: details("Food", "1")},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"..%2Fevil.csv", "..%2Fevil.meta.csv"}, names)
}

func TestStore_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
	}{
		{"wrong header", "a,b,c,d,e,f,g,h\n"},
		{"short row", "id,owner,date,kind,category,amount,currency,description\n1,alice,2024-01-12\n"},
		{"invalid day", "id,owner,date,kind,category,amount,currency,description\n1,alice,2024-02-30,Expense,Food,1.00,EUR,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.csv"), []byte(tt.content), 0o644))
			_, err := s.Load(context.Background(), "alice")
			assert.Error(t, err)
		})
	}
}

func TestStore_Recurring(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	items := []core.RecurringTemplate{
		{Owner: "alice", Details: details("Rent", "700")},
		{Owner: "alice", Details: details("Gym", "30")},
	}
	require.NoError(t, s.SaveRecurring(ctx, "alice", items))

	got, err := s.LoadRecurring(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rent", got[0].Category)
	assert.Equal(t, "Gym", got[1].Category)
}

func TestStore_MaxIssuedIDOnlyGrows(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	id, err := s.MaxIssuedID(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, s.Save(ctx, "alice", []core.Transaction{
		{ID: 1, Owner: "alice", Details: details("Food", "1")},
		{ID: 2, Owner: "alice", Details: details("Food", "2")},
	}))
	require.NoError(t, s.Save(ctx, "alice", []core.Transaction{
		{ID: 1, Owner: "alice", Details: details("Food", "1")},
	}))

	id, err = s.MaxIssuedID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	id, err = s.MaxIssuedID(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestStore_DeletedIDNotReusedAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	open := func() *ledger.Session {
		s, err := New(dir)
		require.NoError(t, err)
		sess, err := ledger.OpenSession(ctx, "alice", ledger.Options{Persister: s})
		require.NoError(t, err)
		return sess
	}

	sess := open()
	_, err := sess.Add(ctx, details("Food", "1"))
	require.NoError(t, err)
	second, err := sess.Add(ctx, details("Food", "2"))
	require.NoError(t, err)
	_, err = sess.Delete(ctx, second.ID)
	require.NoError(t, err)

	tx, err := open().Add(ctx, details("Food", "3"))
	require.NoError(t, err)
	assert.Greater(t, tx.ID, second.ID)
}

func TestStore_RejectsCorruptMeta(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.meta.csv"), []byte("max_issued_id\nlots\n"), 0o644))

	_, err = s.MaxIssuedID(context.Background(), "alice")
	assert.Error(t, err)
}
