package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTx(id int64, owner, category, amount string) core.Transaction {
	return core.Transaction{
		ID:    id,
		Owner: owner,
		Details: core.Details{
			Date:        core.NewDate(2024, 1, 12),
			Kind:        core.Expense,
			Category:    category,
			Amount:      decimal.RequireFromString(amount),
			Currency:    "EUR",
			Description: "it's " + category,
		},
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, uint(2), v2)
}

func TestSQLiteRepository_SaveLoad(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	txs := []core.Transaction{
		sampleTx(1, "alice", "Food", "300"),
		sampleTx(3, "alice", "Transport", "12.5"),
	}
	require.NoError(t, repo.Save(ctx, "alice", txs))
	require.NoError(t, repo.Save(ctx, "bob", []core.Transaction{sampleTx(1, "bob", "Rent", "700")}))

	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Transport", got[1].Category)
	assert.Equal(t, "12.50", got[1].Amount.StringFixed(2))
	assert.Equal(t, "it's Transport", got[1].Description)
	assert.True(t, got[0].Date.Equal(core.NewDate(2024, 1, 12)))

	// replace, not append
	require.NoError(t, repo.Save(ctx, "alice", txs[:1]))
	got, err = repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	owners, err := repo.Owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, owners)
}

func TestSQLiteRepository_LoadUnknownOwner(t *testing.T) {
	repo := newRepo(t)
	got, err := repo.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	maxID, err := repo.MaxIssuedID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, maxID)
}

func TestSQLiteRepository_WatermarkOnlyGrows(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "alice", []core.Transaction{sampleTx(1, "alice", "Food", "1"), sampleTx(2, "alice", "Food", "2")}))
	require.NoError(t, repo.Save(ctx, "alice", []core.Transaction{sampleTx(1, "alice", "Food", "1")}))

	maxID, err := repo.MaxIssuedID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxID)
}

func TestSQLiteRepository_Recurring(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	items := []core.RecurringTemplate{
		{Owner: "alice", Details: sampleTx(0, "alice", "Rent", "700").Details},
		{Owner: "alice", Details: sampleTx(0, "alice", "Gym", "30").Details},
	}
	require.NoError(t, repo.SaveRecurring(ctx, "alice", items))

	got, err := repo.LoadRecurring(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rent", got[0].Category)
	assert.Equal(t, "Gym", got[1].Category)

	require.NoError(t, repo.SaveRecurring(ctx, "alice", got[1:]))
	got, err = repo.LoadRecurring(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gym", got[0].Category)
}

func TestSQLiteRepository_BacksASession(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	s, err := ledger.OpenSession(ctx, "alice", ledger.Options{Persister: repo})
	require.NoError(t, err)
	a, err := s.Add(ctx, sampleTx(0, "", "Food", "10").Details)
	require.NoError(t, err)
	b, err := s.Add(ctx, sampleTx(0, "", "Books", "20").Details)
	require.NoError(t, err)
	_, err = s.Delete(ctx, b.ID)
	require.NoError(t, err)
	_, err = s.EnqueueRecurring(ctx, sampleTx(0, "", "Rent", "700").Details)
	require.NoError(t, err)

	reopened, err := ledger.OpenSession(ctx, "alice", ledger.Options{Persister: repo})
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
	assert.True(t, a.Amount.Equal(list[0].Amount))
	assert.Len(t, reopened.Recurring(), 1)

	// the deleted id stays retired across sessions
	c, err := reopened.Add(ctx, sampleTx(0, "", "Food", "5").Details)
	require.NoError(t, err)
	assert.Equal(t, b.ID+1, c.ID)
}
