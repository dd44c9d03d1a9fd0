package recurring

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func template(desc string) core.RecurringTemplate {
	return core.RecurringTemplate{
		Owner: "alice",
		Details: core.Details{
			Date:        core.NewDate(2024, 4, 1),
			Kind:        core.Expense,
			Category:    "Rent",
			Amount:      decimal.RequireFromString("800"),
			Currency:    "EUR",
			Description: desc,
		},
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Enqueue(template("a")))
	require.NoError(t, q.Enqueue(template("b")))
	require.NoError(t, q.Enqueue(template("c")))

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", head.Description)

	for _, want := range []string{"a", "b", "c"} {
		rt, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, rt.Description)
	}
	_, err := q.Dequeue()
	assert.ErrorIs(t, err, core.ErrQueueEmpty)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestQueue_Capacity(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(template("a")))
	require.NoError(t, q.Enqueue(template("b")))

	err := q.Enqueue(template("c"))
	assert.ErrorIs(t, err, core.ErrQueueFull)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.Capacity())

	assert.ErrorIs(t, q.Load([]core.RecurringTemplate{template("x"), template("y"), template("z")}), core.ErrQueueFull)
	assert.Equal(t, 2, q.Len(), "failed load keeps the previous content")
}

func TestQueue_EnqueueValidates(t *testing.T) {
	q := NewQueue(0)
	bad := template("a")
	bad.Amount = decimal.RequireFromString("-1")

	assert.ErrorIs(t, q.Enqueue(bad), core.ErrValidation)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PayNext(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Enqueue(template("a")))
	require.NoError(t, q.Enqueue(template("b")))

	var added []core.Transaction
	tx, err := q.PayNext(AdderFunc(func(tx core.Transaction) (core.Transaction, error) {
		tx.ID = 7
		added = append(added, tx)
		return tx, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, "a", tx.Description)
	assert.Equal(t, "alice", tx.Owner)
	require.Len(t, added, 1)

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Description)
}

func TestQueue_PayNextFailureKeepsHead(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(template("a")))
	require.NoError(t, q.Enqueue(template("b")))

	boom := errors.New("boom")
	_, err := q.PayNext(AdderFunc(func(core.Transaction) (core.Transaction, error) {
		return core.Transaction{}, boom
	}))
	require.ErrorIs(t, err, boom)

	items := q.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Description)
	assert.Equal(t, "b", items[1].Description)
}

func TestQueue_PayNextEmpty(t *testing.T) {
	q := NewQueue(0)
	_, err := q.PayNext(AdderFunc(func(core.Transaction) (core.Transaction, error) {
		t.Fatal("adder must not be called")
		return core.Transaction{}, nil
	}))
	assert.ErrorIs(t, err, core.ErrQueueEmpty)
}

func TestQueue_ItemsIsSnapshot(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Enqueue(template("a")))

	items := q.Items()
	items[0].Description = "changed"

	head, _ := q.Peek()
	assert.Equal(t, "a", head.Description)
}

func TestQueue_DropLastAndPushFront(t *testing.T) {
	q := NewQueue(2)
	_, ok := q.DropLast()
	assert.False(t, ok)

	require.NoError(t, q.Enqueue(template("a")))
	require.NoError(t, q.Enqueue(template("b")))

	last, ok := q.DropLast()
	require.True(t, ok)
	assert.Equal(t, "b", last.Description)

	head, err := q.Dequeue()
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(template("c")))
	q.PushFront(head)

	items := q.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Description)
	assert.Equal(t, "c", items[1].Description)
}
