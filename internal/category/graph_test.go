package category

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func expense(id int64, category string, day core.Date) core.Transaction {
	return tx(id, category, core.Expense, "1", day)
}

func TestGraph_AdjacentSameDayPairsIncrementWeight(t *testing.T) {
	jan := core.NewDate(2024, 1, 12)
	feb := core.NewDate(2024, 2, 1)
	txs := []core.Transaction{
		expense(1, "Food", jan),
		expense(2, "Transport", jan),
	}

	g := NewGraph()
	g.Rebuild(txs)
	assert.Equal(t, 1, g.Weight("Food", "Transport"))
	assert.Equal(t, 1, g.Weight("Transport", "Food"))

	txs = append(txs, expense(3, "Food", feb), expense(4, "Transport", feb))
	g.Rebuild(txs)
	assert.Equal(t, 2, g.Weight("Food", "Transport"))
	assert.Equal(t, []core.Edge{{From: "Food", To: "Transport", Weight: 2}}, g.Edges())
}

func TestGraph_OnlyConsecutivePairsCount(t *testing.T) {
	d := core.NewDate(2024, 5, 5)
	g := NewGraph()
	g.Rebuild([]core.Transaction{
		expense(1, "Food", d),
		expense(2, "Food", d),
		expense(3, "Rent", d),
		expense(4, "Gym", core.NewDate(2024, 5, 6)),
	})

	assert.Equal(t, []string{"Food", "Rent", "Gym"}, g.Vertices())
	assert.Equal(t, 1, g.Weight("Food", "Rent"))
	// same-day but not adjacent, or adjacent but on another day
	assert.Zero(t, g.Weight("Rent", "Gym"))
	assert.Zero(t, g.Weight("Food", "Gym"))
	assert.Len(t, g.Edges(), 1)
	assert.True(t, g.HasVertex("Gym"))
	assert.False(t, g.HasVertex("Travel"))
}

// sample builds A-B, A-C, B-D and a separate E-F component.
func sample() *Graph {
	g := NewGraph()
	g.Rebuild([]core.Transaction{
		expense(1, "A", core.NewDate(2024, 1, 1)),
		expense(2, "B", core.NewDate(2024, 1, 1)),
		expense(3, "A", core.NewDate(2024, 1, 2)),
		expense(4, "C", core.NewDate(2024, 1, 2)),
		expense(5, "B", core.NewDate(2024, 1, 3)),
		expense(6, "D", core.NewDate(2024, 1, 3)),
		expense(7, "E", core.NewDate(2024, 1, 4)),
		expense(8, "F", core.NewDate(2024, 1, 4)),
	})
	return g
}

func TestGraph_Traversals(t *testing.T) {
	g := sample()

	assert.Equal(t, []string{"A", "B", "D", "C"}, slices.Collect(g.DFS("A")))
	assert.Equal(t, []string{"A", "B", "C", "D"}, slices.Collect(g.BFS("A")))
	assert.Equal(t, []string{"E", "F"}, slices.Collect(g.BFS("E")))
	assert.Empty(t, slices.Collect(g.DFS("missing")))
	assert.Empty(t, slices.Collect(g.BFS("missing")))
}

func TestGraph_TraversalIsRestartable(t *testing.T) {
	g := sample()
	seq := g.DFS("A")

	var first []string
	for name := range seq {
		first = append(first, name)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"A", "B"}, first)
	assert.Equal(t, []string{"A", "B", "D", "C"}, slices.Collect(seq))
}

func TestGraph_MinimumSpanningTreeWeight(t *testing.T) {
	g := sample()

	w, err := g.MinimumSpanningTreeWeight("A")
	require.NoError(t, err)
	assert.Equal(t, 3, w)

	// disconnected: only the component of the start vertex counts
	w, err = g.MinimumSpanningTreeWeight("E")
	require.NoError(t, err)
	assert.Equal(t, 1, w)

	_, err = g.MinimumSpanningTreeWeight("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGraph_MinimumSpanningTreePicksLightEdges(t *testing.T) {
	var txs []core.Transaction
	id := int64(0)
	add := func(a, b string, times int, day int) {
		for i := 0; i < times; i++ {
			d := core.NewDate(2024, 6, day+i*7)
			id++
			txs = append(txs, expense(id, a, d))
			id++
			txs = append(txs, expense(id, b, d))
		}
	}
	add("A", "B", 2, 1)
	add("B", "C", 1, 3)
	add("A", "C", 3, 4)

	g := NewGraph()
	g.Rebuild(txs)
	require.Equal(t, 2, g.Weight("A", "B"))
	require.Equal(t, 1, g.Weight("B", "C"))
	require.Equal(t, 3, g.Weight("A", "C"))

	w, err := g.MinimumSpanningTreeWeight("A")
	require.NoError(t, err)
	assert.Equal(t, 3, w)
}

func TestGraph_SingleVertex(t *testing.T) {
	g := NewGraph()
	g.Rebuild([]core.Transaction{expense(1, "Solo", core.NewDate(2024, 1, 1))})

	w, err := g.MinimumSpanningTreeWeight("Solo")
	require.NoError(t, err)
	assert.Zero(t, w)
	assert.Equal(t, []string{"Solo"}, slices.Collect(g.DFS("Solo")))
}
