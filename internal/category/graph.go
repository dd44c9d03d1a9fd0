package category

import (
	"fmt"
	"iter"

	"ledger/internal/core"
)

type neighbor struct {
	to     int
	weight int
}

// Graph is an undirected weighted graph over category names. Two categories
// are linked each time transactions of theirs sit next to each other in
// store order and share a date; the edge weight counts those occurrences.
//
// Vertices are numbered in order of first appearance and each adjacency
// list keeps edge insertion order, so traversals are deterministic.
type Graph struct {
	names []string
	ids   map[string]int
	adj   [][]neighbor
	edges []core.Edge
	slot  map[[2]int]int // vertex pair (low, high) -> index in edges
}

func NewGraph() *Graph {
	g := &Graph{}
	g.reset()
	return g
}

// Rebuild recomputes vertices and edges from txs, which must be in store order.
func (g *Graph) Rebuild(txs []core.Transaction) {
	g.reset()
	for i, tx := range txs {
		v := g.vertex(tx.Category)
		if i == 0 {
			continue
		}
		prev := txs[i-1]
		if prev.Category == tx.Category || !prev.Date.Equal(tx.Date) {
			continue
		}
		g.link(g.ids[prev.Category], v)
	}
}

// Vertices returns category names in first-appearance order.
func (g *Graph) Vertices() []string {
	return append([]string(nil), g.names...)
}

func (g *Graph) HasVertex(name string) bool {
	_, ok := g.ids[name]
	return ok
}

// Edges returns every edge in creation order.
func (g *Graph) Edges() []core.Edge {
	return append([]core.Edge(nil), g.edges...)
}

// Weight returns the weight of the edge between a and b, or 0.
func (g *Graph) Weight(a, b string) int {
	va, okA := g.ids[a]
	vb, okB := g.ids[b]
	if !okA || !okB {
		return 0
	}
	if i, ok := g.slot[pair(va, vb)]; ok {
		return g.edges[i].Weight
	}
	return 0
}

// DFS yields category names reachable from start in depth-first preorder.
// Each range over the sequence starts a fresh traversal. An unknown start
// yields nothing.
func (g *Graph) DFS(start string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s, ok := g.ids[start]
		if !ok {
			return
		}
		seen := make([]bool, len(g.names))
		stack := []int{s}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[v] {
				continue
			}
			seen[v] = true
			if !yield(g.names[v]) {
				return
			}
			// push in reverse so the first neighbor is visited first
			for i := len(g.adj[v]) - 1; i >= 0; i-- {
				if n := g.adj[v][i].to; !seen[n] {
					stack = append(stack, n)
				}
			}
		}
	}
}

// BFS yields category names reachable from start in breadth-first order.
func (g *Graph) BFS(start string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s, ok := g.ids[start]
		if !ok {
			return
		}
		seen := make([]bool, len(g.names))
		seen[s] = true
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			if !yield(g.names[v]) {
				return
			}
			for _, n := range g.adj[v] {
				if !seen[n.to] {
					seen[n.to] = true
					queue = append(queue, n.to)
				}
			}
		}
	}
}

// MinimumSpanningTreeWeight runs Prim's algorithm from start and returns the
// total weight of a minimum spanning tree of the component containing start.
// Vertices outside that component are ignored: a disconnected graph gives
// the weight of one component, not of a spanning forest.
func (g *Graph) MinimumSpanningTreeWeight(start string) (int, error) {
	s, ok := g.ids[start]
	if !ok {
		return 0, fmt.Errorf("category %q: %w", start, core.ErrNotFound)
	}
	n := len(g.names)
	const unreached = -1
	best := make([]int, n)
	for i := range best {
		best[i] = unreached
	}
	inTree := make([]bool, n)
	best[s] = 0
	total := 0
	for {
		u := unreached
		for v := 0; v < n; v++ {
			if inTree[v] || best[v] == unreached {
				continue
			}
			if u == unreached || best[v] < best[u] {
				u = v
			}
		}
		if u == unreached {
			return total, nil
		}
		inTree[u] = true
		total += best[u]
		for _, e := range g.adj[u] {
			if !inTree[e.to] && (best[e.to] == unreached || e.weight < best[e.to]) {
				best[e.to] = e.weight
			}
		}
	}
}

func (g *Graph) reset() {
	g.names = nil
	g.ids = make(map[string]int)
	g.adj = nil
	g.edges = nil
	g.slot = make(map[[2]int]int)
}

func (g *Graph) vertex(name string) int {
	if v, ok := g.ids[name]; ok {
		return v
	}
	v := len(g.names)
	g.names = append(g.names, name)
	g.ids[name] = v
	g.adj = append(g.adj, nil)
	return v
}

func (g *Graph) link(a, b int) {
	key := pair(a, b)
	if i, ok := g.slot[key]; ok {
		g.edges[i].Weight++
		for j := range g.adj[a] {
			if g.adj[a][j].to == b {
				g.adj[a][j].weight++
			}
		}
		for j := range g.adj[b] {
			if g.adj[b][j].to == a {
				g.adj[b][j].weight++
			}
		}
		return
	}
	g.slot[key] = len(g.edges)
	g.edges = append(g.edges, core.Edge{From: g.names[a], To: g.names[b], Weight: 1})
	g.adj[a] = append(g.adj[a], neighbor{to: b, weight: 1})
	g.adj[b] = append(g.adj[b], neighbor{to: a, weight: 1})
}

func pair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
