// Package category provides the read-models derived from a ledger: a
// binary search tree aggregating expense totals per category, and an
// undirected graph of categories linked by same-day co-occurrence.
package category

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

type node struct {
	name  string
	total decimal.Decimal
	ids   []int64
	left  *node
	right *node
}

// Index is an unbalanced BST keyed by category name. Nodes keep transaction
// ids as back-references, never copies of the transactions.
type Index struct {
	root *node
	size int
}

func NewIndex() *Index {
	return &Index{}
}

// Insert records tx under its category, creating the node on first use.
// Expense amounts are added to the node total; income only counts as an item.
func (x *Index) Insert(tx core.Transaction) {
	n := x.locate(tx.Category)
	n.ids = append(n.ids, tx.ID)
	if tx.Kind == core.Expense {
		n.total = n.total.Add(tx.Amount)
	}
}

// Rebuild discards the tree and inserts txs in the given order.
func (x *Index) Rebuild(txs []core.Transaction) {
	x.root, x.size = nil, 0
	for _, tx := range txs {
		x.Insert(tx)
	}
}

// Len returns the number of distinct categories.
func (x *Index) Len() int {
	return x.size
}

// Lookup returns the summary for one category.
func (x *Index) Lookup(name string) (core.CategoryTotal, bool) {
	for n := x.root; n != nil; {
		switch {
		case name < n.name:
			n = n.left
		case name > n.name:
			n = n.right
		default:
			return n.summary(), true
		}
	}
	return core.CategoryTotal{}, false
}

// IDs returns the transaction ids referenced by a category, in insertion order.
func (x *Index) IDs(name string) []int64 {
	for n := x.root; n != nil; {
		switch {
		case name < n.name:
			n = n.left
		case name > n.name:
			n = n.right
		default:
			return append([]int64(nil), n.ids...)
		}
	}
	return nil
}

// InOrder lists every category in ascending name order.
func (x *Index) InOrder() []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0, x.size)
	x.walk(func(n *node) {
		out = append(out, n.summary())
	})
	return out
}

// GrandTotal is the sum of all node totals, i.e. every expense in the ledger.
func (x *Index) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	x.walk(func(n *node) {
		total = total.Add(n.total)
	})
	return total
}

func (x *Index) locate(name string) *node {
	link := &x.root
	for *link != nil {
		n := *link
		switch {
		case name < n.name:
			link = &n.left
		case name > n.name:
			link = &n.right
		default:
			return n
		}
	}
	*link = &node{name: name, total: decimal.Zero}
	x.size++
	return *link
}

// walk visits nodes in order with an explicit stack, so a degenerate tree
// cannot exhaust the goroutine stack.
func (x *Index) walk(visit func(*node)) {
	var stack []*node
	n := x.root
	for n != nil || len(stack) > 0 {
		for n != nil {
			stack = append(stack, n)
			n = n.left
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		n = n.right
	}
}

func (n *node) summary() core.CategoryTotal {
	return core.CategoryTotal{
		Category:   n.name,
		Count:      len(n.ids),
		TotalSpent: n.total,
	}
}
