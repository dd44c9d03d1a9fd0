package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// FindByAmount returns the transactions whose amount equals amount, in store order.
func (s *Session) FindByAmount(amount decimal.Decimal) []core.Transaction {
	return s.filter(func(tx core.Transaction) bool {
		return tx.Amount.Equal(amount)
	})
}

// FindByDescription returns the transactions whose description contains
// term, ignoring case. An empty term matches nothing.
func (s *Session) FindByDescription(term string) []core.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	return s.filter(func(tx core.Transaction) bool {
		return strings.Contains(strings.ToLower(tx.Description), term)
	})
}

// FindByCategory returns the members of a category in store order.
func (s *Session) FindByCategory(name string) []core.Transaction {
	return s.filter(func(tx core.Transaction) bool {
		return tx.Category == name
	})
}

// SortedByAmount returns a copy of the ledger ordered by ascending amount.
// Ties keep store order. The store itself is not reordered.
func (s *Session) SortedByAmount() []core.Transaction {
	txs := s.store.List()
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return a.Amount.Cmp(b.Amount)
	})
	return txs
}

// SortedByDate returns a copy of the ledger ordered by ascending date.
func (s *Session) SortedByDate() []core.Transaction {
	txs := s.store.List()
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	return txs
}

func (s *Session) filter(keep func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.store.List() {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}
