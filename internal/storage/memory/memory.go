// Package memory is a process-local persister. Ledgers survive session
// eviction but not a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"ledger/internal/core"
)

type Store struct {
	mu        sync.Mutex
	ledgers   map[string][]core.Transaction
	recurring map[string][]core.RecurringTemplate
	maxIDs    map[string]int64
}

func New() *Store {
	return &Store{
		ledgers:   make(map[string][]core.Transaction),
		recurring: make(map[string][]core.RecurringTemplate),
		maxIDs:    make(map[string]int64),
	}
}

func (s *Store) Load(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ledgers[owner]), nil
}

func (s *Store) Save(_ context.Context, owner string, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[owner] = slices.Clone(txs)
	for _, tx := range txs {
		s.maxIDs[owner] = max(s.maxIDs[owner], tx.ID)
	}
	return nil
}

func (s *Store) MaxIssuedID(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxIDs[owner], nil
}

func (s *Store) LoadRecurring(_ context.Context, owner string) ([]core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recurring[owner]), nil
}

func (s *Store) SaveRecurring(_ context.Context, owner string, items []core.RecurringTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[owner] = slices.Clone(items)
	return nil
}

// Owners returns every owner that has saved a ledger, sorted.
func (s *Store) Owners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ledgers))
	for owner := range s.ledgers {
		out = append(out, owner)
	}
	slices.Sort(out)
	return out, nil
}
