// Package ledger implements the in-memory ledger engine for one owner: the
// transaction store, the undo/redo command history and the session that
// wires them to the recurring queue, the category read-models and the
// persistence collaborator.
package ledger

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Store owns every Transaction of one owner. Transactions are addressed by
// id and kept in id order, which is also insertion order because ids are
// assigned from a strictly increasing counter.
type Store struct {
	owner    string
	capacity int // 0 means unbounded
	nextID   int64
	items    map[int64]core.Transaction
	order    []int64
}

// NewStore creates an empty store. capacity <= 0 disables the StorageFull ceiling.
func NewStore(owner string, capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{
		owner:    owner,
		capacity: capacity,
		nextID:   1,
		items:    make(map[int64]core.Transaction),
	}
}

// Load replaces the store content with previously persisted transactions.
// Every record is validated; ids must be positive and unique. The id
// counter resumes after the highest loaded id.
func (s *Store) Load(txs []core.Transaction) error {
	items := make(map[int64]core.Transaction, len(txs))
	order := make([]int64, 0, len(txs))
	next := int64(1)
	for _, tx := range txs {
		if err := s.check(tx); err != nil {
			return fmt.Errorf("load transaction %d: %w", tx.ID, err)
		}
		if tx.ID <= 0 {
			return fmt.Errorf("load transaction %d: %w", tx.ID, &core.ValidationError{Field: "id", Err: core.ErrInvalidID})
		}
		if _, dup := items[tx.ID]; dup {
			return fmt.Errorf("load transaction %d: %w", tx.ID, core.ErrDuplicateID)
		}
		items[tx.ID] = tx
		order = append(order, tx.ID)
		if tx.ID >= next {
			next = tx.ID + 1
		}
	}
	if s.capacity > 0 && len(order) > s.capacity {
		return fmt.Errorf("load %d transactions: %w", len(order), core.ErrStorageFull)
	}
	slices.Sort(order)
	s.items, s.order, s.nextID = items, order, next
	return nil
}

// ReserveThrough makes sure no id up to and including id is assigned again.
func (s *Store) ReserveThrough(id int64) {
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

func (s *Store) Owner() string {
	return s.owner
}

func (s *Store) Len() int {
	return len(s.order)
}

// Add validates tx, assigns the next id and appends it. The id and owner
// fields of tx are ignored; the store's owner is used when tx.Owner is empty.
func (s *Store) Add(tx core.Transaction) (core.Transaction, error) {
	if tx.Owner == "" {
		tx.Owner = s.owner
	}
	tx.ID = s.nextID
	if err := s.check(tx); err != nil {
		return core.Transaction{}, err
	}
	if s.full() {
		return core.Transaction{}, core.ErrStorageFull
	}
	s.nextID++
	s.items[tx.ID] = tx
	s.order = append(s.order, tx.ID)
	return tx, nil
}

// AddWithID reinserts a transaction under its original id, at the position
// its id occupies in store order. Used to reverse a delete.
func (s *Store) AddWithID(tx core.Transaction) error {
	if tx.ID <= 0 {
		return &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	if _, ok := s.items[tx.ID]; ok {
		return fmt.Errorf("transaction %d: %w", tx.ID, core.ErrDuplicateID)
	}
	if err := s.check(tx); err != nil {
		return err
	}
	if s.full() {
		return core.ErrStorageFull
	}
	pos, _ := slices.BinarySearch(s.order, tx.ID)
	s.order = slices.Insert(s.order, pos, tx.ID)
	s.items[tx.ID] = tx
	if tx.ID >= s.nextID {
		s.nextID = tx.ID + 1
	}
	return nil
}

func (s *Store) Find(id int64) (core.Transaction, bool) {
	tx, ok := s.items[id]
	return tx, ok
}

// Edit replaces the editable fields of transaction id and returns the value
// before and after the change.
func (s *Store) Edit(id int64, d core.Details) (before, after core.Transaction, err error) {
	before, ok := s.items[id]
	if !ok {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	after = before
	after.Details = d
	if err := s.check(after); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	s.items[id] = after
	return before, after, nil
}

// Delete removes transaction id and returns the removed value.
func (s *Store) Delete(id int64) (core.Transaction, error) {
	tx, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	pos, _ := slices.BinarySearch(s.order, id)
	s.order = slices.Delete(s.order, pos, pos+1)
	delete(s.items, id)
	return tx, nil
}

// List returns a copy of all transactions in store order.
func (s *Store) List() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *Store) TotalIncome() decimal.Decimal {
	return s.sum(core.Income)
}

func (s *Store) TotalExpense() decimal.Decimal {
	return s.sum(core.Expense)
}

func (s *Store) sum(kind core.Kind) decimal.Decimal {
	total := decimal.Zero
	for _, id := range s.order {
		if tx := s.items[id]; tx.Kind == kind {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func (s *Store) full() bool {
	return s.capacity > 0 && len(s.order) >= s.capacity
}

func (s *Store) check(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.Owner != s.owner {
		return &core.ValidationError{Field: "owner", Err: core.ErrOwnerMismatch}
	}
	return nil
}
