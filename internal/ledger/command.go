package ledger

import (
	"fmt"

	"ledger/internal/core"
)

// Mutator is the set of store operations a Command needs to apply itself
// forwards or backwards. *Store implements it.
type Mutator interface {
	AddWithID(tx core.Transaction) error
	Edit(id int64, d core.Details) (before, after core.Transaction, err error)
	Delete(id int64) (core.Transaction, error)
}

// Command is one reversible mutation. The set of implementations is closed:
// AddCommand, DeleteCommand and EditCommand.
type Command interface {
	// Name is the operation label used in logs and API responses.
	Name() string
	// TransactionID is the id of the affected transaction.
	TransactionID() int64
	apply(m Mutator) error
	revert(m Mutator) error
}

type (
	AddCommand struct {
		Tx core.Transaction
	}

	DeleteCommand struct {
		Tx core.Transaction
	}

	EditCommand struct {
		Before core.Transaction
		After  core.Transaction
	}
)

var (
	_ Command = AddCommand{}
	_ Command = DeleteCommand{}
	_ Command = EditCommand{}
	_ Mutator = (*Store)(nil)
)

func (c AddCommand) Name() string          { return "add" }
func (c AddCommand) TransactionID() int64  { return c.Tx.ID }
func (c AddCommand) apply(m Mutator) error { return m.AddWithID(c.Tx) }
func (c AddCommand) revert(m Mutator) error {
	_, err := m.Delete(c.Tx.ID)
	return err
}

func (c DeleteCommand) Name() string         { return "delete" }
func (c DeleteCommand) TransactionID() int64 { return c.Tx.ID }
func (c DeleteCommand) apply(m Mutator) error {
	_, err := m.Delete(c.Tx.ID)
	return err
}
func (c DeleteCommand) revert(m Mutator) error { return m.AddWithID(c.Tx) }

func (c EditCommand) Name() string         { return "edit" }
func (c EditCommand) TransactionID() int64 { return c.After.ID }
func (c EditCommand) apply(m Mutator) error {
	_, _, err := m.Edit(c.After.ID, c.After.Details)
	return err
}
func (c EditCommand) revert(m Mutator) error {
	_, _, err := m.Edit(c.Before.ID, c.Before.Details)
	return err
}

func describe(c Command) string {
	return fmt.Sprintf("%s #%d", c.Name(), c.TransactionID())
}
