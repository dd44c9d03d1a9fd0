// Package recurring holds scheduled recurring payments waiting to be paid
// into the ledger, in strict first-in first-out order.
package recurring

import (
	"fmt"

	"ledger/internal/core"
)

// Adder materializes a transaction into the ledger and returns it with its
// assigned id. The ledger session implements it.
type Adder interface {
	Add(tx core.Transaction) (core.Transaction, error)
}

// AdderFunc adapts a function to the Adder interface.
type AdderFunc func(tx core.Transaction) (core.Transaction, error)

func (f AdderFunc) Add(tx core.Transaction) (core.Transaction, error) {
	return f(tx)
}

// Queue is a bounded FIFO of recurring templates.
type Queue struct {
	capacity int // 0 means unbounded
	items    []core.RecurringTemplate
}

func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Enqueue validates the template and appends it to the tail.
func (q *Queue) Enqueue(rt core.RecurringTemplate) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return core.ErrQueueFull
	}
	q.items = append(q.items, rt)
	return nil
}

// Dequeue removes and returns the head of the queue.
func (q *Queue) Dequeue() (core.RecurringTemplate, error) {
	if len(q.items) == 0 {
		return core.RecurringTemplate{}, core.ErrQueueEmpty
	}
	head := q.items[0]
	q.items[0] = core.RecurringTemplate{}
	q.items = q.items[1:]
	return head, nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (core.RecurringTemplate, bool) {
	if len(q.items) == 0 {
		return core.RecurringTemplate{}, false
	}
	return q.items[0], true
}

// PayNext dequeues the head template and adds it to the ledger through a.
// When the add fails the template goes back to the head of the queue, so a
// failed payment never loses a scheduled item.
func (q *Queue) PayNext(a Adder) (core.Transaction, error) {
	rt, err := q.Dequeue()
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := a.Add(rt.Materialize())
	if err != nil {
		q.PushFront(rt)
		return core.Transaction{}, fmt.Errorf("pay recurring %q: %w", rt.Description, err)
	}
	return tx, nil
}

// Items returns a snapshot of the queued templates, head first.
func (q *Queue) Items() []core.RecurringTemplate {
	return append([]core.RecurringTemplate(nil), q.items...)
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Capacity() int {
	return q.capacity
}

// Load replaces the queue content, e.g. from persistence. Templates are
// validated and the capacity is enforced.
func (q *Queue) Load(items []core.RecurringTemplate) error {
	if q.capacity > 0 && len(items) > q.capacity {
		return fmt.Errorf("load %d recurring templates: %w", len(items), core.ErrQueueFull)
	}
	for i, rt := range items {
		if err := rt.Validate(); err != nil {
			return fmt.Errorf("load recurring template %d: %w", i, err)
		}
	}
	q.items = append([]core.RecurringTemplate(nil), items...)
	return nil
}

// PushFront puts back a template that was just dequeued. The slot it
// vacated is reused, so capacity is not re-checked.
func (q *Queue) PushFront(rt core.RecurringTemplate) {
	q.items = append([]core.RecurringTemplate{rt}, q.items...)
}

// DropLast removes the tail of the queue, undoing the latest Enqueue.
func (q *Queue) DropLast() (core.RecurringTemplate, bool) {
	if len(q.items) == 0 {
		return core.RecurringTemplate{}, false
	}
	last := q.items[len(q.items)-1]
	q.items[len(q.items)-1] = core.RecurringTemplate{}
	q.items = q.items[:len(q.items)-1]
	return last, true
}
