package ledger

import (
	"fmt"

	"ledger/internal/core"
)

// History keeps the undo and redo stacks. Both stacks are bounded by limit;
// when the undo stack overflows its oldest entry is dropped.
type History struct {
	limit int // 0 means unbounded
	undo  []Command
	redo  []Command
}

func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Record pushes a command produced by a direct mutation and discards any
// forward (redo) history.
func (h *History) Record(cmd Command) {
	h.undo = h.push(h.undo, cmd)
	clear(h.redo)
	h.redo = h.redo[:0]
}

// Undo reverses the most recent command against m. If the inverse cannot be
// applied the command stays on the undo stack.
func (h *History) Undo(m Mutator) (Command, error) {
	if len(h.undo) == 0 {
		return nil, fmt.Errorf("undo: %w", core.ErrEmptyHistory)
	}
	cmd := h.undo[len(h.undo)-1]
	if err := cmd.revert(m); err != nil {
		return nil, fmt.Errorf("undo %s: %w", describe(cmd), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = h.push(h.redo, cmd)
	return cmd, nil
}

// Redo re-applies the most recently undone command against m.
func (h *History) Redo(m Mutator) (Command, error) {
	if len(h.redo) == 0 {
		return nil, fmt.Errorf("redo: %w", core.ErrEmptyHistory)
	}
	cmd := h.redo[len(h.redo)-1]
	if err := cmd.apply(m); err != nil {
		return nil, fmt.Errorf("redo %s: %w", describe(cmd), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = h.push(h.undo, cmd)
	return cmd, nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depths returns the sizes of the undo and redo stacks.
func (h *History) Depths() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

func (h *History) push(stack []Command, cmd Command) []Command {
	stack = append(stack, cmd)
	if h.limit > 0 && len(stack) > h.limit {
		stack = stack[len(stack)-h.limit:]
	}
	return stack
}
