package core

import "errors"

// Error kinds returned by the ledger engine. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrEmptyHistory = errors.New("empty history")
	ErrQueueFull    = errors.New("queue full")
	ErrQueueEmpty   = errors.New("queue empty")
	ErrStorageFull  = errors.New("storage full")
)

// Field-level causes wrapped by ValidationError.
var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidKind        = errors.New("kind must be Income or Expense")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("currency must be exactly 3 letters")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrOwnerMismatch      = errors.New("owner does not match ledger")
	ErrInvalidID          = errors.New("invalid id")
)

// ValidationError reports a malformed field. It matches ErrValidation and
// unwraps to the field-level cause.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
