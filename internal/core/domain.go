package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// MaxDescriptionLen bounds Details.Description in bytes.
const MaxDescriptionLen = 200

const dateLayout = "2006-01-02"

type (
	Kind string

	// Date is a calendar date; the time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Details holds the user-editable fields shared by transactions and recurring templates.
	Details struct {
		Date        Date            `json:"date"`
		Kind        Kind            `json:"kind"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Description string          `json:"description"`
	}

	Transaction struct {
		ID    int64  `json:"id"`
		Owner string `json:"owner"`
		Details
	}

	// RecurringTemplate is a Transaction without an id. It becomes a real
	// Transaction when paid from the recurring queue.
	RecurringTemplate struct {
		Owner string `json:"owner"`
		Details
	}
)

// NewDate creates a Date from year, month, day. Out-of-range parts are
// normalized the way time.Date does; use ParseDateParts to reject them.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDateParts builds a Date and fails if day is not valid for month/year.
func ParseDateParts(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidMonth}
	}
	d := NewDate(year, month, day)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDay}
	}
	return d, nil
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: fmt.Errorf("%w: %q", ErrInvalidDate, s)}
	}
	return Date{Time: t}, nil
}

func (d Date) Day() int {
	return d.Time.Day()
}

func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Equal reports whether both values denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if y := d.Year(); y < 1 || y > 9999 {
		return ErrInvalidDate
	}
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseKind accepts "income" / "expense" in any letter case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return "", &ValidationError{Field: "kind", Err: fmt.Errorf("%w: %q", ErrInvalidKind, s)}
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (d Details) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if err := d.Kind.Validate(); err != nil {
		return &ValidationError{Field: "kind", Err: err}
	}
	if strings.TrimSpace(d.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if d.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !validCurrency(d.Currency) {
		return &ValidationError{Field: "currency", Err: ErrInvalidCurrency}
	}
	if len(d.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return &ValidationError{Field: "owner", Err: ErrEmptyOwner}
	}
	if t.ID < 0 {
		return &ValidationError{Field: "id", Err: ErrInvalidID}
	}
	return t.Details.Validate()
}

func (rt RecurringTemplate) Validate() error {
	if strings.TrimSpace(rt.Owner) == "" {
		return &ValidationError{Field: "owner", Err: ErrEmptyOwner}
	}
	return rt.Details.Validate()
}

// Materialize turns the template into an unsaved Transaction (id 0).
func (rt RecurringTemplate) Materialize() Transaction {
	return Transaction{Owner: rt.Owner, Details: rt.Details}
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
