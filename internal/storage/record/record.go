// Package record converts ledger values to and from the delimited record
// layout shared by the flat-file store and the spreadsheet export:
//
//	id, owner, date, kind, category, amount, currency, description
//
// Recurring templates use the same layout without the id column.
package record

import (
	"fmt"
	"strconv"

	"ledger/internal/core"
)

// Header is the column layout of a transaction record.
var Header = []string{"id", "owner", "date", "kind", "category", "amount", "currency", "description"}

// TemplateHeader is the column layout of a recurring template record.
var TemplateHeader = Header[1:]

// Encode renders tx as a record. Amounts always carry two decimals.
func Encode(tx core.Transaction) []string {
	return append([]string{strconv.FormatInt(tx.ID, 10)}, EncodeTemplate(core.RecurringTemplate{Owner: tx.Owner, Details: tx.Details})...)
}

func EncodeTemplate(rt core.RecurringTemplate) []string {
	return []string{
		rt.Owner,
		rt.Date.String(),
		string(rt.Kind),
		rt.Category,
		core.FormatAmount(rt.Amount),
		rt.Currency,
		rt.Description,
	}
}

// Decode parses a transaction record and validates the result.
func Decode(fields []string) (core.Transaction, error) {
	if len(fields) != len(Header) {
		return core.Transaction{}, fmt.Errorf("record has %d fields, want %d", len(fields), len(Header))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	rt, err := DecodeTemplate(fields[1:])
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{ID: id, Owner: rt.Owner, Details: rt.Details}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DecodeTemplate parses a recurring template record and validates it.
func DecodeTemplate(fields []string) (core.RecurringTemplate, error) {
	if len(fields) != len(TemplateHeader) {
		return core.RecurringTemplate{}, fmt.Errorf("record has %d fields, want %d", len(fields), len(TemplateHeader))
	}
	d, err := DecodeDetails(fields[1], fields[2], fields[3], fields[4], fields[5], fields[6])
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	rt := core.RecurringTemplate{Owner: fields[0], Details: d}
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	return rt, nil
}

// DecodeDetails parses the editable columns. The result is validated.
func DecodeDetails(date, kind, category, amount, currency, description string) (core.Details, error) {
	dt, err := core.ParseDate(date)
	if err != nil {
		return core.Details{}, err
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Details{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Details{}, err
	}
	d := core.Details{
		Date:        dt,
		Kind:        k,
		Category:    category,
		Amount:      amt,
		Currency:    currency,
		Description: description,
	}
	if err := d.Validate(); err != nil {
		return core.Details{}, err
	}
	return d, nil
}
