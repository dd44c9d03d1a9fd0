// Package report builds the structured summaries adapters render for users.
package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Source is the read side of a ledger session.
type Source interface {
	Owner() string
	Len() int
	TotalIncome() decimal.Decimal
	TotalExpense() decimal.Decimal
	CategorySummary() []core.CategoryTotal
}

// Summary is the analysis view of one ledger.
type Summary struct {
	Owner        string               `json:"owner"`
	Count        int                  `json:"count"`
	TotalIncome  decimal.Decimal      `json:"total_income"`
	TotalExpense decimal.Decimal      `json:"total_expense"`
	Net          decimal.Decimal      `json:"net"`
	Categories   []core.CategoryTotal `json:"categories"`
}

// MonthOverview aggregates one calendar month.
type MonthOverview struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"` // 1-12
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

func Build(src Source) Summary {
	income, expense := src.TotalIncome(), src.TotalExpense()
	return Summary{
		Owner:        src.Owner(),
		Count:        src.Len(),
		TotalIncome:  income,
		TotalExpense: expense,
		Net:          income.Sub(expense),
		Categories:   src.CategorySummary(),
	}
}

// Monthly groups txs by calendar month, oldest first.
func Monthly(txs []core.Transaction) []MonthOverview {
	type key struct{ year, month int }
	byMonth := map[key]*MonthOverview{}
	for _, tx := range txs {
		k := key{tx.Date.Year(), tx.Date.Month()}
		m, ok := byMonth[k]
		if !ok {
			m = &MonthOverview{Year: k.year, Month: k.month, Income: decimal.Zero, Expense: decimal.Zero}
			byMonth[k] = m
		}
		if tx.Kind == core.Income {
			m.Income = m.Income.Add(tx.Amount)
		} else {
			m.Expense = m.Expense.Add(tx.Amount)
		}
	}
	out := make([]MonthOverview, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MonthOverview) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out
}
