package core

import "github.com/shopspring/decimal"

// CategoryTotal is one row of the category summary: how many transactions
// reference the category and how much was spent on it.
type CategoryTotal struct {
	Category   string          `json:"category"`
	Count      int             `json:"count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// Edge is an undirected co-occurrence link between two categories.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}
