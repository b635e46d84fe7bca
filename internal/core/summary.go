package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// Summary is the per-account overview of every recorded expense.
type Summary struct {
	Total      decimal.Decimal
	Count      int
	Categories []CategoryTotal
}

// Summarize totals expenses overall and by category. Categories are ordered
// by descending total, ties broken by name.
func Summarize(expenses []Expense) Summary {
	summary := Summary{Total: decimal.Zero, Categories: []CategoryTotal{}}
	index := make(map[string]int)

	for _, e := range expenses {
		summary.Total = summary.Total.Add(e.Amount)
		summary.Count++

		i, ok := index[e.Category]
		if !ok {
			i = len(summary.Categories)
			index[e.Category] = i
			summary.Categories = append(summary.Categories, CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		summary.Categories[i].Total = summary.Categories[i].Total.Add(e.Amount)
		summary.Categories[i].Count++
	}

	sort.SliceStable(summary.Categories, func(a, b int) bool {
		ca, cb := summary.Categories[a], summary.Categories[b]
		if cmp := ca.Total.Cmp(cb.Total); cmp != 0 {
			return cmp > 0
		}
		return ca.Category < cb.Category
	})

	return summary
}
