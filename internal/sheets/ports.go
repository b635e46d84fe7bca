// Package sheets defines the outbound port that mirrors stored expenses into
// a spreadsheet. Adapters live in subpackages.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

type ExpenseWriter interface {
	// Append writes e as one row and returns a reference to it.
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}

// Header is the column layout written by every adapter.
var Header = []string{"Date", "Category", "Amount", "Account", "Expense ID"}

// Row renders e in Header order.
func Row(e core.Expense) []any {
	return []any{
		e.Date.String(),
		e.Category,
		core.FormatAmount(e.Amount),
		e.AccountID,
		e.ID,
	}
}
