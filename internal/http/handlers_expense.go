package http

import (
	"encoding/json"
	"net/http"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
)

// expenseView is the wire form of an expense. Amount is a JSON number with
// exactly two fraction digits.
type expenseView struct {
	ID        int64       `json:"id"`
	AccountID int64       `json:"account_id"`
	Amount    json.Number `json:"amount"`
	Date      core.Date   `json:"date"`
	Category  string      `json:"category"`
	CreatedAt time.Time   `json:"created_at"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:        e.ID,
		AccountID: e.AccountID,
		Amount:    json.Number(core.FormatAmount(e.Amount)),
		Date:      e.Date,
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
	}
}

type createExpenseResponse struct {
	Message string      `json:"message"`
	Expense expenseView `json:"expense"`
}

type categoryTotalView struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
	Count    int         `json:"count"`
}

type summaryView struct {
	Total      json.Number         `json:"total"`
	Count      int                 `json:"count"`
	Categories []categoryTotalView `json:"categories"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	accountID, _ := auth.AccountIDFromContext(r.Context())

	expenses, err := s.expenses.List(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, newExpenseView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	accountID, _ := auth.AccountIDFromContext(r.Context())

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNewExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.expenses.Create(r.Context(), accountID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createExpenseResponse{
		Message: "Expense added successfully",
		Expense: newExpenseView(expense),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	accountID, _ := auth.AccountIDFromContext(r.Context())

	summary, err := s.expenses.Summary(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := summaryView{
		Total:      json.Number(core.FormatAmount(summary.Total)),
		Count:      summary.Count,
		Categories: make([]categoryTotalView, 0, len(summary.Categories)),
	}
	for _, c := range summary.Categories {
		view.Categories = append(view.Categories, categoryTotalView{
			Category: c.Category,
			Total:    json.Number(core.FormatAmount(c.Total)),
			Count:    c.Count,
		})
	}
	writeJSON(w, http.StatusOK, view)
}
