package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"brewtrack/internal/tracker"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	form := tracker.ExpenseForm{
		Title:    body.Get("expenseTitle"),
		Amount:   body.Get("amount"),
		Category: body.Get("category"),
	}

	s.mutation(w, r, "expenses_panel", "expense-form", func(ctx context.Context) error {
		_, err := s.tracker.Expenses.AddExpense(ctx, form)
		if err == nil {
			atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
		}
		return err
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r, "expenses_panel", "", func(ctx context.Context) error {
		id, err := ParseIDParam(r)
		if err != nil {
			return err
		}
		if err := s.tracker.Expenses.DeleteExpense(ctx, id); err != nil {
			return err
		}
		atomic.AddInt64(&s.appMetrics.deletes, 1)
		return nil
	})
}
