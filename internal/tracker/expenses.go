package tracker

import (
	"context"
	"fmt"
	"sync"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
)

// ExpenseForm is the pending add-expense input. Amount is raw text.
type ExpenseForm struct {
	Title    string
	Amount   string
	Category string
}

type ExpensePanel struct {
	gw       store.ExpenseGateway
	notifier notify.Notifier
	logger   *log.Logger
	events   *log.StructuredLogger

	mu       sync.Mutex
	expenses []core.Expense
	form     ExpenseForm
}

func NewExpensePanel(gw store.ExpenseGateway, opts Options) *ExpensePanel {
	opts = opts.withDefaults()
	logger := opts.Logger.WithComponent(log.ComponentTracker)
	return &ExpensePanel{
		gw:       gw,
		notifier: opts.Notifier,
		logger:   logger,
		events:   log.NewStructuredLogger(logger),
	}
}

func (p *ExpensePanel) Load(ctx context.Context) error {
	expenses, err := p.gw.ListExpenses(ctx)
	if err != nil {
		p.mu.Lock()
		p.expenses = nil
		p.mu.Unlock()
		notify.Error(notify.From(ctx, p.notifier), MsgExpensesFetchFailed)
		p.logger.ErrorContext(ctx, "Failed to fetch expenses", log.FieldOperation, log.OpList, log.FieldError, err)
		return fmt.Errorf("fetch expenses: %w", err)
	}
	p.mu.Lock()
	p.expenses = append([]core.Expense(nil), expenses...)
	p.mu.Unlock()
	return nil
}

func (p *ExpensePanel) Expenses() []core.Expense {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.Expense(nil), p.expenses...)
}

func (p *ExpensePanel) Expense(id int64) (core.Expense, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.indexOf(id); i >= 0 {
		return p.expenses[i], true
	}
	return core.Expense{}, false
}

// Total is recomputed from the current collection on every call.
func (p *ExpensePanel) Total() core.Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.Total(p.expenses)
}

func (p *ExpensePanel) Form() ExpenseForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// AddExpense records f as the pending form and creates the expense when all
// three fields are present. Non-numeric amounts are stored as NaN.
func (p *ExpensePanel) AddExpense(ctx context.Context, f ExpenseForm) (core.Expense, error) {
	p.mu.Lock()
	p.form = f
	p.mu.Unlock()

	if f.Title == "" || f.Amount == "" || f.Category == "" {
		return core.Expense{}, ErrIncomplete
	}

	n := notify.From(ctx, p.notifier)
	created, err := p.gw.CreateExpense(ctx, core.NewExpense{
		Title:    f.Title,
		Amount:   core.ParseAmount(f.Amount),
		Category: f.Category,
	})
	if err != nil {
		notify.Error(n, MsgExpenseAddFailed)
		p.logger.ErrorContext(ctx, "Failed to add expense", log.FieldOperation, log.OpCreate, log.FieldError, err)
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	p.mu.Lock()
	p.expenses = append(p.expenses, created)
	p.form = ExpenseForm{}
	p.mu.Unlock()

	notify.Success(n, MsgExpenseAdded)
	p.events.LogExpenseChanged(ctx, log.OpCreate, created.ID, created.Title, created.Amount.String(), created.Category)
	return created, nil
}

func (p *ExpensePanel) DeleteExpense(ctx context.Context, id int64) error {
	p.mu.Lock()
	known := p.indexOf(id) >= 0
	p.mu.Unlock()
	if !known {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}

	n := notify.From(ctx, p.notifier)
	if err := p.gw.DeleteExpense(ctx, id); err != nil {
		notify.Error(n, MsgExpenseDeleteFailed)
		p.logger.ErrorContext(ctx, "Failed to delete expense", log.FieldExpenseID, id, log.FieldError, err)
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.expenses = append(p.expenses[:i:i], p.expenses[i+1:]...)
	}
	p.mu.Unlock()

	notify.Success(n, MsgExpenseDeleted)
	p.events.LogExpenseChanged(ctx, log.OpDelete, id, "", "", "")
	return nil
}

func (p *ExpensePanel) indexOf(id int64) int {
	for i := range p.expenses {
		if p.expenses[i].ID == id {
			return i
		}
	}
	return -1
}
