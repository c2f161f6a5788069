// Package tracker holds the task and expense panels: the form state, the
// in-memory mirror of each collection, and the calls into a store gateway.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
)

// User facing notification texts.
const (
	MsgTaskAdded        = "Task added successfully!"
	MsgTaskAddFailed    = "Failed to add task."
	MsgTaskUpdated      = "Task updated successfully!"
	MsgTaskUpdateFailed = "Failed to update task."
	MsgTaskDeleted      = "Task deleted successfully!"
	MsgTaskDeleteFailed = "Failed to delete task."
	MsgStatusFailed     = "Failed to update task status."
	MsgTasksFetchFailed = "Failed to fetch tasks."

	MsgExpenseAdded        = "Expense added successfully!"
	MsgExpenseAddFailed    = "Failed to add expense."
	MsgExpenseDeleted      = "Expense deleted successfully!"
	MsgExpenseDeleteFailed = "Failed to delete expense."
	MsgExpensesFetchFailed = "Failed to fetch expenses."
)

var (
	// ErrIncomplete means a required form field was empty; nothing changed.
	ErrIncomplete = errors.New("incomplete form")
	ErrNotFound   = store.ErrNotFound
)

// SyncPolicy decides how a status change reaches the gateway.
type SyncPolicy string

const (
	// SyncOptimistic applies the status locally and sends the update in the
	// background without waiting for the outcome.
	SyncOptimistic SyncPolicy = "optimistic"
	// SyncConfirmed waits for the gateway and only then changes local state.
	SyncConfirmed SyncPolicy = "confirmed"
)

const DefaultBackgroundTimeout = 15 * time.Second

func ParseSyncPolicy(s string) (SyncPolicy, error) {
	switch SyncPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SyncOptimistic:
		return SyncOptimistic, nil
	case SyncConfirmed:
		return SyncConfirmed, nil
	}
	return "", fmt.Errorf("unknown status sync policy %q", s)
}

type Options struct {
	// Notifier receives toasts unless the request context carries its own.
	Notifier notify.Notifier
	Logger   *log.Logger
	Sync     SyncPolicy
	// BackgroundTimeout bounds each optimistic status update.
	BackgroundTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = notify.Discard
	}
	if o.Logger == nil {
		o.Logger = log.New(log.Config{Component: log.ComponentTracker, Handler: slog.Default().Handler()})
	}
	if o.Sync == "" {
		o.Sync = SyncOptimistic
	}
	if o.BackgroundTimeout <= 0 {
		o.BackgroundTimeout = DefaultBackgroundTimeout
	}
	return o
}

// Tracker pairs the two panels over one gateway.
type Tracker struct {
	Tasks    *TaskPanel
	Expenses *ExpensePanel
}

func New(gw store.Gateway, opts Options) *Tracker {
	return &Tracker{
		Tasks:    NewTaskPanel(gw, opts),
		Expenses: NewExpensePanel(gw, opts),
	}
}

// Load fetches both collections concurrently. Each fetch is independent: a
// failure empties only its own panel. The first error is returned.
func (t *Tracker) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return t.Tasks.Load(ctx) })
	g.Go(func() error { return t.Expenses.Load(ctx) })
	return g.Wait()
}

// Wait blocks until background status updates have finished.
func (t *Tracker) Wait() {
	t.Tasks.Wait()
}
