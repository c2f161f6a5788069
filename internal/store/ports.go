package store

import (
	"context"
	"errors"

	"brewtrack/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	TaskGateway interface {
		ListTasks(ctx context.Context) ([]core.Task, error)
		// CreateTask persists a task and returns it with its assigned ID.
		CreateTask(ctx context.Context, t core.NewTask) (core.Task, error)
		// UpdateTask replaces the stored task carrying the same ID.
		UpdateTask(ctx context.Context, t core.Task) (core.Task, error)
		DeleteTask(ctx context.Context, id int64) error
	}

	ExpenseGateway interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		// CreateExpense persists an expense and returns it with its assigned ID.
		CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	// Gateway is the full store surface the panels depend on.
	Gateway interface {
		TaskGateway
		ExpenseGateway
	}

	// Pinger is implemented by stores that can report reachability.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
