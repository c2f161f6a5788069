package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Gateway = (*SQLiteRepository)(nil)

// SQLiteRepository is the persistent local store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if _, err := migrateUp(dbPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.queries.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]core.Task, 0, len(rows))
	for _, row := range rows {
		t, err := taskFromRow(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, nt core.NewTask) (core.Task, error) {
	if err := nt.Validate(); err != nil {
		return core.Task{}, err
	}
	row, err := r.queries.CreateTask(ctx, CreateTaskParams{
		TaskName: nt.Name,
		Owner:    nt.Owner,
		Status:   nt.Status.String(),
	})
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	r.logger.InfoContext(ctx, "Task saved to SQLite", log.FieldTaskID, row.ID, log.FieldTaskName, row.TaskName)
	return taskFromRow(row)
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if !t.Status.Valid() {
		return core.Task{}, core.ErrInvalidStatus
	}
	n, err := r.queries.UpdateTask(ctx, UpdateTaskParams{
		TaskName: t.Name,
		Owner:    t.Owner,
		Status:   t.Status.String(),
		Comments: t.Comments,
		ID:       t.ID,
	})
	if err != nil {
		return core.Task{}, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if n == 0 {
		return core.Task{}, fmt.Errorf("task %d: %w", t.ID, store.ErrNotFound)
	}
	return t, nil
}

// DeleteTask succeeds for ids that are already gone.
func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	if err := r.queries.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = expenseFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, ne core.NewExpense) (core.Expense, error) {
	if err := ne.Validate(); err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ExpenseTitle: ne.Title,
		Amount:       nullAmount(ne.Amount),
		Category:     ne.Category,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	r.logger.InfoContext(ctx, "Expense saved to SQLite", log.FieldExpenseID, row.ID, log.FieldExpenseTitle, row.ExpenseTitle)
	return expenseFromRow(row), nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	if err := r.queries.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

func taskFromRow(row TaskRow) (core.Task, error) {
	st, err := core.ParseTaskStatus(row.Status)
	if err != nil {
		return core.Task{}, fmt.Errorf("task %d: %w", row.ID, err)
	}
	return core.Task{ID: row.ID, Name: row.TaskName, Owner: row.Owner, Status: st, Comments: row.Comments}, nil
}

func expenseFromRow(row ExpenseRow) core.Expense {
	amount := core.Amount(math.NaN())
	if row.Amount.Valid {
		amount = core.Amount(row.Amount.Float64)
	}
	return core.Expense{ID: row.ID, Title: row.ExpenseTitle, Amount: amount, Category: row.Category}
}

// nullAmount stores NaN as NULL.
func nullAmount(a core.Amount) sql.NullFloat64 {
	if a.NaN() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.Float64(), Valid: true}
}
