package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type TaskRow struct {
	ID       int64
	TaskName string
	Owner    string
	Status   string
	Comments string
}

type ExpenseRow struct {
	ID           int64
	ExpenseTitle string
	Amount       sql.NullFloat64
	Category     string
}

const listTasks = `SELECT id, task_name, owner, status, comments FROM tasks ORDER BY id`

func (q *Queries) ListTasks(ctx context.Context) ([]TaskRow, error) {
	rows, err := q.db.QueryContext(ctx, listTasks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaskRow
	for rows.Next() {
		var i TaskRow
		if err := rows.Scan(&i.ID, &i.TaskName, &i.Owner, &i.Status, &i.Comments); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTask = `INSERT INTO tasks (task_name, owner, status) VALUES (?, ?, ?)
RETURNING id, task_name, owner, status, comments`

type CreateTaskParams struct {
	TaskName string
	Owner    string
	Status   string
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (TaskRow, error) {
	row := q.db.QueryRowContext(ctx, createTask, arg.TaskName, arg.Owner, arg.Status)
	var i TaskRow
	err := row.Scan(&i.ID, &i.TaskName, &i.Owner, &i.Status, &i.Comments)
	return i, err
}

const updateTask = `UPDATE tasks
SET task_name = ?, owner = ?, status = ?, comments = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateTaskParams struct {
	TaskName string
	Owner    string
	Status   string
	Comments string
	ID       int64
}

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTask, arg.TaskName, arg.Owner, arg.Status, arg.Comments, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTask = `DELETE FROM tasks WHERE id = ?`

func (q *Queries) DeleteTask(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTask, id)
	return err
}

const listExpenses = `SELECT id, expense_title, amount, category FROM expenses ORDER BY id`

func (q *Queries) ListExpenses(ctx context.Context) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(&i.ID, &i.ExpenseTitle, &i.Amount, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExpense = `INSERT INTO expenses (expense_title, amount, category) VALUES (?, ?, ?)
RETURNING id, expense_title, amount, category`

type CreateExpenseParams struct {
	ExpenseTitle string
	Amount       sql.NullFloat64
	Category     string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (ExpenseRow, error) {
	row := q.db.QueryRowContext(ctx, createExpense, arg.ExpenseTitle, arg.Amount, arg.Category)
	var i ExpenseRow
	err := row.Scan(&i.ID, &i.ExpenseTitle, &i.Amount, &i.Category)
	return i, err
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, id)
	return err
}
