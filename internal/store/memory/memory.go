// Package memory is the local-state store: tasks and expenses live only in
// process memory and identifiers come from the wall clock.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brewtrack/internal/core"
	"brewtrack/internal/store"
)

var _ store.Gateway = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	lastID   int64
	tasks    []core.Task
	expenses []core.Expense
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock is New with an injectable clock, for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// nextID returns the current Unix millisecond, bumped when two records are
// created within the same millisecond so identifiers stay unique.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) ListTasks(_ context.Context) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Task(nil), s.tasks...), nil
}

func (s *Store) CreateTask(_ context.Context, nt core.NewTask) (core.Task, error) {
	if err := nt.Validate(); err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := core.Task{ID: s.nextID(), Name: nt.Name, Owner: nt.Owner, Status: nt.Status}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *Store) UpdateTask(_ context.Context, t core.Task) (core.Task, error) {
	if !t.Status.Valid() {
		return core.Task{}, core.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			return t, nil
		}
	}
	return core.Task{}, fmt.Errorf("task %d: %w", t.ID, store.ErrNotFound)
}

// DeleteTask is idempotent: removing an unknown id succeeds.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.tasks = out
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) CreateExpense(_ context.Context, ne core.NewExpense) (core.Expense, error) {
	if err := ne.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := core.Expense{ID: s.nextID(), Title: ne.Title, Amount: ne.Amount, Category: ne.Category}
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			out = append(out, e)
		}
	}
	s.expenses = out
	return nil
}

// Ping always succeeds; memory is always reachable.
func (s *Store) Ping(context.Context) error { return nil }
