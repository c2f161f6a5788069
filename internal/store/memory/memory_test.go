package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"brewtrack/internal/core"
	"brewtrack/internal/store"
)

func TestMemoryStoreTasks(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	s := NewWithClock(func() time.Time { return fixed })
	ctx := context.Background()

	a, err := s.CreateTask(ctx, core.NewTask{Name: "Clean fermenter", Owner: "Teja", Status: core.StatusPending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.CreateTask(ctx, core.NewTask{Name: "Order hops", Owner: "Bhanu", Status: core.StatusPending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID != fixed.UnixMilli() || b.ID != a.ID+1 {
		t.Fatalf("expected clock ids bumped for uniqueness, got %d and %d", a.ID, b.ID)
	}

	a.Status = core.StatusCompleted
	if _, err := s.UpdateTask(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.UpdateTask(ctx, core.Task{ID: 42, Status: core.StatusPending}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteTask(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTask(ctx, 999); err != nil {
		t.Fatalf("delete of unknown id should be a no-op, got %v", err)
	}

	tasks, _ := s.ListTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != a.ID || tasks[0].Status != core.StatusCompleted {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestMemoryStoreRejectsIncompleteTask(t *testing.T) {
	s := New()
	if _, err := s.CreateTask(context.Background(), core.NewTask{Name: "x", Status: core.StatusPending}); !errors.Is(err, core.ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
}

func TestMemoryStoreExpenses(t *testing.T) {
	s := New()
	ctx := context.Background()
	e, err := s.CreateExpense(ctx, core.NewExpense{Title: "Rent", Amount: 500, Category: "Lease"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateExpense(ctx, core.NewExpense{Title: "Paint", Amount: 12.5, Category: "Interiors"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, _ := s.ListExpenses(ctx)
	if len(list) != 2 || list[0].Title != "Rent" {
		t.Fatalf("unexpected expenses: %+v", list)
	}

	// The returned slice is a copy.
	list[0].Title = "mutated"
	again, _ := s.ListExpenses(ctx)
	if again[0].Title != "Rent" {
		t.Fatalf("store leaked internal slice")
	}

	if err := s.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListExpenses(ctx)
	if len(list) != 1 || list[0].Title != "Paint" {
		t.Fatalf("unexpected expenses after delete: %+v", list)
	}
}
