package tracker

import (
	"context"
	"errors"
	"sync"

	"brewtrack/internal/core"
	"brewtrack/internal/store/memory"
)

var errBackend = errors.New("backend unavailable")

// fakeGateway is the memory store with switchable failures and a record of
// the updates it received.
type fakeGateway struct {
	*memory.Store

	mu          sync.Mutex
	failList    bool
	failListExp bool
	failCreate  bool
	failUpdate  bool
	failDelete  bool
	updates     []core.Task
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{Store: memory.New()}
}

func (g *fakeGateway) set(f func(g *fakeGateway)) {
	g.mu.Lock()
	f(g)
	g.mu.Unlock()
}

func (g *fakeGateway) fail(flag *bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *flag
}

func (g *fakeGateway) ListTasks(ctx context.Context) ([]core.Task, error) {
	if g.fail(&g.failList) {
		return nil, errBackend
	}
	return g.Store.ListTasks(ctx)
}

func (g *fakeGateway) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if g.fail(&g.failListExp) {
		return nil, errBackend
	}
	return g.Store.ListExpenses(ctx)
}

func (g *fakeGateway) CreateTask(ctx context.Context, nt core.NewTask) (core.Task, error) {
	if g.fail(&g.failCreate) {
		return core.Task{}, errBackend
	}
	return g.Store.CreateTask(ctx, nt)
}

func (g *fakeGateway) CreateExpense(ctx context.Context, ne core.NewExpense) (core.Expense, error) {
	if g.fail(&g.failCreate) {
		return core.Expense{}, errBackend
	}
	return g.Store.CreateExpense(ctx, ne)
}

func (g *fakeGateway) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	g.mu.Lock()
	g.updates = append(g.updates, t)
	failing := g.failUpdate
	g.mu.Unlock()
	if failing {
		return core.Task{}, errBackend
	}
	return g.Store.UpdateTask(ctx, t)
}

func (g *fakeGateway) DeleteTask(ctx context.Context, id int64) error {
	if g.fail(&g.failDelete) {
		return errBackend
	}
	return g.Store.DeleteTask(ctx, id)
}

func (g *fakeGateway) DeleteExpense(ctx context.Context, id int64) error {
	if g.fail(&g.failDelete) {
		return errBackend
	}
	return g.Store.DeleteExpense(ctx, id)
}

func (g *fakeGateway) recordedUpdates() []core.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]core.Task(nil), g.updates...)
}
