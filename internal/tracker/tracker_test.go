package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
)

func seedGateway(t *testing.T) *fakeGateway {
	t.Helper()
	gw := newFakeGateway()
	ctx := context.Background()
	for _, n := range []string{"Brew IPA", "Clean taps", "File permit"} {
		_, err := gw.Store.CreateTask(ctx, core.NewTask{Name: n, Owner: "Teja", Status: core.StatusPending})
		require.NoError(t, err)
	}
	for _, e := range []core.NewExpense{
		{Title: "Rent", Amount: 500, Category: "Lease"},
		{Title: "Hops", Amount: 42.25, Category: "F&B"},
	} {
		_, err := gw.Store.CreateExpense(ctx, e)
		require.NoError(t, err)
	}
	return gw
}

func TestLoadPopulatesInOrder(t *testing.T) {
	gw := seedGateway(t)
	q := notify.NewQueue()
	tr := New(gw, Options{Notifier: q, Logger: log.Discard()})

	require.NoError(t, tr.Load(context.Background()))

	want, _ := gw.Store.ListTasks(context.Background())
	assert.Equal(t, want, tr.Tasks.Tasks())
	wantExp, _ := gw.Store.ListExpenses(context.Background())
	assert.Equal(t, wantExp, tr.Expenses.Expenses())
	assert.Equal(t, "542.25", tr.Expenses.Total().String())
	assert.Zero(t, q.Len())
}

func TestLoadFailureIsPerCollection(t *testing.T) {
	gw := seedGateway(t)
	gw.set(func(g *fakeGateway) { g.failList = true })
	q := notify.NewQueue()
	tr := New(gw, Options{Notifier: q, Logger: log.Discard()})

	err := tr.Load(context.Background())
	require.ErrorIs(t, err, errBackend)
	assert.Empty(t, tr.Tasks.Tasks())
	assert.Len(t, tr.Expenses.Expenses(), 2)
	assert.Equal(t, []notify.Notification{{Level: notify.LevelError, Message: MsgTasksFetchFailed}}, q.Drain())
}

func TestLoadRoutesToRequestNotifier(t *testing.T) {
	gw := seedGateway(t)
	gw.set(func(g *fakeGateway) { g.failListExp = true })
	def := notify.NewQueue()
	req := notify.NewQueue()
	tr := New(gw, Options{Notifier: def, Logger: log.Discard()})

	_ = tr.Load(notify.WithNotifier(context.Background(), req))
	assert.Zero(t, def.Len())
	assert.Equal(t, MsgExpensesFetchFailed, req.Drain()[0].Message)
}
