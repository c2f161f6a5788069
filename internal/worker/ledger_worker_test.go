package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewtrack/internal/amqp"
	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/sheets"
	"brewtrack/internal/sheets/memory"
)

type failingLedger struct{ calls int }

func (f *failingLedger) AppendRow(context.Context, sheets.LedgerRow) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

func TestHandleEventAppendsTaskRow(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger, log.Discard())

	ev := amqp.NewTaskEvent(amqp.TaskUpdated, core.Task{
		ID: 7, Name: "Brew stout", Owner: "Teja", Status: core.StatusInProgress, Comments: "mash done",
	})
	require.NoError(t, w.HandleEvent(context.Background(), ev))

	rows := ledger.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, sheets.LedgerRow{
		Timestamp: ev.Timestamp,
		EventID:   ev.ID,
		EventType: "task.updated",
		EntityID:  7,
		Subject:   "Brew stout",
		Group:     "Teja",
		Value:     "In Progress",
		Note:      "mash done",
	}, rows[0])
}

func TestHandleEventExpenseAndDeletion(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger, log.Discard())
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseCreatedEvent(core.Expense{ID: 3, Title: "Rent", Amount: 500, Category: "Lease"})))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseDeletedEvent(3)))

	rows := ledger.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "500.00", rows[0].Value)
	assert.Equal(t, "Lease", rows[0].Group)
	assert.Equal(t, "expense.deleted", rows[1].EventType)
	assert.Equal(t, int64(3), rows[1].EntityID)
	assert.Empty(t, rows[1].Subject)
}

func TestHandleEventSkipsRedelivery(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger, log.Discard())
	ev := amqp.NewTaskDeletedEvent(1)

	require.NoError(t, w.HandleEvent(context.Background(), ev))
	require.NoError(t, w.HandleEvent(context.Background(), ev))

	assert.Len(t, ledger.Rows(), 1)
	assert.Equal(t, Stats{Appended: 1, Duplicates: 1}, w.Stats())
}

func TestHandleEventLedgerFailure(t *testing.T) {
	ledger := &failingLedger{}
	w := NewLedgerWorker(ledger, log.Discard())
	ev := amqp.NewTaskDeletedEvent(1)

	require.Error(t, w.HandleEvent(context.Background(), ev))
	require.Error(t, w.HandleEvent(context.Background(), ev), "failed events are retried, not remembered")
	assert.Equal(t, 2, ledger.calls)
	assert.Equal(t, int64(2), w.Stats().Failed)
}
