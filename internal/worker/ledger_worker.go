// Package worker turns tracker events into activity ledger rows.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"brewtrack/internal/amqp"
	"brewtrack/internal/cache"
	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/sheets"
)

const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

type Stats struct {
	Appended   int64
	Duplicates int64
	Failed     int64
}

// LedgerWorker appends one row per event. Redelivered events already
// written are skipped.
type LedgerWorker struct {
	ledger sheets.LedgerWriter
	logger *log.Logger
	seen   *cache.LRU[string]

	appended   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewLedgerWorker(ledger sheets.LedgerWriter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentWorker),
		seen:   cache.NewLRU[string](seenCapacity, seenTTL),
	}
}

// Seen exposes the de-duplication cache so a janitor can sweep it.
func (w *LedgerWorker) Seen() cache.Cleaner { return w.seen }

// HandleEvent matches amqp.Handler. An error asks the broker to redeliver.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	if ref, ok := w.seen.Get(ev.ID); ok {
		w.duplicates.Add(1)
		w.logger.InfoContext(ctx, "Skipping duplicate event",
			log.FieldEventID, ev.ID, log.FieldEventType, string(ev.Type), "ref", ref)
		return nil
	}

	row := RowFromEvent(ev)
	ref, err := w.ledger.AppendRow(ctx, row)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("append ledger row for %s: %w", ev.ID, err)
	}
	w.seen.Set(ev.ID, ref)
	w.appended.Add(1)

	w.logger.InfoContext(ctx, "Event recorded",
		log.FieldEventID, ev.ID,
		log.FieldEventType, string(ev.Type),
		log.FieldOperation, log.OpAppend,
		"ref", ref)
	return nil
}

func (w *LedgerWorker) Stats() Stats {
	return Stats{
		Appended:   w.appended.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}

// RowFromEvent flattens an event into ledger columns.
func RowFromEvent(ev *amqp.Event) sheets.LedgerRow {
	row := sheets.LedgerRow{
		Timestamp: ev.Timestamp,
		EventID:   ev.ID,
		EventType: string(ev.Type),
		EntityID:  ev.EntityID,
	}
	switch {
	case ev.Task != nil:
		row.Subject = ev.Task.TaskName
		row.Group = ev.Task.Owner
		row.Value = statusLabel(ev.Task.Status)
		row.Note = ev.Task.Comments
	case ev.Expense != nil:
		row.Subject = ev.Expense.ExpenseTitle
		row.Group = ev.Expense.Category
		row.Value = ev.Expense.AmountText()
	}
	return row
}

func statusLabel(token string) string {
	st, err := core.ParseTaskStatus(token)
	if err != nil {
		return token
	}
	return st.Label()
}
