package sheets

import (
	"context"
	"fmt"
	"sync/atomic"

	"brewtrack/internal/log"
)

// LogLedger writes ledger rows to the structured log. It stands in when no
// spreadsheet is configured.
type LogLedger struct {
	logger *log.Logger
	n      atomic.Int64
}

var _ LedgerWriter = (*LogLedger)(nil)

func NewLogLedger(logger *log.Logger) *LogLedger {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogLedger{logger: logger.WithComponent(log.ComponentSheets)}
}

func (l *LogLedger) AppendRow(ctx context.Context, row LedgerRow) (string, error) {
	n := l.n.Add(1)
	l.logger.InfoContext(ctx, "Ledger row",
		log.FieldEventID, row.EventID,
		log.FieldEventType, row.EventType,
		"entity_id", row.EntityID,
		"subject", row.Subject,
		"group", row.Group,
		"value", row.Value,
		"note", row.Note,
		"at", row.Timestamp)
	return fmt.Sprintf("log:%d", n), nil
}
