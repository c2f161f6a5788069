package sheets

import (
	"context"
	"time"
)

// LedgerRow is one line of the activity ledger. Task and expense events
// share the columns: Group holds the owner or category, Value the status
// label or amount.
type LedgerRow struct {
	Timestamp time.Time
	EventID   string
	EventType string
	EntityID  int64
	Subject   string
	Group     string
	Value     string
	Note      string
}

// Header lists the ledger column titles in sheet order.
var Header = []string{"Timestamp", "Event ID", "Event", "Entity ID", "Subject", "Owner / Category", "Status / Amount", "Comments"}

// Ports for outbound adapters.
type (
	// LedgerWriter appends activity rows and returns a reference to the
	// written range.
	LedgerWriter interface {
		AppendRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
