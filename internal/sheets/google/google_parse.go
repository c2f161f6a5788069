package google

import (
	"fmt"
	"strings"
	"time"

	"brewtrack/internal/sheets"
)

// rowValues lays a ledger row out in Header order.
func rowValues(r sheets.LedgerRow) []interface{} {
	return []interface{}{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.EventID,
		r.EventType,
		r.EntityID,
		r.Subject,
		r.Group,
		r.Value,
		r.Note,
	}
}

func headerValues() []interface{} {
	out := make([]interface{}, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

// columnRange returns the A1 range covering every ledger column of sheet.
func columnRange(sheet string) string {
	last := rune('A' + len(sheets.Header) - 1)
	return fmt.Sprintf("%s!A:%c", quoteSheet(sheet), last)
}

// quoteSheet wraps names containing spaces or quotes as A1 notation requires.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// hasHeader reports whether the first sheet row already carries the titles.
func hasHeader(values [][]interface{}) bool {
	if len(values) == 0 {
		return false
	}
	first := toStrings(values[0])
	return len(first) > 0 && strings.EqualFold(first[0], sheets.Header[0])
}
