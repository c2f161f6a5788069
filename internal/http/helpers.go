package http

import (
	"strings"

	"brewtrack/internal/core"
)

const currencySymbol = "₹"

// formatAmount renders an amount the way the panels show it: two decimals
// with the rupee sign, NaN kept as NaN.
func formatAmount(a core.Amount) string {
	return currencySymbol + a.String()
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
