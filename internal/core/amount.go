// Package core provides the task and expense model shared by every front-end
// and store.
//
// This file contains the amount type, which mirrors a browser float: it is
// parsed leniently and may hold NaN when the input was not numeric.
package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Amount is a monetary value in the ledger currency.
type Amount float64

var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseAmount converts user input the way a browser's parseFloat does: the
// longest numeric prefix after leading whitespace is used, and text with no
// numeric prefix yields NaN.
//
// Examples:
//
//	ParseAmount("500")     -> 500
//	ParseAmount(" 20.5kg") -> 20.5
//	ParseAmount("abc")     -> NaN
func ParseAmount(s string) Amount {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	for _, inf := range []string{"Infinity", "+Infinity"} {
		if strings.HasPrefix(s, inf) {
			return Amount(math.Inf(1))
		}
	}
	if strings.HasPrefix(s, "-Infinity") {
		return Amount(math.Inf(-1))
	}
	m := numericPrefix.FindString(s)
	if m == "" {
		return Amount(math.NaN())
	}
	// Out of range input already comes back as ±Inf.
	v, _ := strconv.ParseFloat(m, 64)
	return Amount(v)
}

// NaN reports whether the amount came from non-numeric input.
func (a Amount) NaN() bool {
	return math.IsNaN(float64(a))
}

func (a Amount) Float64() float64 {
	return float64(a)
}

// String formats with two decimals, e.g. "30.50". NaN formats as "NaN".
func (a Amount) String() string {
	f := float64(a)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
