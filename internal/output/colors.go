// Package output renders the outcome of a run for the operator.
package output

import (
	"github.com/fatih/color"
)

// Status symbols using Unicode characters for visual clarity.
const (
	SymbolSucceeded = "✓"
	SymbolFailed    = "✗"
)

// Status is the final state of one entity.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StatusSymbol returns the Unicode symbol for a status.
func StatusSymbol(status Status) string {
	if status == StatusSucceeded {
		return SymbolSucceeded
	}
	return SymbolFailed
}

// StatusText returns human-readable status text.
func StatusText(status Status) string {
	switch status {
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	default:
		return string(status)
	}
}

// StatusColorize applies color formatting to s based on status.
// Returns s unchanged when color output is disabled.
func StatusColorize(s string, status Status) string {
	if status == StatusSucceeded {
		return color.GreenString(s)
	}
	return color.RedString(s)
}
