// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tokens provides approximate token counting for prompt sizing.
package tokens

import "strings"

// Counter estimates the token count of a text. Counts are used only for
// prompt budgeting, never for billing, so a rough estimate is acceptable.
type Counter interface {
	Count(text string) int
}

// Estimator counts whitespace-separated words as a token approximation.
// Always returns at least 1.
type Estimator struct{}

// Count returns max(1, number of fields in text).
func (Estimator) Count(text string) int {
	n := len(strings.Fields(text))
	if n < 1 {
		return 1
	}
	return n
}
