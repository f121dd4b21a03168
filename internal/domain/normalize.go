package domain

import "strings"

// NormalizeText trims leading/trailing whitespace and collapses internal
// whitespace runs. Applied to display names, group names and descriptions
// before validation.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
