// Package textutil holds small string helpers shared across layers.
package textutil

import "unicode/utf8"

// Truncate shortens s to at most max runes, replacing the tail with "..."
// when it had to cut. A max of zero or less yields "".
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}
