// Package utils holds small helpers shared across layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// bare integer. It never trims: query values arrive already unescaped, and a
// stray space means the caller sent garbage, which gets the default too.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
