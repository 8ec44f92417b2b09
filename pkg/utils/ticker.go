package utils

import (
	"regexp"
	"strings"
)

// tickerPattern matches US exchange symbols, including class shares
// such as BRK.B or BF-B.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// NormalizeTicker normalizes a user-supplied ticker symbol:
// trims whitespace, strips a leading "$" and uppercases it.
func NormalizeTicker(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidTicker reports whether a normalized ticker is safe to use in
// URLs and cache paths.
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}
