package utils

import "strings"

// CountWords returns the number of whitespace separated tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// TruncateWords keeps at most n whitespace separated tokens of s, joined by
// single spaces. n <= 0 returns an empty string.
func TruncateWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// Truncate shortens s to n bytes, marking the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
