// Package mask converts between raw digit values and their masked display
// representation. Patterns use '#' as the placeholder character; every other
// character is copied into the display verbatim.
package mask

import "strings"

// Placeholder is the pattern character that consumes one raw digit.
const Placeholder = '#'

// Apply renders raw through pattern. Non-digit characters in raw are stripped
// first and excess digits beyond the pattern's placeholder count are
// truncated. Scanning copies literals until it reaches a placeholder with no
// digits left, so partial input yields a partial display ("123" through
// "(###) ###-####" renders "(123) ").
func Apply(raw, pattern string) string {
	digits := Digits(raw)
	if digits == "" || pattern == "" {
		return ""
	}
	if max := PlaceholderCount(pattern); len(digits) > max {
		digits = digits[:max]
	}

	var out strings.Builder
	out.Grow(len(pattern))
	next := 0
	for _, ch := range pattern {
		if ch != Placeholder {
			out.WriteRune(ch)
			continue
		}
		if next >= len(digits) {
			break
		}
		out.WriteByte(digits[next])
		next++
	}
	return out.String()
}

// Extract recovers the raw value from a display string by stripping every
// non-digit character.
func Extract(display string) string {
	return Digits(display)
}

// PlaceholderCount reports how many raw characters a pattern can hold, which
// is also the digit count a masked field must reach to validate.
func PlaceholderCount(pattern string) int {
	return strings.Count(pattern, string(Placeholder))
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			out.WriteRune(ch)
		}
	}
	return out.String()
}
