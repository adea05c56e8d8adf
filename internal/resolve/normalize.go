// Package resolve maps a free-text question to the opportunity it is about.
package resolve

import "strings"

// Normalize lower-cases text and drops every character that is not an ASCII
// letter or digit. It is idempotent, and an empty input yields "".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCell is Normalize for a nullable cell; a null cell yields "".
func NormalizeCell(value string, ok bool) string {
	if !ok {
		return ""
	}
	return Normalize(value)
}
