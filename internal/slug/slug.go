// Package slug derives machine-friendly codes from display labels.
package slug

import "strings"

// MaxLen caps the length of a slug.
const MaxLen = 40

// Make lowercases s, turns every run of characters outside [a-z0-9] into a
// single '_' and trims underscores from both ends. "Long-term Liabilities"
// becomes "long_term_liabilities".
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			need := 1
			if pending && b.Len() > 0 {
				need = 2
			}
			if b.Len()+need > MaxLen {
				break
			}
			if need == 2 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Equal reports whether a and b produce the same slug.
func Equal(a, b string) bool {
	return Make(a) == Make(b)
}
