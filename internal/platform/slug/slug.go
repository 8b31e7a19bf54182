package slug

import (
	"strings"
	"unicode"
)

// Make lowercases input and collapses every run of non letter/digit runes
// into a single separator. Letters outside ASCII (track names are often
// Cyrillic) are kept.
func Make(input string, sep rune) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
