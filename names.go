package veneer

import (
	"strings"
	"unicode"
)

// snakeCase converts a Go identifier to its snake_case attribute name.
// Runs of capitals are kept together: UserID -> user_id, HTTPPort -> http_port.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tagName returns the name part of a struct tag value ("name,omitempty" -> "name").
// "-" and empty names report false.
func tagName(tag string) (string, bool) {
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}
