package backend

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips terminal escape sequences and control characters from
// text received from the service, so that nothing it sends can move the
// cursor or restyle the terminal. Tabs and newlines survive. CRLF and lone
// CR both become LF.
func Sanitize(s string) string {
	if !needsSanitizing(s) {
		return s
	}
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\r':
			b.WriteByte('\n')
		case r == '\t' || r == '\n' || !unicode.IsControl(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// needsSanitizing reports whether s holds any control character.
func needsSanitizing(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r != '\t' && r != '\n' && unicode.IsControl(r)
	}) >= 0
}
