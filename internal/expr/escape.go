package expr

import (
	"strings"
)

// EscapeMySQL escapes s for use inside a single-quoted MySQL string literal
// with backslash escapes enabled, the server default.
func EscapeMySQL(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0x00:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case 0x1a:
			b.WriteString(`\Z`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeQuotes escapes s for use inside a single-quoted standard SQL string
// literal by doubling single quotes. SQLite strings use this form.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
