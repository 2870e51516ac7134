// Package sanitize cleans user-supplied display text before it is stored or
// rendered into terminal tables, the dashboard and markdown resources.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the maximum number of runes kept in a display name.
const MaxNameLength = 80

var (
	// reXMLTag matches XML/HTML tags, with attributes or self-closing, and
	// processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reBackticks = regexp.MustCompile("`+")

	reSpaces = regexp.MustCompile(`\s+`)
)

// Name sanitizes a display name:
//  1. Strip control characters (newlines and tabs become spaces)
//  2. Strip XML/HTML tags
//  3. Drop backticks
//  4. Collapse whitespace runs to one space and trim
//  5. Truncate to MaxNameLength runes
func Name(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	if utf8.RuneCountInString(s) > MaxNameLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxNameLength]))
	}
	return s
}

// TableCell makes s safe for one markdown table cell: it is sanitized like a
// name, without truncation, and pipes are escaped.
func TableCell(s string) string {
	s = stripControlChars(s)
	s = reXMLTag.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	return strings.ReplaceAll(s, "|", `\|`)
}

// stripControlChars removes control characters, turning newline and tab
// into spaces so words stay separated.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
