package termgraph

import (
	"strings"
	"unicode"
)

// Identifier maps a display label to its node identifier: lower-cased,
// whitespace and '/' and '-' become '_', while parentheses, quote marks,
// periods and commas are dropped.
func Identifier(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '"', '\'', '“', '”', '‘', '’', '.', ',':
			return -1
		case '/', '-':
			return '_'
		}
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, strings.ToLower(label))
}
