package termgraph

import (
	"regexp"
	"strings"
)

var (
	// Tags are case-sensitive and only the first occurrence in a field is used.
	// The body stops at the end of the line the tag appears on.
	reSynonyms = regexp.MustCompile(`syn:[ \t]*([^\r\n]*)`)
	reRelated  = regexp.MustCompile(`Rel:[ \t]*([^\r\n]*)`)

	reLineBreak = regexp.MustCompile(`\r\n|\r|\n`)
)

// Fields is the result of parsing a raw Term field.
type Fields struct {
	Primary  string
	Synonyms []string
	Related  []string
}

// Extract parses the raw text of a Term field into its primary label and the
// synonym and related-term side lists. It never fails: a missing or empty tag
// yields an empty list.
func Extract(field string) Fields {
	var lines []string
	for _, line := range reLineBreak.Split(field, -1) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	primary := strings.TrimSpace(field)
	if len(lines) > 0 {
		primary = lines[0]
	}

	return Fields{
		Primary:  primary,
		Synonyms: tagList(reSynonyms, field),
		Related:  tagList(reRelated, field),
	}
}

func tagList(re *regexp.Regexp, field string) []string {
	m := re.FindStringSubmatch(field)
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
