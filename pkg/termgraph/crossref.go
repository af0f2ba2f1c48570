package termgraph

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinMentionLength is the shortest term key, in runes, that the
// scanner will look for. Shorter terms match too much unrelated text.
const DefaultMinMentionLength = 4

// Scanner adds mentions edges between full nodes whose definition or
// explanation literally contains another registered term.
type Scanner struct {
	MinLength int
}

// Scan appends mentions edges to the graph's full nodes and returns how many
// it added. Existing nodes and edges are left untouched, so a second Scan of
// the same graph adds nothing.
func (s Scanner) Scan(g *Graph) int {
	minLen := s.MinLength
	if minLen <= 0 {
		minLen = DefaultMinMentionLength
	}

	var candidates []Entry
	for _, e := range g.registry.Entries() {
		if utf8.RuneCountInString(e.Key) >= minLen {
			candidates = append(candidates, e)
		}
	}

	added := 0
	for _, n := range g.Nodes {
		if n.Stub {
			continue
		}
		text := fold(n.Definition + " " + n.Explanation)
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, e := range candidates {
			if e.Key == n.key || e.ID == n.ID || n.hasTarget(e.ID) {
				continue
			}
			if strings.Contains(text, e.Key) {
				n.Edges = append(n.Edges, Edge{Type: EdgeMentions, Target: e.ID})
				added++
			}
		}
	}
	return added
}
