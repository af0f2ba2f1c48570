// Package termgraph turns glossary rows into a term graph: a flat list of
// nodes joined by typed, directed edges.
package termgraph

import (
	"bytes"
	"encoding/json"
)

// EdgeType names the relationship an edge expresses.
type EdgeType string

const (
	EdgeSynonym  EdgeType = "synonym"
	EdgeRelated  EdgeType = "related"
	EdgeMentions EdgeType = "mentions"
)

// Edge is a directed, typed link to another node by identifier.
type Edge struct {
	Type   EdgeType `json:"type"`
	Target string   `json:"target"`
}

// Node is a graph vertex. A stub node only carries ID and Term; it stands for
// a term that was referenced but never had a row of its own.
type Node struct {
	ID          string
	Term        string
	Definition  string
	Explanation string
	Category    string
	Edges       []Edge
	Stub        bool

	key     string
	pending []pendingEdge
}

// pendingEdge is an edge whose target is still a registry key. Targets are
// resolved once every label of the build has been registered.
type pendingEdge struct {
	typ EdgeType
	key string
}

type fullRecord struct {
	ID          string `json:"id"`
	Term        string `json:"term"`
	Definition  string `json:"definition"`
	Explanation string `json:"explanation"`
	Category    string `json:"category"`
	Edges       []Edge `json:"edges"`
}

type stubRecord struct {
	ID   string `json:"id"`
	Term string `json:"term"`
}

// Record returns the serializable shape of the node. Stub records have no
// definition, explanation, category or edges keys at all; full records always
// carry an edges list, possibly empty.
func (n *Node) Record() any {
	if n.Stub {
		return stubRecord{ID: n.ID, Term: n.Term}
	}
	edges := n.Edges
	if edges == nil {
		edges = []Edge{}
	}
	return fullRecord{
		ID:          n.ID,
		Term:        n.Term,
		Definition:  n.Definition,
		Explanation: n.Explanation,
		Category:    n.Category,
		Edges:       edges,
	}
}

// MarshalJSON encodes the node's record. Text is written as-is, without
// escaping HTML characters.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n.Record()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// hasTarget reports whether any edge on the node already points at id.
func (n *Node) hasTarget(id string) bool {
	for _, e := range n.Edges {
		if e.Target == id {
			return true
		}
	}
	return false
}

// Stats are the summary counts reported to operators.
type Stats struct {
	Nodes int // all nodes
	Full  int // nodes with a definition row
	Edges int // edges across all nodes
}

// Graph is the result of a build.
type Graph struct {
	Nodes []*Node

	// Skipped counts rows dropped by the skip rule; Duplicates counts rows whose
	// primary term already had a full node.
	Skipped    int
	Duplicates int

	registry *Registry
}

// Registry returns the term registry the graph was built with.
func (g *Graph) Registry() *Registry { return g.registry }

// Stats computes the summary counts from the node list.
func (g *Graph) Stats() Stats {
	var s Stats
	for _, n := range g.Nodes {
		s.Nodes++
		if !n.Stub {
			s.Full++
		}
		s.Edges += len(n.Edges)
	}
	return s
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
