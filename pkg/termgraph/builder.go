package termgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn means a row lacks one of the configured columns. The
	// column contract is fixed for a run, so this aborts the whole build.
	ErrMissingColumn = errors.New("termgraph: missing column")

	// ErrBuilderFinished is returned by Add once Finish has been called.
	ErrBuilderFinished = errors.New("termgraph: builder already finished")
)

// Row is one glossary record, looked up by column name.
type Row interface {
	Get(column string) (string, bool)
}

// Located is implemented by rows that know where they came from. Build
// reports their source line instead of the row's position.
type Located interface {
	SourceLine() int
}

// Columns names the glossary columns the builder reads.
type Columns struct {
	Term        string
	Definition  string
	Explanation string
	Category    string
}

// List returns the column names in a fixed order.
func (c Columns) List() []string {
	return []string{c.Term, c.Definition, c.Explanation, c.Category}
}

// Options configures a Builder. Zero fields take the defaults.
type Options struct {
	Columns         Columns
	SkipCategory    string
	DefaultCategory string
}

// DefaultOptions returns the glossary layout the builder expects out of the box.
func DefaultOptions() Options {
	return Options{
		Columns: Columns{
			Term:        "Term",
			Definition:  "Short Definition",
			Explanation: "Why It Matters",
			Category:    "Target Category",
		},
		SkipCategory:    "Remove",
		DefaultCategory: "General",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Columns.Term == "" {
		o.Columns.Term = d.Columns.Term
	}
	if o.Columns.Definition == "" {
		o.Columns.Definition = d.Columns.Definition
	}
	if o.Columns.Explanation == "" {
		o.Columns.Explanation = d.Columns.Explanation
	}
	if o.Columns.Category == "" {
		o.Columns.Category = d.Columns.Category
	}
	if o.SkipCategory == "" {
		o.SkipCategory = d.SkipCategory
	}
	if o.DefaultCategory == "" {
		o.DefaultCategory = d.DefaultCategory
	}
	return o
}

// Builder assembles a graph in one forward pass over glossary rows.
type Builder struct {
	opts     Options
	registry *Registry
	nodes    []*Node
	byKey    map[string]*Node

	skipped    int
	duplicates int
	finished   bool
}

// NewBuilder returns a builder with its own, empty registry.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		opts:     opts.withDefaults(),
		registry: NewRegistry(),
		byKey:    make(map[string]*Node),
	}
}

// Build runs every row through a new Builder and returns the finished graph.
func Build(rows []Row, opts Options) (*Graph, error) {
	b := NewBuilder(opts)
	for i, row := range rows {
		if err := b.Add(row); err != nil {
			if l, ok := row.(Located); ok {
				return nil, fmt.Errorf("line %d: %w", l.SourceLine(), err)
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return b.Finish(), nil
}

// Add processes one row.
func (b *Builder) Add(row Row) error {
	if b.finished {
		return ErrBuilderFinished
	}

	cols := b.opts.Columns
	values := make([]string, 0, 4)
	for _, col := range cols.List() {
		v, ok := row.Get(col)
		if !ok {
			return fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
		values = append(values, v)
	}
	term, definition, explanation, category := values[0], values[1], values[2], values[3]

	category = strings.TrimSpace(category)
	if category == b.opts.SkipCategory || strings.TrimSpace(term) == "" {
		b.skipped++
		return nil
	}
	if category == "" {
		category = b.opts.DefaultCategory
	}

	f := Extract(term)
	edges := make([]pendingEdge, 0, len(f.Synonyms)+len(f.Related))
	for _, s := range f.Synonyms {
		edges = append(edges, pendingEdge{typ: EdgeSynonym, key: Key(s)})
	}
	for _, r := range f.Related {
		edges = append(edges, pendingEdge{typ: EdgeRelated, key: Key(r)})
	}

	key := Key(f.Primary)
	node, seen := b.byKey[key]
	switch {
	case !seen:
		b.registry.Register(f.Primary)
		entry, _ := b.registry.lookupKey(key)
		node = &Node{ID: entry.ID, Term: entry.Label, key: key}
		b.fill(node, definition, explanation, category)
		b.nodes = append(b.nodes, node)
		b.byKey[key] = node
	case node.Stub:
		// Referenced earlier as a synonym or related term: promote in place.
		b.fill(node, definition, explanation, category)
	default:
		b.duplicates++
	}
	node.pending = append(node.pending, edges...)

	for _, labels := range [][]string{f.Synonyms, f.Related} {
		for _, label := range labels {
			if isNew, _ := b.registry.Register(label); !isNew {
				continue
			}
			k := Key(label)
			entry, _ := b.registry.lookupKey(k)
			stub := &Node{ID: entry.ID, Term: entry.Label, Stub: true, key: k}
			b.nodes = append(b.nodes, stub)
			b.byKey[k] = stub
		}
	}
	return nil
}

func (b *Builder) fill(n *Node, definition, explanation, category string) {
	n.Stub = false
	n.Definition = strings.TrimSpace(definition)
	n.Explanation = strings.TrimSpace(explanation)
	n.Category = category
}

// Finish resolves edge targets to identifiers and returns the graph. The
// builder accepts no further rows afterwards.
func (b *Builder) Finish() *Graph {
	if !b.finished {
		b.finished = true
		for _, n := range b.nodes {
			b.resolve(n)
		}
	}
	return &Graph{
		Nodes:      b.nodes,
		Skipped:    b.skipped,
		Duplicates: b.duplicates,
		registry:   b.registry,
	}
}

func (b *Builder) resolve(n *Node) {
	if len(n.pending) == 0 {
		return
	}
	seen := make(map[Edge]struct{}, len(n.pending))
	for _, p := range n.pending {
		entry, ok := b.registry.lookupKey(p.key)
		if !ok {
			// Every side-list label is registered during Add.
			continue
		}
		e := Edge{Type: p.typ, Target: entry.ID}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		n.Edges = append(n.Edges, e)
	}
	n.pending = nil
}

// Registry exposes the builder's registry.
func (b *Builder) Registry() *Registry { return b.registry }
