package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// Build is the metadata row stored alongside a graph.
type Build struct {
	ID         string
	Source     string
	CreatedAt  time.Time
	Stats      termgraph.Stats
	Skipped    int
	Duplicates int
	Mentions   int
}

// NewBuildID returns a fresh build identifier.
func NewBuildID() string {
	return uuid.NewString()
}

// NewBuild describes graph g as built from source. An empty id gets a fresh one.
func NewBuild(id, source string, g *termgraph.Graph, mentions int) Build {
	if id == "" {
		id = NewBuildID()
	}
	return Build{
		ID:         id,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
		Stats:      g.Stats(),
		Skipped:    g.Skipped,
		Duplicates: g.Duplicates,
		Mentions:   mentions,
	}
}
