package db

import (
	"context"
	"fmt"
	"os"

	"github.com/nilenso/ai-knowledge-graph/pkg/logger"
	"github.com/nilenso/ai-knowledge-graph/pkg/output"
	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

const defaultBatchSize = 200

// Sink writes a graph into a fresh sqlite database at Path.
type Sink struct {
	Path      string
	Build     Build
	BatchSize int
	Logger    *logger.Logger

	file output.StagedFile
}

func NewSink(path string, b Build) *Sink {
	return &Sink{Path: path, Build: b, BatchSize: defaultBatchSize}
}

func (s *Sink) Name() string { return s.Path }

// Stage builds the database in a temporary file next to Path.
func (s *Sink) Stage(ctx context.Context, g *termgraph.Graph) error {
	f, err := s.file.Create(s.Path)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	tmp := s.file.Temp()

	conn, err := Open(tmp)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := InitDB(conn); err != nil {
		return err
	}
	if err := saveGraph(ctx, conn, s.Build, g.Nodes, s.BatchSize, s.logFailure); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	if err := conn.Close(); err != nil {
		return err
	}
	return os.Chmod(tmp, 0644)
}

func (s *Sink) logFailure(err error) {
	if s.Logger != nil {
		s.Logger.Error("database batch failed", "path", s.Path, "build_id", s.Build.ID, "error", err)
	}
}

// Commit renames the staged database onto Path.
func (s *Sink) Commit() error { return s.file.Commit() }

// Rollback restores what was at Path before Commit.
func (s *Sink) Rollback() { s.file.Rollback() }

// Abort removes the staged database and any previous database kept by Commit.
func (s *Sink) Abort() {
	if tmp := s.file.Temp(); tmp != "" {
		_ = os.Remove(tmp + "-journal")
	}
	s.file.Discard()
}
