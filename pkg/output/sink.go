package output

import (
	"bufio"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// Sink is an output artifact. Stage writes the artifact somewhere it cannot
// be mistaken for a finished result; Commit moves it into place; Rollback
// undoes a Commit; Abort discards whatever Stage or Commit kept aside.
type Sink interface {
	Name() string
	Stage(ctx context.Context, g *termgraph.Graph) error
	Commit() error
	Rollback()
	Abort()
}

// Publish stages every sink concurrently and commits them only if all of them
// staged successfully. If a commit fails, the sinks committed before it are
// rolled back, so every destination ends up as it was.
func Publish(ctx context.Context, g *termgraph.Graph, sinks ...Sink) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		eg.Go(func() error {
			if err := s.Stage(ctx, g); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name(), err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		abortAll(sinks)
		return err
	}

	for i, s := range sinks {
		if err := s.Commit(); err != nil {
			for j := i - 1; j >= 0; j-- {
				sinks[j].Rollback()
			}
			abortAll(sinks)
			return fmt.Errorf("commit %s: %w", s.Name(), err)
		}
	}
	abortAll(sinks)
	return nil
}

func abortAll(sinks []Sink) {
	for _, s := range sinks {
		s.Abort()
	}
}

// FileSink writes the encoded node list to Path.
type FileSink struct {
	Path   string
	Format Format
	Indent int

	file StagedFile
}

// NewFileSink returns a sink for path.
func NewFileSink(path string, format Format, indent int) *FileSink {
	return &FileSink{Path: path, Format: format, Indent: indent}
}

func (s *FileSink) Name() string { return s.Path }

// Stage encodes the graph into a temporary file next to Path.
func (s *FileSink) Stage(ctx context.Context, g *termgraph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := s.file.Create(s.Path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, g.Nodes, s.Format, s.Indent); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Commit renames the staged file onto Path.
func (s *FileSink) Commit() error { return s.file.Commit() }

// Rollback restores what was at Path before Commit.
func (s *FileSink) Rollback() { s.file.Rollback() }

// Abort removes the staged file and any previous output kept by Commit.
func (s *FileSink) Abort() { s.file.Discard() }
