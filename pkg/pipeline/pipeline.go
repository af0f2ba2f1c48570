// Package pipeline runs a complete build: read the glossary, build and
// cross-reference the graph, then publish every requested artifact.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/nilenso/ai-knowledge-graph/pkg/config"
	"github.com/nilenso/ai-knowledge-graph/pkg/db"
	"github.com/nilenso/ai-knowledge-graph/pkg/glossary"
	"github.com/nilenso/ai-knowledge-graph/pkg/logger"
	"github.com/nilenso/ai-knowledge-graph/pkg/output"
	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// Request describes one build.
type Request struct {
	Input  string // local path or http(s) URL
	Output string // node list destination
	SQLite string // optional database destination

	Config config.Config
	Logger *logger.Logger

	// Workers bounds concurrent HTML cleaning. Zero means GOMAXPROCS.
	Workers int
}

// Result summarizes a finished build.
type Result struct {
	BuildID    string
	Stats      termgraph.Stats
	Skipped    int
	Duplicates int
	Mentions   int
	Elapsed    time.Duration
}

// Run executes the build described by req. Nothing is written unless every
// artifact could be produced.
func Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := req.Config
	log := req.Logger
	if log == nil {
		log = logger.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	buildID := db.NewBuildID()
	log = log.With("build_id", buildID)
	opts := cfg.BuildOptions()

	rows, err := readRows(ctx, req.Input, cfg, opts.Columns)
	if err != nil {
		return nil, err
	}
	log.Info("glossary read", "source", req.Input, "rows", len(rows))

	if cfg.StripHTML {
		rows, err = cleanRows(ctx, rows, req.Workers, opts.Columns.Definition, opts.Columns.Explanation)
		if err != nil {
			return nil, fmt.Errorf("strip html: %w", err)
		}
	}

	g, err := termgraph.Build(glossary.TermRows(rows), opts)
	if err != nil {
		return nil, err
	}
	if g.Skipped > 0 {
		log.Info("rows skipped", "count", g.Skipped, "category", opts.SkipCategory)
	}
	if g.Duplicates > 0 {
		log.Warn("duplicate terms merged", "count", g.Duplicates)
	}

	mentions := 0
	if cfg.Mentions.Enabled {
		mentions = termgraph.Scanner{MinLength: cfg.Mentions.MinLength}.Scan(g)
		log.Debug("mentions added", "count", mentions)
	}

	sinks := []output.Sink{output.NewFileSink(req.Output, format, cfg.Output.Indent)}
	if req.SQLite != "" {
		dbSink := db.NewSink(req.SQLite, db.NewBuild(buildID, req.Input, g, mentions))
		dbSink.Logger = log
		sinks = append(sinks, dbSink)
	}
	if err := output.Publish(ctx, g, sinks...); err != nil {
		return nil, err
	}

	res := &Result{
		BuildID:    buildID,
		Stats:      g.Stats(),
		Skipped:    g.Skipped,
		Duplicates: g.Duplicates,
		Mentions:   mentions,
		Elapsed:    time.Since(start),
	}
	log.Info("graph published",
		"nodes", res.Stats.Nodes,
		"full", res.Stats.Full,
		"edges", res.Stats.Edges,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func readRows(ctx context.Context, src string, cfg config.Config, cols termgraph.Columns) ([]glossary.Row, error) {
	rc, err := glossary.Open(ctx, src, glossary.SourceOptions{
		MaxBytes: cfg.Input.MaxBytes,
		Timeout:  cfg.Input.Timeout,
	})
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return glossary.Read(rc, cols.List()...)
}

// cleanRows strips HTML from the given columns of every row on a worker
// pool. Output order matches input order.
func cleanRows(ctx context.Context, rows []glossary.Row, workers int, columns ...string) ([]glossary.Row, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]glossary.Row, len(rows))
	wp := NewWorkerPool(ctx, workers, workers*2)
	for i, r := range rows {
		err := wp.Submit(func(ctx context.Context) error {
			out[i] = glossary.StripHTMLRow(r, columns...)
			return nil
		})
		if err != nil {
			_ = wp.Close()
			return nil, err
		}
	}
	if err := wp.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
