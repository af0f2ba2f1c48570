package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nilenso/ai-knowledge-graph/pkg/logger"
)

func TestSinkStageAndCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.db")
	g := sampleGraph(t)
	b := NewBuild("", "glossary.csv", g, 2)

	s := NewSink(path, b)
	if err := s.Stage(context.Background(), g); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("database must not exist before commit, stat err=%v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	stored, err := GetBuild(conn, b.ID)
	if err != nil {
		t.Fatalf("get build: %v", err)
	}
	if stored.Source != "glossary.csv" {
		t.Fatalf("unexpected build row: %+v", stored)
	}
	nodes, err := LoadGraph(conn, b.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(nodes) != len(g.Nodes) {
		t.Fatalf("expected %d nodes, got %d", len(g.Nodes), len(nodes))
	}
}

func TestSinkAbortRemovesStagedFile(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph(t)
	s := NewSink(filepath.Join(dir, "graph.db"), NewBuild("", "x", g, 0))

	if err := s.Stage(context.Background(), g); err != nil {
		t.Fatalf("stage: %v", err)
	}
	s.Abort()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after abort, found %d entries", len(entries))
	}
	if err := s.Commit(); err == nil {
		t.Fatal("expected commit after abort to fail")
	}
}

func TestSinkRejectsDirectoryDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.db")
	if err := os.MkdirAll(filepath.Join(path, "keep"), 0755); err != nil {
		t.Fatal(err)
	}
	g := sampleGraph(t)

	s := NewSink(path, NewBuild("", "x", g, 0))
	err := s.Stage(context.Background(), g)
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
	s.Abort()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the existing directory, found %d entries", len(entries))
	}
}

func TestSinkRollbackRestoresPreviousDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.db")
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}
	g := sampleGraph(t)

	s := NewSink(path, NewBuild("", "x", g, 0))
	if err := s.Stage(context.Background(), g); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	s.Rollback()
	s.Abort()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "previous" {
		t.Fatalf("expected previous database back, got %d bytes", len(data))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no leftovers, found %d entries", len(entries))
	}
}

func TestSinkLogsBatchFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := sampleGraph(t)
	b := NewBuild("", "x", g, 0)
	b.ID = ""

	s := NewSink(filepath.Join(t.TempDir(), "graph.db"), b)
	s.Logger = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	err := s.Stage(context.Background(), g)
	s.Abort()
	if err == nil {
		t.Fatal("expected stage to fail without a build id")
	}

	entries := logs.FilterMessage("database batch failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one logged failure, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; !strings.Contains(got.(string), "build id") {
		t.Fatalf("unexpected logged error %v", got)
	}
}
