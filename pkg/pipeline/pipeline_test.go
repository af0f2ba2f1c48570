package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilenso/ai-knowledge-graph/pkg/config"
	"github.com/nilenso/ai-knowledge-graph/pkg/db"
	"github.com/nilenso/ai-knowledge-graph/pkg/glossary"
	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

type record struct {
	ID         string           `json:"id"`
	Term       string           `json:"term"`
	Definition *string          `json:"definition"`
	Category   string           `json:"category"`
	Edges      []termgraph.Edge `json:"edges"`
}

func readRecords(t *testing.T, path string) []record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []record
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func request(t *testing.T, input string) Request {
	t.Helper()
	return Request{
		Input:  input,
		Output: filepath.Join(t.TempDir(), "graph.json"),
		Config: config.Default(),
	}
}

func TestRunBuildsGraph(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))

	res, err := Run(context.Background(), req)
	require.NoError(t, err)

	recs := readRecords(t, req.Output)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{
		"neural_network", "nn", "artificial_neural_network", "deep_learning",
		"backpropagation", "gradient_descent",
	}, ids)

	assert.Equal(t, termgraph.Stats{Nodes: 6, Full: 3, Edges: res.Stats.Edges}, res.Stats)
	assert.Equal(t, 1, res.Skipped)
	assert.NotEmpty(t, res.BuildID)

	// Stubs carry no definition; the blank category falls back to the default.
	assert.Nil(t, recs[1].Definition)
	assert.Equal(t, "General", recs[4].Category)

	// "neural network" appears in the other definitions.
	assert.Contains(t, recs[3].Edges, termgraph.Edge{Type: termgraph.EdgeMentions, Target: "neural_network"})
	assert.Contains(t, recs[4].Edges, termgraph.Edge{Type: termgraph.EdgeMentions, Target: "neural_network"})
	assert.Equal(t, 2, res.Mentions)
}

func TestRunWithoutMentions(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))
	req.Config.Mentions.Enabled = false

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, res.Mentions)
	for _, r := range readRecords(t, req.Output) {
		for _, e := range r.Edges {
			assert.NotEqual(t, termgraph.EdgeMentions, e.Type)
		}
	}
}

func TestRunWritesSQLite(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))
	req.SQLite = filepath.Join(t.TempDir(), "graph.db")

	res, err := Run(context.Background(), req)
	require.NoError(t, err)

	conn, err := db.Open(req.SQLite)
	require.NoError(t, err)
	defer conn.Close()

	b, err := db.GetBuild(conn, res.BuildID)
	require.NoError(t, err)
	assert.Equal(t, res.Stats, b.Stats)
	assert.Equal(t, req.Input, b.Source)

	nodes, err := db.LoadGraph(conn, res.BuildID)
	require.NoError(t, err)

	fromDB, err := json.Marshal(nodes)
	require.NoError(t, err)
	var fromFile []json.RawMessage
	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &fromFile))
	compact, err := json.Marshal(fromFile)
	require.NoError(t, err)
	assert.JSONEq(t, string(compact), string(fromDB))
}

func TestRunMissingInput(t *testing.T) {
	req := request(t, filepath.Join(t.TempDir(), "absent.csv"))

	_, err := Run(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, glossary.ErrSourceNotFound))
	assert.NoFileExists(t, req.Output)
}

func TestRunMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Term,Short Definition\nA,b\n"), 0644))
	req := request(t, path)

	_, err := Run(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, termgraph.ErrMissingColumn))
	assert.NoFileExists(t, req.Output)
}

func TestRunShortRecordReportsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	csv := "Term,Short Definition,Why It Matters,Target Category\n" +
		"Alpha,first,why,ML\n" +
		"Beta,second\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	_, err := Run(context.Background(), request(t, path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, termgraph.ErrMissingColumn))
	assert.Contains(t, err.Error(), "line 3")
}

func TestRunLeavesNoPartialOutput(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))
	req.SQLite = filepath.Join(t.TempDir(), "missing-dir", "graph.db")

	_, err := Run(context.Background(), req)
	require.Error(t, err)
	assert.NoFileExists(t, req.Output)
}

func TestRunKeepsPreviousOutputWhenDatabaseFails(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))
	require.NoError(t, os.WriteFile(req.Output, []byte("previous"), 0644))
	req.SQLite = filepath.Join(t.TempDir(), "graph.db")
	require.NoError(t, os.MkdirAll(filepath.Join(req.SQLite, "data"), 0755))

	_, err := Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(filepath.Dir(req.Output))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no staged files may remain")
}

func TestRunFromURL(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "glossary.csv"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), request(t, srv.URL+"/glossary.csv"))
	require.NoError(t, err)
	assert.Equal(t, 6, res.Stats.Nodes)
}

func TestRunStripsHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "html.csv")
	csv := "Term,Short Definition,Why It Matters,Target Category\n" +
		"Attention,\"<p>Lets a model weigh <b>every</b> token of its input against every other token.</p>\",plain,ML\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	req := request(t, path)
	req.Config.StripHTML = true
	req.Workers = 2

	_, err := Run(context.Background(), req)
	require.NoError(t, err)

	recs := readRecords(t, req.Output)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].Definition)
	assert.NotContains(t, *recs[0].Definition, "<")
	assert.Contains(t, *recs[0].Definition, "every")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	req := request(t, filepath.Join("testdata", "glossary.csv"))
	req.Config.Output.Format = "xml"

	_, err := Run(context.Background(), req)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestCleanRowsKeepsOrder(t *testing.T) {
	header := []string{"Term", "Short Definition"}
	var rows []glossary.Row
	for i := 0; i < 50; i++ {
		rows = append(rows, glossary.NewRow(i+2, header, []string{string(rune('a' + i%26)), "<i>x</i>"}))
	}

	out, err := cleanRows(context.Background(), rows, 4, "Short Definition")
	require.NoError(t, err)
	require.Len(t, out, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Line, out[i].Line)
		def, _ := out[i].Get("Short Definition")
		assert.Equal(t, "x", def)
	}
}
