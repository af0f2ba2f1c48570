package glossary

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

const utf8BOM = "\uFEFF"

// Row is one glossary record. Values are looked up by header name.
type Row struct {
	// Line is the 1-based line in the source where the record starts.
	Line int

	index  map[string]int
	values []string
}

// NewRow builds a row from a header and the record's values.
func NewRow(line int, header, values []string) Row {
	return Row{Line: line, index: headerIndex(header), values: values}
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// Get returns the raw value of column. It reports false when the header has
// no such column or the record is too short to hold it.
func (r Row) Get(column string) (string, bool) {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return "", false
	}
	return r.values[i], true
}

// SourceLine reports Line so build errors point into the CSV.
func (r Row) SourceLine() int { return r.Line }

// with returns a copy of r with column replaced. Missing columns are left alone.
func (r Row) with(column, value string) Row {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return r
	}
	values := make([]string, len(r.values))
	copy(values, r.values)
	values[i] = value
	r.values = values
	return r
}

// Read parses a CSV glossary. The first record is the header; it must name
// every column in required. Quoted fields may span several lines.
func Read(r io.Reader, required ...string) ([]Row, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idx := headerIndex(header)
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w %q in header", termgraph.ErrMissingColumn, col)
		}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{Line: line, index: idx, values: rec})
	}
	return rows, nil
}

// TermRows adapts rows for termgraph.Build.
func TermRows(rows []Row) []termgraph.Row {
	out := make([]termgraph.Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
