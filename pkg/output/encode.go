package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// Format is an output encoding for the node list.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or msgpack)", s)
}

// Encode writes nodes to w. Both formats share the same record shape: stub
// nodes carry only id and term.
func Encode(w io.Writer, nodes []*termgraph.Node, format Format, indent int) error {
	if nodes == nil {
		nodes = []*termgraph.Node{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if indent > 0 {
			enc.SetIndent("", strings.Repeat(" ", indent))
		}
		return enc.Encode(nodes)
	case FormatMsgpack:
		records := make([]any, len(nodes))
		for i, n := range nodes {
			records[i] = n.Record()
		}
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(records)
	}
	return fmt.Errorf("unknown output format %q", format)
}
