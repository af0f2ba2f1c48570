package output

import (
	"fmt"
	"io"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// Summary is the operator-facing report printed after a successful build.
type Summary struct {
	Input    string
	Outputs  []string
	Database string
	Stats    termgraph.Stats
}

// Print writes the summary block to w.
func (s Summary) Print(w io.Writer) error {
	lines := []string{
		"Knowledge graph created successfully!",
		"- Input: " + s.Input,
	}
	for _, o := range s.Outputs {
		lines = append(lines, "- Output: "+o)
	}
	if s.Database != "" {
		lines = append(lines, "- Database: "+s.Database)
	}
	lines = append(lines,
		fmt.Sprintf("- Total terms: %d", s.Stats.Nodes),
		fmt.Sprintf("- Terms with definitions: %d", s.Stats.Full),
		fmt.Sprintf("- Total relationships: %d", s.Stats.Edges),
	)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
