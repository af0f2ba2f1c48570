package termgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := map[string]string{
		"Neural Network":                       "neural_network",
		"NN":                                   "nn",
		"Retrieval-Augmented Generation (RAG)": "retrieval_augmented_generation_rag",
		"I/O":                                  "i_o",
		"U.S., Inc.":                           "us_inc",
		`"Quoted" 'term'`:                      "quoted_term",
		"“Smart” ‘quotes’":                     "smart_quotes",
		"Tab\tSeparated":                       "tab_separated",
		"already_normal":                       "already_normal",
	}
	for label, want := range tests {
		assert.Equal(t, want, Identifier(label), "label %q", label)
	}
}

func TestIdentifierIsStable(t *testing.T) {
	labels := []string{"Neural Network", "Chain-of-Thought (CoT)", "A/B Testing", "Q&A"}
	for _, label := range labels {
		first := Identifier(label)
		assert.Equal(t, first, Identifier(label))
		assert.False(t, strings.ContainsAny(first, " ()\"'"), "identifier %q has forbidden characters", first)
	}
}
