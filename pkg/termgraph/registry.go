package termgraph

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fallbackID is the identifier base for labels made up entirely of characters
// that Identifier drops.
const fallbackID = "term"

// Key returns the equivalence key for a label. Two labels name the same term
// iff their keys are equal.
func Key(label string) string {
	return fold(strings.TrimSpace(label))
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Entry is a registered term.
type Entry struct {
	Key   string // equivalence key
	Label string // canonical (first-seen) display form
	ID    string // node identifier, unique within the registry
}

// Registry deduplicates term labels for a single graph build. It maps each
// key to the first display form seen for it and hands out unique identifiers.
type Registry struct {
	byKey   map[string]int
	byID    map[string]string
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]int),
		byID:  make(map[string]string),
	}
}

// Register records label unless an equivalent label is already present.
// It reports whether the label was new and returns the canonical form.
// Blank labels are never registered.
func (r *Registry) Register(label string) (isNew bool, canonical string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return false, ""
	}
	key := Key(label)
	if i, ok := r.byKey[key]; ok {
		return false, r.entries[i].Label
	}

	id := r.uniqueID(Identifier(label))
	r.byKey[key] = len(r.entries)
	r.byID[id] = key
	r.entries = append(r.entries, Entry{Key: key, Label: label, ID: id})
	return true, label
}

// uniqueID disambiguates distinct terms that normalize to the same
// identifier: the first keeps the base, later ones get _2, _3, ...
func (r *Registry) uniqueID(base string) string {
	if base == "" {
		base = fallbackID
	}
	if _, taken := r.byID[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		id := base + "_" + strconv.Itoa(n)
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

// Lookup returns the entry for any label equivalent to label.
func (r *Registry) Lookup(label string) (Entry, bool) {
	return r.lookupKey(Key(label))
}

func (r *Registry) lookupKey(key string) (Entry, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns the registered terms in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered terms.
func (r *Registry) Len() int { return len(r.entries) }
