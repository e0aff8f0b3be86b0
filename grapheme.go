// Package ftui provides the grapheme pool used by cells holding
// multi-scalar clusters (base + combining marks, emoji sequences).
package ftui

import (
	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// GraphemeID references an interned grapheme cluster in a GraphemePool.
// The zero value is never a valid reference.
type GraphemeID uint32

// GraphemePool interns grapheme cluster strings so cells stay fixed-size.
// Interning the same cluster twice returns the same id. The pool lives for
// the process; ids are stable across frames.
type GraphemePool struct {
	clusters []pooledGrapheme
	index    map[string]GraphemeID
}

type pooledGrapheme struct {
	s     string
	width int
}

// NewGraphemePool creates an empty pool.
func NewGraphemePool() *GraphemePool {
	return &GraphemePool{
		index: make(map[string]GraphemeID),
	}
}

// Intern stores the cluster and returns its id. Repeated interning of the
// same string is idempotent.
func (p *GraphemePool) Intern(cluster string) GraphemeID {
	if id, ok := p.index[cluster]; ok {
		return id
	}
	p.clusters = append(p.clusters, pooledGrapheme{
		s:     cluster,
		width: clusterDisplayWidth(cluster),
	})
	id := GraphemeID(len(p.clusters)) // ids start at 1
	p.index[cluster] = id
	return id
}

// Lookup returns the cluster string and display width for an id.
// Unknown ids return ("", 0).
func (p *GraphemePool) Lookup(id GraphemeID) (string, int) {
	if id == 0 || int(id) > len(p.clusters) {
		return "", 0
	}
	g := p.clusters[id-1]
	return g.s, g.width
}

// Len returns the number of interned clusters.
func (p *GraphemePool) Len() int {
	return len(p.clusters)
}

// runeDisplayWidth returns the column width of a single rune.
func runeDisplayWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// clusterDisplayWidth returns the column width of a grapheme cluster.
// Zero-width clusters (lone combining marks) report 0 so callers can fold
// them into the preceding cell.
func clusterDisplayWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	if w > 2 {
		w = 2
	}
	return w
}

// SplitGraphemes segments a string into grapheme clusters in source order.
func SplitGraphemes(s string) []string {
	var out []string
	tokens := graphemes.FromString(s)
	for tokens.Next() {
		out = append(out, tokens.Value())
	}
	return out
}
