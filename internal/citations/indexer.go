// internal/citations/indexer.go

// Package citations builds the per-run citation index that decision outputs
// reference instead of embedding raw evidence.
package citations

import (
	"fmt"
	"strings"

	"planning-workers/internal/models"
)

// Indexer assigns stable citation keys within a single assessment run. Keys
// take the form TYPE_SUBTYPE_NNN where NNN increments per type/subtype pair,
// so the same evidence class cited twice yields two distinct keys.
type Indexer struct {
	counters map[string]int
	index    models.CitationIndex
}

func NewIndexer() *Indexer {
	return &Indexer{
		counters: make(map[string]int),
		index:    make(models.CitationIndex),
	}
}

// Add records one evidence item and returns its citation key.
func (ix *Indexer) Add(citationType, subtype string, entry models.CitationEntry) string {
	prefix := sanitize(citationType) + "_" + sanitize(subtype)
	ix.counters[prefix]++
	key := fmt.Sprintf("%s_%03d", prefix, ix.counters[prefix])
	ix.index[key] = entry
	return key
}

// Index returns the accumulated key-to-entry map.
func (ix *Indexer) Index() models.CitationIndex {
	return ix.index
}

// Count reports how many citations have been issued so far.
func (ix *Indexer) Count() int {
	return len(ix.index)
}

// sanitize upper-cases and strips everything outside [A-Z0-9] so keys stay
// grep-friendly regardless of what the evidence layer passes in.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "GENERAL"
	}
	return b.String()
}
