// internal/citations/indexer_test.go
package citations

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-workers/internal/models"
)

func TestIndexerKeyFormat(t *testing.T) {
	ix := NewIndexer()

	key1 := ix.Add("policy", "DM-H2", models.CitationEntry{Type: "policy", Description: "Housing mix"})
	key2 := ix.Add("policy", "DM-H2", models.CitationEntry{Type: "policy", Description: "Housing mix, second match"})
	key3 := ix.Add("constraint", "conservation_area", models.CitationEntry{Type: "constraint"})

	assert.Equal(t, "POLICY_DMH2_001", key1)
	assert.Equal(t, "POLICY_DMH2_002", key2)
	assert.Equal(t, "CONSTRAINT_CONSERVATIONAREA_001", key3)

	assert.Equal(t, 3, ix.Count())
	entry, ok := ix.Index()[key2]
	require.True(t, ok)
	assert.Equal(t, "Housing mix, second match", entry.Description)
}

func TestIndexerUniqueKeys(t *testing.T) {
	ix := NewIndexer()
	seen := make(map[string]bool)
	for i := 0; i < 12; i++ {
		key := ix.Add("policy", fmt.Sprintf("code-%d", i%4), models.CitationEntry{Type: "policy"})
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	assert.Equal(t, 12, ix.Count())
}

func TestIndexerEmptySubtype(t *testing.T) {
	ix := NewIndexer()
	key := ix.Add("spatial", "", models.CitationEntry{Type: "spatial"})
	assert.Equal(t, "SPATIAL_GENERAL_001", key)
}
