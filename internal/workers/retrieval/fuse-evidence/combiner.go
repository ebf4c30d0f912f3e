// internal/workers/retrieval/fuse-evidence/combiner.go
package fuseevidence

import (
	"sort"

	"planning-workers/internal/models"
)

// Fixed base weights per source tier. An item's final relevance is
// tierWeight x the similarity or confidence its source reported. Grounding
// sits below every primary tier.
var tierWeights = map[models.SourceTier]float64{
	models.SourceLocalPolicy:      1.0,
	models.SourceLocalApplication: 0.9,
	models.SourceExternalPolicy:   0.85,
	models.SourceConstraints:      0.8,
	models.SourcePrecedent:        0.7,
	models.SourceTargeted:         0.6,
	models.SourceGrounding:        0.4,
}

// combine merges all fetched items into one ranked list. The sort is stable,
// so equal scores keep their fetch order and tier priority only decides exact
// ties.
func combine(items []models.RetrievalResult, topK int) []models.RetrievalResult {
	ranked := make([]models.RetrievalResult, len(items))
	for i, item := range items {
		weight, ok := tierWeights[item.Source]
		if !ok {
			weight = tierWeights[models.SourceGrounding]
		}
		item.RelevanceScore = weight * item.RelevanceScore
		ranked[i] = item
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
