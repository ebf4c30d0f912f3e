// internal/workers/retrieval/fuse-evidence/diversifier.go
package fuseevidence

import (
	"strings"

	"planning-workers/internal/models"
)

// diversify walks the ranked list greedily, enforcing per-source caps and
// dropping near-duplicates of anything already kept. Once a source's cap is
// hit, later items from that source are skipped even when they outrank kept
// items from other sources.
func diversify(ranked []models.RetrievalResult, caps map[models.SourceTier]int, jaccardThreshold float64) []models.RetrievalResult {
	kept := make([]models.RetrievalResult, 0, len(ranked))
	keptTokens := make([]map[string]struct{}, 0, len(ranked))
	perSource := make(map[models.SourceTier]int)

	for _, item := range ranked {
		if limit, ok := caps[item.Source]; ok && perSource[item.Source] >= limit {
			continue
		}

		tokens := tokenSet(item.Content)
		duplicate := false
		for _, prev := range keptTokens {
			if jaccard(tokens, prev) > jaccardThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, item)
		keptTokens = append(keptTokens, tokens)
		perSource[item.Source]++
	}
	return kept
}

func tokenSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(content)) {
		set[word] = struct{}{}
	}
	return set
}

// jaccard is intersection over union of the two token sets. Two empty sets
// count as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
