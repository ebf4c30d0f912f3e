// internal/workers/retrieval/fuse-evidence/budgeter.go
package fuseevidence

import (
	"strings"

	"planning-workers/internal/models"
)

// budget walks the diversified list in rank order and keeps an item only when
// it fits both its role bucket and the remaining global budget. Skipped items
// are never retried, which keeps truncation deterministic for a fixed input.
func budget(items []models.RetrievalResult, cfg *Config) []models.RetrievalResult {
	remaining := map[models.EvidenceRole]int{
		models.RolePolicy:      cfg.PolicyBudget,
		models.RoleApplication: cfg.ApplicationBudget,
		models.RoleOther:       cfg.OtherBudget,
	}
	global := cfg.GlobalTokenBudget

	kept := make([]models.RetrievalResult, 0, len(items))
	for _, item := range items {
		cost := estimateTokens(item.Content, cfg.TokensPerWord)
		bucket, ok := remaining[item.Role]
		if !ok {
			bucket = remaining[models.RoleOther]
			item.Role = models.RoleOther
		}
		if cost > bucket || cost > global {
			continue
		}
		remaining[item.Role] -= cost
		global -= cost
		kept = append(kept, item)
	}
	return kept
}

func estimateTokens(content string, tokensPerWord float64) int {
	words := len(strings.Fields(content))
	return int(float64(words) * tokensPerWord)
}
