// internal/workers/retrieval/fuse-evidence/grounding.go
package fuseevidence

import (
	"context"

	"planning-workers/internal/common/genai"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/models"
)

// shouldEscalate reports whether coverage is thin enough to justify a
// widening search: a sparse policy matrix and a small budgeted context.
func shouldEscalate(matrix models.PolicyMatrix, budgeted []models.RetrievalResult, cfg *Config) bool {
	return matrix.Count < cfg.GroundingMinPolicies && len(budgeted) < cfg.GroundingMinContext
}

// groundingQueries builds the broad queries for the escalation round, capped
// at GroundingMaxQueries.
func groundingQueries(input *Input, cfg *Config) []string {
	queries := []string{input.Query}
	if input.Context.DevelopmentType != "" {
		queries = append(queries, input.Context.DevelopmentType+" planning policy "+input.Context.Authority)
	}
	if len(queries) > cfg.GroundingMaxQueries {
		queries = queries[:cfg.GroundingMaxQueries]
	}
	return queries
}

// escalate issues the grounding searches, each bounded to its own short
// timeout. Failures are swallowed: a dead grounding capability yields no
// snippets, never an error.
func escalate(ctx context.Context, reasoner genai.Reasoner, queries []string, cfg *Config, log logger.Logger) []models.RetrievalResult {
	var grounded []models.RetrievalResult
	for _, query := range queries {
		qctx, cancel := context.WithTimeout(ctx, cfg.GroundingTimeout)
		result, err := reasoner.GroundedSearch(qctx, query)
		cancel()
		if err != nil {
			log.Warn("grounding search failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			continue
		}
		for _, snippet := range result.Snippets {
			grounded = append(grounded, models.RetrievalResult{
				Source:         models.SourceGrounding,
				Content:        snippet,
				RelevanceScore: 1.0,
				Role:           models.RoleOther,
				Reference:      result.Query,
			})
		}
	}
	return grounded
}
