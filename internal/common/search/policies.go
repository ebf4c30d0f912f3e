// internal/common/search/policies.go
package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/models"
)

var ErrPolicyQueryFailed = errors.New("policy registry query failed")

// PolicyStore reads the national policy registry mirror held in Postgres.
// Rows come back in the external_policy tier.
type PolicyStore struct {
	db *sql.DB
}

func NewPolicyStore(db *sql.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// PoliciesFor returns registry policies applicable to the given authority,
// most recently adopted first.
func (s *PolicyStore) PoliciesFor(ctx context.Context, authorityCode string, limit int) ([]models.RetrievalResult, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, title, body, relevance
		FROM registry_policies
		WHERE authority_code = $1 OR authority_code = 'national'
		ORDER BY adopted_at DESC
		LIMIT $2`, authorityCode, limit)
	if err != nil {
		return nil, apperrors.NewPolicyRegistryError(authorityCode, fmt.Errorf("%w: %v", ErrPolicyQueryFailed, err))
	}
	defer rows.Close()

	var results []models.RetrievalResult
	for rows.Next() {
		var code, title, body string
		var relevance float64
		if err := rows.Scan(&code, &title, &body, &relevance); err != nil {
			return nil, apperrors.NewPolicyRegistryError(authorityCode, fmt.Errorf("%w: %v", ErrPolicyQueryFailed, err))
		}
		if relevance <= 0 || relevance > 1 {
			relevance = 0.5
		}
		results = append(results, models.RetrievalResult{
			Source:         models.SourceExternalPolicy,
			Content:        code + " " + title + "\n" + body,
			RelevanceScore: relevance,
			Role:           models.RolePolicy,
			Reference:      code,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPolicyRegistryError(authorityCode, fmt.Errorf("%w: %v", ErrPolicyQueryFailed, err))
	}
	return results, nil
}
