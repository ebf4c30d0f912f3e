// internal/common/search/local.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"planning-workers/internal/common/config"
	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/models"
)

var (
	ErrMissingIndex    = errors.New("index name is required")
	ErrSearchFailed    = errors.New("local search failed")
	ErrEmptyLocalQuery = errors.New("query is required")
)

// LocalSearcher runs full-text searches over the authority's own indexed
// corpora: adopted policy documents and historic application records.
type LocalSearcher struct {
	client   *elasticsearch.Client
	appIndex string
	polIndex string
}

func NewLocalSearcher(client *elasticsearch.Client, cfg config.ElasticsearchConfig) *LocalSearcher {
	return &LocalSearcher{
		client:   client,
		appIndex: cfg.ApplicationIndex,
		polIndex: cfg.PolicyIndex,
	}
}

// SearchPolicies queries the adopted local plan index.
func (s *LocalSearcher) SearchPolicies(ctx context.Context, query string, size int) ([]models.RetrievalResult, error) {
	return s.search(ctx, s.polIndex, query, size, models.SourceLocalPolicy, models.RolePolicy)
}

// SearchApplications queries the historic application index.
func (s *LocalSearcher) SearchApplications(ctx context.Context, query string, size int) ([]models.RetrievalResult, error) {
	return s.search(ctx, s.appIndex, query, size, models.SourceLocalApplication, models.RoleApplication)
}

func (s *LocalSearcher) search(ctx context.Context, index, query string, size int, tier models.SourceTier, role models.EvidenceRole) ([]models.RetrievalResult, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyLocalQuery
	}
	if size < 1 {
		size = 10
	}

	body, err := json.Marshal(buildTextQuery(query))
	if err != nil {
		return nil, err
	}

	from := 0
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewLocalSearchError(string(role), fmt.Errorf("%w: %v", ErrSearchFailed, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewLocalSearchError(string(role), fmt.Errorf("%w: %s", ErrSearchFailed, res.String()))
	}

	var r struct {
		Hits struct {
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Title     string `json:"title"`
					Content   string `json:"content"`
					Reference string `json:"reference"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewLocalSearchError(string(role), fmt.Errorf("%w: %v", ErrSearchFailed, err))
	}

	results := make([]models.RetrievalResult, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		content := hit.Source.Content
		if hit.Source.Title != "" {
			content = hit.Source.Title + "\n" + content
		}
		results = append(results, models.RetrievalResult{
			Source:         tier,
			Content:        content,
			RelevanceScore: normalizeScore(hit.Score, r.Hits.MaxScore),
			Role:           role,
			Reference:      hit.Source.Reference,
		})
	}
	return results, nil
}

func buildTextQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^3", "content^2", "reference"},
							"type":   "best_fields",
						},
					},
				},
			},
		},
	}
}

// normalizeScore maps a raw Lucene score into [0,1] relative to the best hit
// in the same response.
func normalizeScore(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	n := score / maxScore
	if n > 1 {
		n = 1
	}
	if n < 0 {
		n = 0
	}
	return n
}
