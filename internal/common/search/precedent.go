// internal/common/search/precedent.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"planning-workers/internal/common/config"
	apperrors "planning-workers/internal/common/errors"
	commonhttp "planning-workers/internal/common/http"
	"planning-workers/internal/models"
)

var ErrPrecedentUnavailable = errors.New("precedent search unavailable")

// PrecedentClient calls the national appeal-decision search service. Results
// land in the precedent tier with the scores the service reports.
type PrecedentClient struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
}

func NewPrecedentClient(cfg config.APIsConfig) *PrecedentClient {
	timeout := time.Duration(cfg.PrecedentSearch.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PrecedentClient{
		baseURL: cfg.PrecedentSearch.BaseURL,
		apiKey:  cfg.PrecedentSearch.APIKey,
		client:  commonhttp.NewRetryingClient(timeout, 2),
	}
}

func (c *PrecedentClient) Search(ctx context.Context, query string, limit int) ([]models.RetrievalResult, error) {
	if c.baseURL == "" {
		return nil, ErrPrecedentUnavailable
	}
	if limit < 1 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.NewPrecedentSearchError(fmt.Errorf("%w: %v", ErrPrecedentUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewPrecedentSearchError(fmt.Errorf("%w: status %d", ErrPrecedentUnavailable, resp.StatusCode))
	}

	var apiResponse struct {
		Results []struct {
			Title     string  `json:"title"`
			Summary   string  `json:"summary"`
			Reference string  `json:"reference"`
			Score     float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, apperrors.NewPrecedentSearchError(fmt.Errorf("%w: %v", ErrPrecedentUnavailable, err))
	}

	results := make([]models.RetrievalResult, 0, len(apiResponse.Results))
	for _, r := range apiResponse.Results {
		content := r.Summary
		if r.Title != "" {
			content = r.Title + "\n" + content
		}
		score := r.Score
		if score <= 0 || score > 1 {
			score = 0.5
		}
		results = append(results, models.RetrievalResult{
			Source:         models.SourcePrecedent,
			Content:        content,
			RelevanceScore: score,
			Role:           models.RoleOther,
			Reference:      r.Reference,
		})
	}
	return results, nil
}
