// internal/common/search/constraints.go
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

var ErrConstraintFetchFailed = errors.New("constraint registry fetch failed")

// Constraint designations are authoritative facts, not ranked hits, so every
// result carries the same relevance.
const constraintRelevance = 1.0

// ConstraintClient looks up statutory designations covering a coordinate from
// the constraint registry service.
type ConstraintClient struct {
	baseURL string
	client  *commonhttp.Client
}

func NewConstraintClient(cfg config.APIsConfig) *ConstraintClient {
	timeout := time.Duration(cfg.ConstraintRegistry.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ConstraintClient{
		baseURL: cfg.ConstraintRegistry.BaseURL,
		client:  commonhttp.NewRetryingClient(timeout, 2),
	}
}

func (c *ConstraintClient) Lookup(ctx context.Context, coordinates [2]float64, limit int) ([]models.RetrievalResult, error) {
	if c.baseURL == "" {
		return nil, ErrConstraintFetchFailed
	}
	if limit < 1 {
		limit = 10
	}

	params := url.Values{}
	params.Set("lon", strconv.FormatFloat(coordinates[0], 'f', -1, 64))
	params.Set("lat", strconv.FormatFloat(coordinates[1], 'f', -1, 64))
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/constraints?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.NewConstraintFetchError(fmt.Errorf("%w: %v", ErrConstraintFetchFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewConstraintFetchError(fmt.Errorf("%w: status %d", ErrConstraintFetchFailed, resp.StatusCode))
	}

	var apiResponse struct {
		Constraints []struct {
			Type        string `json:"type"`
			Name        string `json:"name"`
			Designation string `json:"designation"`
			Reference   string `json:"reference"`
		} `json:"constraints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, apperrors.NewConstraintFetchError(fmt.Errorf("%w: %v", ErrConstraintFetchFailed, err))
	}

	results := make([]models.RetrievalResult, 0, len(apiResponse.Constraints))
	for _, con := range apiResponse.Constraints {
		results = append(results, models.RetrievalResult{
			Source:         models.SourceConstraints,
			Content:        fmt.Sprintf("%s: %s (%s)", con.Type, con.Name, con.Designation),
			RelevanceScore: constraintRelevance,
			Role:           models.RoleOther,
			Reference:      con.Reference,
		})
	}
	return results, nil
}
