// internal/common/search/http_clients_test.go
package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-workers/internal/common/config"
	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/models"
)

func precedentConfig(baseURL string) config.APIsConfig {
	var cfg config.APIsConfig
	cfg.PrecedentSearch.BaseURL = baseURL
	cfg.PrecedentSearch.APIKey = "test-key"
	cfg.PrecedentSearch.Timeout = 2000
	return cfg
}

func constraintConfig(baseURL string) config.APIsConfig {
	var cfg config.APIsConfig
	cfg.ConstraintRegistry.BaseURL = baseURL
	cfg.ConstraintRegistry.Timeout = 2000
	return cfg
}

func TestPrecedentSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "rear extension conservation area", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"results":[
			{"title":"Appeal APP/X1234","summary":"Dismissed on heritage grounds","reference":"APP/X1234","score":0.72},
			{"title":"Appeal APP/Y5678","summary":"Allowed with conditions","reference":"APP/Y5678","score":0}
		]}`))
	}))
	defer srv.Close()

	client := NewPrecedentClient(precedentConfig(srv.URL))
	results, err := client.Search(context.Background(), "rear extension conservation area", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.SourcePrecedent, results[0].Source)
	assert.Equal(t, models.RoleOther, results[0].Role)
	assert.Equal(t, 0.72, results[0].RelevanceScore)
	assert.Contains(t, results[0].Content, "heritage grounds")
	assert.Equal(t, 0.5, results[1].RelevanceScore)
}

func TestPrecedentSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPrecedentClient(precedentConfig(srv.URL))
	_, err := client.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrPrecedentUnavailable)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodePrecedentSearchFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestPrecedentSearchNoBaseURL(t *testing.T) {
	client := NewPrecedentClient(config.APIsConfig{})
	_, err := client.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrPrecedentUnavailable)
}

func TestConstraintLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "-0.1276", r.URL.Query().Get("lon"))
		assert.Equal(t, "51.5072", r.URL.Query().Get("lat"))
		w.Write([]byte(`{"constraints":[
			{"type":"conservation_area","name":"Riverside","designation":"statutory","reference":"CA-041"}
		]}`))
	}))
	defer srv.Close()

	client := NewConstraintClient(constraintConfig(srv.URL))
	results, err := client.Lookup(context.Background(), [2]float64{-0.1276, 51.5072}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SourceConstraints, results[0].Source)
	assert.Equal(t, 1.0, results[0].RelevanceScore)
	assert.Contains(t, results[0].Content, "conservation_area")
	assert.Equal(t, "CA-041", results[0].Reference)
}

func TestConstraintLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := constraintConfig(srv.URL)
	cfg.ConstraintRegistry.Timeout = 50
	client := NewConstraintClient(cfg)
	_, err := client.Lookup(context.Background(), [2]float64{0, 0}, 10)
	assert.ErrorIs(t, err, ErrConstraintFetchFailed)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeConstraintFetchFailed, stdErr.Code)
}

func TestNormalizeScore(t *testing.T) {
	assert.Equal(t, 0.5, normalizeScore(5, 10))
	assert.Equal(t, 1.0, normalizeScore(12, 10))
	assert.Equal(t, 0.0, normalizeScore(3, 0))
}
