// internal/common/search/policies_test.go
package search

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/models"
)

func TestPoliciesFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"code", "title", "body", "relevance"}).
		AddRow("NPPF-11", "Making effective use of land", "Planning decisions should promote...", 0.8).
		AddRow("DM-H2", "Housing mix", "Proposals for new dwellings...", 1.2)

	mock.ExpectQuery("SELECT code, title, body, relevance").
		WithArgs("E07000112", 10).
		WillReturnRows(rows)

	store := NewPolicyStore(db)
	results, err := store.PoliciesFor(context.Background(), "E07000112", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.SourceExternalPolicy, results[0].Source)
	assert.Equal(t, models.RolePolicy, results[0].Role)
	assert.Equal(t, "NPPF-11", results[0].Reference)
	assert.Contains(t, results[0].Content, "Making effective use of land")
	assert.Equal(t, 0.8, results[0].RelevanceScore)

	// Out-of-range relevance falls back to a neutral score.
	assert.Equal(t, 0.5, results[1].RelevanceScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoliciesForQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT code, title, body, relevance").
		WillReturnError(assert.AnError)

	store := NewPolicyStore(db)
	_, err = store.PoliciesFor(context.Background(), "E07000112", 5)
	assert.ErrorIs(t, err, ErrPolicyQueryFailed)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodePolicyRegistryFailed, stdErr.Code)
}
