// internal/common/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"planning-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (AssessmentStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Minute), mr
}

func TestStore_SaveAndGetAssessment(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "run-1"))

	snapshot := &models.MaterialAssessment{
		RunID:      "run-1",
		Confidence: 0.72,
		Considerations: []models.ConsiderationAssessment{
			{ID: "c-1", Category: models.CategoryHeritage, Subcategory: "listed_buildings", Score: 35},
		},
	}
	require.NoError(t, store.SaveAssessment(ctx, "run-1", snapshot))

	got, err := store.GetAssessment(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.InDelta(t, 0.72, got.Confidence, 1e-9)
	require.Len(t, got.Considerations, 1)
	assert.Equal(t, "listed_buildings", got.Considerations[0].Subcategory)
}

func TestStore_GetAssessment_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetAssessment(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CancelDiscardsLateResults(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "run-2"))

	active, err := store.IsActive(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, store.Cancel(ctx, "run-2"))

	active, err = store.IsActive(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, active)

	// A result arriving after cancellation is silently discarded.
	require.NoError(t, store.SaveAssessment(ctx, "run-2", &models.MaterialAssessment{RunID: "run-2"}))

	_, err = store.GetAssessment(ctx, "run-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PropagatesBackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	mock.ExpectExists(activeKey("run-err")).SetErr(errors.New("connection reset"))

	err := store.SaveAssessment(ctx, "run-err", &models.MaterialAssessment{RunID: "run-err"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TTLBoundsRetention(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "run-3"))
	require.NoError(t, store.SaveAssessment(ctx, "run-3", &models.MaterialAssessment{RunID: "run-3"}))

	mr.FastForward(2 * time.Second)

	_, err := store.GetAssessment(ctx, "run-3")
	assert.ErrorIs(t, err, ErrNotFound)
}
