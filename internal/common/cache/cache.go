// internal/common/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"planning-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no snapshot exists for a run.
var ErrNotFound = errors.New("assessment not found")

// AssessmentStore persists completed assessment snapshots and tracks the set
// of active runs. Snapshots are immutable: a run writes its assessment once
// and the TTL bounds retention. Cancellation is cooperative: it only removes
// the run from the active registry, so results from calls already in flight
// are discarded on write-back instead of being aborted.
type AssessmentStore interface {
	Register(ctx context.Context, runID string) error
	Cancel(ctx context.Context, runID string) error
	IsActive(ctx context.Context, runID string) (bool, error)
	SaveAssessment(ctx context.Context, runID string, a *models.MaterialAssessment) error
	GetAssessment(ctx context.Context, runID string) (*models.MaterialAssessment, error)
	SaveRecommendation(ctx context.Context, runID string, r *models.Recommendation) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds an AssessmentStore on a Redis client. TTL bounds both
// the active-run markers and the stored snapshots.
func NewRedisStore(client *redis.Client, ttl time.Duration) AssessmentStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisStore{client: client, ttl: ttl}
}

func activeKey(runID string) string {
	return "assessment:active:" + runID
}

func snapshotKey(runID string) string {
	return "assessment:snapshot:" + runID
}

func recommendationKey(runID string) string {
	return "assessment:recommendation:" + runID
}

func (s *redisStore) Register(ctx context.Context, runID string) error {
	return s.client.Set(ctx, activeKey(runID), "1", s.ttl).Err()
}

func (s *redisStore) Cancel(ctx context.Context, runID string) error {
	return s.client.Del(ctx, activeKey(runID)).Err()
}

func (s *redisStore) IsActive(ctx context.Context, runID string) (bool, error) {
	n, err := s.client.Exists(ctx, activeKey(runID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) SaveAssessment(ctx context.Context, runID string, a *models.MaterialAssessment) error {
	active, err := s.IsActive(ctx, runID)
	if err != nil {
		return err
	}
	if !active {
		// Run was cancelled while the assessment was in flight; discard.
		return nil
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return s.client.Set(ctx, snapshotKey(runID), data, s.ttl).Err()
}

func (s *redisStore) GetAssessment(ctx context.Context, runID string) (*models.MaterialAssessment, error) {
	data, err := s.client.Get(ctx, snapshotKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var a models.MaterialAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return &a, nil
}

func (s *redisStore) SaveRecommendation(ctx context.Context, runID string, r *models.Recommendation) error {
	active, err := s.IsActive(ctx, runID)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}
	return s.client.Set(ctx, recommendationKey(runID), data, s.ttl).Err()
}
