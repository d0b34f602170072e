package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RunSummary describes the last successful sync run
type RunSummary struct {
	GeneratedAt    string `json:"generated_at"`
	Products       int    `json:"products"`
	PublicProducts int    `json:"public_products"`
	Categories     int    `json:"categories"`
	Recoveries     int    `json:"recoveries"`
	DurationMillis int64  `json:"duration_ms"`
}

type StateManager interface {
	GetLastRun(ctx context.Context) (*RunSummary, error)
	SetLastRun(ctx context.Context, summary RunSummary) error
}

type redisStateManager struct {
	redisClient *redis.Client
	key         string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		key:         "catalog:sync:last_run",
	}
}

// GetLastRun returns nil when no run has been recorded yet
func (s *redisStateManager) GetLastRun(ctx context.Context) (*RunSummary, error) {
	val, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	var summary RunSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse last run: %w", err)
	}

	return &summary, nil
}

func (s *redisStateManager) SetLastRun(ctx context.Context, summary RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode last run: %w", err)
	}
	if err := s.redisClient.Set(ctx, s.key, data, 0).Err(); err != nil { // No expiration
		return fmt.Errorf("failed to set last run: %w", err)
	}
	return nil
}
