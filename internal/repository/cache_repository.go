package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// SnapshotCacheRepository keeps the last committed snapshot under one Redis key.
type SnapshotCacheRepository struct {
	client *redis.Client
	key    string
}

// NewSnapshotCacheRepository constructs the cache on key, defaulting to rentflow:snapshot.
func NewSnapshotCacheRepository(client *redis.Client, key string) *SnapshotCacheRepository {
	if key == "" {
		key = "rentflow:snapshot"
	}
	return &SnapshotCacheRepository{client: client, key: key}
}

// Get returns the cached snapshot or appErrors.ErrCacheMiss.
func (r *SnapshotCacheRepository) Get(ctx context.Context) (*models.Snapshot, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(raw, snapshot); err != nil {
		// an undecodable entry is treated as absent
		_ = r.client.Del(ctx, r.key).Err()
		return nil, appErrors.ErrCacheMiss
	}
	snapshot.Normalize()
	return snapshot, nil
}

// Put stores snapshot with the given expiry.
func (r *SnapshotCacheRepository) Put(ctx context.Context, snapshot *models.Snapshot, ttl time.Duration) error {
	if r.client == nil || snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode cached snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Invalidate drops the cached snapshot.
func (r *SnapshotCacheRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
