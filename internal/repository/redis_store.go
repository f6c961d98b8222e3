package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/rentflow-api/internal/models"
)

const redisVersionField = "version"

// RedisSnapshotStore keeps the snapshot in one hash: a field per bucket plus a
// version field guarded with WATCH/MULTI.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore constructs the store on the given hash key.
func NewRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = "rentflow:state"
	}
	return &RedisSnapshotStore{client: client, key: key}
}

// Load reads the whole hash. A missing key yields an empty snapshot at version 0.
func (r *RedisSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	return decodeHash(fields)
}

// Save replaces all bucket fields and bumps the version inside a WATCH transaction.
func (r *RedisSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	buckets, err := encodeBuckets(snapshot)
	if err != nil {
		return err
	}
	next := snapshot.Version + 1
	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, r.key, redisVersionField).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis read version: %w", err)
		}
		if current != snapshot.Version {
			return ErrStaleSnapshot
		}
		values := make([]interface{}, 0, len(buckets)*2+2)
		for _, bucket := range snapshotBuckets {
			values = append(values, bucket, buckets[bucket])
		}
		values = append(values, redisVersionField, next)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, values...)
			return nil
		})
		return err
	}
	if err := r.client.Watch(ctx, txf, r.key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrStaleSnapshot
		}
		if errors.Is(err, ErrStaleSnapshot) {
			return err
		}
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	snapshot.Version = next
	return nil
}

// Close releases the redis client.
func (r *RedisSnapshotStore) Close() error {
	return r.client.Close()
}

func decodeHash(fields map[string]string) (*models.Snapshot, error) {
	snapshot := models.NewSnapshot()
	for field, value := range fields {
		if field == redisVersionField {
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse snapshot version: %w", err)
			}
			snapshot.Version = v
			continue
		}
		if err := decodeBucket(snapshot, field, []byte(value)); err != nil {
			return nil, err
		}
	}
	snapshot.Normalize()
	return snapshot, nil
}
