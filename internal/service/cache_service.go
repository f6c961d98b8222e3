package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// SnapshotCacheBackend persists the read-through snapshot copy.
type SnapshotCacheBackend interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Put(ctx context.Context, snapshot *models.Snapshot, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// CacheService fronts the snapshot store for reads. A nil *CacheService is a
// disabled cache.
type CacheService struct {
	backend SnapshotCacheBackend
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCacheService constructs a snapshot cache with ttl defaulting to five minutes.
func NewCacheService(backend SnapshotCacheBackend, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{backend: backend, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.backend != nil
}

// Lookup returns the cached snapshot. Backend failures count as a miss.
func (s *CacheService) Lookup(ctx context.Context) (*models.Snapshot, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	snapshot, err := s.backend.Get(ctx)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return snapshot, true
}

// Store caches a freshly loaded snapshot.
func (s *CacheService) Store(ctx context.Context, snapshot *models.Snapshot) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.backend.Put(ctx, snapshot, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("snapshot cache write failed", zap.Int64("version", snapshot.Version), zap.Error(err))
	}
}

// Invalidate drops the cached snapshot after a commit.
func (s *CacheService) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.Invalidate(ctx)
}
