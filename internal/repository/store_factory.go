package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/cache"
	"github.com/noah-isme/rentflow-api/pkg/config"
	"github.com/noah-isme/rentflow-api/pkg/database"
	"github.com/noah-isme/rentflow-api/pkg/objectstore"
)

// SnapshotStore loads and saves the complete entity snapshot.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Close() error
}

// OpenSnapshotStore builds the backend selected by cfg.Store.Driver and runs its migrations.
func OpenSnapshotStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, "":
		logger.Warn("using in-memory snapshot store; state is lost on restart")
		return NewMemorySnapshotStore(nil), nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := NewSQLSnapshotStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case config.StoreDriverSQLite:
		db, err := database.NewSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, err
		}
		store := NewSQLSnapshotStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisSnapshotStore(client, cfg.Redis.StateKey), nil
	case config.StoreDriverS3:
		client, err := objectstore.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3SnapshotStore(client, cfg.S3.Bucket, cfg.S3.Key), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
