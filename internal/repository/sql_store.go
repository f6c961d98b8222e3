package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rentflow-api/internal/models"
)

// SQLSnapshotStore persists each snapshot collection as a JSON payload row in
// rent_state. The _meta row carries the version used for optimistic writes.
// Works on postgres (lib/pq) and sqlite (modernc) through sqlx rebinding.
type SQLSnapshotStore struct {
	db *sqlx.DB
}

// NewSQLSnapshotStore constructs the store. Call Migrate before first use.
func NewSQLSnapshotStore(db *sqlx.DB) *SQLSnapshotStore {
	return &SQLSnapshotStore{db: db}
}

// Migrate creates the state table when missing.
func (s *SQLSnapshotStore) Migrate(ctx context.Context) error {
	payloadType := "TEXT"
	if s.db.DriverName() == "postgres" {
		payloadType = "JSONB"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rent_state (
		bucket TEXT PRIMARY KEY,
		payload %s NOT NULL,
		version BIGINT NOT NULL DEFAULT 0
	)`, payloadType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create rent_state table: %w", err)
	}
	return nil
}

type stateRow struct {
	Bucket  string `db:"bucket"`
	Payload string `db:"payload"`
	Version int64  `db:"version"`
}

// Load reads every bucket row. An empty table yields an empty snapshot at version 0.
func (s *SQLSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var rows []stateRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT bucket, payload, version FROM rent_state`); err != nil {
		return nil, fmt.Errorf("select rent_state: %w", err)
	}
	snapshot := models.NewSnapshot()
	for _, row := range rows {
		if row.Bucket == metaBucket {
			snapshot.Version = row.Version
			continue
		}
		if err := decodeBucket(snapshot, row.Bucket, []byte(row.Payload)); err != nil {
			return nil, err
		}
	}
	snapshot.Normalize()
	return snapshot, nil
}

// Save writes all buckets in one transaction. The _meta row is claimed first with
// a compare-and-set on version; a lost race returns ErrStaleSnapshot.
func (s *SQLSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) (retErr error) {
	buckets, err := encodeBuckets(snapshot)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(map[string]interface{}{"savedAt": time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	next := snapshot.Version + 1

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var claim string
	args := []interface{}{}
	if snapshot.Version == 0 {
		claim = `INSERT INTO rent_state (bucket, payload, version) VALUES (?, ?, ?) ON CONFLICT (bucket) DO NOTHING`
		args = append(args, metaBucket, string(meta), next)
	} else {
		claim = `UPDATE rent_state SET payload = ?, version = ? WHERE bucket = ? AND version = ?`
		args = append(args, string(meta), next, metaBucket, snapshot.Version)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(claim), args...)
	if err != nil {
		return fmt.Errorf("claim snapshot version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check snapshot claim rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleSnapshot
	}

	upsert := tx.Rebind(`INSERT INTO rent_state (bucket, payload, version) VALUES (?, ?, ?)
		ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload, version = excluded.version`)
	for _, bucket := range snapshotBuckets {
		if _, err := tx.ExecContext(ctx, upsert, bucket, string(buckets[bucket]), next); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	snapshot.Version = next
	return nil
}

// Close releases the database handle.
func (s *SQLSnapshotStore) Close() error {
	return s.db.Close()
}
