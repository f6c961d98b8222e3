package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/rentflow-api/internal/models"
)

// MemorySnapshotStore keeps the snapshot in process memory. Used for tests and
// single-instance demos.
type MemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot
}

// NewMemorySnapshotStore seeds the store with initial, or an empty snapshot when nil.
func NewMemorySnapshotStore(initial *models.Snapshot) *MemorySnapshotStore {
	s := initial.Clone()
	s.Normalize()
	return &MemorySnapshotStore{snapshot: s}
}

// Load returns a copy of the current snapshot.
func (m *MemorySnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone(), nil
}

// Save replaces the stored snapshot when snapshot.Version matches the stored version.
func (m *MemorySnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot.Version != m.snapshot.Version {
		return ErrStaleSnapshot
	}
	next := snapshot.Clone()
	next.Normalize()
	next.Version = snapshot.Version + 1
	m.snapshot = next
	snapshot.Version = next.Version
	return nil
}

// Close is a no-op.
func (m *MemorySnapshotStore) Close() error { return nil }
