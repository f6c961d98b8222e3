package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/internal/repository"
)

func execute(t *testing.T, store repository.SnapshotStore, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context) (repository.SnapshotStore, error) { return store, nil }
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, nil, "hash-password", "secret", "--cost", "4")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("secret")))
}

func TestSeedThenDumpAndCheck(t *testing.T) {
	store := repository.NewMemorySnapshotStore(nil)

	out, err := execute(t, store, "seed", "--location", "Riverside", "--house", "A1", "--house", "A2", "--rent", "350")
	require.NoError(t, err)
	assert.Contains(t, out, `"Riverside"`)
	assert.Contains(t, out, `"A2"`)

	out, err = execute(t, store, "snapshot", "dump")
	require.NoError(t, err)
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
	require.Len(t, snapshot.Houses, 2)
	assert.Equal(t, models.HouseStatusVacant, snapshot.Houses[0].Status)
	assert.Equal(t, 350.0, snapshot.Houses[1].RentAmount)

	out, err = execute(t, store, "snapshot", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "2 houses")
}

func TestSeedRequiresLocation(t *testing.T) {
	_, err := execute(t, repository.NewMemorySnapshotStore(nil), "seed", "--house", "A1")
	assert.EqualError(t, err, "--location is required")
}

func TestSnapshotCheckReportsViolations(t *testing.T) {
	broken := models.NewSnapshot()
	broken.Houses = append(broken.Houses, models.House{ID: "h1", LocationID: "missing", Status: models.HouseStatusVacant})
	out, err := execute(t, repository.NewMemorySnapshotStore(broken), "snapshot", "check")
	require.Error(t, err)
	assert.Contains(t, out, "violation: house h1 references missing location missing")
}

func TestSeedRejectsMissingRentBeforeWriting(t *testing.T) {
	store := repository.NewMemorySnapshotStore(nil)
	_, err := execute(t, store, "seed", "--location", "Riverside", "--house", "A1")
	assert.EqualError(t, err, "--rent must be positive when houses are seeded")

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Locations)
	assert.Equal(t, int64(0), snapshot.Version)
}
