package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rentflow-api/internal/models"
)

type fakeObjectAPI struct {
	body  []byte
	etag  string
	puts  []*s3.PutObjectInput
	putFn func(*s3.PutObjectInput) error
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.body == nil {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body)), ETag: aws.String(f.etag)}, nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	if f.putFn != nil {
		if err := f.putFn(in); err != nil {
			return nil, err
		}
	}
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = raw
	f.etag = f.etag + "x"
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func TestS3SnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := &fakeObjectAPI{etag: "e"}
	store := NewS3SnapshotStore(api, "bucket", "")

	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.Version)

	snapshot.Locations = append(snapshot.Locations, models.Location{ID: "l1", Name: "North"})
	require.NoError(t, store.Save(ctx, snapshot))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "*", aws.ToString(api.puts[0].IfNoneMatch))
	assert.Equal(t, "rentflow/snapshot.json", aws.ToString(api.puts[0].Key))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	require.Len(t, loaded.Locations, 1)

	require.NoError(t, store.Save(ctx, loaded))
	assert.NotEmpty(t, aws.ToString(api.puts[1].IfMatch))
	assert.Equal(t, int64(2), loaded.Version)
}

func TestS3SnapshotStorePreconditionFailed(t *testing.T) {
	ctx := context.Background()
	api := &fakeObjectAPI{etag: "e"}
	store := NewS3SnapshotStore(api, "bucket", "state.json")

	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	api.putFn = func(*s3.PutObjectInput) error {
		return &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "etag mismatch"}
	}
	assert.ErrorIs(t, store.Save(ctx, snapshot), ErrStaleSnapshot)

	api.putFn = func(*s3.PutObjectInput) error { return errors.New("boom") }
	err = store.Save(ctx, snapshot)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStaleSnapshot)
}

func TestS3SnapshotStoreUnknownVersionIsStale(t *testing.T) {
	store := NewS3SnapshotStore(&fakeObjectAPI{}, "bucket", "")
	snapshot := models.NewSnapshot()
	snapshot.Version = 9
	assert.ErrorIs(t, store.Save(context.Background(), snapshot), ErrStaleSnapshot)
}

func TestS3SnapshotStoreTracksOnlyLatestLoadedETag(t *testing.T) {
	ctx := context.Background()
	api := &fakeObjectAPI{etag: "e"}
	store := NewS3SnapshotStore(api, "bucket", "")

	var stale *models.Snapshot
	for v := int64(1); v <= 5; v++ {
		api.body = []byte(`{"version":` + strconv.FormatInt(v, 10) + `}`)
		api.etag = api.etag + "w"
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		if stale == nil {
			stale = loaded
		}
	}
	assert.Len(t, store.etags, 1)
	assert.Contains(t, store.etags, int64(5))

	require.Equal(t, int64(1), stale.Version)
	assert.ErrorIs(t, store.Save(ctx, stale), ErrStaleSnapshot)
	assert.Empty(t, api.puts)
}
