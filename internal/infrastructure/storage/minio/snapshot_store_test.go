package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ESG-Materiality/pkg/errors"
)

func TestSnapshotKeys(t *testing.T) {
	t.Parallel()
	j, x := SnapshotKeys(7, 2024, "abc")
	assert.Equal(t, "snapshots/7/2024/abc.json", j)
	assert.Equal(t, "snapshots/7/2024/abc.xlsx", x)
}

func TestSnapshotStore_Put(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := new(MockMinIOAPI)
	store := NewSnapshotStore(newTestClient(api), logging.NewNopLogger())

	withType := func(ct string) interface{} {
		return mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == ct && o.UserMetadata["snapshot-id"] == "abc"
		})
	}
	api.On("PutObject", ctx, "snapshots-test", "snapshots/7/2024/abc.json", mock.Anything, int64(2), withType(contentTypeJSON)).
		Return(minio.UploadInfo{Size: 2}, nil).Once()
	api.On("PutObject", ctx, "snapshots-test", "snapshots/7/2024/abc.xlsx", mock.Anything, int64(4), withType(contentTypeXLSX)).
		Return(minio.UploadInfo{Size: 4}, nil).Once()

	got, err := store.Put(ctx, &SnapshotObjects{
		ClientID: 7, Year: 2024, SnapshotID: "abc",
		JSON: []byte("{}"), Workbook: []byte("PK\x03\x04"),
	})

	require.NoError(t, err)
	assert.Equal(t, "snapshots/7/2024/abc.json", got.JSONKey)
	assert.Equal(t, "snapshots/7/2024/abc.xlsx", got.WorkbookKey)
	assert.Equal(t, int64(6), got.Size)
	api.AssertExpectations(t)
}

func TestSnapshotStore_PutFailureStopsEarly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := new(MockMinIOAPI)
	store := NewSnapshotStore(newTestClient(api), logging.NewNopLogger())

	api.On("PutObject", ctx, "snapshots-test", "snapshots/7/2024/abc.json", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	_, err := store.Put(ctx, &SnapshotObjects{ClientID: 7, Year: 2024, SnapshotID: "abc", JSON: []byte("{}"), Workbook: []byte("x")})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeStorage))
	api.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestSnapshotStore_PutValidation(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestClient(new(MockMinIOAPI)), logging.NewNopLogger())
	ctx := context.Background()

	_, err := store.Put(ctx, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
	_, err = store.Put(ctx, &SnapshotObjects{SnapshotID: "a", JSON: []byte("{}")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestSnapshotStore_Exists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := new(MockMinIOAPI)
	store := NewSnapshotStore(newTestClient(api), logging.NewNopLogger())

	api.On("StatObject", ctx, "snapshots-test", "present", minio.StatObjectOptions{}).Return(minio.ObjectInfo{Key: "present"}, nil)
	api.On("StatObject", ctx, "snapshots-test", "absent", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})
	api.On("StatObject", ctx, "snapshots-test", "broken", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, errors.New("timeout"))

	ok, err := store.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Exists(ctx, "broken")
	assert.Error(t, err)
}
