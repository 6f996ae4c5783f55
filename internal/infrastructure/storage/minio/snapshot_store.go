package minio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// SnapshotPrefix is the key prefix of every archived snapshot.
const SnapshotPrefix = "snapshots/"

const (
	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SnapshotKeys returns the JSON and workbook object keys of a snapshot.
func SnapshotKeys(clientID int64, year int, snapshotID string) (jsonKey, workbookKey string) {
	base := fmt.Sprintf("%s%d/%d/%s", SnapshotPrefix, clientID, year, snapshotID)
	return base + ".json", base + ".xlsx"
}

// SnapshotObjects is the content of one archived snapshot.
type SnapshotObjects struct {
	ClientID   int64
	Year       int
	SnapshotID string
	JSON       []byte
	Workbook   []byte
}

// StoredSnapshot reports where a snapshot was written.
type StoredSnapshot struct {
	JSONKey     string
	WorkbookKey string
	Size        int64
}

// SnapshotStore archives matrix snapshots in the snapshot bucket.
type SnapshotStore struct {
	client *MinIOClient
	logger logging.Logger
}

func NewSnapshotStore(client *MinIOClient, log logging.Logger) *SnapshotStore {
	return &SnapshotStore{client: client, logger: log}
}

// Put uploads the JSON document and then the workbook.
func (s *SnapshotStore) Put(ctx context.Context, obj *SnapshotObjects) (*StoredSnapshot, error) {
	if obj == nil || obj.SnapshotID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "snapshot id required")
	}
	if len(obj.JSON) == 0 || len(obj.Workbook) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "snapshot content required").WithDetail(obj.SnapshotID)
	}

	jsonKey, workbookKey := SnapshotKeys(obj.ClientID, obj.Year, obj.SnapshotID)
	meta := map[string]string{
		"client-id":   fmt.Sprintf("%d", obj.ClientID),
		"year":        fmt.Sprintf("%d", obj.Year),
		"snapshot-id": obj.SnapshotID,
	}

	if err := s.put(ctx, jsonKey, obj.JSON, contentTypeJSON, meta); err != nil {
		return nil, err
	}
	if err := s.put(ctx, workbookKey, obj.Workbook, contentTypeXLSX, meta); err != nil {
		return nil, err
	}

	s.logger.Info("Snapshot archived",
		logging.Int64(logging.FieldClientID, obj.ClientID),
		logging.Int(logging.FieldYear, obj.Year),
		logging.String("snapshot_id", obj.SnapshotID))

	return &StoredSnapshot{
		JSONKey:     jsonKey,
		WorkbookKey: workbookKey,
		Size:        int64(len(obj.JSON) + len(obj.Workbook)),
	}, nil
}

func (s *SnapshotStore) put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	_, err := s.client.client.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, UserMetadata: meta})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to upload snapshot object").WithDetail(key)
	}
	return nil
}

// Exists reports whether key is present in the bucket.
func (s *SnapshotStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.client.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrap(err, errors.ErrCodeStorage, "failed to stat object").WithDetail(key)
}

// DownloadURL returns a presigned link to key.
func (s *SnapshotStore) DownloadURL(ctx context.Context, key string) (string, error) {
	return s.client.PresignedGetURL(ctx, key, 0)
}
