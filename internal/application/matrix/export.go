package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/redis"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/export/workbook"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/storage/minio"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// ExportRequest asks for one snapshot of a dashboard matrix.
//
// SelectedGroups, when non-nil, fixes the selection; otherwise the session's
// current selection is used, or the initial selection without a session.
// ExpectedVersion, when positive, rejects the export if the dashboard has
// moved on since.
type ExportRequest struct {
	ClientID        int64                    `json:"client_id"`
	Year            int                      `json:"year"`
	SessionID       string                   `json:"session_id,omitempty"`
	SelectedGroups  []int64                  `json:"selected_groups,omitempty"`
	Options         *materiality.PlotOptions `json:"options,omitempty"`
	ExpectedVersion int64                    `json:"expected_version,omitempty"`
}

// ExportResult describes a written snapshot.
type ExportResult struct {
	Snapshot    *materiality.Snapshot `json:"snapshot"`
	DownloadURL string                `json:"download_url,omitempty"`
}

// snapshotDocument is the JSON object archived next to the workbook.
type snapshotDocument struct {
	Snapshot *materiality.Snapshot   `json:"snapshot"`
	Client   materiality.Client      `json:"client"`
	Options  materiality.PlotOptions `json:"options"`
	Matrix   *materiality.Matrix     `json:"matrix"`
}

func (s *serviceImpl) ExportSnapshot(ctx context.Context, req *ExportRequest) (*ExportResult, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "export request is required")
	}
	if s.archive == nil || s.snapshots == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot export is not configured")
	}
	if err := validateDashboardKey(req.ClientID, req.Year); err != nil {
		return nil, err
	}
	opts := s.defaults
	if req.Options != nil {
		opts = *req.Options
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if s.locks != nil {
		lock := s.locks.NewMutex(fmt.Sprintf("export:%d:%d", req.ClientID, req.Year), redis.WithLockTTL(s.exportLockTTL))
		acquired, err := lock.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, errors.New(errors.ErrCodeExportInProgress, "an export for this dashboard is already running").
				WithDetail(fmt.Sprintf("client_id=%d year=%d", req.ClientID, req.Year))
		}
		defer func() {
			if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release export lock", logging.Err(err))
			}
		}()
	}

	start := time.Now()
	result, err := s.export(ctx, req, opts)
	prometheus.RecordSnapshotExport(s.metrics, time.Since(start), err)
	if err != nil {
		s.logger.Error("snapshot export failed",
			logging.Int64(logging.FieldClientID, req.ClientID),
			logging.Int(logging.FieldYear, req.Year),
			logging.String(logging.FieldSessionID, req.SessionID),
			logging.Err(err))
		return nil, err
	}
	s.logger.Info("snapshot exported",
		logging.Int64(logging.FieldClientID, req.ClientID),
		logging.Int(logging.FieldYear, req.Year),
		logging.String("snapshot_id", result.Snapshot.ID),
		logging.Int("points", result.Snapshot.PointCount),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *serviceImpl) export(ctx context.Context, req *ExportRequest, opts materiality.PlotOptions) (*ExportResult, error) {
	stored, state, err := s.exportSelection(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion > 0 && stored.Version != req.ExpectedVersion {
		return nil, errors.New(errors.ErrCodeConflict, "dashboard changed since the matrix was built").
			WithDetail(fmt.Sprintf("expected=%d current=%d", req.ExpectedVersion, stored.Version))
	}

	view, _, err := s.buildCached(ctx, sourceExport, stored, state, opts)
	if err != nil {
		return nil, err
	}

	snapshotID := uuid.NewString()
	jsonKey, workbookKey := minio.SnapshotKeys(req.ClientID, req.Year, snapshotID)
	snap := &materiality.Snapshot{
		ID:           snapshotID,
		ClientID:     req.ClientID,
		Year:         req.Year,
		SessionID:    req.SessionID,
		Version:      stored.Version,
		JSONKey:      jsonKey,
		WorkbookKey:  workbookKey,
		PointCount:   view.Matrix.Stats.PointCount,
		CreatedAt:    s.now(),
		SelectedIDs:  view.SelectedGroups,
		JitterAmount: opts.JitterAmount,
	}

	doc, err := json.Marshal(snapshotDocument{Snapshot: snap, Client: stored.Payload.Client, Options: opts, Matrix: view.Matrix})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode snapshot")
	}
	book, err := workbook.Render(view.Matrix, workbook.Meta{
		ClientID:       req.ClientID,
		ClientName:     stored.Payload.Client.Name,
		Year:           req.Year,
		SessionID:      req.SessionID,
		SnapshotID:     snapshotID,
		SelectedGroups: view.SelectedGroups,
		GeneratedAt:    snap.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.archive.Put(ctx, &minio.SnapshotObjects{
		ClientID:   req.ClientID,
		Year:       req.Year,
		SnapshotID: snapshotID,
		JSON:       doc,
		Workbook:   book,
	}); err != nil {
		return nil, err
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, err
	}

	url, err := s.archive.DownloadURL(ctx, workbookKey)
	if err != nil {
		s.logger.Warn("failed to presign snapshot workbook", logging.String("key", workbookKey), logging.Err(err))
		url = ""
	}
	return &ExportResult{Snapshot: snap, DownloadURL: url}, nil
}

// exportSelection resolves which groups an export plots.
func (s *serviceImpl) exportSelection(ctx context.Context, req *ExportRequest) (*materiality.StoredDashboard, materiality.SelectionState, error) {
	if req.SelectedGroups == nil && req.SessionID != "" {
		return s.loadSession(ctx, req.SessionID, req.ClientID, req.Year)
	}
	if req.SessionID != "" {
		if err := materiality.ValidateSessionID(req.SessionID); err != nil {
			return nil, materiality.SelectionState{}, err
		}
	}

	stored, err := s.dashboards.Get(ctx, req.ClientID, req.Year)
	if err != nil {
		return nil, materiality.SelectionState{}, err
	}
	state := stored.Payload.InitialSelection()
	if req.SelectedGroups != nil {
		state.SelectedGroups = append([]int64{}, req.SelectedGroups...)
		state = materiality.Reconcile(state, stored.Payload.PlotGroups)
	}
	return stored, state, nil
}
