// Package matrix provides the application-level service for the materiality
// matrix.  It sits between the HTTP, CLI and worker entry points and the
// domain pipeline, and owns persistence of dashboards, session selection,
// the built-matrix cache, events and snapshot exports.
package matrix

import (
	"context"
	"time"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/redis"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/storage/minio"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// Service defines the materiality matrix application operations.
type Service interface {
	Aggregate(ctx context.Context, resp materiality.QuestionResponse) (materiality.QuestionResponse, error)
	Build(ctx context.Context, req *BuildRequest) (*BuildResponse, error)

	GetDashboard(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error)
	SaveDashboard(ctx context.Context, payload *materiality.DashboardPayload) (int64, error)

	GetSelection(ctx context.Context, sessionID string, clientID int64, year int) (*SelectionView, error)
	ToggleGroup(ctx context.Context, req *ToggleRequest) (*SelectionView, error)
	SetGroupVisibility(ctx context.Context, req *VisibilityRequest) (*SelectionView, error)
	CommitVisibility(ctx context.Context, sessionID string, clientID int64, year int) (*CommitResult, error)

	BuildForSession(ctx context.Context, sessionID string, clientID int64, year int, opts materiality.PlotOptions) (*MatrixView, error)
	ExportSnapshot(ctx context.Context, req *ExportRequest) (*ExportResult, error)
	ListSnapshots(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error)

	DefaultOptions() materiality.PlotOptions
}

// MatrixCache reuses built matrices.  The bool result reports a hit.
type MatrixCache interface {
	GetOrBuild(ctx context.Context, key string, build func(ctx context.Context) (*materiality.Matrix, error)) (*materiality.Matrix, bool, error)
}

// SnapshotArchive stores exported snapshot objects.
type SnapshotArchive interface {
	Put(ctx context.Context, obj *minio.SnapshotObjects) (*minio.StoredSnapshot, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Dependencies are the collaborators of the service.  Dashboards and
// Selections are required; the rest degrade: without Cache every build is
// computed, without Publisher no events are sent, without Locks exports are
// not serialised, and without Archive or Snapshots exports are unavailable.
type Dependencies struct {
	Dashboards materiality.DashboardRepository
	Snapshots  materiality.SnapshotRepository
	Selections materiality.SelectionStore
	Cache      MatrixCache
	Locks      redis.LockFactory
	Publisher  kafka.Publisher
	Archive    SnapshotArchive
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

// Options tunes the service.
type Options struct {
	PlotOptions   materiality.PlotOptions
	ExportLockTTL time.Duration
	Now           func() time.Time
}

const defaultExportLockTTL = 2 * time.Minute

// Build sources, used as the metrics label.
const (
	sourceStateless = "stateless"
	sourceSession   = "session"
	sourceExport    = "export"
)

type serviceImpl struct {
	dashboards materiality.DashboardRepository
	snapshots  materiality.SnapshotRepository
	selections materiality.SelectionStore
	cache      MatrixCache
	locks      redis.LockFactory
	publisher  kafka.Publisher
	archive    SnapshotArchive
	metrics    *prometheus.AppMetrics
	logger     logging.Logger

	defaults      materiality.PlotOptions
	exportLockTTL time.Duration
	now           func() time.Time
}

// NewService creates the matrix application service.
func NewService(deps Dependencies, opts Options) (Service, error) {
	if deps.Dashboards == nil {
		return nil, errors.New(errors.ErrCodeInternal, "dashboard repository is required")
	}
	if deps.Selections == nil {
		return nil, errors.New(errors.ErrCodeInternal, "selection store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if opts.PlotOptions == (materiality.PlotOptions{}) {
		opts.PlotOptions = materiality.DefaultPlotOptions()
	}
	if err := opts.PlotOptions.Validate(); err != nil {
		return nil, err
	}
	if opts.ExportLockTTL <= 0 {
		opts.ExportLockTTL = defaultExportLockTTL
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &serviceImpl{
		dashboards:    deps.Dashboards,
		snapshots:     deps.Snapshots,
		selections:    deps.Selections,
		cache:         deps.Cache,
		locks:         deps.Locks,
		publisher:     deps.Publisher,
		archive:       deps.Archive,
		metrics:       deps.Metrics,
		logger:        deps.Logger.Named("matrix"),
		defaults:      opts.PlotOptions,
		exportLockTTL: opts.ExportLockTTL,
		now:           opts.Now,
	}, nil
}

func (s *serviceImpl) DefaultOptions() materiality.PlotOptions { return s.defaults }

// ─────────────────────────────────────────────────────────────────────────────
// Stateless operations
// ─────────────────────────────────────────────────────────────────────────────

// BuildRequest carries everything needed to build a matrix without any
// stored state.  A nil Selection starts from the groups' initial selection;
// nil Options use the service defaults, and non-nil Options are used as a
// complete set.  The HTTP handler decodes request options over the defaults.
type BuildRequest struct {
	Admin     materiality.QuestionResponse   `json:"question_response"`
	Groups    []materiality.StakeholderGroup `json:"stakeholder_groups"`
	Selection *materiality.SelectionState    `json:"selection,omitempty"`
	Options   *materiality.PlotOptions       `json:"options,omitempty"`
}

// BuildResponse is the result of a stateless build.
type BuildResponse struct {
	Matrix         *materiality.Matrix `json:"matrix"`
	SelectedGroups []int64             `json:"selected_groups"`
}

func (s *serviceImpl) Aggregate(_ context.Context, resp materiality.QuestionResponse) (materiality.QuestionResponse, error) {
	if resp == nil {
		return materiality.QuestionResponse{}, nil
	}
	return materiality.Aggregate(resp), nil
}

func (s *serviceImpl) Build(_ context.Context, req *BuildRequest) (*BuildResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "build request is required")
	}
	state := materiality.NewSelectionState(req.Groups)
	if req.Selection != nil {
		state = req.Selection.Clone()
	}
	opts := s.defaults
	if req.Options != nil {
		opts = *req.Options
	}

	start := time.Now()
	m, err := materiality.BuildMatrix(req.Admin, materiality.SelectGroups(req.Groups, state), opts)
	s.recordBuild(sourceStateless, start, m, err)
	if err != nil {
		return nil, err
	}
	return &BuildResponse{Matrix: m, SelectedGroups: state.SelectedGroups}, nil
}

func (s *serviceImpl) recordBuild(source string, start time.Time, m *materiality.Matrix, err error) {
	if m == nil {
		prometheus.RecordMatrixBuild(s.metrics, source, time.Since(start), 0, 0, err)
		return
	}
	prometheus.RecordMatrixBuild(s.metrics, source, time.Since(start), m.Stats.PointCount, m.Stats.DisplacedCount, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dashboards
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) GetDashboard(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	if err := validateDashboardKey(clientID, year); err != nil {
		return nil, err
	}
	return s.dashboards.Get(ctx, clientID, year)
}

func (s *serviceImpl) SaveDashboard(ctx context.Context, payload *materiality.DashboardPayload) (int64, error) {
	if err := payload.Validate(); err != nil {
		return 0, err
	}
	version, err := s.dashboards.Save(ctx, payload)
	if err != nil {
		s.logger.Error("failed to save dashboard",
			logging.Int64(logging.FieldClientID, payload.Client.ID),
			logging.Int(logging.FieldYear, payload.Year),
			logging.Err(err))
		return 0, err
	}
	s.logger.Info("dashboard saved",
		logging.Int64(logging.FieldClientID, payload.Client.ID),
		logging.Int(logging.FieldYear, payload.Year),
		logging.Int64("version", version),
		logging.Int("plot_groups", len(payload.PlotGroups)))
	return version, nil
}

func (s *serviceImpl) ListSnapshots(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error) {
	if err := validateDashboardKey(clientID, year); err != nil {
		return nil, err
	}
	if s.snapshots == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot history is not configured")
	}
	return s.snapshots.ListByDashboard(ctx, clientID, year, limit)
}

func validateDashboardKey(clientID int64, year int) error {
	if clientID <= 0 {
		return errors.New(errors.ErrCodeValidation, "client id must be positive")
	}
	if year < materiality.MinYear || year > materiality.MaxYear {
		return errors.New(errors.ErrCodeYearInvalid, "year out of range")
	}
	return nil
}
