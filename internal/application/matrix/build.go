package matrix

import (
	"context"
	"time"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/redis"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
)

const matrixCacheName = "matrix"

// MatrixView is a session matrix with the context it was built from.
type MatrixView struct {
	Matrix         *materiality.Matrix     `json:"matrix"`
	ClientID       int64                   `json:"client_id"`
	Year           int                     `json:"year"`
	Version        int64                   `json:"dashboard_version"`
	SelectedGroups []int64                 `json:"selected_groups"`
	Options        materiality.PlotOptions `json:"options"`
	CacheKey       string                  `json:"cache_key"`
	Cached         bool                    `json:"cached"`
}

func (s *serviceImpl) BuildForSession(ctx context.Context, sessionID string, clientID int64, year int, opts materiality.PlotOptions) (*MatrixView, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	stored, state, err := s.loadSession(ctx, sessionID, clientID, year)
	if err != nil {
		return nil, err
	}

	view, built, err := s.buildCached(ctx, sourceSession, stored, state, opts)
	if err != nil {
		s.logger.Error("matrix build failed",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int64(logging.FieldClientID, clientID),
			logging.Int(logging.FieldYear, year),
			logging.Err(err))
		return nil, err
	}

	if built {
		s.publish(ctx, kafka.TopicMatrixComputed, kafka.EventTypeMatrixComputed, clientID, year, kafka.MatrixComputedPayload{
			SessionID:        sessionID,
			ClientID:         clientID,
			Year:             year,
			DashboardVersion: stored.Version,
			SelectedGroups:   state.SelectedGroups,
			Options:          opts,
			Stats:            view.Matrix.Stats,
			CacheKey:         view.CacheKey,
			ComputedAt:       s.now(),
		})
	}
	return view, nil
}

// buildCached builds the matrix for state through the matrix cache.  The
// bool result reports whether the matrix was computed on this call.
func (s *serviceImpl) buildCached(ctx context.Context, source string, stored *materiality.StoredDashboard, state materiality.SelectionState, opts materiality.PlotOptions) (*MatrixView, bool, error) {
	p := &stored.Payload
	key := redis.MatrixCacheKey(p.Client.ID, p.Year, stored.Version, state, opts)

	build := func(context.Context) (*materiality.Matrix, error) {
		start := time.Now()
		m, err := p.Build(state, opts)
		s.recordBuild(source, start, m, err)
		return m, err
	}

	var (
		m   *materiality.Matrix
		hit bool
		err error
	)
	if s.cache != nil {
		m, hit, err = s.cache.GetOrBuild(ctx, key, build)
		prometheus.RecordCacheAccess(s.metrics, matrixCacheName, hit)
	} else {
		m, err = build(ctx)
	}
	if err != nil {
		return nil, false, err
	}

	return &MatrixView{
		Matrix:         m,
		ClientID:       p.Client.ID,
		Year:           p.Year,
		Version:        stored.Version,
		SelectedGroups: append([]int64{}, state.SelectedGroups...),
		Options:        opts,
		CacheKey:       key,
		Cached:         hit,
	}, !hit, nil
}
