// Package e2e_test drives the HTTP API through the Go SDK.  The router and
// the matrix service are the production ones; only persistence is kept in
// memory so the suite runs without Postgres or Redis.
package e2e_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/ESG-Materiality/internal/interfaces/http"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/handlers"
	"github.com/turtacn/ESG-Materiality/pkg/client"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// testEnv holds one server and an SDK client pointed at it.
type testEnv struct {
	server     *httptest.Server
	sdk        *client.Client
	dashboards *memoryDashboards
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dashboards := newMemoryDashboards()
	svc, err := appmatrix.NewService(appmatrix.Dependencies{
		Dashboards: dashboards,
		Selections: newMemorySelections(),
		Logger:     logging.NewNopLogger(),
	}, appmatrix.Options{})
	require.NoError(t, err)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		MatrixHandler:  handlers.NewMatrixHandler(svc),
		SessionHandler: handlers.NewSessionHandler(svc),
		HealthHandler:  handlers.NewHealthHandler("e2e"),
		Logger:         logging.NewNopLogger(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sdk, err := client.NewClient(srv.URL,
		client.WithRetryMax(1),
		client.WithRetryWait(time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)

	return &testEnv{server: srv, sdk: sdk, dashboards: dashboards}
}

func dashboardKey(clientID int64, year int) string {
	return fmt.Sprintf("%d/%d", clientID, year)
}

// memoryDashboards is a versioned in-memory DashboardRepository.
type memoryDashboards struct {
	mu   sync.Mutex
	rows map[string]*materiality.StoredDashboard
}

func newMemoryDashboards() *memoryDashboards {
	return &memoryDashboards{rows: make(map[string]*materiality.StoredDashboard)}
}

func (m *memoryDashboards) Get(_ context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[dashboardKey(clientID, year)]
	if !ok {
		return nil, errors.New(errors.ErrCodeDashboardNotFound, "dashboard not found")
	}
	out := *row
	return &out, nil
}

func (m *memoryDashboards) Save(_ context.Context, payload *materiality.DashboardPayload) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dashboardKey(payload.Client.ID, payload.Year)
	var version int64 = 1
	if row, ok := m.rows[key]; ok {
		version = row.Version + 1
	}
	m.rows[key] = &materiality.StoredDashboard{Payload: *payload, Version: version, UpdatedAt: time.Now().UTC()}
	return version, nil
}

func (m *memoryDashboards) UpdateGroupVisibility(_ context.Context, clientID int64, year int, changes []materiality.VisibilityChange) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[dashboardKey(clientID, year)]
	if !ok {
		return 0, errors.New(errors.ErrCodeDashboardNotFound, "dashboard not found")
	}
	p := row.Payload
	p.StakeholderGroups = applyVisibility(p.StakeholderGroups, changes)
	p.PlotGroups = applyVisibility(p.PlotGroups, changes)
	row.Payload = p
	row.Version++
	return row.Version, nil
}

func applyVisibility(groups []materiality.StakeholderGroup, changes []materiality.VisibilityChange) []materiality.StakeholderGroup {
	out := append([]materiality.StakeholderGroup(nil), groups...)
	for _, c := range changes {
		for i := range out {
			if out[i].ID == c.GroupID {
				out[i].ShowInTable = c.ShowInTable
			}
		}
	}
	return out
}

// memorySelections is an in-memory SelectionStore.
type memorySelections struct {
	mu     sync.Mutex
	states map[string]materiality.SelectionState
}

func newMemorySelections() *memorySelections {
	return &memorySelections{states: make(map[string]materiality.SelectionState)}
}

func selectionKey(sessionID string, clientID int64, year int) string {
	return sessionID + ":" + dashboardKey(clientID, year)
}

func (m *memorySelections) Load(_ context.Context, sessionID string, clientID int64, year int) (*materiality.SelectionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[selectionKey(sessionID, clientID, year)]
	if !ok {
		return nil, nil
	}
	out := s.Clone()
	return &out, nil
}

func (m *memorySelections) Save(_ context.Context, sessionID string, clientID int64, year int, state materiality.SelectionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[selectionKey(sessionID, clientID, year)] = state.Clone()
	return nil
}

func (m *memorySelections) Delete(_ context.Context, sessionID string, clientID int64, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, selectionKey(sessionID, clientID, year))
	return nil
}
