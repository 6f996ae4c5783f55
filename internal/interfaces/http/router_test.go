package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/handlers"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/middleware"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService answers every dashboard lookup with DSH_001 and every
// selection read with an empty view.  Methods it does not override panic.
type stubService struct {
	appmatrix.Service
}

func (stubService) GetDashboard(context.Context, int64, int) (*materiality.StoredDashboard, error) {
	return nil, errors.New(errors.ErrCodeDashboardNotFound, "dashboard not found")
}

func (stubService) GetSelection(_ context.Context, sessionID string, clientID int64, year int) (*appmatrix.SelectionView, error) {
	return &appmatrix.SelectionView{SessionID: sessionID, ClientID: clientID, Year: year}, nil
}

func (stubService) ListSnapshots(context.Context, int64, int, int) ([]*materiality.Snapshot, error) {
	panic("boom")
}

func newTestEngine(t *testing.T) (*gin.Engine, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "esg"}, logging.NewNopLogger())
	require.NoError(t, err)

	svc := stubService{}
	r := NewRouter(RouterConfig{
		MatrixHandler:    handlers.NewMatrixHandler(svc),
		SessionHandler:   handlers.NewSessionHandler(svc),
		HealthHandler:    handlers.NewHealthHandler("test"),
		Logger:           logging.NewNopLogger(),
		Metrics:          prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
		MaxBodySize:      64,
	})
	return r, collector
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Probes(t *testing.T) {
	t.Parallel()
	r, _ := newTestEngine(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz").Code)
}

func TestNewRouter_RoutesRegistered(t *testing.T) {
	t.Parallel()
	r, _ := newTestEngine(t)

	want := map[string]bool{
		"POST /api/v1/matrix/aggregate":                      true,
		"POST /api/v1/matrix/build":                          true,
		"GET /api/v1/dashboards/:clientID/:year":             true,
		"PUT /api/v1/dashboards/:clientID/:year":             true,
		"GET /api/v1/dashboards/:clientID/:year/matrix":      true,
		"GET /api/v1/dashboards/:clientID/:year/snapshots":   true,
		"POST /api/v1/dashboards/:clientID/:year/snapshots":  true,
		"GET /api/v1/sessions/:sessionID/selection":          true,
		"POST /api/v1/sessions/:sessionID/selection/toggle":  true,
		"POST /api/v1/sessions/:sessionID/visibility":        true,
		"POST /api/v1/sessions/:sessionID/visibility/commit": true,
		"GET /healthz": true,
		"GET /readyz":  true,
		"GET /metrics": true,
	}
	got := make(map[string]bool)
	for _, ri := range r.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for route := range want {
		assert.True(t, got[route], "missing route %s", route)
	}
	assert.Len(t, got, len(want))
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	t.Parallel()
	r := NewRouter(RouterConfig{})

	assert.Empty(t, r.Routes())
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/healthz").Code)
}

func TestNewRouter_ErrorsAndRequestID(t *testing.T) {
	t.Parallel()
	r, _ := newTestEngine(t)

	w := serve(r, http.MethodGet, "/api/v1/dashboards/7/2024")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"code":"DSH_001"`)
}

func TestNewRouter_RecoversFromPanic(t *testing.T) {
	t.Parallel()
	r, _ := newTestEngine(t)

	w := serve(r, http.MethodGet, "/api/v1/dashboards/7/2024/snapshots")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"COMMON_001"`)
}

func TestNewRouter_RecordsRouteMetrics(t *testing.T) {
	t.Parallel()
	r, _ := newTestEngine(t)

	serve(r, http.MethodGet, "/api/v1/sessions/abc/selection?client=7&year=2024")
	serve(r, http.MethodGet, "/nowhere")

	body := serve(r, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `esg_http_requests_total{method="GET",path="/api/v1/sessions/:sessionID/selection",status_code="200"} 1`)
	assert.Contains(t, body, `esg_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
	assert.False(t, strings.Contains(body, `path="/api/v1/sessions/abc/selection"`))
}
