package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/handlers"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	MatrixHandler  *handlers.MatrixHandler
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	Logging        middleware.LoggingConfig
	AllowedOrigins []string
	MaxBodySize    int64

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string // defaults to /metrics
}

// NewRouter builds the gin engine: global middleware, the public probe and
// metrics endpoints, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := cfg.Logging
	if logCfg.SkipPaths == nil && logCfg.SlowThreshold == 0 {
		logCfg = middleware.DefaultLoggingConfig()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, logCfg))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// --- Public probes ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	registerMatrixRoutes(api, cfg.MatrixHandler)
	registerDashboardRoutes(api, cfg.MatrixHandler)
	registerSessionRoutes(api, cfg.SessionHandler)

	return r
}

// registerMatrixRoutes mounts the stateless pipeline under /matrix.
func registerMatrixRoutes(r *gin.RouterGroup, h *handlers.MatrixHandler) {
	if h == nil {
		return
	}
	mr := r.Group("/matrix")
	mr.POST("/aggregate", h.Aggregate)
	mr.POST("/build", h.Build)
}

// registerDashboardRoutes mounts stored dashboards and their snapshots.
func registerDashboardRoutes(r *gin.RouterGroup, h *handlers.MatrixHandler) {
	if h == nil {
		return
	}
	dr := r.Group("/dashboards/:clientID/:year")
	dr.GET("", h.GetDashboard)
	dr.PUT("", h.PutDashboard)
	dr.GET("/matrix", h.SessionMatrix)
	dr.GET("/snapshots", h.ListSnapshots)
	dr.POST("/snapshots", h.CreateSnapshot)
}

// registerSessionRoutes mounts per-session selection endpoints.
func registerSessionRoutes(r *gin.RouterGroup, h *handlers.SessionHandler) {
	if h == nil {
		return
	}
	sr := r.Group("/sessions/:sessionID")
	sr.GET("/selection", h.GetSelection)
	sr.POST("/selection/toggle", h.Toggle)
	sr.POST("/visibility", h.SetVisibility)
	sr.POST("/visibility/commit", h.CommitVisibility)
}
