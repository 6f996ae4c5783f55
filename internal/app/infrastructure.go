// Package app wires configuration into the infrastructure clients and the
// matrix service shared by the API server and the export worker.
package app

import (
	"context"
	"sync"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/config"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/postgres"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/redis"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/storage/minio"
)

// NewLogger builds the process logger from the log section of the config.
func NewLogger(c config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	output := c.Output
	if output == "" {
		output = config.DefaultLogOutput
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           c.Format,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// NewMetrics creates the collector and the application metrics.  Both are
// nil when metrics are disabled; every recorder accepts a nil AppMetrics.
func NewMetrics(c config.MetricsConfig, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !c.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            c.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// Infrastructure holds the external clients of one process.
type Infrastructure struct {
	Postgres  *postgres.Connection
	Redis     *redis.Client
	MinIO     *minio.MinIOClient
	Producer  *kafka.Producer
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	logger    logging.Logger
	closeOnce sync.Once
}

// OpenInfrastructure connects to every backing service named in cfg.  On
// failure the clients opened so far are closed again.
func OpenInfrastructure(cfg *config.Config, logger logging.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{logger: logger}

	collector, metrics, err := NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return nil, err
	}
	infra.Collector, infra.Metrics = collector, metrics

	pg, err := postgres.NewConnection(postgres.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	infra.Postgres = pg

	rc, err := redis.NewClient(redis.ConfigFrom(cfg.Redis), logger)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.Redis = rc

	mc, err := minio.NewMinIOClient(minio.ConfigFrom(cfg.MinIO), logger)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.MinIO = mc

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.Producer = producer

	logger.Info("infrastructure initialized")
	return infra, nil
}

// MatrixService assembles the matrix service on top of the open clients.
func (i *Infrastructure) MatrixService(cfg *config.Config) (appmatrix.Service, error) {
	cache := redis.NewRedisCache(i.Redis, i.logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	deps := appmatrix.Dependencies{
		Dashboards: repositories.NewPostgresDashboardRepo(i.Postgres, i.logger),
		Snapshots:  repositories.NewPostgresSnapshotRepo(i.Postgres, i.logger),
		Selections: redis.NewSelectionStore(cache, cfg.Session.SelectionTTL, i.logger),
		Cache:      redis.NewMatrixCache(cache, cfg.Session.MatrixCacheTTL),
		Locks:      redis.NewLockFactory(i.Redis, cfg.Redis.KeyPrefix+"lock:", i.logger),
		Archive:    minio.NewSnapshotStore(i.MinIO, i.logger),
		Metrics:    i.Metrics,
		Logger:     i.logger,
	}
	if i.Producer != nil {
		deps.Publisher = i.Producer
	}

	return appmatrix.NewService(deps, appmatrix.Options{
		PlotOptions:   appmatrix.PlotOptionsFromConfig(cfg.Matrix),
		ExportLockTTL: cfg.Session.ExportLockTTL,
	})
}

// HealthChecks returns one probe per open dependency.
func (i *Infrastructure) HealthChecks() []HealthCheck {
	var checks []HealthCheck
	if i.Postgres != nil {
		checks = append(checks, HealthCheck{Component: "postgres", Probe: i.Postgres.HealthCheck})
	}
	if i.Redis != nil {
		checks = append(checks, HealthCheck{Component: "redis", Probe: i.Redis.Ping})
	}
	if i.MinIO != nil {
		checks = append(checks, HealthCheck{Component: "minio", Probe: i.MinIO.HealthCheck})
	}
	return checks
}

// Close releases every open client.  It is safe to call more than once.
func (i *Infrastructure) Close() {
	i.closeOnce.Do(func() {
		if i.Producer != nil {
			if err := i.Producer.Close(); err != nil {
				i.logger.Warn("failed to close kafka producer", logging.Err(err))
			}
		}
		if i.Redis != nil {
			if err := i.Redis.Close(); err != nil {
				i.logger.Warn("failed to close redis client", logging.Err(err))
			}
		}
		if i.Postgres != nil {
			if err := i.Postgres.Close(); err != nil {
				i.logger.Warn("failed to close postgres connection", logging.Err(err))
			}
		}
	})
}

// HealthCheck adapts a probe function to the health checker interfaces of
// the HTTP and gRPC servers.
type HealthCheck struct {
	Component string
	Probe     func(ctx context.Context) error
}

func (h HealthCheck) Name() string                    { return h.Component }
func (h HealthCheck) Check(ctx context.Context) error { return h.Probe(ctx) }
