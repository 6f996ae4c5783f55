// Snapshot export worker for the ESG materiality service.  It consumes
// matrix.computed events and archives the matrix as JSON and XLSX.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ESG-Materiality/internal/app"
	"github.com/turtacn/ESG-Materiality/internal/config"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ESG-Materiality/internal/interfaces/http"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/handlers"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/worker"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
)

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration")
	workerCount := flag.Int("workers", 0, "number of consumers in the group (overrides config)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the health and metrics endpoint")
	flag.Parse()

	if err := run(*configPath, *envFile, *workerCount, *healthPort); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, workerCount, healthPort int) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if workerCount > 0 {
		cfg.Worker.Concurrency = workerCount
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("worker")

	logger.Info("starting snapshot export worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.Int("max_retries", cfg.Worker.MaxRetries))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	infra, err := app.OpenInfrastructure(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := infra.MatrixService(cfg)
	if err != nil {
		return err
	}
	handler := worker.NewExportHandler(svc, infra.Metrics, logger)

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close consumer", logging.Err(err))
			}
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		ccfg := kafka.ConsumerConfigFrom(cfg.Kafka, cfg.Worker, []string{handler.Topic()}, kafka.TopicMatrixComputedDLQ)
		c, err := kafka.NewConsumer(ccfg, infra.Producer, logger.With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
		c.Subscribe(handler.Topic(), handler.Handle)
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	checks := infra.HealthChecks()
	httpChecks := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		httpChecks = append(httpChecks, c)
	}
	gin.SetMode(gin.ReleaseMode)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, httpChecks...),
		Logger:           logger,
		Metrics:          infra.Metrics,
		MetricsCollector: infra.Collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	serverCfg := cfg.Server
	serverCfg.Port = healthPort
	healthSrv := httpserver.NewServer(serverCfg, router, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := healthSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("health server failed", logging.Err(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := healthSrv.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	var processed, deadLettered int64
	for _, c := range consumers {
		processed += c.Processed()
		deadLettered += c.DeadLettered()
	}
	logger.Info("worker stopped",
		logging.Int64("processed", processed),
		logging.Int64("dead_lettered", deadLettered))
	return runErr
}

func ensureTopics(ctx context.Context, k config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(k.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(k.NumPartitions, k.ReplicationFactor))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load("")
}
