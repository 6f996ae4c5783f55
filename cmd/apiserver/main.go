// API server entry point for the ESG materiality service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ESG-Materiality/internal/app"
	"github.com/turtacn/ESG-Materiality/internal/config"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/ESG-Materiality/internal/interfaces/grpc"
	httpserver "github.com/turtacn/ESG-Materiality/internal/interfaces/http"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/handlers"
	"github.com/turtacn/ESG-Materiality/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *envFile, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, httpPort, grpcPort int) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}
	cfg, usedPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}
	if grpcPort > 0 {
		cfg.GRPC.Port = grpcPort
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logging.SetDefault(logger)

	logger.Info("starting ESG materiality API server",
		logging.String("version", version),
		logging.String("config", usedPath),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc_enabled", cfg.GRPC.Enabled))

	gin.SetMode(cfg.Server.Mode)

	infra, err := app.OpenInfrastructure(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := infra.MatrixService(cfg)
	if err != nil {
		return err
	}

	checks := infra.HealthChecks()
	httpChecks := make([]handlers.HealthChecker, 0, len(checks))
	grpcChecks := make([]grpcserver.Checker, 0, len(checks))
	for _, c := range checks {
		httpChecks = append(httpChecks, c)
		grpcChecks = append(grpcChecks, c)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatrixHandler:    handlers.NewMatrixHandler(svc),
		SessionHandler:   handlers.NewSessionHandler(svc),
		HealthHandler:    handlers.NewHealthHandler(version, httpChecks...),
		Logging:          middleware.DefaultLoggingConfig(),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		MaxBodySize:      cfg.Server.MaxBodySize,
		Logger:           logger,
		Metrics:          infra.Metrics,
		MetricsCollector: infra.Collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	httpSrv := httpserver.NewServer(cfg.Server, router, logger)

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(&cfg.GRPC,
			grpcserver.WithLogger(logger),
			grpcserver.WithMetrics(infra.Metrics))
		if err != nil {
			return err
		}
	}

	if usedPath != "" {
		watchConfig(usedPath, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpSrv.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if grpcSrv != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := grpcSrv.Start(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		go func() {
			defer wg.Done()
			grpcSrv.MonitorDependencies(ctx, grpcChecks...)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", logging.Err(runErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error("grpc server shutdown error", logging.Err(err))
		}
	}
	wg.Wait()

	logger.Info("servers stopped")
	return runErr
}

// loadConfig reads path when it exists and falls back to the environment
// otherwise.  The returned path is empty in the fallback case.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cfg, err := config.Load(path)
			return cfg, path, err
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
	}
	cfg, err := config.Load("")
	return cfg, "", err
}

// watchConfig reports edits of the configuration file.  The running
// process keeps its settings; a restart applies them.
func watchConfig(path string, logger logging.Logger) {
	err := config.Watch(path,
		func(c *config.Config) {
			logger.Warn("configuration file changed; restart to apply",
				logging.String("config", path),
				logging.String("log_level", c.Log.Level),
				logging.Int("http_port", c.Server.Port))
		},
		func(err error) {
			logger.Error("configuration file change rejected", logging.Err(err))
		})
	if err != nil {
		logger.Warn("configuration watch disabled", logging.Err(err))
	}
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return config.DefaultServerShutdownTimeout
}
