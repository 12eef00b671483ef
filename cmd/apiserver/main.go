// API server entry point for chemenv.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/intelligence/oracle"
	grpcapi "github.com/turtacn/chemenv/internal/interfaces/grpc"
	httpapi "github.com/turtacn/chemenv/internal/interfaces/http"
	"github.com/turtacn/chemenv/internal/interfaces/http/handlers"
	"github.com/turtacn/chemenv/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	rateLimitCleanupInterval = time.Minute
	grpcHealthInterval       = 15 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("Starting chemenv API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("storage", cfg.Storage.Driver),
		logging.String("oracle", cfg.Oracle.Mode),
	)

	collector, metrics, err := initMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := initInfrastructure(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer infra.Close()

	orc, err := oracle.New(cfg.Oracle, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	svc := appenv.NewService(infra.repo, logger, infra.serviceOptions(cfg, orc, metrics)...)

	routerCfg := httpapi.RouterConfig{
		PatternHandler:     handlers.NewPatternHandler(svc, logger, cfg.Server.MaxBodyBytes),
		EnvironmentHandler: handlers.NewEnvironmentHandler(svc, logger, cfg.Server.MaxBodyBytes),
		HealthHandler:      handlers.NewHealthHandler(version, infra.healthCheckers()...),
		Logger:             logger,
		Metrics:            metrics,
		MetricsCollector:   collector,
		MetricsPath:        cfg.Metrics.Path,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		routerCfg.CORS = &cors
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitCleanupInterval)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	server := httpapi.NewServer(cfg.Server, httpapi.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	grpcServer, err := initGRPC(cfg, svc, infra.healthCheckers(), logger, metrics)
	if err != nil {
		return err
	}
	grpcErrCh := make(chan error, 1)
	if grpcServer != nil {
		go func() {
			grpcErrCh <- grpcServer.Start()
		}()
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case err := <-grpcErrCh:
		if err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if grpcServer != nil {
		_ = grpcServer.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// initGRPC returns nil when server.grpc_port is 0. The serving status follows
// the same checkers as /readyz.
func initGRPC(cfg *config.Config, svc grpcapi.PatternAnalyzer, checkers []handlers.HealthChecker, logger logging.Logger, metrics *prometheus.AppMetrics) (*grpcapi.Server, error) {
	if cfg.Server.GRPCPort == 0 {
		return nil, nil
	}
	hc := make([]grpcapi.HealthChecker, 0, len(checkers))
	for _, c := range checkers {
		hc = append(hc, c)
	}
	srv, err := grpcapi.NewServer(cfg.Server,
		grpcapi.WithLogger(logger.Named("grpc")),
		grpcapi.WithMetrics(metrics),
		grpcapi.WithGracefulTimeout(cfg.Server.ShutdownTimeout),
		grpcapi.WithHealthCheckers(grpcHealthInterval, hc...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gRPC server: %w", err)
	}
	grpcapi.RegisterPatternService(srv, svc)
	return srv, nil
}

// initMetrics returns a nil collector and no-op metrics when exposition is
// disabled.
func initMetrics(cfg config.MetricsConfig, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Enabled {
		return nil, prometheus.NewNoopMetrics(), nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

//Personal.AI order the ending
