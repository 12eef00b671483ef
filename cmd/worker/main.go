// Background worker entry point for chemenv. The worker consumes
// PatternSubmitted events, analyzes each pattern and publishes the outcome
// as a PatternAnalyzed event. Messages that keep failing go to the
// dead-letter topic.
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
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	"github.com/turtacn/chemenv/internal/infrastructure/database/redis"
	"github.com/turtacn/chemenv/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/intelligence/oracle"
	httpapi "github.com/turtacn/chemenv/internal/interfaces/http"
	"github.com/turtacn/chemenv/internal/interfaces/http/handlers"
)

var version = "dev"

const (
	defaultHealthPort     = 8081
	defaultHandlerTimeout = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the health and metrics endpoint")
	handlerTimeout := flag.Duration("handler-timeout", defaultHandlerTimeout, "per-message analysis timeout")
	flag.Parse()

	if err := run(*configPath, *healthPort, *handlerTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, healthPort int, handlerTimeout time.Duration) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka.enabled must be true for the worker")
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("worker")

	logger.Info("Starting chemenv worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Duration("handler_timeout", handlerTimeout),
	)

	var (
		collector prometheus.MetricsCollector
		metrics   = prometheus.NewNoopMetrics()
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:       cfg.Metrics.Namespace,
			Subsystem:       "worker",
			EnableGoMetrics: true,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	orc, err := oracle.New(cfg.Oracle, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	svcOpts := []appenv.Option{appenv.WithOracle(orc), appenv.WithMetrics(metrics)}
	var checkers []handlers.HealthChecker
	if cfg.Cache.Enabled {
		rc, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rc.Close()
		cache := redis.NewRedisCache(rc, logger, redis.WithDefaultTTL(cfg.Cache.TTL), redis.WithMetrics(metrics, "analysis"))
		svcOpts = append(svcOpts, appenv.WithCache(cache, cfg.Cache.TTL))
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: rc.Ping})
	}
	// Analysis is stateless, so the repository is never touched.
	svc := appenv.NewService(memory.NewEnvironmentRepository(), logger, svcOpts...)

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()
	publisher := kafka.NewEventPublisher(producer, logger, metrics)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, kafka.TopicPatternSubmitted), logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer consumer.Close()
	consumer.Subscribe(kafka.TopicPatternSubmitted, newPatternHandler(svc, publisher, logger, handlerTimeout).Handle)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	serverCfg := cfg.Server
	serverCfg.Port = healthPort
	health := httpapi.NewServer(serverCfg, httpapi.NewRouter(httpapi.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- health.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if err := consumer.Close(); err != nil {
		logger.Warn("Failed to close consumer", logging.Err(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Worker stopped", logging.Int64("consumed", consumer.GetMetrics().MessagesConsumed.Load()))
	return nil
}

//Personal.AI order the ending
