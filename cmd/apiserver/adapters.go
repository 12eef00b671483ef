package main

import (
	"context"
	"fmt"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/config"
	domainEnv "github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	"github.com/turtacn/chemenv/internal/infrastructure/database/neo4j"
	"github.com/turtacn/chemenv/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemenv/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/chemenv/internal/infrastructure/database/redis"
	"github.com/turtacn/chemenv/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/infrastructure/search/opensearch"
	"github.com/turtacn/chemenv/internal/infrastructure/storage/minio"
	"github.com/turtacn/chemenv/internal/intelligence/oracle"
	"github.com/turtacn/chemenv/internal/interfaces/http/handlers"
)

// infrastructure owns every external connection of the API server.
type infrastructure struct {
	logger logging.Logger

	repo      domainEnv.Repository
	revisions domainEnv.RevisionStore
	search    domainEnv.SearchIndex
	redis     *redis.Client
	postgres  *postgres.Connection
	graph     *neo4j.Driver
	minio     *minio.Client
	os        *opensearch.Client
	producer  *kafka.Producer
	topics    *kafka.TopicManager
	publisher domainEnv.EventPublisher
}

// initInfrastructure connects the storage driver, Redis when storage or the
// cache needs it, the revision archive, the search index and Kafka when
// enabled. Partial connections are closed on failure.
func initInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (infra *infrastructure, err error) {
	infra = &infrastructure{logger: logger, publisher: kafka.NoopPublisher{}}
	defer func() {
		if err != nil {
			infra.Close()
			infra = nil
		}
	}()

	if cfg.Storage.Driver == config.StorageRedis || cfg.Cache.Enabled {
		if infra.redis, err = redis.NewClient(cfg.Redis, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	switch cfg.Storage.Driver {
	case config.StorageRedis:
		infra.repo = redis.NewEnvironmentRepository(infra.redis, logger, metrics)
	case config.StoragePostgres:
		if infra.postgres, err = postgres.NewConnection(cfg.Postgres, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err = infra.postgres.RunMigrations(ctx); err != nil {
				return infra, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		infra.repo = repositories.NewPostgresEnvironmentRepo(infra.postgres, logger, metrics)
	case config.StorageNeo4j:
		if infra.graph, err = neo4j.NewDriver(cfg.Neo4j, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to neo4j: %w", err)
		}
		if err = neo4j.EnsureSchema(ctx, infra.graph); err != nil {
			return infra, fmt.Errorf("failed to prepare neo4j schema: %w", err)
		}
		infra.repo = neo4j.NewEnvironmentRepository(infra.graph, logger, metrics)
	default:
		infra.repo = memory.NewEnvironmentRepository()
	}

	switch cfg.Archive.Driver {
	case config.ArchiveMinIO:
		if infra.minio, err = minio.NewClient(cfg.Archive.MinIO, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to minio: %w", err)
		}
		infra.revisions = minio.NewRevisionStore(infra.minio, logger)
	case config.ArchiveMemory:
		infra.revisions = memory.NewRevisionStore()
	}

	switch cfg.Search.Driver {
	case config.SearchOpenSearch:
		if infra.os, err = opensearch.NewClient(cfg.Search.OpenSearch, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to opensearch: %w", err)
		}
		if infra.search, err = opensearch.NewEnvironmentIndex(ctx, infra.os, logger); err != nil {
			return infra, fmt.Errorf("failed to prepare search index: %w", err)
		}
	case config.SearchMemory:
		infra.search = memory.NewSearchIndex()
	}

	if cfg.Kafka.Enabled {
		if infra.producer, err = kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger); err != nil {
			return infra, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		if infra.topics, err = kafka.NewTopicManager(cfg.Kafka.Brokers, logger); err != nil {
			return infra, fmt.Errorf("failed to connect to kafka: %w", err)
		}
		if cfg.Kafka.AutoCreateTopics {
			if err = infra.topics.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.NumPartitions, cfg.Kafka.ReplicationFactor)); err != nil {
				return infra, fmt.Errorf("failed to create kafka topics: %w", err)
			}
		}
		infra.publisher = kafka.NewEventPublisher(infra.producer, logger, metrics)
	}
	return infra, nil
}

// serviceOptions wires cache, cross-process locking and events into the
// application service. Locking stays in-process unless storage is shared
// through Redis.
func (i *infrastructure) serviceOptions(cfg *config.Config, orc oracle.Oracle, metrics *prometheus.AppMetrics) []appenv.Option {
	opts := []appenv.Option{
		appenv.WithOracle(orc),
		appenv.WithPublisher(i.publisher),
		appenv.WithMetrics(metrics),
		appenv.WithBatchLimits(cfg.Batch.Workers, cfg.Batch.MaxItems),
	}
	if i.revisions != nil {
		opts = append(opts, appenv.WithRevisionStore(i.revisions))
	}
	if i.search != nil {
		opts = append(opts, appenv.WithSearchIndex(i.search))
	}
	if i.redis != nil {
		if cfg.Cache.Enabled {
			cache := redis.NewRedisCache(i.redis, i.logger,
				redis.WithDefaultTTL(cfg.Cache.TTL),
				redis.WithMetrics(metrics, "analysis"))
			opts = append(opts, appenv.WithCache(cache, cfg.Cache.TTL))
		}
		opts = append(opts, appenv.WithLocker(redis.NewEnvironmentLocker(redis.NewLockFactory(i.redis, i.logger), cfg.Redis.LockTTL)))
	} else {
		opts = append(opts, appenv.WithLocker(memory.NewLocker()))
	}
	return opts
}

// healthCheckers probes every connection the server holds.
func (i *infrastructure) healthCheckers() []handlers.HealthChecker {
	var checkers []handlers.HealthChecker
	if i.postgres != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "postgres", Fn: i.postgres.HealthCheck})
	}
	if i.graph != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "neo4j", Fn: i.graph.HealthCheck})
	}
	if i.redis != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: i.redis.Ping})
	}
	if i.minio != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "minio", Fn: i.minio.HealthCheck})
	}
	if i.os != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "opensearch", Fn: i.os.Ping})
	}
	if i.topics != nil {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "kafka", Fn: func(ctx context.Context) error {
			_, err := i.topics.ListTopics(ctx)
			return err
		}})
	}
	return checkers
}

// Close releases connections in reverse order of creation.
func (i *infrastructure) Close() {
	if i.topics != nil {
		if err := i.topics.Close(); err != nil {
			i.logger.Warn("Failed to close kafka topic manager", logging.Err(err))
		}
	}
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("Failed to close kafka producer", logging.Err(err))
		}
	}
	if i.os != nil {
		_ = i.os.Close()
	}
	if i.graph != nil {
		if err := i.graph.Close(); err != nil {
			i.logger.Warn("Failed to close neo4j", logging.Err(err))
		}
	}
	if i.postgres != nil {
		if err := i.postgres.Close(); err != nil {
			i.logger.Warn("Failed to close postgres", logging.Err(err))
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("Failed to close redis", logging.Err(err))
		}
	}
}

//Personal.AI order the ending
