// Package environment provides the application service for pattern analysis
// and stored chemical environments. It sits between the HTTP, CLI and worker
// adapters and the pattern core.
package environment

import (
	"context"
	"time"

	domainEnv "github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/intelligence/oracle"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Service defines the application operations on patterns and environments.
type Service interface {
	Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error)
	Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error)
	Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error)
	Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error)
	BatchAnalyze(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error)

	Create(ctx context.Context, pattern string) (*envtypes.EnvironmentRecord, error)
	Get(ctx context.Context, id string) (*envtypes.EnvironmentRecord, error)
	List(ctx context.Context, page, pageSize int) (*envtypes.EnvironmentList, error)
	Delete(ctx context.Context, id string) error
	AddAtom(ctx context.Context, id string, req envtypes.AddAtomRequest) (*envtypes.AddAtomResult, error)
	RemoveAtom(ctx context.Context, id string, position int) (*envtypes.RemoveAtomResult, error)
	AddDecorator(ctx context.Context, id string, req envtypes.AddDecoratorRequest) (*envtypes.EnvironmentRecord, error)

	Revisions(ctx context.Context, id string) (*envtypes.RevisionList, error)
	Revision(ctx context.Context, id string, version int64) (*envtypes.EnvironmentRevision, error)
	Search(ctx context.Context, req envtypes.SearchRequest) (*envtypes.EnvironmentList, error)
}

// Locker serializes mutations of one environment. The returned function
// releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// Cache stores analysis results. Satisfied by the redis Cache.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

// Default limits.
const (
	DefaultBatchWorkers  = 8
	DefaultBatchMaxItems = 1000
	DefaultPageSize      = 50
	DefaultCacheTTL      = 15 * time.Minute
)

// Option configures the service.
type Option func(*serviceImpl)

// WithCache enables cache-aside for Analyze.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *serviceImpl) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithOracle(o oracle.Oracle) Option {
	return func(s *serviceImpl) { s.oracle = o }
}

func WithLocker(l Locker) Option {
	return func(s *serviceImpl) { s.locker = l }
}

func WithPublisher(p domainEnv.EventPublisher) Option {
	return func(s *serviceImpl) { s.publisher = p }
}

// WithRevisionStore archives every stored state. Without it the revision
// operations report the feature as disabled.
func WithRevisionStore(r domainEnv.RevisionStore) Option {
	return func(s *serviceImpl) { s.revisions = r }
}

// WithSearchIndex keeps idx in step with the repository and serves Search.
func WithSearchIndex(idx domainEnv.SearchIndex) Option {
	return func(s *serviceImpl) { s.search = idx }
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithBatchLimits bounds BatchAnalyze concurrency and size. Non-positive
// values keep the defaults.
func WithBatchLimits(workers, maxItems int) Option {
	return func(s *serviceImpl) {
		if workers > 0 {
			s.batchWorkers = workers
		}
		if maxItems > 0 {
			s.batchMaxItems = maxItems
		}
	}
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	repo      domainEnv.Repository
	logger    logging.Logger
	cache     Cache
	cacheTTL  time.Duration
	oracle    oracle.Oracle
	locker    Locker
	publisher domainEnv.EventPublisher
	revisions domainEnv.RevisionStore
	search    domainEnv.SearchIndex
	metrics   *prometheus.AppMetrics

	batchWorkers  int
	batchMaxItems int
}

// NewService creates the application service. Without options it checks
// output with the syntax oracle, locks in process and drops events.
func NewService(repo domainEnv.Repository, logger logging.Logger, opts ...Option) Service {
	s := &serviceImpl{
		repo:          repo,
		logger:        logger,
		cacheTTL:      DefaultCacheTTL,
		oracle:        oracle.SyntaxOracle{},
		locker:        memory.NewLocker(),
		publisher:     noopPublisher{},
		metrics:       prometheus.NewNoopMetrics(),
		batchWorkers:  DefaultBatchWorkers,
		batchMaxItems: DefaultBatchMaxItems,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...common.DomainEvent) error { return nil }

//Personal.AI order the ending
