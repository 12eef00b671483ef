package cli

import (
	"context"
	"net/http"
	"time"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/intelligence/oracle"
	"github.com/turtacn/chemenv/pkg/client"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Backend runs the stateless pattern operations. The application service
// satisfies it directly; the remote backend goes through the SDK.
type Backend interface {
	Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error)
	Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error)
	Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error)
	Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error)
	BatchAnalyze(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error)
}

// NewLocalBackend builds an in-process service with the configured oracle and
// batch limits. Nothing is persisted.
func NewLocalBackend(cfg *config.Config, logger logging.Logger) (Backend, error) {
	metrics := prometheus.NewNoopMetrics()
	o, err := oracle.New(cfg.Oracle, logger, metrics)
	if err != nil {
		return nil, err
	}
	return appenv.NewService(memory.NewEnvironmentRepository(), logger,
		appenv.WithOracle(o),
		appenv.WithMetrics(metrics),
		appenv.WithBatchLimits(cfg.Batch.Workers, cfg.Batch.MaxItems),
	), nil
}

type remoteBackend struct {
	patterns *client.PatternsClient
}

// NewRemoteBackend sends every operation to a chemenv server.
func NewRemoteBackend(c *client.Client) Backend {
	return &remoteBackend{patterns: c.Patterns()}
}

func (r *remoteBackend) Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error) {
	return r.patterns.Analyze(ctx, pattern)
}

func (r *remoteBackend) Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error) {
	return r.patterns.Select(ctx, req)
}

func (r *remoteBackend) Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error) {
	return r.patterns.Components(ctx, req)
}

func (r *remoteBackend) Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error) {
	return r.patterns.Render(ctx, req.Pattern, req.Labels())
}

func (r *remoteBackend) BatchAnalyze(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error) {
	return r.patterns.Batch(ctx, patterns)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

//Personal.AI order the ending
