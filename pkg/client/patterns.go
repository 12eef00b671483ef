package client

import (
	"context"
	"net/http"

	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// PatternsClient calls the stateless pattern endpoints.
type PatternsClient struct {
	client *Client
}

func (p *PatternsClient) Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error) {
	if pattern == "" {
		return nil, errors.InvalidParam("pattern is required")
	}
	return call[envtypes.AnalysisResult](ctx, p.client, http.MethodPost, apiPrefix+"/patterns/analyze", envtypes.AnalyzeRequest{Pattern: pattern})
}

// Select resolves one atom or bond descriptor. An empty descriptor selects
// the default component.
func (p *PatternsClient) Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error) {
	if req.Pattern == "" {
		return nil, errors.InvalidParam("pattern is required")
	}
	return call[envtypes.SelectResult](ctx, p.client, http.MethodPost, apiPrefix+"/patterns/select", req)
}

func (p *PatternsClient) Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error) {
	if req.Pattern == "" {
		return nil, errors.InvalidParam("pattern is required")
	}
	return call[envtypes.ComponentsResult](ctx, p.client, http.MethodPost, apiPrefix+"/patterns/components", req)
}

// Render re-serializes pattern, with or without its map labels.
func (p *PatternsClient) Render(ctx context.Context, pattern string, includeLabels bool) (*envtypes.RenderResult, error) {
	if pattern == "" {
		return nil, errors.InvalidParam("pattern is required")
	}
	req := envtypes.RenderRequest{Pattern: pattern, IncludeLabels: &includeLabels}
	return call[envtypes.RenderResult](ctx, p.client, http.MethodPost, apiPrefix+"/patterns/render", req)
}

// Batch analyzes patterns server-side. Per-pattern failures come back as
// items with an Error, not as a returned error.
func (p *PatternsClient) Batch(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error) {
	if len(patterns) == 0 {
		return nil, errors.InvalidParam("at least one pattern is required")
	}
	return call[envtypes.BatchAnalyzeResponse](ctx, p.client, http.MethodPost, apiPrefix+"/patterns/batch", envtypes.BatchAnalyzeRequest{Patterns: patterns})
}

//Personal.AI order the ending
