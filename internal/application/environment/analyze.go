package environment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const analysisKeyPrefix = "analysis:"

// AnalysisCacheKey is the cache key of pattern's analysis.
func AnalysisCacheKey(input string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(input)))
	return analysisKeyPrefix + hex.EncodeToString(sum[:])
}

// Analyze parses, classifies and re-serializes input. Component positions
// refer to the returned SMIRKS.
func (s *serviceImpl) Analyze(ctx context.Context, input string) (*envtypes.AnalysisResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New(errors.ErrCodePatternEmpty, "pattern is empty")
	}
	if s.cache == nil {
		return s.analyze(ctx, input)
	}

	var out envtypes.AnalysisResult
	err := s.cache.GetOrSet(ctx, AnalysisCacheKey(input), &out, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.analyze(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *serviceImpl) analyze(ctx context.Context, input string) (*envtypes.AnalysisResult, error) {
	g, err := s.parse(input)
	if err != nil {
		return nil, err
	}
	category := g.Category()
	prometheus.RecordClassification(s.metrics, category.String())

	res := &envtypes.AnalysisResult{
		Pattern:  input,
		SMIRKS:   g.SMIRKS(),
		SMARTS:   g.SMARTS(),
		Category: category.String(),
	}
	canon, err := pattern.Parse(res.SMIRKS)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternMalformedOutput, "rendered pattern does not parse").WithDetail(res.SMIRKS)
	}
	v := newViewer(canon)
	res.Atoms = v.atoms(canon.Atoms())
	res.Bonds = v.bonds(canon.Bonds())

	ok, err := s.oracle.IsWellFormed(ctx, res.SMIRKS)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternOracleUnavailable, "could not confirm rendered pattern")
	}
	res.WellFormed = ok
	if !ok {
		s.logger.WithContext(ctx).Warn("Oracle rejected rendered pattern",
			logging.String(logging.FieldPattern, input),
			logging.String("smirks", res.SMIRKS))
	}
	return res, nil
}

// parse runs the core parser and maps failures to AppErrors.
func (s *serviceImpl) parse(input string) (*pattern.Graph, error) {
	start := time.Now()
	g, err := pattern.Parse(input)
	if err != nil {
		prometheus.RecordParse(s.metrics, time.Since(start), string(errors.GetCode(err)))
		return nil, patternError(err)
	}
	prometheus.RecordParse(s.metrics, time.Since(start), "")
	return g, nil
}

// canonical parses input and returns the graph of its SMIRKS rendering, so
// positions match what callers see.
func (s *serviceImpl) canonical(input string) (*pattern.Graph, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New(errors.ErrCodePatternEmpty, "pattern is empty")
	}
	g, err := s.parse(input)
	if err != nil {
		return nil, err
	}
	canon, err := pattern.Parse(g.SMIRKS())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternMalformedOutput, "rendered pattern does not parse").WithDetail(g.SMIRKS())
	}
	return canon, nil
}

func parseKind(s string) (pattern.ComponentKind, error) {
	kind, ok := pattern.ParseComponentKind(s)
	if !ok {
		return kind, errors.New(errors.ErrCodePatternDescriptorInvalid, "kind must be atom or bond").WithDetail(s)
	}
	return kind, nil
}

// Select resolves a descriptor to one component. A descriptor that matches
// nothing, including an unknown word, is PAT_005.
func (s *serviceImpl) Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	g, err := s.canonical(req.Pattern)
	if err != nil {
		return nil, err
	}
	d := pattern.ParseDescriptor(req.Descriptor)
	v := newViewer(g)
	out := &envtypes.SelectResult{Kind: kind.String()}

	if kind == pattern.ComponentBond {
		b, ok := g.SelectBond(d)
		if !ok {
			return nil, componentNotFound(kind, d.String())
		}
		view := v.bond(b)
		out.Bond = &view
		return out, nil
	}
	a, ok := g.SelectAtom(d)
	if !ok {
		return nil, componentNotFound(kind, d.String())
	}
	view := v.atom(a)
	out.Atom = &view
	return out, nil
}

// Components lists every component of the requested kind matching the
// option. An empty option lists all of them.
func (s *serviceImpl) Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	d := pattern.All
	if strings.TrimSpace(req.Option) != "" {
		d = pattern.ParseDescriptor(req.Option)
		if !d.Known() {
			return nil, errors.New(errors.ErrCodePatternDescriptorInvalid, "unknown component option").WithDetail(req.Option)
		}
	}
	g, err := s.canonical(req.Pattern)
	if err != nil {
		return nil, err
	}
	v := newViewer(g)
	out := &envtypes.ComponentsResult{Kind: kind.String()}
	if kind == pattern.ComponentBond {
		out.Bonds = v.bonds(g.BondsMatching(d))
	} else {
		out.Atoms = v.atoms(g.AtomsMatching(d))
	}
	return out, nil
}

func (s *serviceImpl) Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error) {
	input := strings.TrimSpace(req.Pattern)
	if input == "" {
		return nil, errors.New(errors.ErrCodePatternEmpty, "pattern is empty")
	}
	g, err := s.parse(input)
	if err != nil {
		return nil, err
	}
	return &envtypes.RenderResult{
		Pattern:       input,
		Output:        g.Serialize(req.Labels()),
		IncludeLabels: req.Labels(),
	}, nil
}

// BatchAnalyze analyzes patterns on a bounded pool. A failing item does not
// stop the others; results keep the input order.
func (s *serviceImpl) BatchAnalyze(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error) {
	if len(patterns) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "patterns must not be empty")
	}
	if len(patterns) > s.batchMaxItems {
		return nil, errors.New(errors.ErrCodeValidation, "too many patterns in batch").
			WithDetail(fmt.Sprintf("max %d", s.batchMaxItems))
	}
	s.metrics.BatchSize.WithLabelValues().Observe(float64(len(patterns)))
	defer logging.LogOperationDuration(s.logger.WithContext(ctx), "batch_analyze", time.Now())

	items := make([]envtypes.BatchItem, len(patterns))
	var eg errgroup.Group
	eg.SetLimit(s.batchWorkers)
	for i, p := range patterns {
		i, p := i, p
		eg.Go(func() error {
			item := envtypes.BatchItem{Index: i, Pattern: p}
			if err := ctx.Err(); err != nil {
				item.Error = ErrorDetail(errors.Wrap(err, errors.ErrCodeTimeout, "batch cancelled"))
			} else if res, err := s.Analyze(ctx, p); err != nil {
				item.Error = ErrorDetail(err)
			} else {
				item.Result = res
			}
			items[i] = item
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "batch cancelled")
	}

	out := &envtypes.BatchAnalyzeResponse{Items: items}
	for _, it := range items {
		if it.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	return out, nil
}

//Personal.AI order the ending
