// Package oracle confirms that rendered patterns are well-formed. The pattern
// core never consults it; the application uses it to vouch for serializer
// output before handing it to callers.
package oracle

import (
	"context"
	"strings"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
)

// Oracle reports whether a pattern string is legal. An error means the
// verdict could not be obtained, not that the pattern is malformed.
type Oracle interface {
	IsWellFormed(ctx context.Context, smirks string) (bool, error)
	Name() string
}

// New builds the oracle selected by cfg.Mode and records every verdict in m.
func New(cfg config.OracleConfig, log logging.Logger, m *prometheus.AppMetrics) (Oracle, error) {
	var o Oracle
	switch cfg.Mode {
	case config.OracleSyntax, "":
		o = SyntaxOracle{}
	case config.OracleNone:
		o = NoopOracle{}
	case config.OracleRemote:
		r, err := NewRemoteOracle(cfg.Endpoint, log, WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, err
		}
		o = r
	default:
		return nil, errors.InvalidParam("unknown oracle mode").WithDetail(cfg.Mode)
	}
	return Instrument(o, m), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SyntaxOracle
// ─────────────────────────────────────────────────────────────────────────────

// SyntaxOracle checks bracket, parenthesis and ring-closure balance, then
// reparses the string with the pattern parser.
type SyntaxOracle struct{}

func (SyntaxOracle) Name() string { return config.OracleSyntax }

func (SyntaxOracle) IsWellFormed(ctx context.Context, smirks string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(smirks) == "" || !balanced(smirks) {
		return false, nil
	}
	_, err := pattern.Parse(smirks)
	return err == nil, nil
}

// balanced checks nesting outside brackets and pairs bare ring digits.
func balanced(s string) bool {
	depth, parens := 0, 0
	rings := map[string]bool{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return false
			}
		case depth > 0:
		case c == '(':
			parens++
		case c == ')':
			parens--
			if parens < 0 {
				return false
			}
		case c == '%' && i+2 < len(s):
			d := s[i+1 : i+3]
			rings[d] = !rings[d]
			i += 2
		case c >= '0' && c <= '9':
			d := string(c)
			rings[d] = !rings[d]
		}
	}
	if depth != 0 || parens != 0 {
		return false
	}
	for _, open := range rings {
		if open {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// NoopOracle
// ─────────────────────────────────────────────────────────────────────────────

// NoopOracle accepts everything.
type NoopOracle struct{}

func (NoopOracle) Name() string                                       { return config.OracleNone }
func (NoopOracle) IsWellFormed(context.Context, string) (bool, error) { return true, nil }

// ─────────────────────────────────────────────────────────────────────────────
// Instrumentation
// ─────────────────────────────────────────────────────────────────────────────

type instrumented struct {
	Oracle
	metrics *prometheus.AppMetrics
}

// Instrument counts the verdicts of o by result.
func Instrument(o Oracle, m *prometheus.AppMetrics) Oracle {
	if m == nil {
		return o
	}
	return &instrumented{Oracle: o, metrics: m}
}

func (i *instrumented) IsWellFormed(ctx context.Context, smirks string) (bool, error) {
	ok, err := i.Oracle.IsWellFormed(ctx, smirks)
	prometheus.RecordOracleCheck(i.metrics, ok, err)
	if err != nil {
		prometheus.RecordError(i.metrics, "oracle", string(errors.GetCode(err)))
	}
	return ok, err
}

//Personal.AI order the ending
