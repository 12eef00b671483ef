package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
)

var (
	ErrOracleUnavailable = errors.New(errors.ErrCodePatternOracleUnavailable, "well-formedness oracle unavailable")
	ErrCircuitOpen       = errors.New(errors.ErrCodePatternOracleUnavailable, "oracle circuit breaker is open")
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type remoteOptions struct {
	timeout      time.Duration
	httpClient   HTTPDoer
	failures     int
	resetTimeout time.Duration
}

// RemoteOption configures a RemoteOracle.
type RemoteOption func(*remoteOptions)

// WithTimeout bounds one validation request. Zero keeps the default of 5s.
func WithTimeout(d time.Duration) RemoteOption {
	return func(o *remoteOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c HTTPDoer) RemoteOption {
	return func(o *remoteOptions) { o.httpClient = c }
}

// WithCircuitBreaker opens the breaker after failures consecutive errors and
// probes again after reset. failures <= 0 disables it.
func WithCircuitBreaker(failures int, reset time.Duration) RemoteOption {
	return func(o *remoteOptions) {
		o.failures = failures
		o.resetTimeout = reset
	}
}

// RemoteOracle posts the pattern to an external validator:
//
//	POST <endpoint>  {"pattern":"..."}  ->  {"valid":true}
type RemoteOracle struct {
	endpoint string
	client   HTTPDoer
	timeout  time.Duration
	breaker  *breaker
	logger   logging.Logger
}

type validateRequest struct {
	Pattern string `json:"pattern"`
}

type validateResponse struct {
	Valid  *bool  `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func NewRemoteOracle(endpoint string, log logging.Logger, opts ...RemoteOption) (*RemoteOracle, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.InvalidParam("oracle endpoint must be an absolute URL").WithDetail(endpoint)
	}
	o := remoteOptions{timeout: 5 * time.Second, failures: 5, resetTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return &RemoteOracle{
		endpoint: endpoint,
		client:   o.httpClient,
		timeout:  o.timeout,
		breaker:  newBreaker(o.failures, o.resetTimeout, log),
		logger:   log,
	}, nil
}

func (r *RemoteOracle) Name() string { return config.OracleRemote }

func (r *RemoteOracle) IsWellFormed(ctx context.Context, smirks string) (bool, error) {
	if !r.breaker.allow() {
		return false, ErrCircuitOpen
	}
	valid, err := r.call(ctx, smirks)
	if err != nil {
		r.breaker.failure()
		r.logger.WithContext(ctx).WithError(err).Warn("Oracle request failed",
			logging.String(logging.FieldPattern, smirks))
		return false, err
	}
	r.breaker.success()
	return valid, nil
}

func (r *RemoteOracle) call(ctx context.Context, smirks string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(validateRequest{Pattern: smirks})
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode oracle request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, ErrOracleUnavailable.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false, ErrOracleUnavailable.WithCause(err).WithDetail(r.endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, ErrOracleUnavailable.WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, ErrOracleUnavailable.WithDetail(fmt.Sprintf("%s: status %d", r.endpoint, resp.StatusCode))
	}

	var out validateResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Valid == nil {
		return false, errors.New(errors.ErrCodeExternalService, "oracle returned an invalid response").WithDetail(string(raw))
	}
	return *out.Valid, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Circuit breaker
// ─────────────────────────────────────────────────────────────────────────────

const (
	stateClosed int32 = iota
	stateOpen
	stateHalfOpen
)

// breaker is a consecutive-failure circuit breaker that lets one probe
// through after the reset timeout.
type breaker struct {
	state     atomic.Int32
	fails     atomic.Int32
	threshold int32
	reset     time.Duration
	openedAt  atomic.Int64
	permits   atomic.Int32
	logger    logging.Logger
}

func newBreaker(threshold int, reset time.Duration, log logging.Logger) *breaker {
	return &breaker{threshold: int32(threshold), reset: reset, logger: log}
}

func (b *breaker) allow() bool {
	if b.threshold <= 0 {
		return true
	}
	switch b.state.Load() {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(time.Unix(0, b.openedAt.Load())) < b.reset {
			return false
		}
		if b.state.CompareAndSwap(stateOpen, stateHalfOpen) {
			b.permits.Store(1)
			b.transition("open", "half_open")
		}
		return b.permits.Add(-1) >= 0
	default:
		return b.permits.Add(-1) >= 0
	}
}

func (b *breaker) success() {
	if b.threshold <= 0 {
		return
	}
	b.fails.Store(0)
	if b.state.CompareAndSwap(stateHalfOpen, stateClosed) {
		b.transition("half_open", "closed")
	}
}

func (b *breaker) failure() {
	if b.threshold <= 0 {
		return
	}
	n := b.fails.Add(1)
	switch b.state.Load() {
	case stateClosed:
		if n >= b.threshold && b.state.CompareAndSwap(stateClosed, stateOpen) {
			b.openedAt.Store(time.Now().UnixNano())
			b.transition("closed", "open")
		}
	case stateHalfOpen:
		if b.state.CompareAndSwap(stateHalfOpen, stateOpen) {
			b.openedAt.Store(time.Now().UnixNano())
			b.transition("half_open", "open")
		}
	}
}

func (b *breaker) transition(from, to string) {
	b.logger.Info("Oracle circuit breaker state change", logging.String("from", from), logging.String("to", to))
}

//Personal.AI order the ending
