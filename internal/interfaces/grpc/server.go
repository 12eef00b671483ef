// Package grpc exposes the pattern pipeline and the standard gRPC health
// service next to the HTTP API.
package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
)

// ─────────────────────────────────────────────────────────────────────────────
// Defaults
// ─────────────────────────────────────────────────────────────────────────────

const (
	defaultMaxRecvMsgSize  = 4 * 1024 * 1024
	defaultMaxSendMsgSize  = 16 * 1024 * 1024
	defaultGracefulTimeout = 10 * time.Second
	defaultHealthInterval  = 15 * time.Second
	defaultCheckTimeout    = 5 * time.Second

	healthServicePrefix = "/grpc.health.v1.Health/"
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle: 15 * time.Minute,
	MaxConnectionAge:  30 * time.Minute,
	Time:              5 * time.Minute,
	Timeout:           time.Second,
}

var defaultKeepalivePolicy = keepalive.EnforcementPolicy{
	MinTime:             5 * time.Second,
	PermitWithoutStream: true,
}

// HealthChecker is one dependency behind the serving status. The HTTP
// readiness checkers satisfy it, so both surfaces report the same state.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

type serverOptions struct {
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	tlsConfig       *tls.Config
	listener        net.Listener
	maxRecvMsgSize  int
	maxSendMsgSize  int
	gracefulTimeout time.Duration
	checkers        []HealthChecker
	healthInterval  time.Duration
}

// Option configures a Server.
type Option func(*serverOptions)

func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *serverOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithTLSConfig(c *tls.Config) Option {
	return func(o *serverOptions) { o.tlsConfig = c }
}

// WithListener serves on lis instead of listening on the configured port.
func WithListener(lis net.Listener) Option {
	return func(o *serverOptions) { o.listener = lis }
}

func WithMaxRecvMsgSize(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxRecvMsgSize = n
		}
	}
}

func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// WithHealthCheckers ties the serving status to checkers, re-evaluated every
// interval while the server runs.
func WithHealthCheckers(interval time.Duration, checkers ...HealthChecker) Option {
	return func(o *serverOptions) {
		o.checkers = checkers
		if interval > 0 {
			o.healthInterval = interval
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

// Server wraps a grpc.Server with health reporting and graceful shutdown.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	healthServer *health.Server
	opts         serverOptions
	services     []string

	mu        sync.Mutex
	started   bool
	serving   bool
	stopWatch chan struct{}
	watchDone chan struct{}
}

// NewServer listens on cfg.GRPCAddr() unless WithListener supplies one.
func NewServer(cfg config.ServerConfig, opts ...Option) (*Server, error) {
	o := serverOptions{
		logger:          logging.NewNopLogger(),
		metrics:         prometheus.NewNoopMetrics(),
		maxRecvMsgSize:  defaultMaxRecvMsgSize,
		maxSendMsgSize:  defaultMaxSendMsgSize,
		gracefulTimeout: defaultGracefulTimeout,
		healthInterval:  defaultHealthInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	lis := o.listener
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", cfg.GRPCAddr())
		if err != nil {
			return nil, fmt.Errorf("grpc: failed to listen on %s: %w", cfg.GRPCAddr(), err)
		}
	}

	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(o.maxRecvMsgSize),
		grpc.MaxSendMsgSize(o.maxSendMsgSize),
		grpc.KeepaliveParams(defaultKeepaliveParams),
		grpc.KeepaliveEnforcementPolicy(defaultKeepalivePolicy),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(o.logger),
			loggingUnaryInterceptor(o.logger),
			metricsUnaryInterceptor(o.metrics),
		),
		grpc.ChainStreamInterceptor(
			recoveryStreamInterceptor(o.logger),
			loggingStreamInterceptor(o.logger),
			metricsStreamInterceptor(o.metrics),
		),
	}
	if o.tlsConfig != nil {
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(o.tlsConfig)))
	}

	gs := grpc.NewServer(serverOpts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{
		grpcServer:   gs,
		listener:     lis,
		healthServer: hs,
		opts:         o,
		services:     []string{""},
	}
	// Without checkers there is nothing to wait for.
	s.setServing(len(o.checkers) == 0)
	return s, nil
}

// RegisterService adds a service; it must be called before Start.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
	s.mu.Lock()
	s.services = append(s.services, desc.ServiceName)
	serving := s.serving
	s.mu.Unlock()
	s.setServing(serving)
}

// Start refreshes health once, starts the health watcher and blocks in Serve.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("grpc: server already started")
	}
	s.started = true
	stop, done := make(chan struct{}), make(chan struct{})
	s.stopWatch, s.watchDone = stop, done
	s.mu.Unlock()

	if len(s.opts.checkers) > 0 {
		s.RefreshHealth(context.Background())
		go s.watchHealth(stop, done)
	} else {
		close(done)
	}

	s.opts.logger.Info("grpc server starting", logging.String("addr", s.Addr()))
	if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc: serve failed: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING, then drains in-flight calls until ctx or the
// graceful timeout expires, whichever is first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	stopWatch, watchDone := s.stopWatch, s.watchDone
	s.stopWatch = nil
	s.mu.Unlock()

	s.healthServer.Shutdown()

	if !started {
		s.grpcServer.Stop()
		_ = s.listener.Close()
		return nil
	}
	if stopWatch != nil {
		close(stopWatch)
		<-watchDone
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.opts.logger.Info("grpc server stopped gracefully")
	case <-ctx.Done():
		s.opts.logger.Warn("grpc graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GRPCServer exposes the underlying server for tests and extra registrations.
func (s *Server) GRPCServer() *grpc.Server { return s.grpcServer }

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

// RefreshHealth runs every checker and reports SERVING only when all pass.
func (s *Server) RefreshHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultCheckTimeout)
	defer cancel()

	failed := make([]string, len(s.opts.checkers))
	var wg sync.WaitGroup
	for i, c := range s.opts.checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			if err := c.Check(ctx); err != nil {
				failed[i] = c.Name()
			}
		}(i, c)
	}
	wg.Wait()

	var down []string
	for _, name := range failed {
		if name != "" {
			down = append(down, name)
		}
	}
	ok := len(down) == 0

	s.mu.Lock()
	changed := s.serving != ok
	s.mu.Unlock()
	if changed {
		if ok {
			s.opts.logger.Info("grpc health serving")
		} else {
			s.opts.logger.Warn("grpc health not serving", logging.Strings("components", down))
		}
	}
	s.setServing(ok)
	return ok
}

func (s *Server) watchHealth(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.RefreshHealth(context.Background())
		}
	}
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.mu.Lock()
	s.serving = ok
	services := append([]string(nil), s.services...)
	s.mu.Unlock()
	for _, name := range services {
		s.healthServer.SetServingStatus(name, st)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Interceptors
// ─────────────────────────────────────────────────────────────────────────────

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc panic recovered",
					logging.String("method", info.FullMethod),
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())),
				)
				resp, err = nil, status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func recoveryStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc panic recovered",
					logging.String("method", info.FullMethod),
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isHealthCheck(info.FullMethod) {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

func loggingStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isHealthCheck(info.FullMethod) {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		logCall(logger, info.FullMethod, time.Since(start), err)
		return err
	}
}

func logCall(logger logging.Logger, method string, d time.Duration, err error) {
	code := status.Code(err)
	fields := []logging.Field{
		logging.String("method", method),
		logging.Duration("duration", d),
		logging.String("code", code.String()),
	}
	switch {
	case err == nil:
		logger.Info("grpc request", fields...)
	case isServerFault(code):
		logger.Error("grpc request failed", append(fields, logging.Err(err))...)
	default:
		logger.Warn("grpc request rejected", append(fields, logging.Err(err))...)
	}
}

func metricsUnaryInterceptor(m *prometheus.AppMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		service, method := splitMethodName(info.FullMethod)
		prometheus.RecordGRPCRequest(m, service, method, status.Code(err).String(), "unary", time.Since(start))
		return resp, err
	}
}

func metricsStreamInterceptor(m *prometheus.AppMetrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		service, method := splitMethodName(info.FullMethod)
		prometheus.RecordGRPCRequest(m, service, method, status.Code(err).String(), "stream", time.Since(start))
		return err
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// splitMethodName turns "/pkg.Service/Method" into ("pkg.Service", "Method").
func splitMethodName(fullMethod string) (string, string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return "unknown", trimmed
}

func isHealthCheck(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, healthServicePrefix)
}

func isServerFault(c codes.Code) bool {
	switch c {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable, codes.Unimplemented:
		return true
	}
	return false
}

//Personal.AI order the ending
