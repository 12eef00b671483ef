package main

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/internal/interfaces/http/handlers"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string) (*envtypes.AnalysisResult, error) {
	return &envtypes.AnalysisResult{}, nil
}

func (stubAnalyzer) Render(context.Context, envtypes.RenderRequest) (*envtypes.RenderResult, error) {
	return &envtypes.RenderResult{}, nil
}

func TestInitGRPC_DisabledByDefault(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	srv, err := initGRPC(cfg, stubAnalyzer{}, nil, logging.NewNopLogger(), prometheus.NewNoopMetrics())
	require.NoError(t, err)
	assert.Nil(t, srv)
}

func TestInitGRPC_SharesReadinessCheckers(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.GRPCPort = port

	down := handlers.CheckerFunc{ComponentName: "redis", Fn: func(context.Context) error { return errors.New("refused") }}
	srv, err := initGRPC(cfg, stubAnalyzer{}, []handlers.HealthChecker{down}, logging.NewNopLogger(), prometheus.NewNoopMetrics())
	require.NoError(t, err)
	require.NotNil(t, srv)
	defer func() { _ = srv.Stop(context.Background()) }()

	assert.False(t, srv.RefreshHealth(context.Background()))
}

//Personal.AI order the ending
