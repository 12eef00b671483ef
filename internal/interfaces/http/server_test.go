package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/testutil"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second}
	server := NewServer(cfg, http.NewServeMux(), testutil.NewMockLogger())

	assert.Equal(t, "127.0.0.1:8080", server.Addr())
	assert.Equal(t, 2*time.Second, server.httpServer.WriteTimeout)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	log := testutil.NewMockLogger()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "pong") })
	server := NewServer(config.ServerConfig{Host: "127.0.0.1"}, mux, log)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- server.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-done, "graceful shutdown is not an error")
	assert.True(t, log.HasMessage("info", "HTTP server stopped"))
}

//Personal.AI order the ending
