package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/pkg/types/common"
)

func ping(name string, err error) HealthChecker {
	return CheckerFunc{ComponentName: name, Fn: func(context.Context) error { return err }}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("v1.2.3", ping("redis", errors.New("down")))
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.HealthUp, resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("dev").Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("all up", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("dev", ping("redis", nil), ping("postgres", nil)).
			Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Components, 2)
		assert.Equal(t, "redis", resp.Components[0].Name)
		assert.Equal(t, "postgres", resp.Components[1].Name)
	})

	t.Run("one down", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("dev", ping("redis", nil), ping("kafka", errors.New("no brokers"))).
			Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, common.HealthDown, resp.Status)
		assert.Equal(t, common.HealthDown, resp.Components[1].Status)
		assert.Equal(t, "no brokers", resp.Components[1].Message)
	})
}

//Personal.AI order the ending
