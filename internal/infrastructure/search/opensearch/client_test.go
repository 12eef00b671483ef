package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/testutil"
	"github.com/turtacn/chemenv/pkg/errors"
)

const testIndex = "envs"

// fakeCluster answers the handful of endpoints the index uses and keeps
// documents in memory.
type fakeCluster struct {
	mu          sync.Mutex
	indexExists bool
	mapping     map[string]interface{}
	docs        map[string]json.RawMessage
	lastSearch  map[string]interface{}
	searchReply string
	failStatus  int
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{docs: map[string]json.RawMessage{}}
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if f.failStatus != 0 {
		w.WriteHeader(f.failStatus)
		_, _ = io.WriteString(w, `{"error":{"type":"cluster_block_exception","reason":"index read-only"}}`)
		return
	}

	body, _ := io.ReadAll(r.Body)
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case len(parts) == 1 && r.Method == http.MethodPut:
		f.indexExists = true
		_ = json.Unmarshal(body, &f.mapping)
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case len(parts) == 3 && parts[1] == "_doc" && (r.Method == http.MethodPut || r.Method == http.MethodPost):
		f.docs[parts[2]] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, parts[2])
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	case len(parts) == 2 && parts[1] == "_search":
		f.lastSearch = nil
		_ = json.Unmarshal(body, &f.lastSearch)
		_, _ = io.WriteString(w, f.searchReply)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.OpenSearchConfig{
		Addresses:      []string{srv.URL},
		Index:          testIndex,
		RequestTimeout: 2 * time.Second,
	}, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Connects(t *testing.T) {
	c := newTestClient(t, newFakeCluster())
	assert.True(t, c.IsHealthy())
	assert.Equal(t, testIndex, c.Index())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(config.OpenSearchConfig{Index: testIndex}, testutil.NewMockLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = NewClient(config.OpenSearchConfig{Addresses: []string{"http://localhost:9200"}}, testutil.NewMockLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNewClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(config.OpenSearchConfig{
		Addresses:      []string{srv.URL},
		Index:          testIndex,
		RequestTimeout: 2 * time.Second,
	}, testutil.NewMockLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

//Personal.AI order the ending
