package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error) {
	args := m.Called(ctx, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.AnalysisResult), args.Error(1)
}

func (m *mockService) Select(ctx context.Context, req envtypes.SelectRequest) (*envtypes.SelectResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.SelectResult), args.Error(1)
}

func (m *mockService) Components(ctx context.Context, req envtypes.ComponentsRequest) (*envtypes.ComponentsResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.ComponentsResult), args.Error(1)
}

func (m *mockService) Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.RenderResult), args.Error(1)
}

func (m *mockService) BatchAnalyze(ctx context.Context, patterns []string) (*envtypes.BatchAnalyzeResponse, error) {
	args := m.Called(ctx, patterns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.BatchAnalyzeResponse), args.Error(1)
}

func (m *mockService) Create(ctx context.Context, pattern string) (*envtypes.EnvironmentRecord, error) {
	args := m.Called(ctx, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentRecord), args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id string) (*envtypes.EnvironmentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentRecord), args.Error(1)
}

func (m *mockService) List(ctx context.Context, page, pageSize int) (*envtypes.EnvironmentList, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentList), args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockService) AddAtom(ctx context.Context, id string, req envtypes.AddAtomRequest) (*envtypes.AddAtomResult, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.AddAtomResult), args.Error(1)
}

func (m *mockService) RemoveAtom(ctx context.Context, id string, position int) (*envtypes.RemoveAtomResult, error) {
	args := m.Called(ctx, id, position)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.RemoveAtomResult), args.Error(1)
}

func (m *mockService) AddDecorator(ctx context.Context, id string, req envtypes.AddDecoratorRequest) (*envtypes.EnvironmentRecord, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentRecord), args.Error(1)
}

func (m *mockService) Revisions(ctx context.Context, id string) (*envtypes.RevisionList, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.RevisionList), args.Error(1)
}

func (m *mockService) Revision(ctx context.Context, id string, version int64) (*envtypes.EnvironmentRevision, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentRevision), args.Error(1)
}

func (m *mockService) Search(ctx context.Context, req envtypes.SearchRequest) (*envtypes.EnvironmentList, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envtypes.EnvironmentList), args.Error(1)
}

// decode unmarshals an envelope whose data is T.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) common.APIResponse[T] {
	t.Helper()
	var resp common.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// withParams attaches chi URL parameters to ctx.
func withParams(ctx context.Context, kv ...string) context.Context {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

//Personal.AI order the ending
