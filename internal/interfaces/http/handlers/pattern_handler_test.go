package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/testutil"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

func newTestPatternHandler() (*PatternHandler, *mockService, *testutil.MockLogger) {
	svc := new(mockService)
	log := testutil.NewMockLogger()
	return NewPatternHandler(svc, log, 256), svc, log
}

func post(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestPatternHandler_Analyze(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("Analyze", mock.Anything, "[#6:1]").
		Return(&envtypes.AnalysisResult{Pattern: "[#6:1]", SMIRKS: "[#6:1]", Category: "Atom", WellFormed: true}, nil)

	req := post("/api/v1/patterns/analyze", `{"pattern":"[#6:1]"}`)
	req = req.WithContext(logging.WithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[envtypes.AnalysisResult](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Atom", resp.Data.Category)
	assert.Equal(t, "req-1", resp.RequestID)
	svc.AssertExpectations(t)
}

func TestPatternHandler_Analyze_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"parse", errors.New(errors.ErrCodePatternParseFailed, "unbalanced bracket").WithDetail(`"[" at position 0`), http.StatusBadRequest, "PAT_001"},
		{"label", errors.New(errors.ErrCodePatternLabelConflict, "positional label already in use"), http.StatusConflict, "PAT_004"},
		{"oracle", errors.New(errors.ErrCodePatternOracleUnavailable, "could not confirm rendered pattern"), http.StatusBadGateway, "PAT_008"},
		{"untyped", assert.AnError, http.StatusInternalServerError, "COMMON_001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, svc, log := newTestPatternHandler()
			svc.On("Analyze", mock.Anything, "x").Return(nil, tc.err)

			w := httptest.NewRecorder()
			h.Analyze(w, post("/api/v1/patterns/analyze", `{"pattern":"x"}`))

			assert.Equal(t, tc.status, w.Code)
			resp := decode[any](t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			if tc.status >= 500 {
				assert.True(t, log.HasMessage("error", "Request failed"))
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}
}

func TestPatternHandler_BadBodies(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	for name, body := range map[string]string{
		"malformed": `{"pattern":`,
		"empty":     ``,
		"too large": `{"pattern":"` + strings.Repeat("C", 512) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Analyze(w, post("/api/v1/patterns/analyze", body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "COMMON_002", decode[any](t, w).Error.Code)
		})
	}
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestPatternHandler_Select(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	req := envtypes.SelectRequest{Pattern: "[#6:1]-[#7]", Kind: "atom", Descriptor: "Alpha"}
	svc.On("Select", mock.Anything, req).
		Return(&envtypes.SelectResult{Kind: "atom", Atom: &envtypes.AtomView{Position: 1, Expression: "#7", Role: "Alpha"}}, nil)

	w := httptest.NewRecorder()
	h.Select(w, post("/api/v1/patterns/select", `{"pattern":"[#6:1]-[#7]","kind":"atom","descriptor":"Alpha"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[envtypes.SelectResult](t, w)
	require.NotNil(t, resp.Data.Atom)
	assert.Equal(t, 1, resp.Data.Atom.Position)
}

func TestPatternHandler_Select_NotFound(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("Select", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodePatternComponentNotFound, "no atom matches descriptor").WithDetail("Beta"))

	w := httptest.NewRecorder()
	h.Select(w, post("/api/v1/patterns/select", `{"pattern":"[#6:1]","kind":"atom","descriptor":"Beta"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, "PAT_005", resp.Error.Code)
	assert.Equal(t, "Beta", resp.Error.Detail)
}

func TestPatternHandler_Components(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("Components", mock.Anything, envtypes.ComponentsRequest{Pattern: "[#6:1]-[#6:2]", Kind: "bond"}).
		Return(&envtypes.ComponentsResult{Kind: "bond", Bonds: []envtypes.BondView{{Label: 1, Atoms: [2]int{0, 1}}}}, nil)

	w := httptest.NewRecorder()
	h.Components(w, post("/api/v1/patterns/components", `{"pattern":"[#6:1]-[#6:2]","kind":"bond"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[envtypes.ComponentsResult](t, w).Data.Bonds, 1)
}

func TestPatternHandler_Render(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("Render", mock.Anything, mock.MatchedBy(func(r envtypes.RenderRequest) bool {
		return r.Pattern == "[#6:1]" && !r.Labels()
	})).Return(&envtypes.RenderResult{Pattern: "[#6:1]", Output: "[#6]"}, nil)

	w := httptest.NewRecorder()
	h.Render(w, post("/api/v1/patterns/render", `{"pattern":"[#6:1]","include_labels":false}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[#6]", decode[envtypes.RenderResult](t, w).Data.Output)
}

func TestPatternHandler_Batch(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("BatchAnalyze", mock.Anything, []string{"[#6:1]", "[*;m:1]"}).Return(&envtypes.BatchAnalyzeResponse{
		Items: []envtypes.BatchItem{
			{Index: 0, Pattern: "[#6:1]", Result: &envtypes.AnalysisResult{Category: "Atom"}},
			{Index: 1, Pattern: "[*;m:1]", Error: &common.ErrorDetail{Code: "PAT_003", Message: "invalid decorator"}},
		},
		Succeeded: 1,
		Failed:    1,
	}, nil)

	w := httptest.NewRecorder()
	h.Batch(w, post("/api/v1/patterns/batch", `{"patterns":["[#6:1]","[*;m:1]"]}`))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[envtypes.BatchAnalyzeResponse](t, w)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, "PAT_003", resp.Data.Items[1].Error.Code)
}

func TestPatternHandler_Batch_Rejected(t *testing.T) {
	h, svc, _ := newTestPatternHandler()
	svc.On("BatchAnalyze", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeValidation, "too many patterns in batch"))

	w := httptest.NewRecorder()
	h.Batch(w, post("/api/v1/patterns/batch", `{"patterns":["a","b","c"]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

//Personal.AI order the ending
