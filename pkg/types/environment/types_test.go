package environment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequest_Labels(t *testing.T) {
	assert.True(t, RenderRequest{}.Labels())

	off := false
	assert.False(t, RenderRequest{IncludeLabels: &off}.Labels())

	var req RenderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"[#6:1]","include_labels":false}`), &req))
	assert.False(t, req.Labels())
}

func TestAddDecoratorRequest_JSON(t *testing.T) {
	var req AddDecoratorRequest
	body := `{"kind":"atom","position":1,"or_type":{"primary":"#7","decorators":["X3"]}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NotNil(t, req.ORType)
	assert.Equal(t, "#7", req.ORType.Primary)
	assert.Equal(t, []string{"X3"}, req.ORType.Decorators)
	assert.Empty(t, req.ANDType)
}

func TestBondView_OmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(BondView{Atoms: [2]int{0, 1}, Expression: "-", Order: 1, Role: "Indexed"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"atoms":[0,1]`)
	assert.NotContains(t, string(data), "ring_closure")
	assert.NotContains(t, string(data), "label")
}

//Personal.AI order the ending
