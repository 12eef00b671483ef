package opensearch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/testutil"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const testID = "3f1c6c3e-5b7a-4d0e-9d33-2a4b5c6d7e8f"

func testDocument() envtypes.EnvironmentDocument {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return envtypes.EnvironmentDocument{
		EnvironmentRecord: envtypes.EnvironmentRecord{
			ID:        testID,
			SMIRKS:    "[#6X4:1]-[#6X4:2]",
			Category:  "Bond",
			Version:   1,
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		Decorators: []string{"#6", "X4"},
		AtomCount:  2,
		BondCount:  1,
	}
}

func TestEnvironmentIndex_CreatesIndexOnce(t *testing.T) {
	cluster := newFakeCluster()
	c := newTestClient(t, cluster)

	_, err := NewEnvironmentIndex(context.Background(), c, testutil.NewMockLogger())
	require.NoError(t, err)
	require.True(t, cluster.indexExists)
	mappings := cluster.mapping["mappings"].(map[string]interface{})
	props := mappings["properties"].(map[string]interface{})
	assert.Equal(t, "keyword", props["decorators"].(map[string]interface{})["type"])
	assert.Equal(t, "date", props["created_at"].(map[string]interface{})["type"])

	// A second start leaves the existing mapping alone.
	cluster.mapping = nil
	_, err = NewEnvironmentIndex(context.Background(), c, testutil.NewMockLogger())
	require.NoError(t, err)
	assert.Nil(t, cluster.mapping)
}

func TestEnvironmentIndex_IndexAndRemove(t *testing.T) {
	cluster := newFakeCluster()
	c := newTestClient(t, cluster)
	idx, err := NewEnvironmentIndex(context.Background(), c, testutil.NewMockLogger())
	require.NoError(t, err)

	require.NoError(t, idx.Index(context.Background(), testDocument()))
	require.Contains(t, cluster.docs, testID)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(cluster.docs[testID], &stored))
	assert.Equal(t, "[#6X4:1]-[#6X4:2]", stored["smirks"])
	assert.Equal(t, []interface{}{"#6", "X4"}, stored["decorators"])

	id := common.ID(testID)
	require.NoError(t, idx.Remove(context.Background(), id))
	assert.Empty(t, cluster.docs)

	// Removing twice is fine.
	assert.NoError(t, idx.Remove(context.Background(), id))
}

func TestEnvironmentIndex_Search(t *testing.T) {
	cluster := newFakeCluster()
	doc, _ := json.Marshal(testDocument())
	cluster.searchReply = `{"hits":{"total":{"value":7},"hits":[{"_source":` + string(doc) + `}]}}`
	c := newTestClient(t, cluster)
	idx, err := NewEnvironmentIndex(context.Background(), c, testutil.NewMockLogger())
	require.NoError(t, err)

	items, total, err := idx.Search(context.Background(), environment.SearchQuery{
		Category:   "Bond",
		Decorators: []string{"X4"},
		Text:       "[*:1]",
		Offset:     5,
		Limit:      5,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, items, 1)
	assert.Equal(t, testID, items[0].ID)
	assert.Equal(t, "Bond", items[0].Category)

	sent := cluster.lastSearch
	assert.EqualValues(t, 5, sent["from"])
	assert.EqualValues(t, 5, sent["size"])
	filters := sent["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	require.Len(t, filters, 3)
	wildcard := filters[2].(map[string]interface{})["wildcard"].(map[string]interface{})["smirks"].(map[string]interface{})
	assert.Equal(t, `*[\*:1]*`, wildcard["value"])
}

func TestEnvironmentIndex_Errors(t *testing.T) {
	cluster := newFakeCluster()
	c := newTestClient(t, cluster)
	idx, err := NewEnvironmentIndex(context.Background(), c, testutil.NewMockLogger())
	require.NoError(t, err)

	cluster.failStatus = http.StatusForbidden
	err = idx.Index(context.Background(), testDocument())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "index read-only")

	_, _, err = idx.Search(context.Background(), environment.SearchQuery{Limit: 10})
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestBuildQueryDSL(t *testing.T) {
	dsl := buildQueryDSL(environment.SearchQuery{Limit: 20})
	assert.Equal(t, map[string]interface{}{"match_all": map[string]interface{}{}}, dsl["query"])
	assert.Equal(t, true, dsl["track_total_hits"])
	assert.Len(t, dsl["sort"], 2)

	dsl = buildQueryDSL(environment.SearchQuery{Category: "Angle", Decorators: []string{"#6", "R"}, Limit: 1})
	filters := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Equal(t, []interface{}{term("category", "Angle"), term("decorators", "#6"), term("decorators", "R")}, filters)
}

func TestEscapeWildcard(t *testing.T) {
	assert.Equal(t, `\*`, escapeWildcard("*"))
	assert.Equal(t, `a\?b\\c`, escapeWildcard(`a?b\c`))
	assert.Equal(t, "[#6X4:1]", escapeWildcard("[#6X4:1]"))
}

//Personal.AI order the ending
