package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Searcher translates SearchQuery into the query DSL.
type Searcher struct {
	client *Client
	logger logging.Logger
}

func NewSearcher(client *Client, logger logging.Logger) *Searcher {
	return &Searcher{client: client, logger: logger}
}

// Search returns one page of matching records in creation order and the
// total number of matches.
func (s *Searcher) Search(ctx context.Context, q environment.SearchQuery) ([]envtypes.EnvironmentRecord, int64, error) {
	body, err := json.Marshal(buildQueryDSL(q))
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query DSL")
	}
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.client.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.client)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, errors.New(errors.ErrCodeTimeout, "search request timed out")
		}
		return nil, 0, errors.Wrap(err, errors.ErrCodeExternalService, "search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, responseError(resp, "search failed")
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source envtypes.EnvironmentDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	out := make([]envtypes.EnvironmentRecord, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.EnvironmentRecord)
	}
	s.logger.Debug("Search executed",
		logging.String("index", s.client.index),
		logging.Int64("took_ms", time.Since(start).Milliseconds()),
		logging.Int64("hits", parsed.Hits.Total.Value))
	return out, parsed.Hits.Total.Value, nil
}

// buildQueryDSL ANDs every set filter of q. Filters run in filter context
// because ranking is by creation time, not score.
func buildQueryDSL(q environment.SearchQuery) map[string]interface{} {
	var filters []interface{}
	if q.Category != "" {
		filters = append(filters, term("category", q.Category))
	}
	for _, d := range q.Decorators {
		filters = append(filters, term("decorators", d))
	}
	if q.Text != "" {
		filters = append(filters, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"smirks": map[string]interface{}{"value": "*" + escapeWildcard(q.Text) + "*"},
			},
		})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(filters) > 0 {
		query = map[string]interface{}{"bool": map[string]interface{}{"filter": filters}}
	}
	return map[string]interface{}{
		"from":             q.Offset,
		"size":             q.Limit,
		"track_total_hits": true,
		"query":            query,
		"sort": []interface{}{
			map[string]interface{}{"created_at": "asc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// escapeWildcard keeps SMIRKS wildcards such as [*:1] literal.
func escapeWildcard(s string) string { return wildcardEscaper.Replace(s) }

//Personal.AI order the ending
