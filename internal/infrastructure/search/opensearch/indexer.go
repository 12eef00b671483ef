package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// refreshPolicy makes every write visible to the next search.
const refreshPolicy = "wait_for"

// Indexer manages the environment index and its documents.
type Indexer struct {
	client *Client
	logger logging.Logger
}

func NewIndexer(client *Client, logger logging.Logger) *Indexer {
	return &Indexer{client: client, logger: logger}
}

// EnvironmentIndexMapping stores every field as an exact-match keyword
// except the counters and timestamps.
func EnvironmentIndexMapping() map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]interface{}{
			"dynamic": "strict",
			"properties": map[string]interface{}{
				"id":         map[string]interface{}{"type": "keyword"},
				"smirks":     map[string]interface{}{"type": "keyword"},
				"category":   map[string]interface{}{"type": "keyword"},
				"version":    map[string]interface{}{"type": "long"},
				"created_at": map[string]interface{}{"type": "date"},
				"updated_at": map[string]interface{}{"type": "date"},
				"decorators": map[string]interface{}{"type": "keyword"},
				"atom_count": map[string]interface{}{"type": "integer"},
				"bond_count": map[string]interface{}{"type": "integer"},
			},
		},
	}
}

// EnsureIndex creates the index with EnvironmentIndexMapping unless it
// exists already.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	ctx, cancel := i.client.withTimeout(ctx)
	defer cancel()

	exists, err := i.IndexExists(ctx)
	if err != nil || exists {
		return err
	}

	body, err := json.Marshal(EnvironmentIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{
		Index: i.client.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, "index creation failed")
	}
	i.logger.Info("Index created", logging.String("index", i.client.index))
	return nil
}

func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.client.index}}.Do(ctx, i.client.client)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeExternalService, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, responseError(resp, "check index existence failed")
}

// IndexDocument upserts doc under its environment id.
func (i *Indexer) IndexDocument(ctx context.Context, doc envtypes.EnvironmentDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}
	ctx, cancel := i.client.withTimeout(ctx)
	defer cancel()

	resp, err := opensearchapi.IndexRequest{
		Index:      i.client.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    refreshPolicy,
	}.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to index document")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, "document index failed")
	}
	return nil
}

// DeleteDocument removes one document. A missing document is not an error.
func (i *Indexer) DeleteDocument(ctx context.Context, id string) error {
	ctx, cancel := i.client.withTimeout(ctx)
	defer cancel()

	resp, err := opensearchapi.DeleteRequest{
		Index:      i.client.index,
		DocumentID: id,
		Refresh:    refreshPolicy,
	}.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete document")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return responseError(resp, "document delete failed")
	}
	return nil
}

//Personal.AI order the ending
