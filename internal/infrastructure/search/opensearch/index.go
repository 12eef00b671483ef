package opensearch

import (
	"context"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// EnvironmentIndex is the OpenSearch-backed environment.SearchIndex.
type EnvironmentIndex struct {
	indexer  *Indexer
	searcher *Searcher
}

var _ environment.SearchIndex = (*EnvironmentIndex)(nil)

// NewEnvironmentIndex creates the index on first use.
func NewEnvironmentIndex(ctx context.Context, client *Client, logger logging.Logger) (*EnvironmentIndex, error) {
	idx := &EnvironmentIndex{
		indexer:  NewIndexer(client, logger),
		searcher: NewSearcher(client, logger),
	}
	if err := idx.indexer.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *EnvironmentIndex) Index(ctx context.Context, doc envtypes.EnvironmentDocument) error {
	return x.indexer.IndexDocument(ctx, doc)
}

func (x *EnvironmentIndex) Remove(ctx context.Context, id common.ID) error {
	return x.indexer.DeleteDocument(ctx, id.String())
}

func (x *EnvironmentIndex) Search(ctx context.Context, q environment.SearchQuery) ([]envtypes.EnvironmentRecord, int64, error) {
	return x.searcher.Search(ctx, q)
}

//Personal.AI order the ending
