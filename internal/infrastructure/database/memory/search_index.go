package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// SearchIndex scans every document on each query. It backs the "memory"
// search driver, which suits single-process deployments.
type SearchIndex struct {
	mu   sync.RWMutex
	docs map[common.ID]envtypes.EnvironmentDocument
}

func NewSearchIndex() *SearchIndex {
	return &SearchIndex{docs: make(map[common.ID]envtypes.EnvironmentDocument)}
}

var _ environment.SearchIndex = (*SearchIndex)(nil)

func (x *SearchIndex) Index(ctx context.Context, doc envtypes.EnvironmentDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	x.docs[common.ID(doc.ID)] = doc
	x.mu.Unlock()
	return nil
}

// Remove is idempotent.
func (x *SearchIndex) Remove(ctx context.Context, id common.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	delete(x.docs, id)
	x.mu.Unlock()
	return nil
}

func (x *SearchIndex) Search(ctx context.Context, q environment.SearchQuery) ([]envtypes.EnvironmentRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	x.mu.RLock()
	var hits []envtypes.EnvironmentRecord
	for _, doc := range x.docs {
		if q.Matches(doc) {
			hits = append(hits, doc.EnvironmentRecord)
		}
	}
	x.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.Before(hits[j].CreatedAt)
		}
		return hits[i].ID < hits[j].ID
	})

	total := int64(len(hits))
	out := []envtypes.EnvironmentRecord{}
	if q.Offset >= len(hits) || q.Limit <= 0 {
		return out, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(hits) {
		end = len(hits)
	}
	return append(out, hits[q.Offset:end]...), total, nil
}

//Personal.AI order the ending
