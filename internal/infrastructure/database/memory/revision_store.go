package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// RevisionStore archives revisions per environment, keyed by version.
type RevisionStore struct {
	mu   sync.RWMutex
	revs map[common.ID]map[int64]envtypes.EnvironmentRevision
}

func NewRevisionStore() *RevisionStore {
	return &RevisionStore{revs: make(map[common.ID]map[int64]envtypes.EnvironmentRevision)}
}

var _ environment.RevisionStore = (*RevisionStore)(nil)

func (s *RevisionStore) Append(ctx context.Context, rev envtypes.EnvironmentRevision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := common.ID(rev.EnvironmentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	byVersion, ok := s.revs[id]
	if !ok {
		byVersion = make(map[int64]envtypes.EnvironmentRevision)
		s.revs[id] = byVersion
	}
	if _, exists := byVersion[rev.Version]; !exists {
		byVersion[rev.Version] = rev
	}
	return nil
}

func (s *RevisionStore) List(ctx context.Context, id common.ID) ([]envtypes.EnvironmentRevision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]envtypes.EnvironmentRevision, 0, len(s.revs[id]))
	for _, rev := range s.revs[id] {
		out = append(out, rev)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *RevisionStore) Get(ctx context.Context, id common.ID, version int64) (*envtypes.EnvironmentRevision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rev, ok := s.revs[id][version]
	s.mu.RUnlock()
	if !ok {
		return nil, environment.RevisionNotFound(id, version)
	}
	return &rev, nil
}

//Personal.AI order the ending
