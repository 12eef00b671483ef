// Package memory holds process-local implementations of the environment
// repository, mutation lock, revision archive and search index. They back the
// "memory" drivers and the application tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// EnvironmentRepository keeps records, not aggregates, so callers never share
// mutable state with the store.
type EnvironmentRepository struct {
	mu      sync.RWMutex
	records map[common.ID]envtypes.EnvironmentRecord
}

func NewEnvironmentRepository() *EnvironmentRepository {
	return &EnvironmentRepository{records: make(map[common.ID]envtypes.EnvironmentRecord)}
}

var _ environment.Repository = (*EnvironmentRepository)(nil)

func (r *EnvironmentRepository) Save(ctx context.Context, env *environment.Environment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.records[env.ID]
	if env.Version <= 1 {
		if exists {
			return environment.AlreadyExists(env.ID)
		}
	} else {
		if !exists {
			return environment.NotFound(env.ID)
		}
		if cur.Version != env.Version-1 {
			return environment.VersionConflict(env.ID, env.Version-1, cur.Version)
		}
	}
	r.records[env.ID] = env.ToRecord()
	return nil
}

func (r *EnvironmentRepository) FindByID(ctx context.Context, id common.ID) (*environment.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, environment.NotFound(id)
	}
	return environment.FromRecord(rec)
}

// List orders by creation time, then id.
func (r *EnvironmentRepository) List(ctx context.Context, offset, limit int) ([]*environment.Environment, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	recs := make([]envtypes.EnvironmentRecord, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})

	total := int64(len(recs))
	out := []*environment.Environment{}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(recs) {
		return out, total, nil
	}
	end := offset + limit
	if end > len(recs) {
		end = len(recs)
	}
	for _, rec := range recs[offset:end] {
		env, err := environment.FromRecord(rec)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, env)
	}
	return out, total, nil
}

func (r *EnvironmentRepository) Delete(ctx context.Context, id common.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return environment.NotFound(id)
	}
	delete(r.records, id)
	return nil
}

//Personal.AI order the ending
