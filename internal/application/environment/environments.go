package environment

import (
	"context"
	"fmt"
	"strings"

	domainEnv "github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

func parseID(id string) (common.ID, error) {
	cid := common.ID(strings.TrimSpace(id))
	if err := cid.Validate(); err != nil {
		return "", errors.InvalidParam("invalid environment id").WithDetail(id)
	}
	return cid, nil
}

// Create stores a version 1 environment holding the SMIRKS of input.
func (s *serviceImpl) Create(ctx context.Context, input string) (*envtypes.EnvironmentRecord, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New(errors.ErrCodePatternEmpty, "pattern is empty")
	}
	env, err := domainEnv.NewEnvironment(input)
	if err != nil {
		return nil, patternError(err)
	}
	if err := s.repo.Save(ctx, env); err != nil {
		return nil, err
	}
	s.publish(ctx, env)
	s.record(ctx, env, domainEnv.OpCreate)

	s.logger.WithContext(ctx).Info("Environment created",
		logging.String(logging.FieldEnvironmentID, env.ID.String()),
		logging.String(logging.FieldCategory, env.Category.String()))
	rec := env.ToRecord()
	return &rec, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*envtypes.EnvironmentRecord, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	env, err := s.repo.FindByID(ctx, cid)
	if err != nil {
		return nil, err
	}
	rec := env.ToRecord()
	return &rec, nil
}

// List returns one page. page starts at 1; a zero pageSize means
// DefaultPageSize.
func (s *serviceImpl) List(ctx context.Context, page, pageSize int) (*envtypes.EnvironmentList, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	p := common.Pagination{Page: page, PageSize: pageSize}
	if err := p.Validate(); err != nil {
		return nil, errors.InvalidParam(err.Error())
	}
	envs, total, err := s.repo.List(ctx, p.Offset(), p.PageSize)
	if err != nil {
		return nil, err
	}
	out := &envtypes.EnvironmentList{Items: make([]envtypes.EnvironmentRecord, 0, len(envs)), Total: total}
	for _, e := range envs {
		out.Items = append(out.Items, e.ToRecord())
	}
	return out, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	cid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, cid, func() error {
		env, err := s.repo.FindByID(ctx, cid)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, cid); err != nil {
			return err
		}
		env.MarkDeleted()
		s.publish(ctx, env)
		s.unindex(ctx, cid)
		s.logger.WithContext(ctx).Info("Environment deleted", logging.String(logging.FieldEnvironmentID, cid.String()))
		return nil
	})
}

// AddAtom attaches a new atom to the atom at req.Parent and reports where
// it appears in the updated SMIRKS.
func (s *serviceImpl) AddAtom(ctx context.Context, id string, req envtypes.AddAtomRequest) (*envtypes.AddAtomResult, error) {
	var out *envtypes.AddAtomResult
	err := s.mutate(ctx, id, domainEnv.OpAddAtom, func(g *pattern.Graph) (bool, error) {
		parent, ok := g.AtomAt(req.Parent)
		if !ok {
			return false, componentNotFound(pattern.ComponentAtom, fmt.Sprintf("position %d", req.Parent))
		}
		spec, err := atomSpec(req)
		if err != nil {
			return false, patternError(err)
		}
		a, err := g.AddAtom(parent, spec)
		if err != nil {
			return false, patternError(err)
		}
		out = &envtypes.AddAtomResult{Position: g.SerializedPosition(a)}
		return true, nil
	}, func(rec envtypes.EnvironmentRecord) {
		out.Record = rec
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveAtom removes the unlabeled leaf at position. Any other atom is left
// in place and Removed is false; that is not an error.
func (s *serviceImpl) RemoveAtom(ctx context.Context, id string, position int) (*envtypes.RemoveAtomResult, error) {
	out := &envtypes.RemoveAtomResult{}
	err := s.mutate(ctx, id, domainEnv.OpRemoveAtom, func(g *pattern.Graph) (bool, error) {
		a, ok := g.AtomAt(position)
		if !ok {
			return false, componentNotFound(pattern.ComponentAtom, fmt.Sprintf("position %d", position))
		}
		out.Removed = g.RemoveAtom(a)
		if !out.Removed {
			s.logger.WithContext(ctx).Info("Atom removal rejected",
				logging.String(logging.FieldEnvironmentID, id),
				logging.Int("position", position),
				logging.Int("label", a.Label()))
		}
		return out.Removed, nil
	}, func(rec envtypes.EnvironmentRecord) {
		out.Record = rec
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddDecorator appends an OR alternative or an AND term to one atom or
// bond. Exactly one of req.ORType and req.ANDType must be set.
func (s *serviceImpl) AddDecorator(ctx context.Context, id string, req envtypes.AddDecoratorRequest) (*envtypes.EnvironmentRecord, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if (req.ORType == nil) == (strings.TrimSpace(req.ANDType) == "") {
		return nil, errors.InvalidParam("exactly one of or_type and and_type is required")
	}

	var out envtypes.EnvironmentRecord
	err = s.mutate(ctx, id, domainEnv.OpAddDecorator, func(g *pattern.Graph) (bool, error) {
		var c pattern.Component
		if kind == pattern.ComponentBond {
			bonds := g.Bonds()
			if req.Position < 0 || req.Position >= len(bonds) {
				return false, componentNotFound(kind, fmt.Sprintf("position %d", req.Position))
			}
			c = bonds[req.Position]
		} else {
			a, ok := g.AtomAt(req.Position)
			if !ok {
				return false, componentNotFound(kind, fmt.Sprintf("position %d", req.Position))
			}
			c = a
		}
		var err error
		if req.ORType != nil {
			err = c.AddORType(req.ORType.Primary, req.ORType.Decorators...)
		} else {
			err = c.AddANDType(strings.TrimSpace(req.ANDType))
		}
		if err != nil {
			return false, patternError(err)
		}
		return true, nil
	}, func(rec envtypes.EnvironmentRecord) {
		out = rec
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// mutate loads the environment under its lock, applies edit to a private
// graph and, when edit reports a change, stores the new SMIRKS with the next
// version and publishes the mutation. done receives the resulting record
// whether or not anything changed.
func (s *serviceImpl) mutate(ctx context.Context, id, op string, edit func(*pattern.Graph) (bool, error), done func(envtypes.EnvironmentRecord)) (err error) {
	defer func() { prometheus.RecordMutation(s.metrics, op, err) }()

	cid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, cid, func() error {
		env, err := s.repo.FindByID(ctx, cid)
		if err != nil {
			return err
		}
		g, err := env.Graph()
		if err != nil {
			return err
		}
		changed, err := edit(g)
		if err != nil {
			return err
		}
		if changed {
			env.Apply(g, op)
			if err := s.repo.Save(ctx, env); err != nil {
				return err
			}
			s.publish(ctx, env)
			s.record(ctx, env, op)
			s.logger.WithContext(ctx).Info("Environment mutated",
				logging.String(logging.FieldEnvironmentID, cid.String()),
				logging.String("operation", op),
				logging.Int64("version", env.Version))
		}
		done(env.ToRecord())
		return nil
	})
}

func (s *serviceImpl) withLock(ctx context.Context, id common.ID, fn func() error) error {
	release, err := s.locker.Acquire(ctx, id.String())
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to release environment lock",
				logging.String(logging.FieldEnvironmentID, id.String()))
		}
	}()
	return fn()
}

// publish hands pending events to the bus. The change is already stored, so
// a publish failure is logged rather than returned.
func (s *serviceImpl) publish(ctx context.Context, env *domainEnv.Environment) {
	events := env.Events()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish environment events",
			logging.String(logging.FieldEnvironmentID, env.ID.String()),
			logging.Int("events", len(events)))
	}
	env.ClearEvents()
}

//Personal.AI order the ending
