package environment

import (
	"context"
	"strings"

	domainEnv "github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Revisions returns every archived state of id, oldest first. Revisions
// outlive the environment, so a deleted id still has its history.
func (s *serviceImpl) Revisions(ctx context.Context, id string) (*envtypes.RevisionList, error) {
	if s.revisions == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "revision archive is disabled")
	}
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	revs, err := s.revisions.List(ctx, cid)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, domainEnv.NotFound(cid)
	}
	return &envtypes.RevisionList{EnvironmentID: cid.String(), Items: revs}, nil
}

func (s *serviceImpl) Revision(ctx context.Context, id string, version int64) (*envtypes.EnvironmentRevision, error) {
	if s.revisions == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "revision archive is disabled")
	}
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, errors.InvalidParam("version must be at least 1")
	}
	return s.revisions.Get(ctx, cid, version)
}

// Search pages through the search index. page and page size default like
// List.
func (s *serviceImpl) Search(ctx context.Context, req envtypes.SearchRequest) (*envtypes.EnvironmentList, error) {
	if s.search == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "search index is disabled")
	}
	q := domainEnv.SearchQuery{Text: strings.TrimSpace(req.Text)}
	if c := strings.TrimSpace(req.Category); c != "" {
		cat, ok := pattern.ParseCategory(c)
		if !ok {
			return nil, errors.InvalidParam("unknown category").WithDetail(c)
		}
		q.Category = cat.String()
	}
	for _, d := range req.Decorators {
		if d = strings.TrimSpace(d); d != "" {
			q.Decorators = append(q.Decorators, d)
		}
	}

	p := common.Pagination{Page: req.Page, PageSize: req.PageSize}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if err := p.Validate(); err != nil {
		return nil, errors.InvalidParam(err.Error())
	}
	q.Offset, q.Limit = p.Offset(), p.PageSize

	recs, total, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []envtypes.EnvironmentRecord{}
	}
	return &envtypes.EnvironmentList{Items: recs, Total: total}, nil
}

// record archives and indexes a freshly stored state. The repository is the
// source of truth, so failures here are logged and never returned.
func (s *serviceImpl) record(ctx context.Context, env *domainEnv.Environment, op string) {
	log := s.logger.WithContext(ctx)
	if s.revisions != nil {
		if err := s.revisions.Append(ctx, env.Revision(op)); err != nil {
			log.WithError(err).Error("Failed to archive environment revision",
				logging.String(logging.FieldEnvironmentID, env.ID.String()),
				logging.Int64("version", env.Version))
		}
	}
	if s.search != nil {
		doc, err := env.Document()
		if err == nil {
			err = s.search.Index(ctx, doc)
		}
		if err != nil {
			log.WithError(err).Error("Failed to index environment",
				logging.String(logging.FieldEnvironmentID, env.ID.String()))
		}
	}
}

func (s *serviceImpl) unindex(ctx context.Context, id common.ID) {
	if s.search == nil {
		return
	}
	if err := s.search.Remove(ctx, id); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to remove environment from index",
			logging.String(logging.FieldEnvironmentID, id.String()))
	}
}

//Personal.AI order the ending
