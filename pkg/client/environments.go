package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// EnvironmentsClient manages stored environments.
type EnvironmentsClient struct {
	client *Client
}

func environmentPath(id string, rest ...string) string {
	p := apiPrefix + "/environments/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (e *EnvironmentsClient) Create(ctx context.Context, pattern string) (*envtypes.EnvironmentRecord, error) {
	if pattern == "" {
		return nil, errors.InvalidParam("pattern is required")
	}
	return call[envtypes.EnvironmentRecord](ctx, e.client, http.MethodPost, apiPrefix+"/environments", envtypes.CreateEnvironmentRequest{Pattern: pattern})
}

func (e *EnvironmentsClient) Get(ctx context.Context, id string) (*envtypes.EnvironmentRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	return call[envtypes.EnvironmentRecord](ctx, e.client, http.MethodGet, environmentPath(id), nil)
}

// List returns one page. Zero page or pageSize lets the server pick.
func (e *EnvironmentsClient) List(ctx context.Context, page, pageSize int) (*envtypes.EnvironmentList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := apiPrefix + "/environments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return call[envtypes.EnvironmentList](ctx, e.client, http.MethodGet, path, nil)
}

func (e *EnvironmentsClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.InvalidParam("environment id is required")
	}
	_, _, _, err := e.client.do(ctx, http.MethodDelete, environmentPath(id), nil)
	return err
}

// AddAtom attaches a new atom and returns its position in the updated SMIRKS.
func (e *EnvironmentsClient) AddAtom(ctx context.Context, id string, req envtypes.AddAtomRequest) (*envtypes.AddAtomResult, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	return call[envtypes.AddAtomResult](ctx, e.client, http.MethodPost, environmentPath(id, "atoms"), req)
}

// RemoveAtom reports Removed=false when the atom may not be removed.
func (e *EnvironmentsClient) RemoveAtom(ctx context.Context, id string, position int) (*envtypes.RemoveAtomResult, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	if position < 0 {
		return nil, errors.InvalidParam("position must be >= 0")
	}
	return call[envtypes.RemoveAtomResult](ctx, e.client, http.MethodDelete, environmentPath(id, "atoms", strconv.Itoa(position)), nil)
}

func (e *EnvironmentsClient) AddDecorator(ctx context.Context, id string, req envtypes.AddDecoratorRequest) (*envtypes.EnvironmentRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	return call[envtypes.EnvironmentRecord](ctx, e.client, http.MethodPost, environmentPath(id, "decorators"), req)
}

// Revisions lists the archived states of id, oldest first.
func (e *EnvironmentsClient) Revisions(ctx context.Context, id string) (*envtypes.RevisionList, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	return call[envtypes.RevisionList](ctx, e.client, http.MethodGet, environmentPath(id, "revisions"), nil)
}

func (e *EnvironmentsClient) Revision(ctx context.Context, id string, version int64) (*envtypes.EnvironmentRevision, error) {
	if id == "" {
		return nil, errors.InvalidParam("environment id is required")
	}
	if version < 1 {
		return nil, errors.InvalidParam("version must be >= 1")
	}
	return call[envtypes.EnvironmentRevision](ctx, e.client, http.MethodGet, environmentPath(id, "revisions", strconv.FormatInt(version, 10)), nil)
}

// Search finds stored environments matching every set field of req.
func (e *EnvironmentsClient) Search(ctx context.Context, req envtypes.SearchRequest) (*envtypes.EnvironmentList, error) {
	q := url.Values{}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	for _, d := range req.Decorators {
		q.Add("decorator", d)
	}
	if req.Text != "" {
		q.Set("text", req.Text)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(req.PageSize))
	}
	path := apiPrefix + "/environments/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return call[envtypes.EnvironmentList](ctx, e.client, http.MethodGet, path, nil)
}

//Personal.AI order the ending
