package environment

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Repository defines the persistence contract for Environment aggregates.
type Repository interface {
	// Save inserts env when its Version is 1 and otherwise replaces the stored
	// copy whose version is exactly env.Version-1.
	// Returns ErrCodeConflict when a version 1 environment already exists and
	// ErrCodeEnvironmentVersionConflict when the stored version differs.
	Save(ctx context.Context, env *Environment) error

	// FindByID returns ErrCodeEnvironmentNotFound for an unknown id.
	FindByID(ctx context.Context, id common.ID) (*Environment, error)

	// List returns one page ordered by creation time, plus the total count.
	List(ctx context.Context, offset, limit int) ([]*Environment, int64, error)

	// Delete returns ErrCodeEnvironmentNotFound for an unknown id.
	Delete(ctx context.Context, id common.ID) error
}

// RevisionStore archives every stored state of an environment. Entries are
// immutable; Append with an existing version overwrites nothing and returns
// nil.
type RevisionStore interface {
	Append(ctx context.Context, rev envtypes.EnvironmentRevision) error

	// List returns the revisions of id ordered by version. An unknown id
	// yields an empty list.
	List(ctx context.Context, id common.ID) ([]envtypes.EnvironmentRevision, error)

	// Get returns ErrCodeRevisionNotFound for an unknown id or version.
	Get(ctx context.Context, id common.ID, version int64) (*envtypes.EnvironmentRevision, error)
}

// SearchIndex keeps a searchable copy of every stored environment.
type SearchIndex interface {
	Index(ctx context.Context, doc envtypes.EnvironmentDocument) error
	Remove(ctx context.Context, id common.ID) error

	// Search returns one page of matching records ordered by creation time,
	// plus the total number of matches.
	Search(ctx context.Context, q SearchQuery) ([]envtypes.EnvironmentRecord, int64, error)
}

// SearchQuery is a validated SearchRequest with the page resolved to an
// offset.
type SearchQuery struct {
	Category   string
	Decorators []string
	Text       string
	Offset     int
	Limit      int
}

// Matches reports whether doc satisfies every set filter of q.
func (q SearchQuery) Matches(doc envtypes.EnvironmentDocument) bool {
	if q.Category != "" && !strings.EqualFold(q.Category, doc.Category) {
		return false
	}
	if q.Text != "" && !strings.Contains(doc.SMIRKS, q.Text) {
		return false
	}
	for _, want := range q.Decorators {
		found := false
		for _, have := range doc.Decorators {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// EventPublisher delivers domain events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, events ...common.DomainEvent) error
}

// NotFound is the error every Repository returns for an unknown id.
func NotFound(id common.ID) *errors.AppError {
	return errors.New(errors.ErrCodeEnvironmentNotFound, "environment not found").WithDetail(id.String())
}

// VersionConflict is returned when the stored version is not the one a
// Save expected to replace.
func VersionConflict(id common.ID, expected, actual int64) *errors.AppError {
	return errors.New(errors.ErrCodeEnvironmentVersionConflict, "environment was modified concurrently").
		WithDetail(fmt.Sprintf("%s: expected version %d, found %d", id, expected, actual))
}

// RevisionNotFound is returned for an unknown environment revision.
func RevisionNotFound(id common.ID, version int64) *errors.AppError {
	return errors.New(errors.ErrCodeRevisionNotFound, "environment revision not found").
		WithDetail(fmt.Sprintf("%s@%d", id, version))
}

// AlreadyExists is returned when a version 1 Save finds the id taken.
func AlreadyExists(id common.ID) *errors.AppError {
	return errors.New(errors.ErrCodeConflict, "environment already exists").WithDetail(id.String())
}

//Personal.AI order the ending
