// Package environment models a stored chemical environment: a pattern kept
// in its labeled SMIRKS form together with its category and a version that
// every mutation bumps.
package environment

import (
	"strings"
	"time"

	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Mutation operations recorded on EnvironmentMutatedEvent. OpCreate names
// the first revision of an environment.
const (
	OpCreate       = "create"
	OpAddAtom      = "add_atom"
	OpRemoveAtom   = "remove_atom"
	OpAddDecorator = "add_decorator"
)

// Environment is the aggregate root. SMIRKS is always the serializer's
// output, so atom positions are stable between reads.
type Environment struct {
	ID        common.ID
	SMIRKS    string
	Category  pattern.Category
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Domain events (not persisted, cleared after publishing)
	events []common.DomainEvent
}

// NewEnvironment parses input and returns a version 1 environment holding
// its canonical SMIRKS. A parse failure is returned unchanged.
func NewEnvironment(input string) (*Environment, error) {
	g, err := pattern.Parse(strings.TrimSpace(input))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	e := &Environment{
		ID:        common.NewID(),
		SMIRKS:    g.SMIRKS(),
		Category:  g.Category(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.events = append(e.events, NewEnvironmentCreatedEvent(e))
	return e, nil
}

// Graph parses the stored SMIRKS. The graph is a private copy; changes reach
// the environment only through Apply.
func (e *Environment) Graph() (*pattern.Graph, error) {
	g, err := pattern.Parse(e.SMIRKS)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternMalformedOutput, "stored environment does not parse").
			WithDetail(e.ID.String())
	}
	return g, nil
}

// Apply stores the state of g after a successful mutation and bumps Version.
func (e *Environment) Apply(g *pattern.Graph, op string) {
	e.SMIRKS = g.SMIRKS()
	e.Category = g.Category()
	e.Version++
	e.UpdatedAt = time.Now().UTC()
	e.events = append(e.events, NewEnvironmentMutatedEvent(e, op))
}

// MarkDeleted records the deletion event.
func (e *Environment) MarkDeleted() {
	e.events = append(e.events, NewEnvironmentDeletedEvent(e))
}

// Events returns the pending domain events.
func (e *Environment) Events() []common.DomainEvent {
	return append([]common.DomainEvent(nil), e.events...)
}

// ClearEvents drops the pending domain events once published.
func (e *Environment) ClearEvents() { e.events = nil }

// ToRecord converts the aggregate to its transfer form.
func (e *Environment) ToRecord() envtypes.EnvironmentRecord {
	return envtypes.EnvironmentRecord{
		ID:        e.ID.String(),
		SMIRKS:    e.SMIRKS,
		Category:  e.Category.String(),
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// Revision snapshots the current state as the archive entry written by op.
func (e *Environment) Revision(op string) envtypes.EnvironmentRevision {
	return envtypes.EnvironmentRevision{
		EnvironmentID: e.ID.String(),
		Version:       e.Version,
		SMIRKS:        e.SMIRKS,
		Category:      e.Category.String(),
		Operation:     op,
		RecordedAt:    e.UpdatedAt,
	}
}

// Document builds the search document: the record plus every distinct
// decorator token of the graph, in first-seen order.
func (e *Environment) Document() (envtypes.EnvironmentDocument, error) {
	g, err := e.Graph()
	if err != nil {
		return envtypes.EnvironmentDocument{}, err
	}
	doc := envtypes.EnvironmentDocument{
		EnvironmentRecord: e.ToRecord(),
		Decorators:        []string{},
		AtomCount:         g.NumAtoms(),
		BondCount:         g.NumBonds(),
	}
	seen := make(map[string]struct{})
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		doc.Decorators = append(doc.Decorators, tok)
	}
	collect := func(ors []pattern.ORType, ands []pattern.Decorator) {
		for _, o := range ors {
			add(o.Primary.String())
			for _, t := range o.Tokens() {
				add(t)
			}
		}
		for _, d := range ands {
			add(d.String())
		}
	}
	for _, a := range g.Atoms() {
		collect(a.ORTypes(), a.ANDTypes())
	}
	for _, b := range g.Bonds() {
		collect(b.ORTypes(), b.ANDTypes())
	}
	return doc, nil
}

// FromRecord rebuilds an aggregate from its stored form. An unknown category
// name is recomputed from the SMIRKS.
func FromRecord(r envtypes.EnvironmentRecord) (*Environment, error) {
	e := &Environment{
		ID:        common.ID(r.ID),
		SMIRKS:    r.SMIRKS,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if c, ok := pattern.ParseCategory(r.Category); ok {
		e.Category = c
		return e, nil
	}
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	e.Category = g.Category()
	return e, nil
}

//Personal.AI order the ending
