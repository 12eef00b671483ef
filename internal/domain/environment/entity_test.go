package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
)

func TestNewEnvironment(t *testing.T) {
	e, err := NewEnvironment("  [#6:2](-[#8:1])-[#7:3]\n")
	require.NoError(t, err)
	assert.NoError(t, e.ID.Validate())
	assert.Equal(t, "[#8:1]-[#6:2]-[#7:3]", e.SMIRKS)
	assert.Equal(t, pattern.CategoryAngle, e.Category)
	assert.Equal(t, int64(1), e.Version)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	events := e.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventEnvironmentCreated, events[0].EventType())
	assert.Equal(t, e.ID.String(), events[0].AggregateID())
}

func TestNewEnvironment_ParseError(t *testing.T) {
	_, err := NewEnvironment("[#6:1]-[#6")
	assert.ErrorIs(t, err, pattern.ErrUnbalancedBracket)
	assert.Equal(t, errors.ErrCodePatternParseFailed, errors.GetCode(err))
}

func TestEnvironment_Apply(t *testing.T) {
	e, err := NewEnvironment("[#6:1]-[#6:2]")
	require.NoError(t, err)
	e.ClearEvents()

	g, err := e.Graph()
	require.NoError(t, err)
	a, ok := g.AtomByLabel(2)
	require.True(t, ok)
	_, err = g.AddAtom(a, pattern.AtomSpec{Label: 3})
	require.NoError(t, err)

	e.Apply(g, OpAddAtom)
	assert.Equal(t, "[#6:1]-[#6:2][*:3]", e.SMIRKS)
	assert.Equal(t, pattern.CategoryAngle, e.Category)
	assert.Equal(t, int64(2), e.Version)
	assert.False(t, e.UpdatedAt.Before(e.CreatedAt))

	events := e.Events()
	require.Len(t, events, 1)
	mutated, ok := events[0].(*EnvironmentMutatedEvent)
	require.True(t, ok)
	assert.Equal(t, OpAddAtom, mutated.Operation)
	assert.Equal(t, int64(2), mutated.Version)
}

func TestEnvironment_GraphIsPrivateCopy(t *testing.T) {
	e, err := NewEnvironment("[#6:1]-[#6:2]")
	require.NoError(t, err)
	g, err := e.Graph()
	require.NoError(t, err)
	a, _ := g.AtomByLabel(1)
	require.NoError(t, a.AddORType("#7"))
	assert.Equal(t, "[#6:1]-[#6:2]", e.SMIRKS)
}

func TestEnvironment_GraphCorrupt(t *testing.T) {
	e := &Environment{SMIRKS: "[#6"}
	_, err := e.Graph()
	assert.True(t, errors.IsCode(err, errors.ErrCodePatternMalformedOutput))
}

func TestEnvironment_RecordRoundTrip(t *testing.T) {
	e, err := NewEnvironment("[*:1]~[*:2]~[*:3]~[*:4]")
	require.NoError(t, err)

	r := e.ToRecord()
	assert.Equal(t, "ProperTorsion", r.Category)

	back, err := FromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, e.ID, back.ID)
	assert.Equal(t, e.SMIRKS, back.SMIRKS)
	assert.Equal(t, e.Category, back.Category)
	assert.Equal(t, e.Version, back.Version)
	assert.Empty(t, back.Events())
}

func TestFromRecord_RecomputesUnknownCategory(t *testing.T) {
	e, err := NewEnvironment("[#6:1]-[#6:2]")
	require.NoError(t, err)
	r := e.ToRecord()
	r.Category = ""

	back, err := FromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, pattern.CategoryBond, back.Category)
}

func TestMarkDeleted(t *testing.T) {
	e, err := NewEnvironment("[#6:1]")
	require.NoError(t, err)
	e.ClearEvents()
	e.MarkDeleted()
	require.Len(t, e.Events(), 1)
	assert.Equal(t, EventEnvironmentDeleted, e.Events()[0].EventType())
}

func TestRepositoryErrors(t *testing.T) {
	id := common.NewID()
	assert.True(t, errors.IsNotFound(NotFound(id)))
	assert.True(t, errors.IsCode(VersionConflict(id, 1, 2), errors.ErrCodeEnvironmentVersionConflict))
	assert.Contains(t, VersionConflict(id, 1, 2).Error(), "expected version 1, found 2")
	assert.True(t, errors.IsCode(AlreadyExists(id), errors.ErrCodeConflict))
	assert.True(t, errors.IsNotFound(RevisionNotFound(id, 3)))
	assert.Contains(t, RevisionNotFound(id, 3).Error(), "@3")
}

func TestRevision(t *testing.T) {
	e, err := NewEnvironment("[#6:1]-[#6:2]")
	require.NoError(t, err)
	rev := e.Revision(OpCreate)
	assert.Equal(t, e.ID.String(), rev.EnvironmentID)
	assert.Equal(t, int64(1), rev.Version)
	assert.Equal(t, e.SMIRKS, rev.SMIRKS)
	assert.Equal(t, "Bond", rev.Category)
	assert.Equal(t, OpCreate, rev.Operation)
	assert.Equal(t, e.UpdatedAt, rev.RecordedAt)
}

func TestDocument(t *testing.T) {
	e, err := NewEnvironment("[#6X4:1]-[#6X4,#7:2]~[#8;R]")
	require.NoError(t, err)
	doc, err := e.Document()
	require.NoError(t, err)
	assert.Equal(t, 3, doc.AtomCount)
	assert.Equal(t, 2, doc.BondCount)
	assert.Equal(t, e.SMIRKS, doc.SMIRKS)
	assert.Subset(t, doc.Decorators, []string{"#6", "X4", "#7", "#8", "R", "-", "~"})
	seen := map[string]int{}
	for _, d := range doc.Decorators {
		seen[d]++
	}
	for tok, n := range seen {
		assert.Equal(t, 1, n, tok)
	}
}

func TestSearchQuery_Matches(t *testing.T) {
	e, err := NewEnvironment("[#6X4:1]-[#7:2]")
	require.NoError(t, err)
	doc, err := e.Document()
	require.NoError(t, err)

	assert.True(t, SearchQuery{}.Matches(doc))
	assert.True(t, SearchQuery{Category: "bond"}.Matches(doc))
	assert.False(t, SearchQuery{Category: "Angle"}.Matches(doc))
	assert.True(t, SearchQuery{Decorators: []string{"#6", "X4"}}.Matches(doc))
	assert.False(t, SearchQuery{Decorators: []string{"#6", "X3"}}.Matches(doc))
	assert.True(t, SearchQuery{Text: "#7"}.Matches(doc))
	assert.False(t, SearchQuery{Text: "#8"}.Matches(doc))
}

//Personal.AI order the ending
