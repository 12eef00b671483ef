package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anglePattern = "[#6X3;R1:1]=,:;@[#6X3;R1;a:2](-,:;@[#7])-;!@[#8X2H1;!R:3]"

func TestSelect_ByDescriptor(t *testing.T) {
	cases := []struct {
		descriptor string
		missing    bool
	}{
		{"4", true},
		{"Beta", true},
		{"2", false},
		{"Indexed", false},
		{"Unindexed", false},
		{"Alpha", false},
		{"", false},
		{"none", false},
		{"bogus", true},
	}

	for _, tc := range cases {
		t.Run(tc.descriptor, func(t *testing.T) {
			g := MustParse(anglePattern)
			d := ParseDescriptor(tc.descriptor)

			atom, okAtom := g.SelectAtom(d)
			bond, okBond := g.SelectBond(d)

			assert.Equal(t, tc.missing, !okAtom)
			assert.Equal(t, tc.missing, !okBond)
			assert.Equal(t, tc.missing, atom == nil)
			assert.Equal(t, tc.missing, bond == nil)
		})
	}
}

func TestSelect_Default(t *testing.T) {
	g := MustParse(anglePattern)

	a, ok := g.SelectAtom(Default)
	require.True(t, ok)
	assert.Equal(t, 1, a.Label())

	b, ok := g.SelectBond(Default)
	require.True(t, ok)
	assert.Equal(t, 1, g.BondLabel(b))

	unlabeled := MustParse("[#8]-[#6]=[#7]")
	first, ok := unlabeled.SelectAtom(Default)
	require.True(t, ok)
	assert.Equal(t, "#8", first.Expression())

	fb, ok := unlabeled.SelectBond(Default)
	require.True(t, ok)
	assert.Equal(t, "-", fb.Expression())

	single := MustParse("[#6]")
	_, ok = single.SelectBond(Default)
	assert.False(t, ok)
}

func TestSelect_ByLabel(t *testing.T) {
	g := MustParse(anglePattern)

	a, ok := g.SelectAtom(ByLabel(3))
	require.True(t, ok)
	assert.Equal(t, "#8X2H1;!R", a.Expression())

	b, ok := g.SelectBond(ByLabel(2))
	require.True(t, ok)
	assert.Equal(t, "-;!@", b.Expression())

	_, ok = g.SelectAtom(ByLabel(0))
	assert.False(t, ok)
	_, ok = g.SelectBond(ByLabel(3))
	assert.False(t, ok)
}

func TestComponentList_Counts(t *testing.T) {
	cases := []struct {
		kind       ComponentKind
		descriptor string
		want       int
	}{
		{ComponentAtom, "all", 4},
		{ComponentAtom, "Indexed", 3},
		{ComponentAtom, "Unindexed", 1},
		{ComponentAtom, "Alpha", 1},
		{ComponentAtom, "Beta", 0},
		{ComponentAtom, "", 4},
		{ComponentAtom, "unknown", 0},
		{ComponentBond, "all", 3},
		{ComponentBond, "Indexed", 2},
		{ComponentBond, "Unindexed", 1},
		{ComponentBond, "Alpha", 1},
		{ComponentBond, "Beta", 0},
		{ComponentBond, "1", 1},
	}

	g := MustParse(anglePattern)
	for _, tc := range cases {
		t.Run(tc.kind.String()+"/"+tc.descriptor, func(t *testing.T) {
			assert.Len(t, g.ComponentList(tc.kind, ParseDescriptor(tc.descriptor)), tc.want)
		})
	}
}

func TestSelect_RolePredicates(t *testing.T) {
	g := MustParse(anglePattern)

	atom2, _ := g.SelectAtom(ByLabel(2))
	bond1, _ := g.SelectBond(ByLabel(1))
	alphaAtom, ok := g.SelectAtom(Alpha)
	require.True(t, ok)
	betaAtom, err := g.AddAtom(alphaAtom, AtomSpec{})
	require.NoError(t, err)
	alphaBond, ok := g.BondBetween(atom2, alphaAtom)
	require.True(t, ok)
	betaBond, ok := g.BondBetween(alphaAtom, betaAtom)
	require.True(t, ok)

	for _, c := range []Component{atom2, bond1} {
		assert.False(t, g.IsAlpha(c))
		assert.False(t, g.IsBeta(c))
		assert.True(t, g.IsIndexed(c))
		assert.False(t, g.IsUnindexed(c))
	}
	for _, c := range []Component{alphaAtom, alphaBond} {
		assert.True(t, g.IsAlpha(c))
		assert.False(t, g.IsIndexed(c))
		assert.True(t, g.IsUnindexed(c))
	}
	for _, c := range []Component{betaAtom, betaBond} {
		assert.True(t, g.IsBeta(c))
	}

	assert.Equal(t, RoleBeta, g.AtomRole(betaAtom))
	assert.Equal(t, RoleAlpha, g.BondRole(alphaBond))

	atom1, _ := g.SelectAtom(ByLabel(1))
	_, ok = g.BondBetween(betaAtom, atom1)
	assert.False(t, ok)
}

func TestSelect_ForeignComponents(t *testing.T) {
	g := MustParse(anglePattern)
	other := MustParse(anglePattern)
	foreign, _ := other.SelectAtom(ByLabel(1))
	foreignBond, _ := other.SelectBond(ByLabel(1))

	assert.False(t, g.IsIndexed(foreign))
	assert.False(t, g.IsUnindexed(foreign))
	assert.False(t, g.IsIndexed(foreignBond))

	mine, _ := g.SelectAtom(ByLabel(1))
	_, ok := g.BondBetween(mine, foreign)
	assert.False(t, ok)
}

func TestSelect_DistantWithoutLabels(t *testing.T) {
	g := MustParse("[#6]-[#8]")
	for _, a := range g.Atoms() {
		assert.Equal(t, RoleDistant, g.AtomRole(a))
		assert.True(t, g.IsUnindexed(a))
	}
	assert.Len(t, g.AtomsMatching(Alpha), 0)
	assert.Len(t, g.BondsMatching(Unindexed), 1)
}

func TestValenceAndBondOrder(t *testing.T) {
	g := MustParse(anglePattern)
	atom1, _ := g.SelectAtom(ByLabel(1))
	atom2, _ := g.SelectAtom(ByLabel(2))
	bond1, _ := g.SelectBond(ByLabel(1))

	assert.Equal(t, 3, g.Valence(atom2))
	assert.Equal(t, 1, g.Valence(atom1))
	assert.Equal(t, 1.5, bond1.Order())
	assert.Equal(t, 3.5, g.BondOrder(atom2))

	tri := MustParse("[#6:1]#[#7:2]")
	tb, _ := tri.SelectBond(Default)
	assert.Equal(t, 3.0, tb.Order())

	neg := MustParse("[#6:1]!=[#7:2]")
	nb, _ := neg.SelectBond(Default)
	assert.Equal(t, 1.0, nb.Order())
}

func TestBondLabel_MaxMinusOne(t *testing.T) {
	g := MustParse("[#6:1]-[#6:3]")
	b, _ := g.SelectBond(Default)
	assert.Equal(t, 2, g.BondLabel(b))

	mixed := MustParse("[#6:1]-[#6]")
	mb, _ := mixed.SelectBond(Default)
	assert.Equal(t, 0, mixed.BondLabel(mb))
}

func TestParseDescriptor(t *testing.T) {
	assert.Equal(t, Default, ParseDescriptor(""))
	assert.Equal(t, Default, ParseDescriptor("None"))
	assert.Equal(t, Indexed, ParseDescriptor("indexed"))
	assert.Equal(t, Alpha, ParseDescriptor(" ALPHA "))
	assert.Equal(t, ByLabel(3), ParseDescriptor("3"))
	assert.Equal(t, "3", ParseDescriptor("3").String())

	unknown := ParseDescriptor("gamma")
	assert.False(t, unknown.Known())
	assert.Equal(t, "gamma", unknown.String())
}

func TestParseComponentKind(t *testing.T) {
	k, ok := ParseComponentKind("Bonds")
	assert.True(t, ok)
	assert.Equal(t, ComponentBond, k)

	_, ok = ParseComponentKind("ring")
	assert.False(t, ok)
}

//Personal.AI order the ending
