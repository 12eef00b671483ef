package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAtomExpression(t *testing.T) {
	ors, ands, err := ParseAtomExpression("#6X4,#7;R;!a")
	require.NoError(t, err)
	require.Len(t, ors, 2)
	assert.Equal(t, KindAtomicNumber, ors[0].Primary.Kind)
	assert.Equal(t, KindConnectivity, ors[0].Decorators[0].Kind)
	assert.Equal(t, "#7", ors[1].String())
	require.Len(t, ands, 2)
	assert.Equal(t, KindRingMembership, ands[0].Kind)
	assert.True(t, ands[1].Negated)
	assert.Equal(t, "a", ands[1].Token)
}

func TestParseAtomExpression_Primitives(t *testing.T) {
	cases := map[string]DecoratorKind{
		"*":         KindWildcard,
		"A":         KindAliphatic,
		"D3":        KindDegree,
		"H":         KindTotalHydrogens,
		"h1":        KindImplicitHydrogens,
		"x2":        KindRingBondCount,
		"r6":        KindRingSize,
		"v4":        KindValence,
		"+1":        KindCharge,
		"--":        KindCharge,
		"@@":        KindChirality,
		"@2":        KindChirality,
		"^3":        KindHybridization,
		"$(*~[#1])": KindRecursive,
	}
	for expr, kind := range cases {
		ors, _, err := ParseAtomExpression(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, kind, ors[0].Primary.Kind, expr)
		assert.Equal(t, expr, ors[0].String())
	}
}

func TestParseAtomExpression_Invalid(t *testing.T) {
	for _, expr := range []string{"m", "#", "^", "$(", "#6;", "Cl"} {
		_, _, err := ParseAtomExpression(expr)
		var de *DecoratorError
		assert.ErrorAs(t, err, &de, expr)
	}
}

func TestParseBondExpression(t *testing.T) {
	ors, ands, err := ParseBondExpression("")
	require.NoError(t, err)
	assert.Nil(t, ors)
	assert.Nil(t, ands)

	ors, ands, err = ParseBondExpression("=,:;@")
	require.NoError(t, err)
	assert.Len(t, ors, 2)
	assert.Equal(t, []string{"@"}, tokens(ands))

	_, _, err = ParseBondExpression("=x")
	assert.ErrorIs(t, err, ErrUnknownDecorator)
}

func TestNewAtomANDTypes(t *testing.T) {
	decs, err := NewAtomANDTypes("X4H0")
	require.NoError(t, err)
	assert.Equal(t, []string{"X4", "H0"}, tokens(decs))

	decs, err = NewAtomANDTypes("X3,X4")
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, KindCompound, decs[0].Kind)

	_, err = NewAtomANDTypes("")
	assert.ErrorIs(t, err, ErrEmptyExpression)
}

func TestDecoratorKind(t *testing.T) {
	assert.True(t, KindRingBond.IsBond())
	assert.False(t, KindChirality.IsBond())
	assert.False(t, KindCompound.IsBond())
	assert.Equal(t, "connectivity", KindConnectivity.String())
	assert.Equal(t, "unknown", DecoratorKind(200).String())
}

func TestCategory_Names(t *testing.T) {
	assert.Equal(t, "ImproperTorsion", CategoryImproperTorsion.String())
	assert.Equal(t, "Undefined", Category(99).String())

	c, ok := ParseCategory("propertorsion")
	assert.True(t, ok)
	assert.Equal(t, CategoryProperTorsion, c)

	_, ok = ParseCategory("dihedral")
	assert.False(t, ok)
}

//Personal.AI order the ending
