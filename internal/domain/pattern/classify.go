package pattern

import "strings"

// Category is the structural class implied by a pattern's positional labels.
type Category int

const (
	CategoryUndefined Category = iota
	CategoryAtom
	CategoryBond
	CategoryAngle
	CategoryProperTorsion
	CategoryImproperTorsion
)

var categoryNames = [...]string{
	CategoryUndefined:       "Undefined",
	CategoryAtom:            "Atom",
	CategoryBond:            "Bond",
	CategoryAngle:           "Angle",
	CategoryProperTorsion:   "ProperTorsion",
	CategoryImproperTorsion: "ImproperTorsion",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[CategoryUndefined]
	}
	return categoryNames[c]
}

// ParseCategory maps a name back to its Category, ignoring case.
func ParseCategory(s string) (Category, bool) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, s) {
			return Category(i), true
		}
	}
	return CategoryUndefined, false
}

// topology lists the bonds required between labels 1..n. Extra bonds among
// the labeled atoms are tolerated, so a three-membered ring still reads as an
// angle. Entries are tried in order; the path form wins over the star.
type topology struct {
	labels   int
	required [][2]int
	category Category
}

var topologies = []topology{
	{labels: 1, category: CategoryAtom},
	{labels: 2, required: [][2]int{{1, 2}}, category: CategoryBond},
	{labels: 3, required: [][2]int{{1, 2}, {2, 3}}, category: CategoryAngle},
	{labels: 4, required: [][2]int{{1, 2}, {2, 3}, {3, 4}}, category: CategoryProperTorsion},
	{labels: 4, required: [][2]int{{1, 2}, {2, 3}, {2, 4}}, category: CategoryImproperTorsion},
}

// Category classifies the graph from its label topology. Labels must be
// exactly 1..n; anything unrecognised is CategoryUndefined. The result is
// recomputed on every call.
func (g *Graph) Category() Category {
	labeled := g.LabeledAtoms()
	for i, a := range labeled {
		if a.label != i+1 {
			return CategoryUndefined
		}
	}
	for _, t := range topologies {
		if t.labels != len(labeled) {
			continue
		}
		if g.hasBonds(labeled, t.required) {
			return t.category
		}
	}
	return CategoryUndefined
}

func (g *Graph) hasBonds(labeled []*Atom, pairs [][2]int) bool {
	for _, p := range pairs {
		if _, ok := g.bondBetweenIDs(labeled[p[0]-1].id, labeled[p[1]-1].id); !ok {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
