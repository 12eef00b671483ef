package pattern

import (
	"sort"
	"strconv"
	"strings"
)

// ComponentKind chooses between atoms and bonds.
type ComponentKind int

const (
	ComponentAtom ComponentKind = iota
	ComponentBond
)

func (k ComponentKind) String() string {
	if k == ComponentBond {
		return "bond"
	}
	return "atom"
}

// ParseComponentKind accepts "atom"/"atoms" and "bond"/"bonds".
func ParseComponentKind(s string) (ComponentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "atom", "atoms":
		return ComponentAtom, true
	case "bond", "bonds":
		return ComponentBond, true
	}
	return ComponentAtom, false
}

// Role places a component relative to the labeled atoms.
type Role int

const (
	RoleIndexed Role = iota
	RoleAlpha
	RoleBeta
	RoleDistant
)

func (r Role) String() string {
	switch r {
	case RoleIndexed:
		return "Indexed"
	case RoleAlpha:
		return "Alpha"
	case RoleBeta:
		return "Beta"
	}
	return "Distant"
}

// ─────────────────────────────────────────────────────────────────────────────
// Descriptors
// ─────────────────────────────────────────────────────────────────────────────

type descriptorKind int

const (
	descDefault descriptorKind = iota
	descLabel
	descAll
	descIndexed
	descUnindexed
	descAlpha
	descBeta
	descUnknown
)

// Descriptor names which component(s) a selection should resolve to.
type Descriptor struct {
	kind  descriptorKind
	label int
	raw   string
}

var (
	Default   = Descriptor{kind: descDefault}
	All       = Descriptor{kind: descAll}
	Indexed   = Descriptor{kind: descIndexed}
	Unindexed = Descriptor{kind: descUnindexed}
	Alpha     = Descriptor{kind: descAlpha}
	Beta      = Descriptor{kind: descBeta}
)

// ByLabel selects the component carrying label n.
func ByLabel(n int) Descriptor { return Descriptor{kind: descLabel, label: n} }

var descriptorNames = map[string]Descriptor{
	"":          Default,
	"none":      Default,
	"all":       All,
	"indexed":   Indexed,
	"unindexed": Unindexed,
	"alpha":     Alpha,
	"beta":      Beta,
}

// ParseDescriptor never fails: integers become label descriptors and
// unrecognised words become a descriptor that selects nothing.
func ParseDescriptor(s string) Descriptor {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return ByLabel(n)
	}
	if d, ok := descriptorNames[strings.ToLower(s)]; ok {
		return d
	}
	return Descriptor{kind: descUnknown, raw: s}
}

// Known reports whether the descriptor can ever match.
func (d Descriptor) Known() bool { return d.kind != descUnknown }

func (d Descriptor) String() string {
	switch d.kind {
	case descDefault:
		return "default"
	case descLabel:
		return strconv.Itoa(d.label)
	case descAll:
		return "all"
	case descIndexed:
		return "Indexed"
	case descUnindexed:
		return "Unindexed"
	case descAlpha:
		return "Alpha"
	case descBeta:
		return "Beta"
	}
	return d.raw
}

// ─────────────────────────────────────────────────────────────────────────────
// Roles
// ─────────────────────────────────────────────────────────────────────────────

// distances runs a multi-source BFS from every labeled atom.
func (g *Graph) distances() map[AtomID]int {
	dist := make(map[AtomID]int, len(g.atoms))
	var queue []AtomID
	for _, id := range g.atomOrder {
		if g.atoms[id].IsLabeled() {
			dist[id] = 0
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, bid := range g.adjacency[cur] {
			next := g.bonds[bid].Other(cur)
			if _, seen := dist[next]; !seen {
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

func roleAt(d int, ok bool) Role {
	switch {
	case ok && d == 1:
		return RoleAlpha
	case ok && d == 2:
		return RoleBeta
	}
	return RoleDistant
}

func (g *Graph) atomRole(a *Atom, dist map[AtomID]int) Role {
	if a.IsLabeled() {
		return RoleIndexed
	}
	d, ok := dist[a.id]
	return roleAt(d, ok)
}

// A bond takes the role of its farther endpoint; a bond between two labeled
// atoms is indexed.
func (g *Graph) bondRole(b *Bond, dist map[AtomID]int) Role {
	x, y := g.atoms[b.a], g.atoms[b.b]
	if x.IsLabeled() && y.IsLabeled() {
		return RoleIndexed
	}
	dx, okx := dist[b.a]
	dy, oky := dist[b.b]
	if !okx || !oky {
		return RoleDistant
	}
	if dy > dx {
		dx = dy
	}
	return roleAt(dx, true)
}

// AtomRole classifies a relative to the labeled atoms.
func (g *Graph) AtomRole(a *Atom) Role { return g.atomRole(a, g.distances()) }

// BondRole classifies b relative to the labeled atoms.
func (g *Graph) BondRole(b *Bond) Role { return g.bondRole(b, g.distances()) }

func (g *Graph) roleOf(c Component) (Role, bool) {
	switch v := c.(type) {
	case *Atom:
		if g.Contains(v) {
			return g.AtomRole(v), true
		}
	case *Bond:
		if g.containsBond(v) {
			return g.BondRole(v), true
		}
	}
	return RoleDistant, false
}

func (g *Graph) IsIndexed(c Component) bool {
	r, ok := g.roleOf(c)
	return ok && r == RoleIndexed
}

func (g *Graph) IsUnindexed(c Component) bool {
	r, ok := g.roleOf(c)
	return ok && r != RoleIndexed
}

func (g *Graph) IsAlpha(c Component) bool {
	r, ok := g.roleOf(c)
	return ok && r == RoleAlpha
}

func (g *Graph) IsBeta(c Component) bool {
	r, ok := g.roleOf(c)
	return ok && r == RoleBeta
}

func matchesRole(d Descriptor, r Role) bool {
	switch d.kind {
	case descAll:
		return true
	case descIndexed:
		return r == RoleIndexed
	case descUnindexed:
		return r != RoleIndexed
	case descAlpha:
		return r == RoleAlpha
	case descBeta:
		return r == RoleBeta
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────────────────────

// AtomsMatching returns every atom the descriptor resolves to, in insertion
// order. Default resolves like All.
func (g *Graph) AtomsMatching(d Descriptor) []*Atom {
	var out []*Atom
	if d.kind == descLabel {
		if a, ok := g.AtomByLabel(d.label); ok && d.label > 0 {
			out = append(out, a)
		}
		return out
	}
	if d.kind == descDefault {
		d = All
	}
	dist := g.distances()
	for _, a := range g.Atoms() {
		if matchesRole(d, g.atomRole(a, dist)) {
			out = append(out, a)
		}
	}
	return out
}

// BondsMatching returns every bond the descriptor resolves to, in insertion
// order. Default resolves like All.
func (g *Graph) BondsMatching(d Descriptor) []*Bond {
	var out []*Bond
	if d.kind == descLabel {
		for _, b := range g.Bonds() {
			if d.label > 0 && g.BondLabel(b) == d.label {
				out = append(out, b)
			}
		}
		return out
	}
	if d.kind == descDefault {
		d = All
	}
	dist := g.distances()
	for _, b := range g.Bonds() {
		if matchesRole(d, g.bondRole(b, dist)) {
			out = append(out, b)
		}
	}
	return out
}

// SelectAtom resolves a descriptor to one atom. Default picks the
// lowest-labeled atom, or the first atom when nothing is labeled.
func (g *Graph) SelectAtom(d Descriptor) (*Atom, bool) {
	if d.kind == descDefault {
		if labeled := g.LabeledAtoms(); len(labeled) > 0 {
			return labeled[0], true
		}
		return g.AtomAt(0)
	}
	if m := g.AtomsMatching(d); len(m) > 0 {
		return m[0], true
	}
	return nil, false
}

// SelectBond resolves a descriptor to one bond. Default picks the indexed
// bond with the lowest label, or the first bond.
func (g *Graph) SelectBond(d Descriptor) (*Bond, bool) {
	if d.kind == descDefault {
		indexed := g.BondsMatching(Indexed)
		if len(indexed) > 0 {
			sort.SliceStable(indexed, func(i, j int) bool { return g.BondLabel(indexed[i]) < g.BondLabel(indexed[j]) })
			return indexed[0], true
		}
		if g.NumBonds() == 0 {
			return nil, false
		}
		return g.bonds[g.bondOrder[0]], true
	}
	if m := g.BondsMatching(d); len(m) > 0 {
		return m[0], true
	}
	return nil, false
}

// ComponentList returns every atom or bond matching the descriptor.
func (g *Graph) ComponentList(kind ComponentKind, d Descriptor) []Component {
	var out []Component
	if kind == ComponentBond {
		for _, b := range g.BondsMatching(d) {
			out = append(out, b)
		}
		return out
	}
	for _, a := range g.AtomsMatching(d) {
		out = append(out, a)
	}
	return out
}

//Personal.AI order the ending
