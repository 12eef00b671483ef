package pattern

import (
	"sort"
	"strconv"
	"strings"
)

// AtomID identifies an atom inside its Graph. IDs are never reused.
type AtomID int

// BondID identifies a bond inside its Graph. IDs are never reused.
type BondID int

// Component is the behaviour shared by atoms and bonds.
type Component interface {
	ORTypes() []ORType
	ANDTypes() []Decorator
	AddORType(primary string, decorators ...string) error
	AddANDType(term string) error
	Expression() string
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a node of the pattern. A zero label means unlabeled.
type Atom struct {
	id       AtomID
	label    int
	orTypes  []ORType
	andTypes []Decorator
}

func (a *Atom) ID() AtomID        { return a.id }
func (a *Atom) Label() int        { return a.label }
func (a *Atom) IsLabeled() bool   { return a.label > 0 }
func (a *Atom) ORTypes() []ORType { return cloneORTypes(a.orTypes) }

func (a *Atom) ANDTypes() []Decorator { return append([]Decorator(nil), a.andTypes...) }

// AddORType appends an alternative such as ("#7", "X3") to the OR-group.
func (a *Atom) AddORType(primary string, decorators ...string) error {
	o, err := NewAtomORType(primary, decorators...)
	if err != nil {
		return err
	}
	a.orTypes = append(a.orTypes, o)
	return nil
}

// AddANDType appends one AND term. Duplicates are kept.
func (a *Atom) AddANDType(term string) error {
	decs, err := NewAtomANDTypes(term)
	if err != nil {
		return err
	}
	a.andTypes = append(a.andTypes, decs...)
	return nil
}

// HasANDType reports whether the rendered token is in the AND-set.
func (a *Atom) HasANDType(token string) bool { return containsToken(a.andTypes, token) }

// Expression renders the bracket body without the label. An empty OR-group
// renders as the wildcard.
func (a *Atom) Expression() string {
	var sb strings.Builder
	if len(a.orTypes) == 0 {
		sb.WriteByte('*')
	}
	for i, o := range a.orTypes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(o.String())
	}
	for _, d := range a.andTypes {
		sb.WriteByte(';')
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (a *Atom) render(includeLabels bool) string {
	s := "[" + a.Expression()
	if includeLabels && a.IsLabeled() {
		s += ":" + strconv.Itoa(a.label)
	}
	return s + "]"
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond
// ─────────────────────────────────────────────────────────────────────────────

// Bond joins two atoms. An empty OR-group and AND-set is the implicit default
// bond, which means single or aromatic.
type Bond struct {
	id          BondID
	a, b        AtomID
	orTypes     []ORType
	andTypes    []Decorator
	ringClosure bool
}

func (b *Bond) ID() BondID                   { return b.id }
func (b *Bond) Endpoints() (AtomID, AtomID)  { return b.a, b.b }
func (b *Bond) IsRingClosure() bool          { return b.ringClosure }
func (b *Bond) IsImplicit() bool             { return len(b.orTypes) == 0 && len(b.andTypes) == 0 }
func (b *Bond) ORTypes() []ORType            { return cloneORTypes(b.orTypes) }
func (b *Bond) ANDTypes() []Decorator        { return append([]Decorator(nil), b.andTypes...) }
func (b *Bond) HasANDType(token string) bool { return containsToken(b.andTypes, token) }
func (b *Bond) connects(x, y AtomID) bool    { return (b.a == x && b.b == y) || (b.a == y && b.b == x) }

// Other returns the endpoint opposite to id.
func (b *Bond) Other(id AtomID) AtomID {
	if b.a == id {
		return b.b
	}
	return b.a
}

// AddORType appends a bond alternative such as ("-").
func (b *Bond) AddORType(primary string, decorators ...string) error {
	o, err := NewBondORType(primary, decorators...)
	if err != nil {
		return err
	}
	b.orTypes = append(b.orTypes, o)
	return nil
}

// AddANDType appends one bond AND term such as "@" or "!@".
func (b *Bond) AddANDType(term string) error {
	decs, err := NewBondANDTypes(term)
	if err != nil {
		return err
	}
	b.andTypes = append(b.andTypes, decs...)
	return nil
}

const implicitAlternatives = "-,:"

// Expression renders the bond; the implicit default bond renders empty.
func (b *Bond) Expression() string {
	if b.IsImplicit() {
		return ""
	}
	var sb strings.Builder
	if len(b.orTypes) == 0 {
		sb.WriteString(implicitAlternatives)
	}
	for i, o := range b.orTypes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(o.String())
	}
	for _, d := range b.andTypes {
		sb.WriteByte(';')
		sb.WriteString(d.String())
	}
	return sb.String()
}

var bondOrders = map[DecoratorKind]float64{
	KindSingleBond:   1,
	KindDoubleBond:   2,
	KindTripleBond:   3,
	KindAromaticBond: 1.5,
}

// Order is the smallest numeric order any OR alternative allows. Negated,
// any, ring and unspecified primaries count as 1.
func (b *Bond) Order() float64 {
	if len(b.orTypes) == 0 {
		return 1
	}
	order := 0.0
	for i, o := range b.orTypes {
		v, ok := bondOrders[o.Primary.Kind]
		if !ok || o.Primary.Negated {
			v = 1
		}
		if i == 0 || v < order {
			order = v
		}
	}
	return order
}

// ─────────────────────────────────────────────────────────────────────────────
// Graph
// ─────────────────────────────────────────────────────────────────────────────

// Graph owns every atom and bond of a pattern. Iteration order is insertion
// order. A Graph is not safe for concurrent use.
type Graph struct {
	atoms     map[AtomID]*Atom
	atomOrder []AtomID
	bonds     map[BondID]*Bond
	bondOrder []BondID
	adjacency map[AtomID][]BondID
	labels    map[int]AtomID
	nextAtom  AtomID
	nextBond  BondID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		atoms:     make(map[AtomID]*Atom),
		bonds:     make(map[BondID]*Bond),
		adjacency: make(map[AtomID][]BondID),
		labels:    make(map[int]AtomID),
	}
}

func (g *Graph) NumAtoms() int { return len(g.atomOrder) }
func (g *Graph) NumBonds() int { return len(g.bondOrder) }

// Atoms returns all atoms in insertion order.
func (g *Graph) Atoms() []*Atom {
	out := make([]*Atom, len(g.atomOrder))
	for i, id := range g.atomOrder {
		out[i] = g.atoms[id]
	}
	return out
}

// Bonds returns all bonds in insertion order.
func (g *Graph) Bonds() []*Bond {
	out := make([]*Bond, len(g.bondOrder))
	for i, id := range g.bondOrder {
		out[i] = g.bonds[id]
	}
	return out
}

func (g *Graph) Atom(id AtomID) (*Atom, bool) {
	a, ok := g.atoms[id]
	return a, ok
}

func (g *Graph) AtomByLabel(label int) (*Atom, bool) {
	id, ok := g.labels[label]
	if !ok {
		return nil, false
	}
	return g.atoms[id], true
}

// AtomAt returns the atom at the given insertion position.
func (g *Graph) AtomAt(pos int) (*Atom, bool) {
	if pos < 0 || pos >= len(g.atomOrder) {
		return nil, false
	}
	return g.atoms[g.atomOrder[pos]], true
}

// Position returns the insertion position of a, or -1.
func (g *Graph) Position(a *Atom) int {
	for i, id := range g.atomOrder {
		if g.atoms[id] == a {
			return i
		}
	}
	return -1
}

// BondPosition returns the insertion position of b, or -1.
func (g *Graph) BondPosition(b *Bond) int {
	for i, id := range g.bondOrder {
		if g.bonds[id] == b {
			return i
		}
	}
	return -1
}

// LabeledAtoms returns labeled atoms by increasing label.
func (g *Graph) LabeledAtoms() []*Atom {
	out := make([]*Atom, 0, len(g.labels))
	for _, id := range g.atomOrder {
		if a := g.atoms[id]; a.IsLabeled() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// Contains reports whether a is owned by g.
func (g *Graph) Contains(a *Atom) bool {
	return a != nil && g.atoms[a.id] == a
}

func (g *Graph) containsBond(b *Bond) bool {
	return b != nil && g.bonds[b.id] == b
}

// BondBetween returns the bond joining a and b. It never fails; non-adjacent
// or foreign atoms report false.
func (g *Graph) BondBetween(a, b *Atom) (*Bond, bool) {
	if !g.Contains(a) || !g.Contains(b) {
		return nil, false
	}
	return g.bondBetweenIDs(a.id, b.id)
}

func (g *Graph) bondBetweenIDs(x, y AtomID) (*Bond, bool) {
	for _, bid := range g.adjacency[x] {
		if bd := g.bonds[bid]; bd.connects(x, y) {
			return bd, true
		}
	}
	return nil, false
}

// BondsOf returns the bonds incident to a.
func (g *Graph) BondsOf(a *Atom) []*Bond {
	if !g.Contains(a) {
		return nil
	}
	ids := g.adjacency[a.id]
	out := make([]*Bond, len(ids))
	for i, bid := range ids {
		out[i] = g.bonds[bid]
	}
	return out
}

// Neighbors returns atoms adjacent to a in bond insertion order.
func (g *Graph) Neighbors(a *Atom) []*Atom {
	bonds := g.BondsOf(a)
	out := make([]*Atom, len(bonds))
	for i, bd := range bonds {
		out[i] = g.atoms[bd.Other(a.id)]
	}
	return out
}

// BondAtoms resolves both endpoints of b.
func (g *Graph) BondAtoms(b *Bond) (*Atom, *Atom) {
	return g.atoms[b.a], g.atoms[b.b]
}

// Degree is the number of bonds incident to a.
func (g *Graph) Degree(a *Atom) int {
	if !g.Contains(a) {
		return 0
	}
	return len(g.adjacency[a.id])
}

// Valence is the degree of a.
func (g *Graph) Valence(a *Atom) int { return g.Degree(a) }

// BondOrder sums Order over the bonds incident to a.
func (g *Graph) BondOrder(a *Atom) float64 {
	total := 0.0
	for _, bd := range g.BondsOf(a) {
		total += bd.Order()
	}
	return total
}

// BondLabel is max(label_a, label_b) - 1 when both endpoints are labeled,
// otherwise 0.
func (g *Graph) BondLabel(b *Bond) int {
	x, y := g.atoms[b.a], g.atoms[b.b]
	if x == nil || y == nil || !x.IsLabeled() || !y.IsLabeled() {
		return 0
	}
	if x.label > y.label {
		return x.label - 1
	}
	return y.label - 1
}

// IsConnected reports whether every atom is reachable from the first one.
func (g *Graph) IsConnected() bool {
	if len(g.atomOrder) == 0 {
		return true
	}
	seen := map[AtomID]bool{g.atomOrder[0]: true}
	queue := []AtomID{g.atomOrder[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, bid := range g.adjacency[cur] {
			next := g.bonds[bid].Other(cur)
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(seen) == len(g.atomOrder)
}

// Clone returns a deep copy with identical IDs and order.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.nextAtom, c.nextBond = g.nextAtom, g.nextBond
	c.atomOrder = append([]AtomID(nil), g.atomOrder...)
	c.bondOrder = append([]BondID(nil), g.bondOrder...)
	for id, a := range g.atoms {
		c.atoms[id] = &Atom{id: a.id, label: a.label, orTypes: cloneORTypes(a.orTypes), andTypes: append([]Decorator(nil), a.andTypes...)}
	}
	for id, b := range g.bonds {
		c.bonds[id] = &Bond{id: b.id, a: b.a, b: b.b, orTypes: cloneORTypes(b.orTypes), andTypes: append([]Decorator(nil), b.andTypes...), ringClosure: b.ringClosure}
	}
	for id, adj := range g.adjacency {
		c.adjacency[id] = append([]BondID(nil), adj...)
	}
	for l, id := range g.labels {
		c.labels[l] = id
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Arena primitives
// ─────────────────────────────────────────────────────────────────────────────

func (g *Graph) insertAtom(label int, ors []ORType, ands []Decorator) (*Atom, error) {
	if label < 0 {
		return nil, ErrInvalidLabel
	}
	if label > 0 {
		if _, taken := g.labels[label]; taken {
			return nil, ErrDuplicateLabel
		}
	}
	g.nextAtom++
	a := &Atom{id: g.nextAtom, label: label, orTypes: ors, andTypes: ands}
	g.atoms[a.id] = a
	g.atomOrder = append(g.atomOrder, a.id)
	g.adjacency[a.id] = nil
	if label > 0 {
		g.labels[label] = a.id
	}
	return a, nil
}

func (g *Graph) insertBond(x, y AtomID, ors []ORType, ands []Decorator, ring bool) *Bond {
	g.nextBond++
	b := &Bond{id: g.nextBond, a: x, b: y, orTypes: ors, andTypes: ands, ringClosure: ring}
	g.bonds[b.id] = b
	g.bondOrder = append(g.bondOrder, b.id)
	g.adjacency[x] = append(g.adjacency[x], b.id)
	g.adjacency[y] = append(g.adjacency[y], b.id)
	return b
}

func (g *Graph) deleteBond(b *Bond) {
	delete(g.bonds, b.id)
	g.bondOrder = removeID(g.bondOrder, b.id)
	g.adjacency[b.a] = removeID(g.adjacency[b.a], b.id)
	g.adjacency[b.b] = removeID(g.adjacency[b.b], b.id)
}

func (g *Graph) deleteAtom(a *Atom) {
	delete(g.atoms, a.id)
	delete(g.adjacency, a.id)
	g.atomOrder = removeID(g.atomOrder, a.id)
	if a.label > 0 {
		delete(g.labels, a.label)
	}
}

func removeID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

//Personal.AI order the ending
