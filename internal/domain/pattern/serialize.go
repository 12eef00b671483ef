package pattern

import (
	"sort"
	"strings"
)

// Serialize writes the graph back as a pattern string. Traversal starts at
// the lowest-labeled atom (or the first atom). At each atom unlabeled
// neighbours come first as parenthesised branches and labeled neighbours
// follow by increasing label, so the last one continues the trunk. Extra
// bonds become ring closures whose bond expression is written at the
// opening digit. Serialize does not modify the graph.
func (g *Graph) Serialize(includeLabels bool) string {
	if g.NumAtoms() == 0 {
		return ""
	}
	w := g.newWriter(includeLabels)
	root, _ := g.SelectAtom(Default)
	w.span(root.id)
	w.emit(root.id, nil)
	return w.sb.String()
}

// SerializedPosition returns the index at which a is written by Serialize,
// which is also its position after the output is parsed again. It returns -1
// for a foreign atom.
func (g *Graph) SerializedPosition(a *Atom) int {
	if !g.Contains(a) {
		return -1
	}
	w := g.newWriter(false)
	root, _ := g.SelectAtom(Default)
	w.span(root.id)
	return w.rank[a.id]
}

func (g *Graph) newWriter(includeLabels bool) *writer {
	return &writer{
		g:             g,
		includeLabels: includeLabels,
		children:      make(map[AtomID][]*Bond),
		tree:          make(map[BondID]bool),
		rank:          make(map[AtomID]int),
		digits:        make(map[BondID]int),
	}
}

// SMIRKS renders the pattern with positional labels.
func (g *Graph) SMIRKS() string { return g.Serialize(true) }

// SMARTS renders the pattern without positional labels.
func (g *Graph) SMARTS() string { return g.Serialize(false) }

func (g *Graph) String() string { return g.SMIRKS() }

type writer struct {
	g             *Graph
	includeLabels bool
	sb            strings.Builder

	children map[AtomID][]*Bond
	tree     map[BondID]bool
	rank     map[AtomID]int
	digits   map[BondID]int
	used     []bool
}

// orderedBonds sorts the bonds of id: unlabeled neighbours in bond order,
// then labeled neighbours by label.
func (w *writer) orderedBonds(id AtomID) []*Bond {
	bonds := w.g.BondsOf(w.g.atoms[id])
	sort.SliceStable(bonds, func(i, j int) bool {
		ai, aj := w.g.atoms[bonds[i].Other(id)], w.g.atoms[bonds[j].Other(id)]
		if ai.IsLabeled() != aj.IsLabeled() {
			return !ai.IsLabeled()
		}
		return ai.label < aj.label
	})
	return bonds
}

// span fixes the depth-first spanning tree and the preorder rank of atoms.
func (w *writer) span(id AtomID) {
	w.rank[id] = len(w.rank)
	for _, b := range w.orderedBonds(id) {
		next := b.Other(id)
		if _, seen := w.rank[next]; seen {
			continue
		}
		w.tree[b.id] = true
		w.children[id] = append(w.children[id], b)
		w.span(next)
	}
}

func (w *writer) takeDigit() int {
	for i := 1; i < len(w.used); i++ {
		if !w.used[i] {
			w.used[i] = true
			return i
		}
	}
	if len(w.used) == 0 {
		w.used = append(w.used, true)
	}
	w.used = append(w.used, true)
	return len(w.used) - 1
}

func (w *writer) emit(id AtomID, via *Bond) {
	if via != nil {
		w.sb.WriteString(via.Expression())
	}
	w.sb.WriteString(w.g.atoms[id].render(w.includeLabels))

	var opening []*Bond
	for _, bid := range w.g.adjacency[id] {
		b := w.g.bonds[bid]
		if w.tree[b.id] {
			continue
		}
		if w.rank[b.Other(id)] < w.rank[id] {
			d := w.digits[b.id]
			w.sb.WriteString(ringToken(d))
			w.used[d] = false
			continue
		}
		opening = append(opening, b)
	}
	for _, b := range opening {
		d := w.takeDigit()
		w.digits[b.id] = d
		w.sb.WriteString(b.Expression())
		w.sb.WriteString(ringToken(d))
	}

	kids := w.children[id]
	for i, b := range kids {
		if i < len(kids)-1 {
			w.sb.WriteByte('(')
			w.emit(b.Other(id), b)
			w.sb.WriteByte(')')
			continue
		}
		w.emit(b.Other(id), b)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Equivalence
// ─────────────────────────────────────────────────────────────────────────────

// Equivalent reports whether g and other are isomorphic with identical
// labels and decorator expressions on every matched atom and bond.
func (g *Graph) Equivalent(other *Graph) bool {
	if g.NumAtoms() != other.NumAtoms() || g.NumBonds() != other.NumBonds() {
		return false
	}
	m := &matcher{a: g, b: other, fwd: make(map[AtomID]AtomID), used: make(map[AtomID]bool), order: g.Atoms()}
	return m.extend(0)
}

type matcher struct {
	a, b  *Graph
	fwd   map[AtomID]AtomID
	used  map[AtomID]bool
	order []*Atom
}

func (m *matcher) compatible(x, y *Atom) bool {
	return x.label == y.label &&
		x.Expression() == y.Expression() &&
		len(m.a.adjacency[x.id]) == len(m.b.adjacency[y.id])
}

func (m *matcher) extend(i int) bool {
	if i == len(m.order) {
		return true
	}
	x := m.order[i]
	for _, y := range m.b.Atoms() {
		if m.used[y.id] || !m.compatible(x, y) || !m.bondsAgree(x, y) {
			continue
		}
		m.fwd[x.id], m.used[y.id] = y.id, true
		if m.extend(i + 1) {
			return true
		}
		delete(m.fwd, x.id)
		delete(m.used, y.id)
	}
	return false
}

// bondsAgree checks every bond from x to an already mapped atom.
func (m *matcher) bondsAgree(x, y *Atom) bool {
	for _, bid := range m.a.adjacency[x.id] {
		bx := m.a.bonds[bid]
		mapped, ok := m.fwd[bx.Other(x.id)]
		if !ok {
			continue
		}
		by, ok := m.b.bondBetweenIDs(y.id, mapped)
		if !ok || by.Expression() != bx.Expression() {
			return false
		}
	}
	return true
}

// Canonical parses input and returns its SMIRKS rendering.
func Canonical(input string) (string, error) {
	g, err := Parse(strings.TrimSpace(input))
	if err != nil {
		return "", err
	}
	return g.SMIRKS(), nil
}

//Personal.AI order the ending
