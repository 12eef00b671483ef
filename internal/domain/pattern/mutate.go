package pattern

import "fmt"

// AtomSpec describes an atom to attach and the bond that attaches it. Empty
// bond groups give the implicit default bond; an empty atom OR-group renders
// as the wildcard. Label 0 leaves the atom unlabeled; negative labels are
// rejected.
type AtomSpec struct {
	BondORTypes  []ORType
	BondANDTypes []Decorator
	ORTypes      []ORType
	ANDTypes     []Decorator
	Label        int
}

func checkFamily(ors []ORType, ands []Decorator, bond bool) error {
	check := func(d Decorator) error {
		if d.Kind != KindCompound && d.Kind.IsBond() != bond {
			return &DecoratorError{Token: d.String(), Reason: ErrUnknownDecorator}
		}
		return nil
	}
	for _, o := range ors {
		if o.Primary.Kind == KindCompound {
			return &DecoratorError{Token: o.Primary.String(), Reason: ErrUnknownDecorator}
		}
		for _, d := range append([]Decorator{o.Primary}, o.Decorators...) {
			if err := check(d); err != nil {
				return err
			}
		}
	}
	for _, d := range ands {
		if err := check(d); err != nil {
			return err
		}
	}
	return nil
}

// AddAtom attaches a new atom to parent and returns it. The graph is left
// unchanged when parent is foreign, the label is negative or taken, or a
// decorator belongs to the wrong family.
func (g *Graph) AddAtom(parent *Atom, spec AtomSpec) (*Atom, error) {
	if !g.Contains(parent) {
		return nil, ErrAtomNotInGraph
	}
	if err := checkFamily(spec.ORTypes, spec.ANDTypes, false); err != nil {
		return nil, err
	}
	if err := checkFamily(spec.BondORTypes, spec.BondANDTypes, true); err != nil {
		return nil, err
	}
	a, err := g.insertAtom(spec.Label, cloneORTypes(spec.ORTypes), append([]Decorator(nil), spec.ANDTypes...))
	if err != nil {
		return nil, fmt.Errorf("label %d: %w", spec.Label, err)
	}
	g.insertBond(parent.id, a.id, cloneORTypes(spec.BondORTypes), append([]Decorator(nil), spec.BondANDTypes...), false)
	return a, nil
}

// RemoveAtom deletes a together with its only bond. It succeeds only for an
// unlabeled leaf; otherwise the graph is untouched and false is returned.
func (g *Graph) RemoveAtom(a *Atom) bool {
	if !g.Contains(a) || a.IsLabeled() || len(g.adjacency[a.id]) != 1 {
		return false
	}
	g.deleteBond(g.bonds[g.adjacency[a.id][0]])
	g.deleteAtom(a)
	return true
}

//Personal.AI order the ending
