package environment

import (
	"github.com/turtacn/chemenv/internal/domain/pattern"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// viewer renders atoms and bonds of one graph. Positions are insertion
// positions, which equal the SMIRKS order for a graph parsed from SMIRKS.
type viewer struct {
	g     *pattern.Graph
	atomP map[pattern.AtomID]int
	bondP map[pattern.BondID]int
}

func newViewer(g *pattern.Graph) *viewer {
	v := &viewer{g: g, atomP: make(map[pattern.AtomID]int), bondP: make(map[pattern.BondID]int)}
	for i, a := range g.Atoms() {
		v.atomP[a.ID()] = i
	}
	for i, b := range g.Bonds() {
		v.bondP[b.ID()] = i
	}
	return v
}

func (v *viewer) atom(a *pattern.Atom) envtypes.AtomView {
	return envtypes.AtomView{
		Position:   v.atomP[a.ID()],
		Label:      a.Label(),
		Expression: a.Expression(),
		ORTypes:    orSpecs(a.ORTypes()),
		ANDTypes:   decoratorStrings(a.ANDTypes()),
		Degree:     v.g.Valence(a),
		BondOrder:  v.g.BondOrder(a),
		Role:       v.g.AtomRole(a).String(),
	}
}

func (v *viewer) bond(b *pattern.Bond) envtypes.BondView {
	x, y := b.Endpoints()
	return envtypes.BondView{
		Position:    v.bondP[b.ID()],
		Label:       v.g.BondLabel(b),
		Atoms:       [2]int{v.atomP[x], v.atomP[y]},
		Expression:  b.Expression(),
		ORTypes:     orSpecs(b.ORTypes()),
		ANDTypes:    decoratorStrings(b.ANDTypes()),
		Order:       b.Order(),
		Role:        v.g.BondRole(b).String(),
		RingClosure: b.IsRingClosure(),
	}
}

func (v *viewer) atoms(in []*pattern.Atom) []envtypes.AtomView {
	out := make([]envtypes.AtomView, 0, len(in))
	for _, a := range in {
		out = append(out, v.atom(a))
	}
	return out
}

func (v *viewer) bonds(in []*pattern.Bond) []envtypes.BondView {
	out := make([]envtypes.BondView, 0, len(in))
	for _, b := range in {
		out = append(out, v.bond(b))
	}
	return out
}

func orSpecs(in []pattern.ORType) []envtypes.ORTypeSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]envtypes.ORTypeSpec, len(in))
	for i, o := range in {
		out[i] = envtypes.ORTypeSpec{Primary: o.Primary.String(), Decorators: o.Tokens()}
	}
	return out
}

func decoratorStrings(in []pattern.Decorator) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = d.String()
	}
	return out
}

// atomSpec builds the core AtomSpec from its transfer form.
func atomSpec(req envtypes.AddAtomRequest) (pattern.AtomSpec, error) {
	spec := pattern.AtomSpec{Label: req.Label}
	var err error
	if spec.ORTypes, err = orTypes(req.ORTypes, pattern.NewAtomORType); err != nil {
		return spec, err
	}
	if spec.ANDTypes, err = andTypes(req.ANDTypes, pattern.NewAtomANDTypes); err != nil {
		return spec, err
	}
	if spec.BondORTypes, err = orTypes(req.BondORTypes, pattern.NewBondORType); err != nil {
		return spec, err
	}
	if spec.BondANDTypes, err = andTypes(req.BondANDTypes, pattern.NewBondANDTypes); err != nil {
		return spec, err
	}
	return spec, nil
}

func orTypes(in []envtypes.ORTypeSpec, build func(string, ...string) (pattern.ORType, error)) ([]pattern.ORType, error) {
	var out []pattern.ORType
	for _, o := range in {
		t, err := build(o.Primary, o.Decorators...)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func andTypes(in []string, build func(string) ([]pattern.Decorator, error)) ([]pattern.Decorator, error) {
	var out []pattern.Decorator
	for _, term := range in {
		d, err := build(term)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}

//Personal.AI order the ending
