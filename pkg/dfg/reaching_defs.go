package dfg

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/expr"
)

// unknownSite is the bit recording that a variable may still hold the value
// it had on entry. Edge e is recorded at bit e+1.
const unknownSite = 0

// Definitions maps each declared variable to the set of definition sites that
// may reach a program point.
type Definitions struct {
	g    *cfg.ProgramGraph
	sets []*bitset.BitSet // indexed by variable table index
}

func (d Definitions) clone() Definitions {
	out := Definitions{g: d.g, sets: make([]*bitset.BitSet, len(d.sets))}
	for i, s := range d.sets {
		out.sets[i] = s.Clone()
	}
	return out
}

// Sites returns the ids of the edges defining the variable, in increasing
// order, and whether the entry value may still reach.
func (d Definitions) Sites(name string) (edges []int, unknown bool) {
	for i := 0; i < d.g.Variables.Len(); i++ {
		if d.g.Variables.Decl(i).Name != name {
			continue
		}
		s := d.sets[i]
		unknown = s.Test(unknownSite)
		for bit, ok := s.NextSet(unknownSite + 1); ok; bit, ok = s.NextSet(bit + 1) {
			edges = append(edges, int(bit)-1)
		}
	}
	return edges, unknown
}

func (d Definitions) Bindings() []Binding {
	out := make([]Binding, 0, len(d.sets))
	for i, decl := range d.g.Variables.All() {
		var sites []string
		s := d.sets[i]
		if s.Test(unknownSite) {
			sites = append(sites, "?")
		}
		for bit, ok := s.NextSet(unknownSite + 1); ok; bit, ok = s.NextSet(bit + 1) {
			e := d.g.Edges[bit-1]
			sites = append(sites, fmt.Sprintf("q%d->q%d", e.From.ID, e.To.ID))
		}
		out = append(out, Binding{Name: decl.Name, Value: "{" + strings.Join(sites, ", ") + "}"})
	}
	return out
}

// ReachingDefinitions is the forward analysis of definition sites. Writes to
// scalars kill earlier definitions; writes to array elements and record
// fields only add a site.
type ReachingDefinitions struct {
	g *cfg.ProgramGraph
}

func NewReachingDefinitions(g *cfg.ProgramGraph) *ReachingDefinitions {
	return &ReachingDefinitions{g: g}
}

func (r *ReachingDefinitions) Name() string  { return "reaching-definitions" }
func (r *ReachingDefinitions) Reverse() bool { return false }

// Initial marks every variable as possibly undefined.
func (r *ReachingDefinitions) Initial(g *cfg.ProgramGraph) Definitions {
	if g != r.g {
		panic("dfg: reaching definitions built for a different program graph")
	}
	d := Definitions{g: g, sets: make([]*bitset.BitSet, g.Variables.Len())}
	for i := range d.sets {
		d.sets[i] = bitset.New(uint(len(g.Edges) + 1)).Set(unknownSite)
	}
	return d
}

func (r *ReachingDefinitions) Transfer(m Definitions, e *cfg.Edge) Definitions {
	target, ok := e.Action.Defines()
	if !ok {
		return m
	}
	out := m.clone()
	i, ok := r.g.Variables.Of(target)
	if !ok {
		panic(fmt.Sprintf("dfg: undeclared target %s", target))
	}
	if target.Kind == expr.Scalar {
		out.sets[i].ClearAll()
	}
	out.sets[i].Set(uint(e.ID + 1))
	return out
}

func (r *ReachingDefinitions) Merge(a, b Definitions) Definitions {
	sameGraph(a.g.Variables, b.g.Variables)
	out := Definitions{g: a.g, sets: make([]*bitset.BitSet, len(a.sets))}
	for i := range a.sets {
		out.sets[i] = a.sets[i].Union(b.sets[i])
	}
	return out
}

func (r *ReachingDefinitions) Included(a, b Definitions) bool {
	sameGraph(a.g.Variables, b.g.Variables)
	for i := range a.sets {
		if !b.sets[i].IsSuperSet(a.sets[i]) {
			return false
		}
	}
	return true
}
