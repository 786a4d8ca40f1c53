package pdg

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/dfg"
	"github.com/l3aro/microc-analysis/pkg/solver"
)

// Build computes the dependence graph of g. Dependences are ordered by the
// dependent edge, data before control.
func Build(g *cfg.ProgramGraph) *Graph {
	rd := solver.Chaotic[dfg.Definitions](g, dfg.NewReachingDefinitions(g))
	pdom := PostDominators(g)

	p := &Graph{Program: g}
	for _, e := range g.Edges {
		p.addDataDeps(e, rd.At(e.From))
		p.addControlDeps(e, pdom)
	}
	p.index()
	return p
}

// addDataDeps links every definition reaching the source of e to e, for each
// variable e reads. Unknown initial values have no defining edge.
func (p *Graph) addDataDeps(e *cfg.Edge, defs dfg.Value[dfg.Definitions]) {
	if !defs.Defined {
		return
	}
	seen := make(map[string]bool)
	for _, use := range e.Action.Uses() {
		if seen[use.Name] {
			continue
		}
		seen[use.Name] = true
		sites, _ := defs.Mapping.Sites(use.Name)
		for _, site := range sites {
			p.Deps = append(p.Deps, Dependence{From: site, To: e.ID, Type: DepTypeData, Label: use.Name})
		}
	}
}

// addControlDeps links e to every guard edge u->v where the source of e
// post-dominates v but not u. Post-dominance is reflexive here, so edges
// leaving u never depend on its own guards.
func (p *Graph) addControlDeps(e *cfg.Edge, pdom []*bitset.BitSet) {
	x := uint(e.From.ID)
	for _, guard := range p.Program.Edges {
		if guard.Action.Kind != cfg.ActionBoolean {
			continue
		}
		u, v := guard.From.ID, guard.To.ID
		if pdom[v].Test(x) && !pdom[u].Test(x) {
			p.Deps = append(p.Deps, Dependence{From: guard.ID, To: e.ID, Type: DepTypeControl, Label: guard.Action.String()})
		}
	}
}

// PostDominators returns, for each node, the set of nodes on every path from
// it to the terminal node, itself included.
func PostDominators(g *cfg.ProgramGraph) []*bitset.BitSet {
	n := uint(len(g.Nodes))
	pdom := make([]*bitset.BitSet, n)
	for i := range pdom {
		pdom[i] = bitset.New(n).Complement()
	}
	exit := g.Terminal().ID
	pdom[exit] = bitset.New(n).Set(uint(exit))

	// reverse postorder of the reversed graph visits successors first
	order := cfg.DepthFirst(g, true).Order
	for changed := true; changed; {
		changed = false
		for _, id := range order {
			node := g.Node(id)
			if id == exit || len(node.Out) == 0 {
				continue
			}
			next := pdom[node.Out[0].To.ID].Clone()
			for _, e := range node.Out[1:] {
				next.InPlaceIntersection(pdom[e.To.ID])
			}
			next.Set(uint(id))
			if !next.Equal(pdom[id]) {
				pdom[id] = next
				changed = true
			}
		}
	}
	return pdom
}
