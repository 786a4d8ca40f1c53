package cfg

import (
	"github.com/yourbasic/graph"
)

// Stats summarizes the shape of a program graph.
type Stats struct {
	Nodes                int `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Edges                int `json:"edges" yaml:"edges" msgpack:"edges"`
	Guards               int `json:"guards" yaml:"guards" msgpack:"guards"`
	Declarations         int `json:"declarations" yaml:"declarations" msgpack:"declarations"`
	Loops                int `json:"loops" yaml:"loops" msgpack:"loops"`
	LoopNests            int `json:"loop_nests" yaml:"loop_nests" msgpack:"loop_nests"`
	Unreachable          int `json:"unreachable" yaml:"unreachable" msgpack:"unreachable"`
	CyclomaticComplexity int `json:"cyclomatic_complexity" yaml:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`
}

// iterator exposes the graph through the graph.Iterator interface.
type iterator struct {
	g *ProgramGraph
}

func (it iterator) Order() int { return len(it.g.Nodes) }

func (it iterator) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, e := range it.g.Nodes[v].Out {
		if do(e.To.ID, 1) {
			return true
		}
	}
	return false
}

// ComputeStats counts nodes, edges and guards. Loops counts back edges of the
// reverse-postorder numbering; loop nests are the non-trivial strongly
// connected components. Cyclomatic complexity is E - N + 2.
func ComputeStats(g *ProgramGraph) Stats {
	s := Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
	for _, e := range g.Edges {
		switch e.Action.Kind {
		case ActionBoolean:
			s.Guards++
		case ActionDeclare:
			s.Declarations++
		}
	}

	it := iterator{g: g}
	if !graph.Acyclic(it) {
		for _, component := range graph.StrongComponents(it) {
			if len(component) > 1 {
				s.LoopNests++
			}
		}
	}

	ord := DepthFirst(g, false)
	s.Unreachable = s.Nodes - ord.Reachable
	for _, e := range g.Edges {
		if e.From.ID == e.To.ID || (ord.Rank[e.To.ID] < ord.Rank[e.From.ID] && ord.Rank[e.From.ID] < ord.Reachable) {
			s.Loops++
		}
	}
	s.CyclomaticComplexity = s.Edges - s.Nodes + 2
	return s
}
