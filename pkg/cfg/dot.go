package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

type dotNode struct {
	n *Node
}

func (d dotNode) ID() int64 { return int64(d.n.ID) }

func (d dotNode) DOTID() string { return fmt.Sprintf("q%d", d.n.ID) }

func (d dotNode) Attributes() []encoding.Attribute {
	shape := "circle"
	if d.n.Terminal {
		shape = "doublecircle"
	}
	return []encoding.Attribute{{Key: "shape", Value: shape}}
}

// dotEdge carries the labels of every program edge between the same pair of
// points, since the simple graph keeps a single edge per pair.
type dotEdge struct {
	from, to dotNode
	labels   []string
}

func (e *dotEdge) From() graph.Node { return e.from }

func (e *dotEdge) To() graph.Node { return e.to }

func (e *dotEdge) ReversedEdge() graph.Edge {
	return &dotEdge{from: e.to, to: e.from, labels: e.labels}
}

func (e *dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: strconv.Quote(strings.Join(e.labels, "\n"))}}
}

// Dot renders the program graph in Graphviz DOT syntax.
func Dot(g *ProgramGraph, name string) ([]byte, error) {
	dg := simple.NewDirectedGraph()
	nodes := make([]dotNode, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = dotNode{n: n}
		dg.AddNode(nodes[i])
	}

	for _, e := range g.Edges {
		from, to := nodes[e.From.ID], nodes[e.To.ID]
		if existing := dg.Edge(from.ID(), to.ID()); existing != nil {
			de := existing.(*dotEdge)
			de.labels = append(de.labels, e.Action.String())
			continue
		}
		dg.SetEdge(&dotEdge{from: from, to: to, labels: []string{e.Action.String()}})
	}

	out, err := dot.Marshal(dg, name, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling dot graph: %w", err)
	}
	return out, nil
}
