// Package solver drives data-flow analyses to their least fixpoint over a
// program graph, either by chaotic iteration over all edges or with a node
// worklist under a pluggable scheduling strategy.
package solver

import (
	"errors"
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/dfg"
)

// ErrEntryMismatch is the panic value, wrapped, raised when the requested
// entry node contradicts the direction of the analysis.
var ErrEntryMismatch = errors.New("solver: entry node does not match analysis direction")

// Result is the fixpoint of one solver run.
type Result[M any] struct {
	// Values holds the mapping of every node, indexed by node id. Nodes the
	// analysis never reached are undefined.
	Values []dfg.Value[M]
	// Steps counts edge evaluations for chaotic iteration and processed
	// nodes for worklist runs.
	Steps int
}

// At returns the value of a node.
func (r Result[M]) At(n *cfg.Node) dfg.Value[M] { return r.Values[n.ID] }

type options struct {
	entry *cfg.Node
}

// Option configures a solver run.
type Option func(*options)

// WithEntry asserts the node the caller expects the analysis to start from:
// node 0 for forward analyses, the terminal node for backward ones.
func WithEntry(n *cfg.Node) Option {
	return func(o *options) { o.entry = n }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// initialValues installs the initial mapping at the entry node and leaves
// every other node undefined.
func initialValues[M any](g *cfg.ProgramGraph, a dfg.Analysis[M], o options) ([]dfg.Value[M], *cfg.Node) {
	entry := dfg.EntryOf(a, g)
	if o.entry != nil && o.entry != entry {
		panic(fmt.Errorf("%w: %s starts at q%d, got q%d", ErrEntryMismatch, a.Name(), entry.ID, o.entry.ID))
	}
	values := make([]dfg.Value[M], len(g.Nodes))
	values[entry.ID] = dfg.Defined(a.Initial(g))
	return values, entry
}

// flow returns the node an edge reads from and the node it updates.
func flow[M any](a dfg.Analysis[M], e *cfg.Edge) (src, dst *cfg.Node) {
	if a.Reverse() {
		return e.To, e.From
	}
	return e.From, e.To
}

// update joins the transferred value of e into its destination and reports
// whether the destination grew.
func update[M any](a dfg.Analysis[M], values []dfg.Value[M], e *cfg.Edge) (*cfg.Node, bool) {
	src, dst := flow(a, e)
	v := dfg.Apply(a, values[src.ID], e)
	if dfg.Leq(a, v, values[dst.ID]) {
		return dst, false
	}
	values[dst.ID] = dfg.Join(a, values[dst.ID], v)
	return dst, true
}

// Chaotic re-evaluates every edge in construction order until a full pass
// changes nothing.
func Chaotic[M any](g *cfg.ProgramGraph, a dfg.Analysis[M], opts ...Option) Result[M] {
	values, _ := initialValues(g, a, newOptions(opts))

	steps := 0
	for changed := true; changed; {
		changed = false
		for _, e := range g.Edges {
			steps++
			if _, grew := update(a, values, e); grew {
				changed = true
			}
		}
	}
	return Result[M]{Values: values, Steps: steps}
}

// Worklist processes one pending node at a time, chosen by the strategy,
// and propagates its value along its outgoing edges, or incoming edges for
// backward analyses. Nodes whose value grows become pending again.
func Worklist[M any](g *cfg.ProgramGraph, a dfg.Analysis[M], strategy Strategy, opts ...Option) (Result[M], error) {
	pending, err := newFrontier(strategy, g, a.Reverse())
	if err != nil {
		return Result[M]{}, err
	}
	values, entry := initialValues(g, a, newOptions(opts))

	steps := 0
	pending.push(entry.ID)
	for {
		id, ok := pending.pop()
		if !ok {
			break
		}
		steps++
		q := g.Node(id)
		edges := q.Out
		if a.Reverse() {
			edges = q.In
		}
		for _, e := range edges {
			if dst, grew := update(a, values, e); grew {
				pending.push(dst.ID)
			}
		}
	}
	return Result[M]{Values: values, Steps: steps}, nil
}
