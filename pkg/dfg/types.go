// Package dfg defines the monotone data-flow analyses run over a program
// graph: the analysis contract, the undefined-or-mapping wrapper used by the
// solvers, and the reaching definitions, live variables and sign detection
// analyses.
package dfg

import (
	"github.com/l3aro/microc-analysis/pkg/cfg"
)

// Analysis is a data-flow analysis over mappings of type M. Mappings are
// values: Transfer and Merge return fresh mappings and never modify their
// arguments.
type Analysis[M any] interface {
	// Name identifies the analysis in reports.
	Name() string
	// Initial returns the mapping installed at the entry node.
	Initial(g *cfg.ProgramGraph) M
	// Transfer applies the effect of the edge to the mapping found at its
	// source (forward) or destination (backward).
	Transfer(m M, e *cfg.Edge) M
	// Merge is the lattice join.
	Merge(a, b M) M
	// Included is the lattice order a ⊑ b.
	Included(a, b M) bool
	// Reverse selects backward propagation along incoming edges.
	Reverse() bool
}

// Value is a mapping, or the undefined bottom element when Defined is false.
type Value[M any] struct {
	Mapping M
	Defined bool
}

// Defined wraps a mapping.
func Defined[M any](m M) Value[M] {
	return Value[M]{Mapping: m, Defined: true}
}

// Join merges two values. Undefined is the identity.
func Join[M any](a Analysis[M], x, y Value[M]) Value[M] {
	if !x.Defined {
		return y
	}
	if !y.Defined {
		return x
	}
	return Defined(a.Merge(x.Mapping, y.Mapping))
}

// Leq reports x ⊑ y. Undefined is below everything, including itself.
func Leq[M any](a Analysis[M], x, y Value[M]) bool {
	if !x.Defined {
		return true
	}
	if !y.Defined {
		return false
	}
	return a.Included(x.Mapping, y.Mapping)
}

// Apply runs the transfer function on a defined value. Undefined stays
// undefined.
func Apply[M any](a Analysis[M], x Value[M], e *cfg.Edge) Value[M] {
	if !x.Defined {
		return x
	}
	return Defined(a.Transfer(x.Mapping, e))
}

// EntryOf returns the node where the analysis starts: node 0 for forward
// analyses, the terminal node for backward ones.
func EntryOf[M any](a Analysis[M], g *cfg.ProgramGraph) *cfg.Node {
	if a.Reverse() {
		return g.Terminal()
	}
	return g.Entry()
}

// Binding is the rendered value of one variable in a mapping.
type Binding struct {
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Value string `json:"value" yaml:"value" msgpack:"value"`
}

// Bindable is implemented by mappings that can be displayed per variable.
type Bindable interface {
	Bindings() []Binding
}

// Reacher is implemented by mappings with a bottom element of their own,
// such as the state behind a guard that can never hold.
type Reacher interface {
	Reachable() bool
}

// sameGraph guards against mixing mappings built for different programs,
// which is a caller bug rather than an analysis outcome.
func sameGraph(want, got *cfg.VariableTable) {
	if want != got {
		panic("dfg: mapping belongs to a different program graph")
	}
}
