package dfg

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/expr"
)

// LiveSet is the set of variables that may be read before being overwritten
// along some path from a program point. Bits index the variable table.
type LiveSet struct {
	vars *cfg.VariableTable
	live *bitset.BitSet
}

// Live reports whether the variable is in the set.
func (l LiveSet) Live(name string) bool {
	for i := 0; i < l.vars.Len(); i++ {
		if l.vars.Decl(i).Name == name {
			return l.live.Test(uint(i))
		}
	}
	return false
}

// Names returns the live variables in declaration order.
func (l LiveSet) Names() []string {
	var out []string
	for i, ok := l.live.NextSet(0); ok; i, ok = l.live.NextSet(i + 1) {
		out = append(out, l.vars.Decl(int(i)).Name)
	}
	return out
}

func (l LiveSet) Bindings() []Binding {
	out := make([]Binding, 0, l.vars.Len())
	for i, decl := range l.vars.All() {
		state := "dead"
		if l.live.Test(uint(i)) {
			state = "live"
		}
		out = append(out, Binding{Name: decl.Name, Value: state})
	}
	return out
}

// LiveVariables is the backward liveness analysis. Only scalar writes kill;
// writing one array element or record field leaves the rest live.
type LiveVariables struct {
	g *cfg.ProgramGraph
}

func NewLiveVariables(g *cfg.ProgramGraph) *LiveVariables {
	return &LiveVariables{g: g}
}

func (l *LiveVariables) Name() string  { return "live-variables" }
func (l *LiveVariables) Reverse() bool { return true }

// Initial is the empty set: nothing is read after the terminal point.
func (l *LiveVariables) Initial(g *cfg.ProgramGraph) LiveSet {
	if g != l.g {
		panic("dfg: live variables built for a different program graph")
	}
	return LiveSet{vars: g.Variables, live: bitset.New(uint(g.Variables.Len()))}
}

// Transfer maps the set at the edge's end point to its start point.
func (l *LiveVariables) Transfer(m LiveSet, e *cfg.Edge) LiveSet {
	out := LiveSet{vars: m.vars, live: m.live.Clone()}
	if target, ok := e.Action.Defines(); ok && target.Kind == expr.Scalar {
		out.live.Clear(uint(l.index(target)))
	}
	for _, use := range e.Action.Uses() {
		out.live.Set(uint(l.index(use)))
	}
	return out
}

func (l *LiveVariables) index(a expr.VariableAccess) int {
	i, ok := l.g.Variables.Of(a)
	if !ok {
		panic(fmt.Sprintf("dfg: undeclared variable %s", a))
	}
	return i
}

func (l *LiveVariables) Merge(a, b LiveSet) LiveSet {
	sameGraph(a.vars, b.vars)
	return LiveSet{vars: a.vars, live: a.live.Union(b.live)}
}

func (l *LiveVariables) Included(a, b LiveSet) bool {
	sameGraph(a.vars, b.vars)
	return b.live.IsSuperSet(a.live)
}
