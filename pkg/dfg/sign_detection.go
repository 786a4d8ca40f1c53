package dfg

import (
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/expr"
	"github.com/l3aro/microc-analysis/pkg/sign"
)

// slotLayout assigns sign slots to declared variables: one per scalar, one
// for a whole array, two per record.
type slotLayout struct {
	vars  *cfg.VariableTable
	first []int // first slot per variable index
	size  int
}

func newSlotLayout(vars *cfg.VariableTable) *slotLayout {
	l := &slotLayout{vars: vars, first: make([]int, vars.Len())}
	for i := 0; i < vars.Len(); i++ {
		l.first[i] = l.size
		if vars.Decl(i).Kind == expr.Record {
			l.size += 2
		} else {
			l.size++
		}
	}
	return l
}

func (l *slotLayout) slot(a expr.VariableAccess) int {
	i, ok := l.vars.Of(a)
	if !ok {
		panic(fmt.Sprintf("dfg: undeclared variable %s", a))
	}
	if a.Kind == expr.Record && a.Field == expr.Second {
		return l.first[i] + 1
	}
	return l.first[i]
}

// Signs holds one sign set per slot. An unreachable state has every slot
// empty and Unreachable set.
type Signs struct {
	layout      *slotLayout
	slots       []sign.Set
	Unreachable bool
}

func (s Signs) clone() Signs {
	out := s
	out.slots = append([]sign.Set(nil), s.slots...)
	return out
}

func (s Signs) bottom() Signs {
	return Signs{layout: s.layout, slots: make([]sign.Set, len(s.slots)), Unreachable: true}
}

// Of returns the sign set of an access. Array accesses share one slot.
func (s Signs) Of(a expr.VariableAccess) sign.Set {
	return s.slots[s.layout.slot(a)]
}

// Lookup returns the sign set of a scalar, an array, or a record field given
// as "R.fst" or "R.snd".
func (s Signs) Lookup(name string) (sign.Set, bool) {
	for i, decl := range s.layout.vars.All() {
		switch {
		case decl.Name == name && decl.Kind != expr.Record:
			return s.slots[s.layout.first[i]], true
		case decl.Kind == expr.Record && name == decl.Name+".fst":
			return s.slots[s.layout.first[i]], true
		case decl.Kind == expr.Record && name == decl.Name+".snd":
			return s.slots[s.layout.first[i]+1], true
		}
	}
	return sign.Empty, false
}

// Reachable is false for the state behind a guard that cannot hold.
func (s Signs) Reachable() bool { return !s.Unreachable }

func (s Signs) Bindings() []Binding {
	out := make([]Binding, 0, len(s.slots))
	for i, decl := range s.layout.vars.All() {
		base := s.layout.first[i]
		if decl.Kind == expr.Record {
			out = append(out,
				Binding{Name: decl.Name + ".fst", Value: s.slots[base].String()},
				Binding{Name: decl.Name + ".snd", Value: s.slots[base+1].String()})
			continue
		}
		out = append(out, Binding{Name: decl.Name, Value: s.slots[base].String()})
	}
	return out
}

// SignDetection is the forward sign analysis. Assignments to scalars and
// record fields are strong updates, assignments to array elements are weak.
// Branch guards narrow the signs of the variables they compare.
type SignDetection struct {
	g      *cfg.ProgramGraph
	layout *slotLayout
}

func NewSignDetection(g *cfg.ProgramGraph) *SignDetection {
	return &SignDetection{g: g, layout: newSlotLayout(g.Variables)}
}

func (s *SignDetection) Name() string  { return "sign-detection" }
func (s *SignDetection) Reverse() bool { return false }

// Initial allows every sign for every slot.
func (s *SignDetection) Initial(g *cfg.ProgramGraph) Signs {
	if g != s.g {
		panic("dfg: sign detection built for a different program graph")
	}
	m := Signs{layout: s.layout, slots: make([]sign.Set, s.layout.size)}
	for i := range m.slots {
		m.slots[i] = sign.Top
	}
	return m
}

func (s *SignDetection) Transfer(m Signs, e *cfg.Edge) Signs {
	if m.Unreachable {
		return m
	}
	a := e.Action
	switch a.Kind {
	case cfg.ActionAssign:
		return s.store(m, *a.Target, s.eval(a.Value.Op, m))
	case cfg.ActionRead:
		return s.store(m, *a.Target, sign.Top)
	case cfg.ActionBoolean:
		return s.narrow(a.Guard.Op, false, m)
	}
	return m
}

func (s *SignDetection) store(m Signs, target expr.VariableAccess, v sign.Set) Signs {
	out := m.clone()
	slot := s.layout.slot(target)
	if target.Kind == expr.Array {
		out.slots[slot] |= v
	} else {
		out.slots[slot] = v
	}
	return out
}

// eval computes the sign set of an arithmetic tree.
func (s *SignDetection) eval(op *expr.Operation, m Signs) sign.Set {
	if op.IsLeaf() {
		switch op.Operand.Kind {
		case expr.TokLiteral:
			return sign.Of(op.Operand.Value)
		case expr.TokAccess:
			return m.Of(*op.Operand.Access)
		}
		panic(fmt.Sprintf("dfg: %s in arithmetic position", op.Operand))
	}
	return sign.Apply(op.Operator, s.eval(op.Left, m), s.eval(op.Right, m))
}

// narrow restricts m to the states in which the guard, or its negation when
// negated is set, can hold. Negations are pushed down to the relations.
func (s *SignDetection) narrow(op *expr.Operation, negated bool, m Signs) Signs {
	if m.Unreachable {
		return m
	}
	if op.IsLeaf() {
		if op.Operand.Bool != negated {
			return m
		}
		return m.bottom()
	}

	switch {
	case op.Operator == expr.OpNot:
		return s.narrow(op.Right, !negated, m)
	case op.Operator == expr.OpAnd && !negated, op.Operator == expr.OpOr && negated:
		return s.meet(s.narrow(op.Left, negated, m), s.narrow(op.Right, negated, m))
	case op.Operator == expr.OpOr, op.Operator == expr.OpAnd:
		return s.Merge(s.narrow(op.Left, negated, m), s.narrow(op.Right, negated, m))
	}

	rel := op.Operator
	if negated {
		rel, _ = rel.Negated()
	}
	l, r := sign.Narrow(rel, s.eval(op.Left, m), s.eval(op.Right, m))
	if l.IsEmpty() {
		return m.bottom()
	}
	out := m.clone()
	for _, side := range []struct {
		op  *expr.Operation
		set sign.Set
	}{{op.Left, l}, {op.Right, r}} {
		if acc, ok := narrowable(side.op); ok {
			slot := s.layout.slot(acc)
			out.slots[slot] &= side.set
			if out.slots[slot].IsEmpty() {
				return m.bottom()
			}
		}
	}
	return out
}

// narrowable returns the access of an operand whose slot holds exactly its
// value: a scalar or a record field.
func narrowable(op *expr.Operation) (expr.VariableAccess, bool) {
	if !op.IsLeaf() || op.Operand.Kind != expr.TokAccess {
		return expr.VariableAccess{}, false
	}
	acc := *op.Operand.Access
	return acc, acc.Kind != expr.Array
}

func (s *SignDetection) meet(a, b Signs) Signs {
	if a.Unreachable {
		return a
	}
	if b.Unreachable {
		return b
	}
	out := a.clone()
	for i := range out.slots {
		out.slots[i] &= b.slots[i]
		if out.slots[i].IsEmpty() {
			return a.bottom()
		}
	}
	return out
}

func (s *SignDetection) Merge(a, b Signs) Signs {
	sameGraph(a.layout.vars, b.layout.vars)
	if a.Unreachable {
		return b
	}
	if b.Unreachable {
		return a
	}
	out := a.clone()
	for i := range out.slots {
		out.slots[i] |= b.slots[i]
	}
	return out
}

func (s *SignDetection) Included(a, b Signs) bool {
	sameGraph(a.layout.vars, b.layout.vars)
	if a.Unreachable {
		return true
	}
	if b.Unreachable {
		return false
	}
	for i := range a.slots {
		if !a.slots[i].Subset(b.slots[i]) {
			return false
		}
	}
	return true
}
