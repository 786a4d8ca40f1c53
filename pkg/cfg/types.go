// Package cfg defines the program graph of a microC program: program points
// (nodes) connected by edges labeled with actions, plus the table of declared
// variables. It also builds the graph from a syntax tree.
package cfg

import (
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/expr"
)

// ActionKind represents the kind of an edge action.
type ActionKind string

const (
	ActionAssign  ActionKind = "assign"  // target := value
	ActionRead    ActionKind = "read"    // read target
	ActionWrite   ActionKind = "write"   // write value
	ActionBoolean ActionKind = "boolean" // branch guard
	ActionDeclare ActionKind = "declare" // top-level declaration
)

// Action labels an edge. Only the payload fields of its kind are set.
type Action struct {
	Kind   ActionKind                `json:"kind"`
	Target *expr.VariableAccess      `json:"-"` // assign, read
	Value  *expr.AExpr               `json:"-"` // assign, write
	Guard  *expr.BExpr               `json:"-"` // boolean
	Decl   *expr.VariableDeclaration `json:"-"` // declare
}

func AssignAction(target expr.VariableAccess, value *expr.AExpr) Action {
	return Action{Kind: ActionAssign, Target: &target, Value: value}
}

func ReadAction(target expr.VariableAccess) Action {
	return Action{Kind: ActionRead, Target: &target}
}

func WriteAction(value *expr.AExpr) Action {
	return Action{Kind: ActionWrite, Value: value}
}

func GuardAction(guard *expr.BExpr) Action {
	return Action{Kind: ActionBoolean, Guard: guard}
}

func DeclareAction(decl expr.VariableDeclaration) Action {
	return Action{Kind: ActionDeclare, Decl: &decl}
}

// Validate checks that the action carries the payload its kind requires.
func (a Action) Validate() error {
	missing := ""
	switch a.Kind {
	case ActionAssign:
		if a.Target == nil {
			missing = "target"
		} else if a.Value == nil {
			missing = "value"
		}
	case ActionRead:
		if a.Target == nil {
			missing = "target"
		}
	case ActionWrite:
		if a.Value == nil {
			missing = "value"
		}
	case ActionBoolean:
		if a.Guard == nil {
			missing = "guard"
		}
	case ActionDeclare:
		if a.Decl == nil {
			missing = "declaration"
		}
	default:
		return &UnknownActionKindError{Kind: string(a.Kind)}
	}
	if missing != "" {
		return fmt.Errorf("%s action without %s: %w", a.Kind, missing, &UnknownActionKindError{Kind: string(a.Kind)})
	}
	return nil
}

// Defines returns the access the action writes to, if any.
func (a Action) Defines() (expr.VariableAccess, bool) {
	if (a.Kind == ActionAssign || a.Kind == ActionRead) && a.Target != nil {
		return *a.Target, true
	}
	return expr.VariableAccess{}, false
}

// Uses returns every variable the action reads: the right-hand side, the
// guard, and the index of an array target.
func (a Action) Uses() []expr.VariableAccess {
	var uses []expr.VariableAccess
	switch a.Kind {
	case ActionAssign, ActionWrite:
		uses = append(uses, a.Value.Variables()...)
	case ActionBoolean:
		uses = append(uses, a.Guard.Variables()...)
	}
	if a.Target != nil && a.Target.Kind == expr.Array {
		uses = append(uses, a.Target.Index.Variables()...)
	}
	return uses
}

func (a Action) String() string {
	switch a.Kind {
	case ActionAssign:
		return fmt.Sprintf("%s := %s", a.Target, a.Value)
	case ActionRead:
		return fmt.Sprintf("read %s", a.Target)
	case ActionWrite:
		return fmt.Sprintf("write %s", a.Value)
	case ActionBoolean:
		return a.Guard.String()
	case ActionDeclare:
		return a.Decl.String()
	}
	return string(a.Kind)
}

// Node is a program point. ID is stable for the lifetime of the graph and
// indexes every per-node mapping.
type Node struct {
	ID       int     `json:"id"`
	Terminal bool    `json:"terminal"`
	Out      []*Edge `json:"-"`
	In       []*Edge `json:"-"`
}

// Edge is a directed, action-labeled transition between two program points.
type Edge struct {
	ID     int    `json:"id"`
	From   *Node  `json:"-"`
	To     *Node  `json:"-"`
	Action Action `json:"action"`
}

func (e *Edge) String() string {
	return fmt.Sprintf("q%d -> q%d: %s", e.From.ID, e.To.ID, e.Action)
}

// ProgramGraph owns the nodes and edges of one program. It is immutable once
// built and may be shared by any number of analysis runs.
type ProgramGraph struct {
	Nodes     []*Node        // indexed by node ID
	Edges     []*Edge        // construction order, indexed by edge ID
	Variables *VariableTable // declared variables

	terminal *Node
}

// Entry returns the initial program point, node 0.
func (g *ProgramGraph) Entry() *Node { return g.Nodes[0] }

// Terminal returns the final program point.
func (g *ProgramGraph) Terminal() *Node { return g.terminal }

// Node returns the node with the given id.
func (g *ProgramGraph) Node(id int) *Node { return g.Nodes[id] }

func (g *ProgramGraph) NumNodes() int { return len(g.Nodes) }

// Validate checks graph coherence: each id maps to exactly one node object,
// every action is well formed, every access refers to a declared variable,
// and exactly one node is terminal.
func (g *ProgramGraph) Validate() error {
	terminals := 0
	for id, n := range g.Nodes {
		if n == nil || n.ID != id {
			return &IncoherentGraphError{NodeID: id}
		}
		if n.Terminal {
			terminals++
		}
	}
	if terminals != 1 || g.terminal == nil || !g.terminal.Terminal {
		return fmt.Errorf("graph has %d terminal nodes: %w", terminals, &IncoherentGraphError{NodeID: -1})
	}

	for id, e := range g.Edges {
		if e.ID != id {
			return fmt.Errorf("edge %d stored at %d: %w", e.ID, id, &IncoherentGraphError{NodeID: e.From.ID})
		}
		for _, n := range []*Node{e.From, e.To} {
			if n.ID < 0 || n.ID >= len(g.Nodes) || g.Nodes[n.ID] != n {
				return &IncoherentGraphError{NodeID: n.ID}
			}
		}
		if err := e.Action.Validate(); err != nil {
			return fmt.Errorf("edge %s: %w", e, err)
		}
		accesses := e.Action.Uses()
		if def, ok := e.Action.Defines(); ok {
			accesses = append(accesses, def)
		}
		for _, a := range accesses {
			if _, ok := g.Variables.Of(a); !ok {
				return &UndeclaredVariableError{Name: a.Name, Kind: a.Kind}
			}
		}
	}
	return nil
}
