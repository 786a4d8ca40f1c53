package cfg

import (
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/expr"
	"github.com/l3aro/microc-analysis/pkg/syntax"
)

// Severity of a construction diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a non-fatal finding reported while building the graph.
type Diagnostic struct {
	Pos      syntax.Pos `json:"pos" yaml:"pos" msgpack:"pos"`
	Severity Severity   `json:"severity" yaml:"severity" msgpack:"severity"`
	Message  string     `json:"message" yaml:"message" msgpack:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Col, d.Severity, d.Message)
}

type graphBuilder struct {
	graph    *ProgramGraph
	declared []syntax.Pos // declaration position per variable index
	used     []bool
	diags    []Diagnostic
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		graph: &ProgramGraph{Variables: newVariableTable()},
	}
}

// Build lowers a parse tree into a program graph. Nodes are numbered in
// construction order starting at 0, the entry point. The node reached after
// the last top-level item is the terminal point.
func Build(p *syntax.Program) (*ProgramGraph, []Diagnostic, error) {
	b := newGraphBuilder()

	end := b.newNode()
	for _, item := range p.Items {
		var err error
		switch it := item.(type) {
		case *syntax.Declaration:
			end, err = b.declare(end, it)
		case syntax.Stmt:
			end, err = b.stmt(end, it, nil)
		default:
			err = fmt.Errorf("unsupported program item %T", item)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	end.Terminal = true
	b.graph.terminal = end

	if err := b.graph.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating program graph: %w", err)
	}
	b.reportUnused()

	return b.graph, b.diags, nil
}

func (b *graphBuilder) newNode() *Node {
	n := &Node{ID: len(b.graph.Nodes)}
	b.graph.Nodes = append(b.graph.Nodes, n)
	return n
}

// nodeOr returns to, or a fresh node when to is nil.
func (b *graphBuilder) nodeOr(to *Node) *Node {
	if to != nil {
		return to
	}
	return b.newNode()
}

func (b *graphBuilder) addEdge(from, to *Node, action Action) *Edge {
	e := &Edge{ID: len(b.graph.Edges), From: from, To: to, Action: action}
	b.graph.Edges = append(b.graph.Edges, e)
	from.Out = append(from.Out, e)
	to.In = append(to.In, e)
	return e
}

func (b *graphBuilder) warn(pos syntax.Pos, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{Pos: pos, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (b *graphBuilder) declare(from *Node, d *syntax.Declaration) (*Node, error) {
	decl := expr.VariableDeclaration{Name: d.Name}
	switch d.Kind {
	case syntax.DeclVariable:
		decl.Kind = expr.Scalar
	case syntax.DeclArray:
		if d.Length <= 0 {
			return nil, fmt.Errorf("%d:%d: %s[%d]: %w", d.At.Line, d.At.Col, d.Name, d.Length, ErrInvalidArrayLength)
		}
		decl.Kind = expr.Array
		decl.Length = d.Length
	case syntax.DeclRecord:
		decl.Kind = expr.Record
	default:
		return nil, fmt.Errorf("%d:%d: unknown declaration kind %q", d.At.Line, d.At.Col, d.Kind)
	}

	if _, ok := b.graph.Variables.add(decl); !ok {
		return nil, fmt.Errorf("%d:%d: %s: %w", d.At.Line, d.At.Col, d.Name, ErrDuplicateDeclaration)
	}
	b.declared = append(b.declared, d.At)
	b.used = append(b.used, false)

	to := b.newNode()
	b.addEdge(from, to, DeclareAction(decl))
	return to, nil
}

// stmt lowers s between from and to, allocating the end point when to is nil,
// and returns the end point.
func (b *graphBuilder) stmt(from *Node, s syntax.Stmt, to *Node) (*Node, error) {
	switch s := s.(type) {
	case *syntax.Assign:
		target, err := b.access(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := b.aexpr(s.Value)
		if err != nil {
			return nil, err
		}
		end := b.nodeOr(to)
		b.addEdge(from, end, AssignAction(target, expr.AExprOf(value)))
		return end, nil

	case *syntax.Read:
		target, err := b.access(s.Target)
		if err != nil {
			return nil, err
		}
		end := b.nodeOr(to)
		b.addEdge(from, end, ReadAction(target))
		return end, nil

	case *syntax.Write:
		value, err := b.aexpr(s.Value)
		if err != nil {
			return nil, err
		}
		end := b.nodeOr(to)
		b.addEdge(from, end, WriteAction(expr.AExprOf(value)))
		return end, nil

	case *syntax.If:
		then, otherwise, err := b.guards(s.Cond, s.At)
		if err != nil {
			return nil, err
		}
		thenPoint := b.newNode()
		b.addEdge(from, thenPoint, GuardAction(then))
		if !s.HasElse() {
			join, err := b.seq(thenPoint, s.Then, to, s.At)
			if err != nil {
				return nil, err
			}
			b.addEdge(from, join, GuardAction(otherwise))
			return join, nil
		}
		elsePoint := b.newNode()
		b.addEdge(from, elsePoint, GuardAction(otherwise))
		join, err := b.seq(thenPoint, s.Then, to, s.At)
		if err != nil {
			return nil, err
		}
		if _, err := b.seq(elsePoint, s.Else, join, s.At); err != nil {
			return nil, err
		}
		return join, nil

	case *syntax.While:
		enter, exit, err := b.guards(s.Cond, s.At)
		if err != nil {
			return nil, err
		}
		body := b.newNode()
		b.addEdge(from, body, GuardAction(enter))
		if _, err := b.seq(body, s.Body, from, s.At); err != nil {
			return nil, err
		}
		end := b.nodeOr(to)
		b.addEdge(from, end, GuardAction(exit))
		return end, nil
	}
	return nil, fmt.Errorf("unsupported statement %T", s)
}

// seq threads the current point through a statement block. The last
// statement ends at to.
func (b *graphBuilder) seq(from *Node, stmts []syntax.Stmt, to *Node, at syntax.Pos) (*Node, error) {
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%d:%d: %w", at.Line, at.Col, ErrEmptyBlock)
	}
	cur := from
	for i, s := range stmts {
		var next *Node
		if i == len(stmts)-1 {
			next = to
		}
		var err error
		if cur, err = b.stmt(cur, s, next); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (b *graphBuilder) guards(cond syntax.BExpr, at syntax.Pos) (then, otherwise *expr.BExpr, err error) {
	op, err := b.bexpr(cond)
	if err != nil {
		return nil, nil, err
	}
	if op.IsLeaf() {
		b.warn(at, "condition is always %t", op.Operand.Bool)
	}
	then, otherwise = expr.Guards(expr.BExprOf(op))
	return then, otherwise, nil
}

func (b *graphBuilder) access(a *syntax.Access) (expr.VariableAccess, error) {
	acc := expr.VariableAccess{Name: a.Name}
	switch a.Kind {
	case syntax.AccessVariable:
		acc.Kind = expr.Scalar
	case syntax.AccessArray:
		acc.Kind = expr.Array
		index, err := b.aexpr(a.Index)
		if err != nil {
			return acc, err
		}
		acc.Index = expr.AExprOf(index)
	case syntax.AccessRecord:
		acc.Kind = expr.Record
		field, ok := expr.ParseSelector(a.Field)
		if !ok {
			return acc, &InvalidRecordSelectorError{Name: a.Name, Field: a.Field, Pos: a.At}
		}
		acc.Field = field
	default:
		return acc, fmt.Errorf("%d:%d: unknown access kind %q", a.At.Line, a.At.Col, a.Kind)
	}

	i, ok := b.graph.Variables.Of(acc)
	if !ok {
		return acc, &UndeclaredVariableError{Name: acc.Name, Kind: acc.Kind, Pos: a.At}
	}
	b.used[i] = true

	if acc.Kind == expr.Array {
		if idx, ok := acc.Index.Single(); ok && idx.Kind == expr.TokLiteral {
			if n := b.graph.Variables.Decl(i).Length; idx.Value < 0 || idx.Value >= n {
				b.warn(a.At, "index %d out of bounds for %s of length %d", idx.Value, acc.Name, n)
			}
		}
	}
	return acc, nil
}

func (b *graphBuilder) aexpr(e syntax.AExpr) (*expr.Operation, error) {
	switch e := e.(type) {
	case *syntax.Num:
		return expr.Leaf(expr.Literal(e.Value)), nil
	case *syntax.Access:
		acc, err := b.access(e)
		if err != nil {
			return nil, err
		}
		return expr.Leaf(expr.AccessToken(acc)), nil
	case *syntax.Arith:
		op := expr.Operator(e.Op)
		if !op.IsArithmetic() {
			return nil, &expr.MalformedExpressionError{Expr: e.Op, Reason: "not an arithmetic operator"}
		}
		left, err := b.aexpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.aexpr(e.Right)
		if err != nil {
			return nil, err
		}
		return expr.Binary(op, left, right), nil
	case nil:
		return nil, &expr.MalformedExpressionError{Reason: "missing arithmetic expression"}
	}
	return nil, &expr.MalformedExpressionError{Reason: fmt.Sprintf("unexpected arithmetic node %T", e)}
}

func (b *graphBuilder) bexpr(e syntax.BExpr) (*expr.Operation, error) {
	switch e := e.(type) {
	case *syntax.Bool:
		return expr.Leaf(expr.BoolToken(e.Value)), nil
	case *syntax.Rel:
		op := expr.Operator(e.Op)
		if !op.IsRelational() {
			return nil, &expr.MalformedExpressionError{Expr: e.Op, Reason: "not a relational operator"}
		}
		left, err := b.aexpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.aexpr(e.Right)
		if err != nil {
			return nil, err
		}
		return expr.Binary(op, left, right), nil
	case *syntax.Logic:
		op := expr.Operator(e.Op)
		if op != expr.OpAnd && op != expr.OpOr {
			return nil, &expr.MalformedExpressionError{Expr: e.Op, Reason: "not a boolean operator"}
		}
		left, err := b.bexpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.bexpr(e.Right)
		if err != nil {
			return nil, err
		}
		return expr.Binary(op, left, right), nil
	case *syntax.Not:
		x, err := b.bexpr(e.X)
		if err != nil {
			return nil, err
		}
		return expr.Negation(x), nil
	case nil:
		return nil, &expr.MalformedExpressionError{Reason: "missing boolean expression"}
	}
	return nil, &expr.MalformedExpressionError{Reason: fmt.Sprintf("unexpected boolean node %T", e)}
}

func (b *graphBuilder) reportUnused() {
	for i, used := range b.used {
		if !used {
			d := b.graph.Variables.Decl(i)
			b.diags = append(b.diags, Diagnostic{
				Pos:      b.declared[i],
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("%s %s is declared but never used", d.Kind, d.Name),
			})
		}
	}
}
