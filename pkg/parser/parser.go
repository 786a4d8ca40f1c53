// Package parser turns microC source text into a syntax tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/l3aro/microc-analysis/pkg/syntax"
)

// SyntaxError is a parse failure at a source position.
type SyntaxError struct {
	Pos syntax.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

var keywords = map[string]bool{
	"int": true, "if": true, "else": true, "while": true,
	"read": true, "write": true, "true": true, "false": true, "not": true,
}

var relOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true}

type parser struct {
	toks []token
	i    int
}

// Parse parses a complete microC program.
func Parse(src string) (*syntax.Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	prog := &syntax.Program{}
	for !p.at(tEOF, "") {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.typ != tEOF {
		p.i++
	}
	return t
}

// at reports whether the current token has the given type and, when text is
// not empty, the given text.
func (p *parser) at(typ tokenType, text string) bool {
	t := p.peek()
	return t.typ == typ && (text == "" || t.text == text)
}

func (p *parser) accept(text string) bool {
	t := p.peek()
	if (t.typ == tSymbol || t.typ == tIdent) && t.text == text {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(text string) (token, error) {
	t := p.peek()
	if (t.typ == tSymbol || t.typ == tIdent) && t.text == text {
		p.i++
		return t, nil
	}
	return t, p.errorf(t, "expected %q, found %s", text, t)
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) ident() (token, error) {
	t := p.peek()
	if t.typ != tIdent || keywords[t.text] {
		return t, p.errorf(t, "expected identifier, found %s", t)
	}
	p.i++
	return t, nil
}

func (p *parser) number() (int, token, error) {
	t := p.peek()
	neg := false
	if t.typ == tSymbol && t.text == "-" && p.toks[p.i+1].typ == tNumber {
		neg = true
		p.i++
	}
	n := p.peek()
	if n.typ != tNumber {
		return 0, t, p.errorf(n, "expected number, found %s", n)
	}
	p.i++
	v, err := strconv.Atoi(n.text)
	if err != nil {
		return 0, t, p.errorf(n, "invalid number %s", n.text)
	}
	if neg {
		v = -v
	}
	return v, t, nil
}

func (p *parser) item() (syntax.Item, error) {
	if p.at(tIdent, "int") || p.at(tSymbol, "{") {
		return p.declaration()
	}
	return p.statement()
}

func (p *parser) declaration() (*syntax.Declaration, error) {
	start := p.peek()
	decl := &syntax.Declaration{At: start.pos, Kind: syntax.DeclVariable}

	switch {
	case p.accept("{"):
		// fields are separated, not terminated: {int fst; int snd}
		for i, field := range []string{"fst", "snd"} {
			if i > 0 {
				if _, err := p.expect(";"); err != nil {
					return nil, err
				}
			}
			if _, err := p.expect("int"); err != nil {
				return nil, err
			}
			if _, err := p.expect(field); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect("}"); err != nil {
			return nil, err
		}
		decl.Kind = syntax.DeclRecord
	default:
		if _, err := p.expect("int"); err != nil {
			return nil, err
		}
		if p.accept("[") {
			n, _, err := p.number()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			decl.Kind = syntax.DeclArray
			decl.Length = n
		}
	}

	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	decl.Name = name.text
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) statement() (syntax.Stmt, error) {
	t := p.peek()
	switch {
	case p.accept("read"):
		target, err := p.access()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &syntax.Read{At: t.pos, Target: target}, nil

	case p.accept("write"):
		value, err := p.aexpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &syntax.Write{At: t.pos, Value: value}, nil

	case p.accept("if"):
		cond, err := p.condition()
		if err != nil {
			return nil, err
		}
		then, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt := &syntax.If{At: t.pos, Cond: cond, Then: then}
		if p.accept("else") {
			if stmt.Else, err = p.block(); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case p.accept("while"):
		cond, err := p.condition()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &syntax.While{At: t.pos, Cond: cond, Body: body}, nil

	case t.typ == tIdent && !keywords[t.text]:
		target, err := p.access()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":="); err != nil {
			return nil, err
		}
		value, err := p.aexpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &syntax.Assign{At: t.pos, Target: target, Value: value}, nil
	}
	return nil, p.errorf(t, "expected statement, found %s", t)
}

func (p *parser) condition() (syntax.BExpr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.bexpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return cond, nil
}

// block parses `{ stmt+ }`. Empty blocks are rejected later by the graph
// builder, so an empty list is returned as a non-nil slice.
func (p *parser) block() ([]syntax.Stmt, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	stmts := []syntax.Stmt{}
	for !p.accept("}") {
		if p.at(tEOF, "") {
			return nil, p.errorf(p.peek(), "unterminated block")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *parser) access() (*syntax.Access, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	acc := &syntax.Access{At: name.pos, Kind: syntax.AccessVariable, Name: name.text}
	switch {
	case p.accept("["):
		idx, err := p.aexpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		acc.Kind = syntax.AccessArray
		acc.Index = idx
	case p.accept("."):
		field := p.next()
		if field.typ != tIdent {
			return nil, p.errorf(field, "expected record field, found %s", field)
		}
		acc.Kind = syntax.AccessRecord
		acc.Field = field.text
	}
	return acc, nil
}

func (p *parser) aexpr() (syntax.AExpr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.at(tSymbol, "+") || p.at(tSymbol, "-") {
		op := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &syntax.Arith{At: op.pos, Op: op.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) term() (syntax.AExpr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.at(tSymbol, "*") || p.at(tSymbol, "/") || p.at(tSymbol, "%") {
		op := p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &syntax.Arith{At: op.pos, Op: op.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) factor() (syntax.AExpr, error) {
	t := p.peek()
	switch {
	case t.typ == tNumber || (t.typ == tSymbol && t.text == "-"):
		v, _, err := p.number()
		if err != nil {
			return nil, err
		}
		return &syntax.Num{At: t.pos, Value: v}, nil
	case p.accept("("):
		e, err := p.aexpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.typ == tIdent:
		return p.access()
	}
	return nil, p.errorf(t, "expected arithmetic expression, found %s", t)
}

func (p *parser) bexpr() (syntax.BExpr, error) {
	left, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.at(tSymbol, "|") {
		op := p.next()
		right, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		left = &syntax.Logic{At: op.pos, Op: op.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) conjunction() (syntax.BExpr, error) {
	left, err := p.negation()
	if err != nil {
		return nil, err
	}
	for p.at(tSymbol, "&") {
		op := p.next()
		right, err := p.negation()
		if err != nil {
			return nil, err
		}
		left = &syntax.Logic{At: op.pos, Op: op.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) negation() (syntax.BExpr, error) {
	t := p.peek()
	if p.accept("not") {
		x, err := p.negation()
		if err != nil {
			return nil, err
		}
		return &syntax.Not{At: t.pos, X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (syntax.BExpr, error) {
	t := p.peek()
	switch {
	case p.accept("true"):
		return &syntax.Bool{At: t.pos, Value: true}, nil
	case p.accept("false"):
		return &syntax.Bool{At: t.pos, Value: false}, nil
	case p.at(tSymbol, "("):
		// A parenthesis opens either a nested condition or the left operand
		// of a relation; try the condition first and rewind on failure.
		save := p.i
		p.i++
		if b, err := p.bexpr(); err == nil && p.accept(")") {
			return b, nil
		}
		p.i = save
	}
	return p.relation()
}

func (p *parser) relation() (syntax.BExpr, error) {
	left, err := p.aexpr()
	if err != nil {
		return nil, err
	}
	op := p.peek()
	if op.typ != tSymbol || !relOps[op.text] {
		return nil, p.errorf(op, "expected relational operator, found %s", op)
	}
	p.i++
	right, err := p.aexpr()
	if err != nil {
		return nil, err
	}
	return &syntax.Rel{At: op.pos, Op: op.text, Left: left, Right: right}, nil
}
