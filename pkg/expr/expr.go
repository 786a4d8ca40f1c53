// Package expr models microC expressions for the program graph: variable
// declarations and accesses, flat token sequences, and the binary operation
// tree derived from them.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the shape of a variable.
type Kind int

const (
	Scalar Kind = iota // int x
	Array              // int[n] A
	Record             // {int fst; int snd} R
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "variable"
	case Array:
		return "array"
	case Record:
		return "record"
	default:
		return "unknown"
	}
}

// Selector picks a record field.
type Selector int

const (
	NoField Selector = iota
	First
	Second
)

func (s Selector) String() string {
	switch s {
	case First:
		return "fst"
	case Second:
		return "snd"
	default:
		return ""
	}
}

// ParseSelector maps "fst"/"snd" to a Selector.
func ParseSelector(s string) (Selector, bool) {
	switch s {
	case "fst":
		return First, true
	case "snd":
		return Second, true
	}
	return NoField, false
}

// VariableDeclaration is a declared variable. Length is only set for arrays.
type VariableDeclaration struct {
	Name   string
	Kind   Kind
	Length int
}

func (d VariableDeclaration) String() string {
	switch d.Kind {
	case Array:
		return fmt.Sprintf("int[%d] %s", d.Length, d.Name)
	case Record:
		return fmt.Sprintf("{int fst; int snd} %s", d.Name)
	default:
		return "int " + d.Name
	}
}

// Key identifies the storage touched by an access. Two accesses with equal
// keys refer to the same variable slot; array indices are not part of the key.
type Key struct {
	Name  string
	Kind  Kind
	Field Selector
}

// VariableAccess is a use of a variable. Array accesses carry the index
// expression, record accesses carry the field selector.
type VariableAccess struct {
	Name  string
	Kind  Kind
	Index *AExpr
	Field Selector
}

// Key returns the lookup key of the access.
func (a VariableAccess) Key() Key {
	return Key{Name: a.Name, Kind: a.Kind, Field: a.Field}
}

func (a VariableAccess) String() string {
	switch a.Kind {
	case Array:
		if a.Index == nil {
			return a.Name + "[?]"
		}
		return fmt.Sprintf("%s[%s]", a.Name, a.Index)
	case Record:
		return a.Name + "." + a.Field.String()
	default:
		return a.Name
	}
}

// TokenKind discriminates Token.
type TokenKind int

const (
	TokLiteral TokenKind = iota
	TokAccess
	TokOperator
	TokBool
	TokLParen
	TokRParen
)

// Token is one element of a flat expression sequence.
type Token struct {
	Kind   TokenKind
	Value  int             // TokLiteral
	Access *VariableAccess // TokAccess
	Op     Operator        // TokOperator
	Bool   bool            // TokBool
}

func Literal(v int) Token                 { return Token{Kind: TokLiteral, Value: v} }
func AccessToken(a VariableAccess) Token { return Token{Kind: TokAccess, Access: &a} }
func OperatorToken(op Operator) Token    { return Token{Kind: TokOperator, Op: op} }
func BoolToken(b bool) Token             { return Token{Kind: TokBool, Bool: b} }
func LParen() Token                      { return Token{Kind: TokLParen} }
func RParen() Token                      { return Token{Kind: TokRParen} }

func (t Token) String() string {
	switch t.Kind {
	case TokLiteral:
		return strconv.Itoa(t.Value)
	case TokAccess:
		return t.Access.String()
	case TokOperator:
		return string(t.Op)
	case TokBool:
		return strconv.FormatBool(t.Bool)
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	}
	return "?"
}

// isOperand reports whether the token can stand alone as a leaf.
func (t Token) isOperand() bool {
	return t.Kind == TokLiteral || t.Kind == TokAccess || t.Kind == TokBool
}

func joinTokens(tokens []Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 && t.Kind != TokRParen && tokens[i-1].Kind != TokLParen {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// AExpr is an arithmetic expression: its token sequence and operation tree.
type AExpr struct {
	Tokens []Token
	Op     *Operation
}

// NewAExpr derives the operation tree of an arithmetic token sequence.
func NewAExpr(tokens []Token) (*AExpr, error) {
	op, err := ParseOperatorTree(tokens)
	if err != nil {
		return nil, err
	}
	if !op.IsArithmetic() {
		return nil, malformed(tokens, "not an arithmetic expression")
	}
	return &AExpr{Tokens: tokens, Op: op}, nil
}

// AExprOf wraps an already built arithmetic tree.
func AExprOf(op *Operation) *AExpr {
	return &AExpr{Tokens: Flatten(op), Op: op}
}

// Variables returns every variable the expression reads, including the
// variables used inside array indices.
func (e *AExpr) Variables() []VariableAccess {
	if e == nil {
		return nil
	}
	return Variables(e.Op)
}

// Single returns the operand of an expression without operators.
func (e *AExpr) Single() (Token, bool) {
	if e == nil || e.Op == nil || !e.Op.IsLeaf() {
		return Token{}, false
	}
	return *e.Op.Operand, true
}

func (e *AExpr) String() string {
	if e == nil {
		return ""
	}
	return joinTokens(e.Tokens)
}

// BExpr is a boolean expression: its token sequence and operation tree.
type BExpr struct {
	Tokens []Token
	Op     *Operation
}

// NewBExpr derives the operation tree of a boolean token sequence.
func NewBExpr(tokens []Token) (*BExpr, error) {
	op, err := ParseOperatorTree(tokens)
	if err != nil {
		return nil, err
	}
	if !op.IsBoolean() {
		return nil, malformed(tokens, "not a boolean expression")
	}
	return &BExpr{Tokens: tokens, Op: op}, nil
}

// BExprOf wraps an already built boolean tree.
func BExprOf(op *Operation) *BExpr {
	return &BExpr{Tokens: Flatten(op), Op: op}
}

// Guards returns the pair of edge guards for a branch on cond: the condition
// itself and its logical negation.
func Guards(cond *BExpr) (then, otherwise *BExpr) {
	neg := &Operation{Operator: OpNot, Right: cond.Op}
	return cond, BExprOf(neg)
}

func (e *BExpr) Variables() []VariableAccess {
	if e == nil {
		return nil
	}
	return Variables(e.Op)
}

func (e *BExpr) String() string {
	if e == nil {
		return ""
	}
	return joinTokens(e.Tokens)
}
