// Package syntax defines the parse tree handed to the program-graph builder.
// It mirrors the microC grammar: top-level declarations and statements,
// variable/array/record accesses, and arithmetic and boolean expressions.
// Operator precedence is already resolved by whoever produced the tree.
package syntax

// Pos is a 1-based source position.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// DeclKind is the kind of a declared variable.
type DeclKind string

const (
	DeclVariable DeclKind = "variable" // int x;
	DeclArray    DeclKind = "array"    // int[n] A;
	DeclRecord   DeclKind = "record"   // {int fst; int snd} R;
)

// AccessKind is the kind of a variable access.
type AccessKind string

const (
	AccessVariable AccessKind = "variable" // x
	AccessArray    AccessKind = "array"    // A[e]
	AccessRecord   AccessKind = "record"   // R.fst, R.snd
)

// Program is the root of a parse tree.
type Program struct {
	Items []Item
}

// Item is a top-level program element: a *Declaration or a Stmt.
type Item interface {
	Pos() Pos
}

// Declaration declares a variable, an array with a fixed length, or a record.
type Declaration struct {
	At     Pos
	Kind   DeclKind
	Name   string
	Length int // arrays only
}

func (d *Declaration) Pos() Pos { return d.At }

// Stmt is a statement node.
type Stmt interface {
	Item
	stmtNode()
}

// Assign is `target := value;`.
type Assign struct {
	At     Pos
	Target *Access
	Value  AExpr
}

// Read is `read target;`.
type Read struct {
	At     Pos
	Target *Access
}

// Write is `write value;`.
type Write struct {
	At    Pos
	Value AExpr
}

// If is `if (cond) { then }` with an optional else block. Else is nil when absent.
type If struct {
	At   Pos
	Cond BExpr
	Then []Stmt
	Else []Stmt
}

// While is `while (cond) { body }`.
type While struct {
	At   Pos
	Cond BExpr
	Body []Stmt
}

func (s *Assign) Pos() Pos { return s.At }
func (s *Read) Pos() Pos   { return s.At }
func (s *Write) Pos() Pos  { return s.At }
func (s *If) Pos() Pos     { return s.At }
func (s *While) Pos() Pos  { return s.At }

func (*Assign) stmtNode() {}
func (*Read) stmtNode()   {}
func (*Write) stmtNode()  {}
func (*If) stmtNode()     {}
func (*While) stmtNode()  {}

// HasElse reports whether the if statement carries an else block.
func (s *If) HasElse() bool { return s.Else != nil }

// AExpr is an arithmetic expression node: *Num, *Access or *Arith.
type AExpr interface {
	Pos() Pos
	aexprNode()
}

// Num is an integer literal.
type Num struct {
	At    Pos
	Value int
}

// Access reads or writes a variable, an array element or a record field.
// Field holds the raw selector text for record accesses ("fst" or "snd").
type Access struct {
	At    Pos
	Kind  AccessKind
	Name  string
	Index AExpr
	Field string
}

// Arith is a binary arithmetic operation. Op is one of + - * / %.
type Arith struct {
	At          Pos
	Op          string
	Left, Right AExpr
}

func (e *Num) Pos() Pos    { return e.At }
func (e *Access) Pos() Pos { return e.At }
func (e *Arith) Pos() Pos  { return e.At }

func (*Num) aexprNode()    {}
func (*Access) aexprNode() {}
func (*Arith) aexprNode()  {}

// BExpr is a boolean expression node: *Bool, *Rel, *Logic or *Not.
type BExpr interface {
	Pos() Pos
	bexprNode()
}

// Bool is the literal true or false.
type Bool struct {
	At    Pos
	Value bool
}

// Rel compares two arithmetic expressions. Op is one of < > <= >= == !=.
type Rel struct {
	At          Pos
	Op          string
	Left, Right AExpr
}

// Logic combines two boolean expressions. Op is & or |.
type Logic struct {
	At          Pos
	Op          string
	Left, Right BExpr
}

// Not negates a boolean expression.
type Not struct {
	At Pos
	X  BExpr
}

func (e *Bool) Pos() Pos  { return e.At }
func (e *Rel) Pos() Pos   { return e.At }
func (e *Logic) Pos() Pos { return e.At }
func (e *Not) Pos() Pos   { return e.At }

func (*Bool) bexprNode()  {}
func (*Rel) bexprNode()   {}
func (*Logic) bexprNode() {}
func (*Not) bexprNode()   {}
