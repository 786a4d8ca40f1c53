package expr

import "math"

// Operation is a node of an expression tree. Leaves carry an Operand and no
// Operator; `not` keeps its operand in Right.
type Operation struct {
	Operator Operator
	Left     *Operation
	Right    *Operation
	Operand  *Token
}

// Leaf wraps a literal, boolean or access token.
func Leaf(t Token) *Operation { return &Operation{Operand: &t} }

// Binary builds a binary node.
func Binary(op Operator, left, right *Operation) *Operation {
	return &Operation{Operator: op, Left: left, Right: right}
}

// Negation builds `not x`.
func Negation(x *Operation) *Operation { return &Operation{Operator: OpNot, Right: x} }

func (o *Operation) IsLeaf() bool { return o.Operator == "" }

// IsArithmetic reports whether the node evaluates to an integer.
func (o *Operation) IsArithmetic() bool {
	if o.IsLeaf() {
		return o.Operand.Kind == TokLiteral || o.Operand.Kind == TokAccess
	}
	return o.Operator.IsArithmetic()
}

// IsBoolean reports whether the node evaluates to a truth value.
func (o *Operation) IsBoolean() bool {
	if o.IsLeaf() {
		return o.Operand.Kind == TokBool
	}
	return o.Operator.IsRelational() || o.Operator.IsBoolean()
}

func (o *Operation) precedence() int {
	if o.IsLeaf() {
		return math.MaxInt
	}
	return o.Operator.Precedence()
}

func (o *Operation) String() string { return joinTokens(Flatten(o)) }

// ParseOperatorTree rebuilds the operation tree of a flat token sequence. The
// sequence is split at the weakest operator outside parentheses, the rightmost
// one among equals so that binary operators associate to the left, and both
// halves are parsed recursively. A sequence without operators is a leaf.
func ParseOperatorTree(tokens []Token) (*Operation, error) {
	op, err := parseTree(tokens)
	if err != nil {
		return nil, err
	}
	if _, reason := typeOf(op); reason != "" {
		return nil, malformed(tokens, reason)
	}
	return op, nil
}

func parseTree(tokens []Token) (*Operation, error) {
	inner, err := stripParens(tokens)
	if err != nil {
		return nil, err
	}
	switch len(inner) {
	case 0:
		return nil, malformed(tokens, "empty expression")
	case 1:
		if !inner[0].isOperand() {
			return nil, malformed(tokens, "operator without operands")
		}
		return Leaf(inner[0]), nil
	}

	split, err := splitPoint(inner)
	if err != nil {
		return nil, err
	}
	op := inner[split].Op

	if op.IsUnary() {
		if split != 0 {
			return nil, malformed(tokens, "misplaced "+string(op))
		}
		right, err := parseTree(inner[1:])
		if err != nil {
			return nil, err
		}
		return Negation(right), nil
	}

	if split == 0 || split == len(inner)-1 {
		return nil, malformed(tokens, "missing operand for "+string(op))
	}
	left, err := parseTree(inner[:split])
	if err != nil {
		return nil, err
	}
	right, err := parseTree(inner[split+1:])
	if err != nil {
		return nil, err
	}
	return Binary(op, left, right), nil
}

// splitPoint finds the weakest top-level operator.
func splitPoint(tokens []Token) (int, error) {
	depth, best, bestPrec := 0, -1, math.MaxInt
	for i, t := range tokens {
		switch t.Kind {
		case TokLParen:
			depth++
		case TokRParen:
			depth--
			if depth < 0 {
				return 0, malformed(tokens, "unbalanced parentheses")
			}
		case TokOperator:
			if depth != 0 {
				continue
			}
			p := t.Op.Precedence()
			if p == 0 {
				return 0, malformed(tokens, "unknown operator "+string(t.Op))
			}
			// prefix operators keep the leftmost occurrence
			if p < bestPrec || (p == bestPrec && !t.Op.IsUnary()) {
				best, bestPrec = i, p
			}
		}
	}
	if depth != 0 {
		return 0, malformed(tokens, "unbalanced parentheses")
	}
	if best < 0 {
		return 0, malformed(tokens, "operands without operator")
	}
	return best, nil
}

// stripParens removes parentheses enclosing the whole sequence.
func stripParens(tokens []Token) ([]Token, error) {
	for len(tokens) >= 2 && tokens[0].Kind == TokLParen {
		depth, closing := 0, -1
		for i, t := range tokens {
			if t.Kind == TokLParen {
				depth++
			} else if t.Kind == TokRParen {
				depth--
				if depth == 0 {
					closing = i
					break
				}
			}
		}
		if closing < 0 {
			return nil, malformed(tokens, "unbalanced parentheses")
		}
		if closing != len(tokens)-1 {
			break
		}
		tokens = tokens[1:closing]
	}
	return tokens, nil
}

// typeOf checks operand types bottom-up. It returns whether the node is
// boolean, or a non-empty reason when the tree is ill-typed.
func typeOf(o *Operation) (bool, string) {
	if o.IsLeaf() {
		if o.Operand.Kind == TokAccess && o.Operand.Access.Kind == Array && o.Operand.Access.Index == nil {
			return false, "array access without index"
		}
		return o.Operand.Kind == TokBool, ""
	}
	if o.Operator.IsUnary() {
		isBool, reason := typeOf(o.Right)
		if reason == "" && !isBool {
			reason = "not applied to an arithmetic operand"
		}
		return true, reason
	}
	lb, reason := typeOf(o.Left)
	if reason != "" {
		return false, reason
	}
	rb, reason := typeOf(o.Right)
	if reason != "" {
		return false, reason
	}
	switch {
	case o.Operator.IsArithmetic():
		if lb || rb {
			return false, string(o.Operator) + " applied to a boolean operand"
		}
		return false, ""
	case o.Operator.IsRelational():
		if lb || rb {
			return true, string(o.Operator) + " applied to a boolean operand"
		}
		return true, ""
	default:
		if !lb || !rb {
			return true, string(o.Operator) + " applied to an arithmetic operand"
		}
		return true, ""
	}
}

// Flatten expands a tree into tokens, adding parentheses only where
// precedence or left associativity requires them.
func Flatten(o *Operation) []Token {
	var out []Token
	flatten(o, &out)
	return out
}

func flatten(o *Operation, out *[]Token) {
	if o.IsLeaf() {
		*out = append(*out, *o.Operand)
		return
	}
	if o.Operator.IsUnary() {
		*out = append(*out, OperatorToken(o.Operator))
		flattenChild(o.Right, o.Right.precedence() < precNot, out)
		return
	}
	p := o.Operator.Precedence()
	flattenChild(o.Left, o.Left.precedence() < p, out)
	*out = append(*out, OperatorToken(o.Operator))
	flattenChild(o.Right, o.Right.precedence() <= p, out)
}

func flattenChild(o *Operation, paren bool, out *[]Token) {
	if paren {
		*out = append(*out, LParen())
	}
	flatten(o, out)
	if paren {
		*out = append(*out, RParen())
	}
}

// Variables collects the variables touched by the tree from left to right.
// An array access contributes the array followed by the variables of its index.
func Variables(o *Operation) []VariableAccess {
	var vars []VariableAccess
	collect(o, &vars)
	return vars
}

func collect(o *Operation, vars *[]VariableAccess) {
	if o == nil {
		return
	}
	if o.IsLeaf() {
		if o.Operand.Kind == TokAccess {
			a := *o.Operand.Access
			*vars = append(*vars, a)
			if a.Kind == Array && a.Index != nil {
				collect(a.Index.Op, vars)
			}
		}
		return
	}
	collect(o.Left, vars)
	collect(o.Right, vars)
}

// Equal reports whether two trees have the same shape and operands.
func Equal(a, b *Operation) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Operator != b.Operator {
		return false
	}
	if a.IsLeaf() {
		return tokenEqual(*a.Operand, *b.Operand)
	}
	return Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
}

func tokenEqual(a, b Token) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TokLiteral:
		return a.Value == b.Value
	case TokBool:
		return a.Bool == b.Bool
	case TokOperator:
		return a.Op == b.Op
	case TokAccess:
		if a.Access.Key() != b.Access.Key() {
			return false
		}
		if a.Access.Index == nil || b.Access.Index == nil {
			return a.Access.Index == b.Access.Index
		}
		return Equal(a.Access.Index.Op, b.Access.Index.Op)
	}
	return true
}
