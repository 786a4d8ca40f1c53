package expr

// Operator is an arithmetic, relational or boolean operator.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"

	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="

	OpAnd Operator = "&"
	OpOr  Operator = "|"
	OpNot Operator = "not"
)

// Binding strength, lowest first. A flat token sequence is split at the
// weakest operator found outside parentheses.
const (
	precOr = iota + 1
	precAnd
	precNot
	precRelational
	precAdditive
	precMultiplicative
)

// Precedence returns the binding strength of the operator, or 0 when the
// operator is unknown.
func (o Operator) Precedence() int {
	switch o {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpNot:
		return precNot
	case OpLess, OpGreater, OpLessEqual, OpGreaterEqual, OpEqual, OpNotEqual:
		return precRelational
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv, OpMod:
		return precMultiplicative
	default:
		return 0
	}
}

func (o Operator) Valid() bool { return o.Precedence() > 0 }

func (o Operator) IsArithmetic() bool {
	p := o.Precedence()
	return p == precAdditive || p == precMultiplicative
}

func (o Operator) IsRelational() bool { return o.Precedence() == precRelational }

// IsBoolean reports whether the operator combines boolean operands.
func (o Operator) IsBoolean() bool { return o == OpAnd || o == OpOr || o == OpNot }

func (o Operator) IsUnary() bool { return o == OpNot }

// Negated returns the relational operator that holds exactly when o does not.
func (o Operator) Negated() (Operator, bool) {
	switch o {
	case OpLess:
		return OpGreaterEqual, true
	case OpGreater:
		return OpLessEqual, true
	case OpLessEqual:
		return OpGreater, true
	case OpGreaterEqual:
		return OpLess, true
	case OpEqual:
		return OpNotEqual, true
	case OpNotEqual:
		return OpEqual, true
	}
	return "", false
}

// Flipped returns the relational operator with swapped operands: a < b is b > a.
func (o Operator) Flipped() (Operator, bool) {
	switch o {
	case OpLess:
		return OpGreater, true
	case OpGreater:
		return OpLess, true
	case OpLessEqual:
		return OpGreaterEqual, true
	case OpGreaterEqual:
		return OpLessEqual, true
	case OpEqual, OpNotEqual:
		return o, true
	}
	return "", false
}

func (o Operator) String() string { return string(o) }
