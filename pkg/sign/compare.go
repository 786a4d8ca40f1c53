package sign

import "github.com/l3aro/microc-analysis/pkg/expr"

// Outcome is the set of truth values a comparison can take.
type Outcome uint8

const (
	CanBeTrue Outcome = 1 << iota
	CanBeFalse

	Never  Outcome = 0
	Either         = CanBeTrue | CanBeFalse
)

func (o Outcome) invert() Outcome {
	var out Outcome
	if o&CanBeTrue != 0 {
		out |= CanBeFalse
	}
	if o&CanBeFalse != 0 {
		out |= CanBeTrue
	}
	return out
}

// greater compares two concrete signs. Only equal nonzero signs leave the
// result open.
func greater(a, b Set) Outcome {
	switch {
	case a == b && a != Zero:
		return Either
	case a > b: // bit order follows - < 0 < +
		return CanBeTrue
	default:
		return CanBeFalse
	}
}

func equal(a, b Set) Outcome {
	switch {
	case a != b:
		return CanBeFalse
	case a == Zero:
		return CanBeTrue
	default:
		return Either
	}
}

// relate evaluates a relational operator on two concrete signs.
func relate(op expr.Operator, a, b Set) Outcome {
	switch op {
	case expr.OpGreater:
		return greater(a, b)
	case expr.OpLess:
		return greater(b, a)
	case expr.OpGreaterEqual:
		return greater(b, a).invert()
	case expr.OpLessEqual:
		return greater(a, b).invert()
	case expr.OpEqual:
		return equal(a, b)
	case expr.OpNotEqual:
		return equal(a, b).invert()
	}
	panic("sign: not a relational operator: " + string(op))
}

// Compare returns every truth value `l op r` can take for signs drawn from l
// and r. Pairs involving undef take no value.
func Compare(op expr.Operator, l, r Set) Outcome {
	var out Outcome
	for _, a := range (l &^ Undef).Elements() {
		for _, b := range (r &^ Undef).Elements() {
			out |= relate(op, a, b)
		}
	}
	return out
}

// Narrow keeps the signs of each operand that take part in at least one pair
// for which `l op r` can hold. Both results are empty when no pair can.
func Narrow(op expr.Operator, l, r Set) (Set, Set) {
	var nl, nr Set
	for _, a := range (l &^ Undef).Elements() {
		for _, b := range (r &^ Undef).Elements() {
			if relate(op, a, b)&CanBeTrue != 0 {
				nl |= a
				nr |= b
			}
		}
	}
	return nl, nr
}
