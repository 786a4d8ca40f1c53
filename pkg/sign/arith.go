package sign

import "github.com/l3aro/microc-analysis/pkg/expr"

// lift applies a concrete-sign table to every pair of signs drawn from l and
// r. An empty operand gives an empty result; undef on either side is
// absorbing for that pair.
func lift(l, r Set, table func(a, b Set) Set) Set {
	if l.IsEmpty() || r.IsEmpty() {
		return Empty
	}
	var out Set
	for _, a := range l.Elements() {
		for _, b := range r.Elements() {
			if a == Undef || b == Undef {
				out |= Undef
				continue
			}
			out |= table(a, b)
		}
	}
	return out
}

func addSign(a, b Set) Set {
	switch {
	case a == Zero:
		return b
	case b == Zero:
		return a
	case a == b:
		return a
	default:
		return Top
	}
}

func mulSign(a, b Set) Set {
	switch {
	case a == Zero || b == Zero:
		return Zero
	case a == b:
		return Plus
	default:
		return Minus
	}
}

func divSign(a, b Set) Set {
	switch {
	case b == Zero:
		return Undef
	case b != Plus && b != Minus:
		panic(ErrDivisionGuard)
	case a == Zero:
		return Zero
	default:
		// integer division truncates: |a| < |b| gives 0
		return mulSign(a, b) | Zero
	}
}

func modSign(a, b Set) Set {
	switch {
	case b == Zero:
		return Undef
	case b != Plus && b != Minus:
		panic(ErrDivisionGuard)
	case a == Zero:
		return Zero
	default:
		return a | Zero
	}
}

func Add(l, r Set) Set { return lift(l, r, addSign) }

func Sub(l, r Set) Set { return Add(l, Negate(r)) }

func Mul(l, r Set) Set { return lift(l, r, mulSign) }

func Div(l, r Set) Set { return lift(l, r, divSign) }

func Mod(l, r Set) Set { return lift(l, r, modSign) }

// Negate swaps + and -. Zero, undef and the empty set are preserved.
func Negate(s Set) Set {
	out := s &^ (Plus | Minus)
	if s.Has(Plus) {
		out |= Minus
	}
	if s.Has(Minus) {
		out |= Plus
	}
	return out
}

// Apply evaluates an arithmetic operator on two sets.
func Apply(op expr.Operator, l, r Set) Set {
	switch op {
	case expr.OpAdd:
		return Add(l, r)
	case expr.OpSub:
		return Sub(l, r)
	case expr.OpMul:
		return Mul(l, r)
	case expr.OpDiv:
		return Div(l, r)
	case expr.OpMod:
		return Mod(l, r)
	}
	panic("sign: not an arithmetic operator: " + string(op))
}
