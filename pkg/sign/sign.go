// Package sign implements the sign abstract domain: sets over the concrete
// signs -, 0 and + plus the undef marker produced by a possible division by
// zero. Sets form a powerset lattice of height 4 ordered by inclusion; the
// empty set is bottom and marks unreachable states.
package sign

import (
	"errors"
	"strings"
)

// Set is a set of signs. The zero value is the empty set.
type Set uint8

const (
	Minus Set = 1 << iota
	Zero
	Plus
	Undef

	Empty Set = 0
	Top       = Minus | Zero | Plus
	All       = Top | Undef
)

// ErrDivisionGuard is raised when a division or modulo table is consulted
// with a divisor that is not a single concrete sign. It marks a broken
// internal invariant and never surfaces for well-formed input.
var ErrDivisionGuard = errors.New("sign: division guard invariant violated")

// concrete lists the single-sign sets in display order.
var concrete = [...]Set{Minus, Zero, Plus}

// Of returns the sign of an integer.
func Of(n int) Set {
	switch {
	case n > 0:
		return Plus
	case n < 0:
		return Minus
	default:
		return Zero
	}
}

func (s Set) Has(x Set) bool    { return s&x == x }
func (s Set) IsEmpty() bool     { return s == Empty }
func (s Set) Union(t Set) Set   { return s | t }
func (s Set) Meet(t Set) Set    { return s & t }
func (s Set) Subset(t Set) bool { return s&^t == 0 }

// Complement returns the concrete signs missing from s. The undef marker is
// kept as is.
func Complement(s Set) Set {
	return (Top &^ s) | (s & Undef)
}

// Elements returns the single-sign sets contained in s, undef last.
func (s Set) Elements() []Set {
	var out []Set
	for _, c := range concrete {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	if s.Has(Undef) {
		out = append(out, Undef)
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, 4)
	for _, e := range s.Elements() {
		switch e {
		case Minus:
			names = append(names, "-")
		case Zero:
			names = append(names, "0")
		case Plus:
			names = append(names, "+")
		case Undef:
			names = append(names, "undef")
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Parse reads the String form of a set.
func Parse(s string) (Set, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return Empty, false
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return Empty, true
	}
	var out Set
	for _, name := range strings.Split(body, ",") {
		switch strings.TrimSpace(name) {
		case "-":
			out |= Minus
		case "0":
			out |= Zero
		case "+":
			out |= Plus
		case "undef":
			out |= Undef
		default:
			return Empty, false
		}
	}
	return out, true
}

// MarshalText implements encoding.TextMarshaler.
func (s Set) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Set) UnmarshalText(b []byte) error {
	v, ok := Parse(string(b))
	if !ok {
		return errors.New("sign: invalid set " + string(b))
	}
	*s = v
	return nil
}
