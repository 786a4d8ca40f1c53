package expr

import "fmt"

// MalformedExpressionError reports a token sequence that does not form a
// well-typed expression tree.
type MalformedExpressionError struct {
	Expr   string
	Reason string
}

func (e *MalformedExpressionError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("malformed expression: %s", e.Reason)
	}
	return fmt.Sprintf("malformed expression %q: %s", e.Expr, e.Reason)
}

func malformed(tokens []Token, reason string) error {
	return &MalformedExpressionError{Expr: joinTokens(tokens), Reason: reason}
}
