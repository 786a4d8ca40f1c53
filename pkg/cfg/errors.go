package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/expr"
	"github.com/l3aro/microc-analysis/pkg/syntax"
)

var (
	ErrInvalidArrayLength   = errors.New("array length must be positive")
	ErrDuplicateDeclaration = errors.New("variable already declared")
	ErrEmptyBlock           = errors.New("empty block")
)

// UndeclaredVariableError reports an access to a variable that was not
// declared earlier with the same kind.
type UndeclaredVariableError struct {
	Name string
	Kind expr.Kind
	Pos  syntax.Pos
}

func (e *UndeclaredVariableError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: undeclared %s %q", e.Pos.Line, e.Pos.Col, e.Kind, e.Name)
	}
	return fmt.Sprintf("undeclared %s %q", e.Kind, e.Name)
}

// IncoherentGraphError reports a node id that does not map to exactly one
// node object. NodeID is -1 when the problem is not tied to a single node.
type IncoherentGraphError struct {
	NodeID int
}

func (e *IncoherentGraphError) Error() string {
	if e.NodeID < 0 {
		return "incoherent program graph"
	}
	return fmt.Sprintf("incoherent program graph at node q%d", e.NodeID)
}

// UnknownActionKindError reports an action whose kind is unknown or whose
// payload does not match its kind.
type UnknownActionKindError struct {
	Kind string
}

func (e *UnknownActionKindError) Error() string {
	return fmt.Sprintf("invalid action of kind %q", e.Kind)
}

// InvalidRecordSelectorError reports a record access with a field other than
// fst or snd.
type InvalidRecordSelectorError struct {
	Name  string
	Field string
	Pos   syntax.Pos
}

func (e *InvalidRecordSelectorError) Error() string {
	return fmt.Sprintf("%d:%d: invalid selector %q on record %q", e.Pos.Line, e.Pos.Col, e.Field, e.Name)
}
