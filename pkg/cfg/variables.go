package cfg

import (
	"sort"

	"golang.org/x/exp/slices"

	"github.com/l3aro/microc-analysis/pkg/expr"
)

// VariableTable holds the declared variables in declaration order. The index
// of a declaration is stable and is used by analyses as a slot id.
type VariableTable struct {
	decls []expr.VariableDeclaration
	index map[string]int
}

func newVariableTable() *VariableTable {
	return &VariableTable{index: make(map[string]int)}
}

func (t *VariableTable) add(d expr.VariableDeclaration) (int, bool) {
	if _, exists := t.index[d.Name]; exists {
		return 0, false
	}
	t.decls = append(t.decls, d)
	t.index[d.Name] = len(t.decls) - 1
	return len(t.decls) - 1, true
}

func (t *VariableTable) Len() int { return len(t.decls) }

// Decl returns the declaration at index i.
func (t *VariableTable) Decl(i int) expr.VariableDeclaration { return t.decls[i] }

// All returns a copy of the declarations in declaration order.
func (t *VariableTable) All() []expr.VariableDeclaration {
	return slices.Clone(t.decls)
}

// Lookup finds a declaration by name and kind.
func (t *VariableTable) Lookup(name string, kind expr.Kind) (int, bool) {
	i, ok := t.index[name]
	if !ok || t.decls[i].Kind != kind {
		return 0, false
	}
	return i, true
}

// Of resolves an access to the index of its declaration.
func (t *VariableTable) Of(a expr.VariableAccess) (int, bool) {
	return t.Lookup(a.Name, a.Kind)
}

// ByKind returns the declarations of one kind sorted by name.
func (t *VariableTable) ByKind(kind expr.Kind) []expr.VariableDeclaration {
	var out []expr.VariableDeclaration
	for _, d := range t.decls {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
