// Package pdg defines the program dependence graph of a microC program. Its
// nodes are the actions on program graph edges, linked by data dependences
// derived from reaching definitions and control dependences derived from
// post-dominance.
package pdg

import (
	"fmt"

	"github.com/l3aro/microc-analysis/pkg/cfg"
)

// DepType represents the type of dependence in a PDG edge.
type DepType string

const (
	DepTypeControl DepType = "control" // the action runs only if the guard holds
	DepTypeData    DepType = "data"    // the action reads a value the source may define
)

// Dependence links two program graph edges: From must run before To and
// influences it.
type Dependence struct {
	From  int     `json:"from" yaml:"from"` // edge ID of the definition or guard
	To    int     `json:"to" yaml:"to"`     // edge ID of the dependent action
	Type  DepType `json:"type" yaml:"type"`
	Label string  `json:"label" yaml:"label"` // variable for data, guard for control
}

func (d Dependence) String() string {
	return fmt.Sprintf("e%d -%s(%s)-> e%d", d.From, d.Type, d.Label, d.To)
}

// Graph is the program dependence graph of one program graph.
type Graph struct {
	Program *cfg.ProgramGraph
	Deps    []Dependence

	incoming map[int][]Dependence
	outgoing map[int][]Dependence
}

func (p *Graph) index() {
	p.incoming = make(map[int][]Dependence)
	p.outgoing = make(map[int][]Dependence)
	for _, d := range p.Deps {
		p.outgoing[d.From] = append(p.outgoing[d.From], d)
		p.incoming[d.To] = append(p.incoming[d.To], d)
	}
}

// DependencyInfo contains the control and data dependencies of one edge,
// split into incoming and outgoing.
type DependencyInfo struct {
	ControlIn  []Dependence `json:"control_in" yaml:"control_in"`
	ControlOut []Dependence `json:"control_out" yaml:"control_out"`
	DataIn     []Dependence `json:"data_in" yaml:"data_in"`
	DataOut    []Dependence `json:"data_out" yaml:"data_out"`
}
