// Package report turns a solver result into a serializable per-node table
// and renders it as text, JSON, YAML or MessagePack.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/dfg"
	"github.com/l3aro/microc-analysis/pkg/solver"
)

// Format is an output encoding.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported encodings.
func Formats() []Format { return []Format{FormatText, FormatJSON, FormatYAML, FormatMsgpack} }

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Variable describes a declared variable.
type Variable struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Kind   string `json:"kind" yaml:"kind" msgpack:"kind"`
	Length int    `json:"length,omitempty" yaml:"length,omitempty" msgpack:"length,omitempty"`
}

// Edge describes one program graph edge.
type Edge struct {
	ID     int    `json:"id" yaml:"id" msgpack:"id"`
	From   int    `json:"from" yaml:"from" msgpack:"from"`
	To     int    `json:"to" yaml:"to" msgpack:"to"`
	Kind   string `json:"kind" yaml:"kind" msgpack:"kind"`
	Action string `json:"action" yaml:"action" msgpack:"action"`
}

// Node is the analysis value at one program point. Bindings is empty when
// the point was never reached.
type Node struct {
	ID       int           `json:"id" yaml:"id" msgpack:"id"`
	Terminal bool          `json:"terminal,omitempty" yaml:"terminal,omitempty" msgpack:"terminal,omitempty"`
	Defined  bool          `json:"defined" yaml:"defined" msgpack:"defined"`
	Bindings []dfg.Binding `json:"bindings,omitempty" yaml:"bindings,omitempty" msgpack:"bindings,omitempty"`
}

// Report is the complete outcome of one analysis run.
type Report struct {
	Analysis    string           `json:"analysis" yaml:"analysis" msgpack:"analysis"`
	Solver      string           `json:"solver" yaml:"solver" msgpack:"solver"`
	Steps       int              `json:"steps" yaml:"steps" msgpack:"steps"`
	Variables   []Variable       `json:"variables" yaml:"variables" msgpack:"variables"`
	Edges       []Edge           `json:"edges" yaml:"edges" msgpack:"edges"`
	Nodes       []Node           `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Stats       cfg.Stats        `json:"stats" yaml:"stats" msgpack:"stats"`
	Diagnostics []cfg.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// New builds the report of a solver run.
func New[M dfg.Bindable](g *cfg.ProgramGraph, analysis, solverName string, res solver.Result[M]) *Report {
	r := &Report{
		Analysis: analysis,
		Solver:   solverName,
		Steps:    res.Steps,
		Stats:    cfg.ComputeStats(g),
	}
	for _, d := range g.Variables.All() {
		r.Variables = append(r.Variables, Variable{Name: d.Name, Kind: d.Kind.String(), Length: d.Length})
	}
	for _, e := range g.Edges {
		r.Edges = append(r.Edges, Edge{
			ID:     e.ID,
			From:   e.From.ID,
			To:     e.To.ID,
			Kind:   string(e.Action.Kind),
			Action: e.Action.String(),
		})
	}
	for id, v := range res.Values {
		n := Node{ID: id, Terminal: g.Node(id).Terminal, Defined: v.Defined}
		// an unreachable state is the analysis bottom, shown like an unvisited node
		if rm, ok := any(v.Mapping).(dfg.Reacher); ok && v.Defined && !rm.Reachable() {
			n.Defined = false
		}
		if n.Defined {
			n.Bindings = v.Mapping.Bindings()
		}
		r.Nodes = append(r.Nodes, n)
	}
	return r
}

// Node returns the entry of a program point.
func (r *Report) Node(id int) (Node, bool) {
	if id < 0 || id >= len(r.Nodes) {
		return Node{}, false
	}
	return r.Nodes[id], true
}

// Lookup returns the rendered value of a variable at a program point.
func (r *Report) Lookup(id int, name string) (string, bool) {
	n, ok := r.Node(id)
	if !ok {
		return "", false
	}
	for _, b := range n.Bindings {
		if b.Name == name {
			return b.Value, true
		}
	}
	return "", false
}

// Encode writes the report in the given format.
func Encode(w io.Writer, r *Report, f Format) error {
	if f == FormatText {
		return writeText(w, r)
	}
	return EncodeData(w, r, f)
}

// EncodeData writes any serializable value in one of the structured formats.
func EncodeData(w io.Writer, v interface{}, f Format) error {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("encoding msgpack: %w", err)
		}
		return nil
	case FormatText:
		return fmt.Errorf("text output is only available for reports")
	}
	return fmt.Errorf("unknown output format %q", f)
}

// Decode reads a report written by Encode. Text output cannot be read back.
func Decode(rd io.Reader, f Format) (*Report, error) {
	var r Report
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	case FormatYAML:
		err = yaml.NewDecoder(rd).Decode(&r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	default:
		return nil, fmt.Errorf("cannot decode %s reports", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s report: %w", f, err)
	}
	return &r, nil
}

// String renders the text form.
func (r *Report) String() string {
	var buf bytes.Buffer
	_ = writeText(&buf, r)
	return buf.String()
}

func writeText(w io.Writer, r *Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s (%s, %d steps) ===\n", r.Analysis, r.Solver, r.Steps)

	if len(r.Variables) > 0 {
		fmt.Fprintf(&sb, "\nVariables (%d):\n", len(r.Variables))
		for _, v := range r.Variables {
			if v.Length > 0 {
				fmt.Fprintf(&sb, "  %s %s[%d]\n", v.Kind, v.Name, v.Length)
			} else {
				fmt.Fprintf(&sb, "  %s %s\n", v.Kind, v.Name)
			}
		}
	}

	fmt.Fprintf(&sb, "\nEdges (%d):\n", len(r.Edges))
	for _, e := range r.Edges {
		fmt.Fprintf(&sb, "  q%d --%s--> q%d\n", e.From, e.Action, e.To)
	}

	fmt.Fprintf(&sb, "\nNodes (%d):\n", len(r.Nodes))
	for _, n := range r.Nodes {
		marker := ""
		if n.Terminal {
			marker = " (terminal)"
		}
		if !n.Defined {
			fmt.Fprintf(&sb, "  q%d%s: undefined\n", n.ID, marker)
			continue
		}
		parts := make([]string, 0, len(n.Bindings))
		for _, b := range n.Bindings {
			parts = append(parts, b.Name+" = "+b.Value)
		}
		fmt.Fprintf(&sb, "  q%d%s: %s\n", n.ID, marker, strings.Join(parts, ", "))
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(&sb, "\nDiagnostics (%d):\n", len(r.Diagnostics))
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&sb, "  %s\n", d)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
