package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/pdg"
)

func newSliceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slice <file> --edge N [--backward|--forward] [--var NAME] [--json]",
		Short: "Perform backward or forward slice analysis on a program",
		Long: `Perform slice analysis on the program dependence graph of a microC program.
Slices are sets of program graph edges, numbered as printed by "mca graph".

Backward slice: Find all actions that may affect the action on the edge.
Forward slice: Find all actions that may be affected by the action on the edge.`,
		Args: cobra.ExactArgs(1),
		RunE: runSlice,
	}
	cmd.Flags().IntP("edge", "e", -1, "Edge to slice from")
	cmd.Flags().Bool("backward", false, "Backward slice (default)")
	cmd.Flags().Bool("forward", false, "Forward slice")
	cmd.Flags().String("var", "", "Follow data dependences on this variable only")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func runSlice(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := analyze.Compile(src)
	if err != nil {
		return err
	}

	edge, _ := cmd.Flags().GetInt("edge")
	if edge < 0 || edge >= len(p.Graph.Edges) {
		return fmt.Errorf("edge must be between 0 and %d: %d", len(p.Graph.Edges)-1, edge)
	}

	forward, _ := cmd.Flags().GetBool("forward")
	var varFilter *string
	if cmd.Flags().Changed("var") {
		varName, _ := cmd.Flags().GetString("var")
		varFilter = &varName
	}

	dg := pdg.Build(p.Graph)
	var edges []int
	if forward {
		edges = dg.ForwardSlice(edge, varFilter)
	} else {
		edges = dg.BackwardSlice(edge, varFilter)
	}

	direction := "backward"
	if forward {
		direction = "forward"
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		output := struct {
			Edge      int    `json:"edge"`
			Direction string `json:"direction"`
			Variable  string `json:"variable,omitempty"`
			Edges     []int  `json:"slice_edges"`
		}{Edge: edge, Direction: direction, Edges: edges}
		if varFilter != nil {
			output.Variable = *varFilter
		}
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printSlice(out, dg, edge, direction, varFilter, edges)
	return nil
}

func printSlice(w io.Writer, dg *pdg.Graph, edge int, direction string, varFilter *string, edges []int) {
	fmt.Fprintf(w, "=== Slice from e%d (%s) ===\n", edge, direction)
	if varFilter != nil {
		fmt.Fprintf(w, "Variable: %s\n", *varFilter)
	}
	fmt.Fprintf(w, "\nEdges (%d):\n", len(edges))
	for _, id := range edges {
		fmt.Fprintf(w, "  e%d  %s\n", id, dg.Program.Edges[id])
	}

	deps := dg.Dependencies(edge)
	in := append(deps.DataIn, deps.ControlIn...)
	if len(in) > 0 {
		fmt.Fprintf(w, "\nDirect dependences of e%d:\n", edge)
		for _, d := range in {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}
