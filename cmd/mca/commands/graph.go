package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/cfg"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Print the program graph of a microC program",
		Long: `Lowers a microC program to its program graph and prints the edges,
graph statistics and construction diagnostics. With --dot the graph is
printed in Graphviz DOT syntax instead.`,
		Args: cobra.ExactArgs(1),
		RunE: runGraph,
	}
	cmd.Flags().Bool("dot", false, "Output Graphviz DOT")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

type graphOutput struct {
	Edges       []string         `json:"edges"`
	Order       []int            `json:"reverse_postorder"`
	Stats       cfg.Stats        `json:"stats"`
	Diagnostics []cfg.Diagnostic `json:"diagnostics,omitempty"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := analyze.Compile(src)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if asDot, _ := cmd.Flags().GetBool("dot"); asDot {
		data, err := cfg.Dot(p.Graph, graphName(args[0]))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	g := graphOutput{
		Order:       cfg.DepthFirst(p.Graph, false).Order,
		Stats:       cfg.ComputeStats(p.Graph),
		Diagnostics: p.Diagnostics,
	}
	for _, e := range p.Graph.Edges {
		g.Edges = append(g.Edges, e.String())
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	printGraph(out, g)
	return nil
}

// graphName derives a DOT identifier from the source path.
func graphName(path string) string {
	if path == "-" {
		return "program"
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var sb strings.Builder
	for _, r := range base {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 || (base[0] >= '0' && base[0] <= '9') {
		return "g_" + sb.String()
	}
	return sb.String()
}

func printGraph(w io.Writer, g graphOutput) {
	fmt.Fprintf(w, "=== Program graph ===\n")
	fmt.Fprintf(w, "Nodes: %d, Edges: %d, Guards: %d, Declarations: %d\n",
		g.Stats.Nodes, g.Stats.Edges, g.Stats.Guards, g.Stats.Declarations)
	fmt.Fprintf(w, "Loops: %d (nests: %d), Unreachable nodes: %d\n",
		g.Stats.Loops, g.Stats.LoopNests, g.Stats.Unreachable)
	fmt.Fprintf(w, "Cyclomatic Complexity: %d\n", g.Stats.CyclomaticComplexity)

	order := make([]string, len(g.Order))
	for i, id := range g.Order {
		order[i] = fmt.Sprintf("q%d", id)
	}
	fmt.Fprintf(w, "Reverse postorder: %s\n", strings.Join(order, " "))

	fmt.Fprintf(w, "\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s\n", e)
	}

	if len(g.Diagnostics) > 0 {
		fmt.Fprintf(w, "\nDiagnostics (%d):\n", len(g.Diagnostics))
		for _, d := range g.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}
