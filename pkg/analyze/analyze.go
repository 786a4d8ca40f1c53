// Package analyze runs microC programs through the whole pipeline: parse,
// build the program graph, solve one analysis and produce a report.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/l3aro/microc-analysis/internal/log"
	"github.com/l3aro/microc-analysis/pkg/cache"
	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/dfg"
	"github.com/l3aro/microc-analysis/pkg/parser"
	"github.com/l3aro/microc-analysis/pkg/report"
	"github.com/l3aro/microc-analysis/pkg/solver"
)

// Analysis selects one of the built-in analyses.
type Analysis string

const (
	ReachingDefinitions Analysis = "reaching"
	LiveVariables       Analysis = "live"
	SignDetection       Analysis = "sign"
)

// Analyses lists the built-in analyses.
func Analyses() []Analysis { return []Analysis{ReachingDefinitions, LiveVariables, SignDetection} }

var analysisAliases = map[string]Analysis{
	"reaching":             ReachingDefinitions,
	"rd":                   ReachingDefinitions,
	"reaching-definitions": ReachingDefinitions,
	"live":                 LiveVariables,
	"lv":                   LiveVariables,
	"live-variables":       LiveVariables,
	"sign":                 SignDetection,
	"signs":                SignDetection,
	"sign-detection":       SignDetection,
}

// ParseAnalysis accepts an analysis name or one of its aliases.
func ParseAnalysis(s string) (Analysis, error) {
	if a, ok := analysisAliases[strings.ToLower(s)]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown analysis %q (want one of reaching, live, sign)", s)
}

// Solver selects chaotic iteration or a worklist strategy.
type Solver string

const (
	Chaotic    Solver = "chaotic"
	FIFO       Solver = "fifo"
	LIFO       Solver = "lifo"
	RoundRobin Solver = "roundrobin"
)

// Solvers lists every solver configuration.
func Solvers() []Solver { return []Solver{Chaotic, FIFO, LIFO, RoundRobin} }

// ParseSolver accepts a solver name, optionally prefixed with "worklist-".
func ParseSolver(s string) (Solver, error) {
	name := strings.TrimPrefix(strings.ToLower(s), "worklist-")
	if name == string(solver.RoundRobin) || name == "rr" {
		return RoundRobin, nil
	}
	for _, sv := range Solvers() {
		if string(sv) == name {
			return sv, nil
		}
	}
	return "", fmt.Errorf("unknown solver %q (want one of chaotic, fifo, lifo, roundrobin)", s)
}

// Label is the name reported for runs of this solver.
func (s Solver) Label() string {
	if s == Chaotic {
		return string(s)
	}
	return "worklist-" + string(s.strategy())
}

func (s Solver) strategy() solver.Strategy {
	switch s {
	case FIFO:
		return solver.FIFO
	case LIFO:
		return solver.LIFO
	case RoundRobin:
		return solver.RoundRobin
	}
	return solver.Strategy(s)
}

// Options configures a run.
type Options struct {
	Analysis Analysis
	Solver   Solver
	// Cache stores reports by program and configuration. Nil disables it.
	Cache *cache.ReportStore
	// Logger receives progress messages. Nil discards them.
	Logger log.Logger
}

func (o Options) logger() log.Logger {
	if o.Logger == nil {
		return log.Discard()
	}
	return o.Logger
}

// Program is a parsed and lowered microC program.
type Program struct {
	Graph       *cfg.ProgramGraph
	Diagnostics []cfg.Diagnostic
}

// Compile parses src and builds its program graph.
func Compile(src string) (*Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	g, diags, err := cfg.Build(prog)
	if err != nil {
		return nil, fmt.Errorf("building program graph: %w", err)
	}
	return &Program{Graph: g, Diagnostics: diags}, nil
}

// Run analyses src and returns the report, serving it from the cache when
// the same program was already analysed with the same configuration.
func Run(ctx context.Context, src string, opts Options) (*report.Report, error) {
	logger := opts.logger()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var key string
	if opts.Cache != nil {
		key = cache.Key(src, string(opts.Analysis), opts.Solver.Label())
		if r, ok := opts.Cache.Get(key); ok {
			logger.Info("report served from cache", "analysis", opts.Analysis, "solver", opts.Solver.Label())
			return r, nil
		}
	}

	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	logger.Debug("program graph built", "nodes", len(p.Graph.Nodes), "edges", len(p.Graph.Edges))

	r, err := Solve(ctx, p, opts.Analysis, opts.Solver)
	if err != nil {
		return nil, err
	}
	logger.Debug("fixpoint reached", "analysis", r.Analysis, "solver", r.Solver, "steps", r.Steps)

	if opts.Cache != nil {
		opts.Cache.Set(key, r)
		logger.Info("report cached", "entries", opts.Cache.Len())
	}
	return r, nil
}

// Solve runs one analysis on a compiled program.
func Solve(ctx context.Context, p *Program, a Analysis, s Solver) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r *report.Report
	var err error
	switch a {
	case ReachingDefinitions:
		r, err = solve[dfg.Definitions](p.Graph, dfg.NewReachingDefinitions(p.Graph), s)
	case LiveVariables:
		r, err = solve[dfg.LiveSet](p.Graph, dfg.NewLiveVariables(p.Graph), s)
	case SignDetection:
		r, err = solve[dfg.Signs](p.Graph, dfg.NewSignDetection(p.Graph), s)
	default:
		return nil, fmt.Errorf("unknown analysis %q", a)
	}
	if err != nil {
		return nil, err
	}
	r.Diagnostics = p.Diagnostics
	return r, nil
}

func solve[M dfg.Bindable](g *cfg.ProgramGraph, a dfg.Analysis[M], s Solver) (*report.Report, error) {
	if s == Chaotic {
		return report.New(g, a.Name(), s.Label(), solver.Chaotic(g, a)), nil
	}
	res, err := solver.Worklist(g, a, s.strategy())
	if err != nil {
		return nil, fmt.Errorf("solving %s: %w", a.Name(), err)
	}
	return report.New(g, a.Name(), s.Label(), res), nil
}

// SolverRun is the outcome of one solver in a comparison.
type SolverRun struct {
	Solver string `json:"solver" yaml:"solver"`
	Steps  int    `json:"steps" yaml:"steps"`
	// Agrees is false when the fixpoint differs from the first solver's.
	Agrees bool `json:"agrees" yaml:"agrees"`
}

// Comparison lists how every solver fared on one analysis.
type Comparison struct {
	Analysis string      `json:"analysis" yaml:"analysis"`
	Runs     []SolverRun `json:"runs" yaml:"runs"`
	// Report is the fixpoint found by the first solver.
	Report *report.Report `json:"-" yaml:"-"`
}

// Agree reports whether every solver reached the same fixpoint.
func (c *Comparison) Agree() bool {
	for _, r := range c.Runs {
		if !r.Agrees {
			return false
		}
	}
	return true
}

// Compare solves one analysis with every solver.
func Compare(ctx context.Context, src string, a Analysis, logger log.Logger) (*Comparison, error) {
	opts := Options{Logger: logger}
	logger = opts.logger()

	p, err := Compile(src)
	if err != nil {
		return nil, err
	}

	var c Comparison
	for _, s := range Solvers() {
		r, err := Solve(ctx, p, a, s)
		if err != nil {
			return nil, err
		}
		if c.Report == nil {
			c.Report = r
			c.Analysis = r.Analysis
		}
		run := SolverRun{Solver: r.Solver, Steps: r.Steps, Agrees: sameNodes(c.Report.Nodes, r.Nodes)}
		if !run.Agrees {
			logger.Warn("solvers disagree", "analysis", r.Analysis, "solver", r.Solver)
		}
		logger.Debug("solver finished", "solver", r.Solver, "steps", r.Steps)
		c.Runs = append(c.Runs, run)
	}
	return &c, nil
}

func sameNodes(a, b []report.Node) bool {
	return slices.EqualFunc(a, b, func(x, y report.Node) bool {
		return x.ID == y.ID && x.Defined == y.Defined && slices.Equal(x.Bindings, y.Bindings)
	})
}
