package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fpgaroute/internal/metrics"
	"github.com/matzehuels/fpgaroute/pkg/pipeline"
	"github.com/matzehuels/fpgaroute/pkg/report"
	"github.com/matzehuels/fpgaroute/pkg/router"
)

// maxOveruseRows bounds the congestion table printed after a give-up.
const maxOveruseRows = 10

// routeOpts holds the command-line flags of the route command. Router
// settings only override the config file when the flag is given.
type routeOpts struct {
	output      string // output directory
	name        string // base name of the written files
	formats     string // comma-separated report formats
	nets        string // comma-separated nets to draw
	noCache     bool   // neither read nor write the cache
	refresh     bool   // ignore cached results
	metricsAddr string // serve Prometheus metrics while routing

	maxIterations   int
	firstPresFac    float64
	initialPresFac  float64
	presFacMult     float64
	maxPresFac      float64
	accFac          float64
	bbFactor        int
	fixedBB         bool
	astarFac        float64
	bendCost        float64
	costPolicy      string
	lookahead       string
	netOrder        string
	incremental     bool
	maxExpansions   int
	netTimeout      time.Duration
	wirelengthAbort float64
	predictor       string
	workers         int
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route <graph.json> <netlist.json>",
		Short: "Route a netlist over a routing-resource graph",
		Long: `Route connects every net of the netlist through the graph with negotiated
congestion and writes the requested reports. The routing is cached by the
contents of both files and the router settings, so re-running with the same
inputs only re-renders the reports.

The command fails when the routing does not converge; the reports are
written either way.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, args[0], args[1], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default from config)")
	f.StringVarP(&opts.name, "name", "n", "", "base name of the output files (default: netlist file name)")
	f.StringVarP(&opts.formats, "format", "f", "", "report format(s): dump, overuse, json, dot, svg, png (comma-separated)")
	f.StringVar(&opts.nets, "nets", "", "draw only these nets in dot, svg and png (comma-separated)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while routing")

	f.IntVar(&opts.maxIterations, "max-iterations", router.DefaultMaxIterations, "give up after this many iterations")
	f.Float64Var(&opts.firstPresFac, "first-iter-pres-fac", 0, "present congestion factor of the first iteration")
	f.Float64Var(&opts.initialPresFac, "initial-pres-fac", router.DefaultInitialPresFac, "present congestion factor of the second iteration")
	f.Float64Var(&opts.presFacMult, "pres-fac-mult", router.DefaultPresFacMult, "growth of the present congestion factor per iteration")
	f.Float64Var(&opts.maxPresFac, "max-pres-fac", router.DefaultMaxPresFac, "cap on the present congestion factor")
	f.Float64Var(&opts.accFac, "acc-fac", router.DefaultAccFac, "historical congestion growth per unit of overuse (0 disables)")
	f.IntVar(&opts.bbFactor, "bb-factor", router.DefaultBBFactor, "tiles added around each net's pins for its search box (0 for none)")
	f.BoolVar(&opts.fixedBB, "fixed-bb", false, "never grow search boxes")
	f.Float64Var(&opts.astarFac, "astar-fac", router.DefaultAStarFac, "weight of the lookahead (0 means Dijkstra)")
	f.Float64Var(&opts.bendCost, "bend-cost", 0, "cost of turning between CHANX and CHANY")
	f.StringVar(&opts.costPolicy, "cost-policy", "", "node cost: congestion, timing")
	f.StringVar(&opts.lookahead, "lookahead", "", "lookahead: classic, none")
	f.StringVar(&opts.netOrder, "net-order", "", "net order: id, fanout, criticality")
	f.BoolVar(&opts.incremental, "incremental", false, "keep unaffected branches when re-routing a net")
	f.IntVar(&opts.maxExpansions, "max-expansions", 0, "heap pops per sink search (0 means unlimited)")
	f.DurationVar(&opts.netTimeout, "net-timeout", 0, "time limit per sink search (0 means none)")
	f.Float64Var(&opts.wirelengthAbort, "wirelength-abort", router.DefaultWirelengthAbort, "give up when the first iteration uses more than this share of all tracks (negative disables)")
	f.StringVar(&opts.predictor, "predictor", "", "routing predictor: safe, aggressive, off")
	f.IntVarP(&opts.workers, "workers", "j", router.DefaultWorkers, "nets routed in parallel")

	return cmd
}

// routerOptions starts from the config file's router table and applies
// every flag the user set.
func (c *CLI) routerOptions(cmd *cobra.Command, o *routeOpts) router.Options {
	r := c.Config.Router
	f := cmd.Flags()
	override(f.Changed("max-iterations"), &r.MaxIterations, o.maxIterations)
	override(f.Changed("first-iter-pres-fac"), &r.FirstIterPresFac, o.firstPresFac)
	override(f.Changed("initial-pres-fac"), &r.InitialPresFac, o.initialPresFac)
	override(f.Changed("pres-fac-mult"), &r.PresFacMult, o.presFacMult)
	override(f.Changed("max-pres-fac"), &r.MaxPresFac, o.maxPresFac)
	overrideZero(f.Changed("acc-fac"), &r.AccFac, o.accFac)
	overrideZero(f.Changed("bb-factor"), &r.BBFactor, o.bbFactor)
	override(f.Changed("fixed-bb"), &r.FixedBB, o.fixedBB)
	overrideZero(f.Changed("astar-fac"), &r.AStarFac, o.astarFac)
	override(f.Changed("bend-cost"), &r.BendCost, o.bendCost)
	override(f.Changed("cost-policy"), &r.CostPolicy, o.costPolicy)
	override(f.Changed("lookahead"), &r.Lookahead, o.lookahead)
	override(f.Changed("net-order"), &r.NetOrder, o.netOrder)
	override(f.Changed("incremental"), &r.IncrementalReroute, o.incremental)
	override(f.Changed("max-expansions"), &r.MaxExpansions, o.maxExpansions)
	override(f.Changed("net-timeout"), &r.NetTimeout, o.netTimeout)
	override(f.Changed("wirelength-abort"), &r.WirelengthAbort, o.wirelengthAbort)
	override(f.Changed("predictor"), &r.Predictor, o.predictor)
	override(f.Changed("workers"), &r.Workers, o.workers)
	r.Logger = c.Logger
	return r
}

func override[T any](changed bool, dst *T, v T) {
	if changed {
		*dst = v
	}
}

// overrideZero is override for options where 0 selects the default: a
// zero given on the command line becomes router.Zero.
func overrideZero[T int | float64](changed bool, dst *T, v T) {
	if changed && v == 0 {
		v = router.Zero
	}
	override(changed, dst, v)
}

func (c *CLI) runRoute(cmd *cobra.Command, graphPath, netlistPath string, o *routeOpts) error {
	ctx := cmd.Context()
	cfg := c.Config

	formats := cfg.Output.Formats
	if o.formats != "" {
		formats = pipeline.ParseFormats(o.formats)
	}
	nets := cfg.Output.Nets
	if o.nets != "" {
		nets = splitList(o.nets)
	}
	dir := cfg.Output.Dir
	if o.output != "" {
		dir = o.output
	}
	name := o.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(netlistPath), filepath.Ext(netlistPath))
	}

	opts := pipeline.Options{
		GraphPath:   graphPath,
		NetlistPath: netlistPath,
		Router:      c.routerOptions(cmd, o),
		Formats:     formats,
		Nets:        nets,
		Refresh:     o.refresh,
		Logger:      c.Logger,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	addr := cfg.Metrics.Addr
	if o.metricsAddr != "" {
		addr = o.metricsAddr
	}
	if addr != "" {
		stop := c.serveMetrics(addr, cfg.Metrics.Path)
		defer stop()
	}

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Routing "+filepath.Base(netlistPath))
	restore := watchRouting(spinner)
	spinner.Start()
	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Routing failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Routed %d nets", res.Stats.Nets))

	summary := report.Summarize(res.Route)
	printVerdict(summary)
	printRouteStats(res.Stats.Nodes, res.Stats.Edges, summary, res.CacheInfo.RouteHit)
	if len(res.Misses) > 0 {
		printWarning("%d pins not found in the graph", len(res.Misses))
	}
	if len(res.Route.Overused) > 0 {
		fmt.Println(overuseTable(res.Graph, res.Route, maxOveruseRows))
	}

	files, err := pipeline.WriteArtifacts(dir, name, res.Artifacts)
	if err != nil {
		return err
	}
	for _, f := range files {
		printFile(f)
	}
	if path, ok := jsonArtifact(files); ok {
		printNextStep("Draw it", fmt.Sprintf("%s render %s %s -f svg", appName, graphPath, path))
	}
	return res.Route.Err()
}

// serveMetrics registers the Prometheus hooks and serves them until the
// returned function is called.
func (c *CLI) serveMetrics(addr, path string) (stop func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.New(reg).Register()
	srv := metrics.NewServer(addr, path, reg, c.Logger)
	srv.Start()
	c.Logger.Info("serving metrics", "addr", addr, "path", path)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func jsonArtifact(files []string) (string, bool) {
	for _, f := range files {
		if strings.HasSuffix(f, pipeline.Extensions[pipeline.FormatJSON]) {
			return f, true
		}
	}
	return "", false
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
