// Package pipeline runs the load → route → report sequence behind the CLI.
//
// Routing is the expensive stage, so its result is cached under a key
// derived from the contents of the graph and netlist files and the router
// options. Rendered drawings are cached the same way, keyed by the routing
// they draw.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    GraphPath:   "device.json",
//	    NetlistPath: "nets.json",
//	    Formats:     []string{pipeline.FormatDump, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	files, err := pipeline.WriteArtifacts("out", "design", res.Artifacts)
//
// Run the stages on their own:
//
//	g, graphHash, err := runner.LoadGraph(ctx, "device.json")
//	nl, netlistHash, misses, err := runner.LoadNetlist(ctx, "nets.json", g)
//	key := runner.Keyer.RouteKey(graphHash, netlistHash, opts.RouteKeyOpts())
//	route, hit, err := runner.Route(ctx, g, nl, key, opts)
//	artifacts, hit, err := runner.Report(ctx, g, route, key, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/cache"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Report formats.
const (
	FormatDump    = "dump"    // classic text route file
	FormatOveruse = "overuse" // congestion report
	FormatJSON    = "json"    // full result with trees
	FormatDOT     = "dot"     // Graphviz source of the route trees
	FormatSVG     = "svg"
	FormatPNG     = "png"
)

// ValidFormats is the set of supported report formats.
var ValidFormats = map[string]bool{
	FormatDump:    true,
	FormatOveruse: true,
	FormatJSON:    true,
	FormatDOT:     true,
	FormatSVG:     true,
	FormatPNG:     true,
}

// Extensions maps each format to the file suffix WriteArtifacts uses.
var Extensions = map[string]string{
	FormatDump:    ".route",
	FormatOveruse: ".overuse.txt",
	FormatJSON:    ".json",
	FormatDOT:     ".dot",
	FormatSVG:     ".svg",
	FormatPNG:     ".png",
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dump, overuse, json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list, defaulting to the route dump.
func ParseFormats(s string) []string {
	if s == "" {
		return []string{FormatDump}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Options configures a pipeline run.
type Options struct {
	GraphPath   string         `json:"graph_path"`
	NetlistPath string         `json:"netlist_path"`
	Router      router.Options `json:"router"`

	Formats []string `json:"formats,omitempty"`

	// Nets restricts the drawings (dot, svg, png) to these nets.
	Nets []string `json:"nets,omitempty"`

	// Refresh ignores cached results but still stores new ones.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Validate checks required fields and applies defaults.
func (o *Options) Validate() error {
	if o.GraphPath == "" {
		return fmt.Errorf("graph path is required")
	}
	if o.NetlistPath == "" {
		return fmt.Errorf("netlist path is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDump}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Router.Logger == nil {
		o.Router.Logger = o.Logger
	}
	o.Router.SetDefaults()
	return o.Router.Validate()
}

// RouteKeyOpts returns the cache key options of the router settings.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	r := o.Router
	return cache.RouteKeyOpts{
		MaxIterations:      r.MaxIterations,
		FirstIterPresFac:   r.FirstIterPresFac,
		InitialPresFac:     r.InitialPresFac,
		PresFacMult:        r.PresFacMult,
		MaxPresFac:         r.MaxPresFac,
		AccFac:             r.AccFac,
		BBFactor:           r.BBFactor,
		FixedBB:            r.FixedBB,
		AStarFac:           r.AStarFac,
		BendCost:           r.BendCost,
		CostPolicy:         r.CostPolicy,
		Lookahead:          r.Lookahead,
		NetOrder:           r.NetOrder,
		IncrementalReroute: r.IncrementalReroute,
		MaxExpansions:      r.MaxExpansions,
		NetTimeout:         r.NetTimeout.String(),
		WirelengthAbort:    r.WirelengthAbort,
		Predictor:          r.Predictor,
		Parallel:           r.Workers > 1,
	}
}

// ArtifactKeyOpts returns the cache key options of one drawing.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Nets: strings.Join(o.Nets, ",")}
}

// Result holds everything a run produced.
type Result struct {
	Graph   *rrgraph.Graph
	Netlist *netlist.Netlist
	Route   *router.Result

	// Misses lists pins whose location is not in the graph.
	Misses []netlist.LookupMiss

	GraphHash   string
	NetlistHash string
	RouteKey    string

	// Artifacts holds the reports keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Edges      int
	Nets       int
	LoadTime   time.Duration
	RouteTime  time.Duration
	ReportTime time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	RouteHit  bool
	ReportHit bool // every requested drawing came from cache
}
