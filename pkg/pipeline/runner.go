package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/cache"
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/fabric"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/observability"
	"github.com/matzehuels/fpgaroute/pkg/report"
	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Runner executes the pipeline with caching.
//
// A Runner holds no per-run state, so one Runner may serve concurrent runs
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the lifetime of cached routings and drawings when
	// positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means the DefaultKeyer, and a nil logger means log.Default(). The cache is
// wrapped so hits and misses reach the observability hooks.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: cache.Instrument(c), Keyer: keyer, Logger: logger}
}

// Execute loads the inputs, routes them (or fetches the cached routing) and
// renders the requested reports.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	res := &Result{}

	loadStart := time.Now()
	g, graphHash, err := r.LoadGraph(ctx, opts.GraphPath)
	if err != nil {
		return nil, err
	}
	nl, netlistHash, misses, err := r.LoadNetlist(ctx, opts.NetlistPath, g)
	if err != nil {
		return nil, err
	}
	res.Graph, res.Netlist, res.Misses = g, nl, misses
	res.GraphHash, res.NetlistHash = graphHash, netlistHash
	res.Stats.LoadTime = time.Since(loadStart)
	res.Stats.Nodes, res.Stats.Edges, res.Stats.Nets = g.NumNodes(), g.NumEdges(), len(nl.Nets)
	r.Logger.Info("loaded inputs",
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"nets", len(nl.Nets),
		"lookup_misses", len(misses),
		"duration", res.Stats.LoadTime.Round(time.Millisecond))

	routeStart := time.Now()
	res.RouteKey = r.Keyer.RouteKey(graphHash, netlistHash, opts.RouteKeyOpts())
	route, hit, err := r.Route(ctx, g, nl, res.RouteKey, opts)
	if err != nil {
		return nil, err
	}
	res.Route = route
	res.Stats.RouteTime = time.Since(routeStart)
	res.CacheInfo.RouteHit = hit
	r.Logger.Info("routed",
		"status", route.Status,
		"iterations", route.Iterations,
		"wirelength", route.Wirelength,
		"cached", hit,
		"duration", res.Stats.RouteTime.Round(time.Millisecond))

	reportStart := time.Now()
	artifacts, hit, err := r.Report(ctx, g, route, res.RouteKey, opts)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.Stats.ReportTime = time.Since(reportStart)
	res.CacheInfo.ReportHit = hit
	r.Logger.Debug("rendered reports", "formats", opts.Formats, "duration", res.Stats.ReportTime.Round(time.Millisecond))
	return res, nil
}

// LoadGraph reads and freezes a graph file and returns it with the hash of
// the file's contents.
func (r *Runner) LoadGraph(ctx context.Context, path string) (g *rrgraph.Graph, hash string, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, "graph", path)
	defer func() {
		n := 0
		if g != nil {
			n = g.NumNodes()
		}
		hooks.OnLoadComplete(ctx, "graph", path, n, time.Since(start), err)
	}()

	hash, err = hashInput(path)
	if err != nil {
		return nil, "", err
	}
	g, err = rrgraph.ImportJSON(path)
	if err != nil {
		return nil, "", err
	}
	return g, hash, nil
}

// LoadNetlist reads a netlist file and resolves its pins against g. Pins
// whose location is missing from g are returned as misses; the router
// reports their sinks as lookup failures.
func (r *Runner) LoadNetlist(ctx context.Context, path string, g *rrgraph.Graph) (nl *netlist.Netlist, hash string, misses []netlist.LookupMiss, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, "netlist", path)
	defer func() {
		n := 0
		if nl != nil {
			n = len(nl.Nets)
		}
		hooks.OnLoadComplete(ctx, "netlist", path, n, time.Since(start), err)
	}()

	hash, err = hashInput(path)
	if err != nil {
		return nil, "", nil, err
	}
	nl, err = netlist.ImportJSON(path)
	if err != nil {
		return nil, "", nil, err
	}
	misses, err = nl.Resolve(g)
	if err != nil {
		return nil, "", nil, err
	}
	for _, m := range misses {
		r.Logger.Warn("pin not in graph", "net", nl.Nets[m.Net].Name, "pin", m.Pin, "at", m.At.String())
	}
	return nl, hash, misses, nil
}

func hashInput(path string) (string, error) {
	h, err := cache.HashFile(path)
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return h, nil
}

// Route returns the cached routing stored under key, or routes nl and
// stores the result. The bool reports a cache hit. Cache failures are
// logged and never fail the run.
func (r *Runner) Route(ctx context.Context, g *rrgraph.Graph, nl *netlist.Netlist, key string, opts Options) (*router.Result, bool, error) {
	r.applyLogger(&opts)
	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		if hit {
			res, err := report.UnmarshalResult(data, g)
			if err == nil {
				return res, true, nil
			}
			r.Logger.Warn("discarding unreadable cached routing", "err", err)
		}
	}

	res, err := router.Route(ctx, g, nl, opts.Router)
	if err != nil {
		return nil, false, err
	}
	if data, err := report.MarshalResult(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLRoute)); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		}
	}
	return res, false, nil
}

// Report renders every format of opts for res. Drawings (svg, png) are
// cached under routeKey; text reports are cheap and always rebuilt. The
// bool is true when every requested drawing came from cache.
func (r *Runner) Report(ctx context.Context, g *rrgraph.Graph, res *router.Result, routeKey string, opts Options) (artifacts map[string][]byte, allCached bool, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnReportStart(ctx, opts.Formats)
	defer func() { hooks.OnReportComplete(ctx, opts.Formats, time.Since(start), err) }()

	artifacts = make(map[string][]byte, len(opts.Formats))
	allCached = true
	drawings := 0
	for _, format := range opts.Formats {
		cached := format == FormatSVG || format == FormatPNG
		var key string
		if cached {
			drawings++
			key = r.Keyer.ArtifactKey(routeKey, opts.ArtifactKeyOpts(format))
			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
					artifacts[format] = data
					continue
				}
			}
			allCached = false
		}

		data, err := Render(g, res, format, opts.Nets)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
		if cached {
			if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
				r.Logger.Warn("cache write failed", "err", err)
			}
		}
	}
	return artifacts, allCached && drawings > 0, nil
}

// Render produces one report of res. nets limits the drawings (dot, svg,
// png) to those nets; empty means all.
func Render(g *rrgraph.Graph, res *router.Result, format string, nets []string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatDump:
		err := report.WriteRouteDump(&buf, g, res)
		return buf.Bytes(), err
	case FormatOveruse:
		err := report.WriteOveruse(&buf, g, res)
		return buf.Bytes(), err
	case FormatJSON:
		return report.MarshalResult(res)
	case FormatDOT:
		return []byte(report.RoutingDOT(g, res, nets)), nil
	case FormatSVG:
		return report.RenderSVG(report.RoutingDOT(g, res, nets))
	case FormatPNG:
		return report.RenderPNG(report.RoutingDOT(g, res, nets))
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// Generate builds a device and a random netlist, or fetches the pair cached
// under the same parameters.
func (r *Runner) Generate(ctx context.Context, p fabric.Params, np fabric.NetParams) (*rrgraph.Graph, *netlist.Netlist, bool, error) {
	p.SetDefaults()
	key := r.Keyer.DeviceKey(cache.DeviceKeyOpts{
		Width: p.Width, Height: p.Height,
		ChannelWidth: p.ChannelWidth, SegmentLength: p.SegmentLength,
		Inputs: p.Inputs, Outputs: p.Outputs,
		FcIn: p.FcIn, FcOut: p.FcOut,
		Nets: np.Count, MaxFanout: np.MaxFanout, Seed: np.Seed,
	})

	if gdata, hit, err := r.Cache.Get(ctx, key+":graph"); err == nil && hit {
		if ndata, hit, err := r.Cache.Get(ctx, key+":netlist"); err == nil && hit {
			g, gerr := rrgraph.ReadJSON(bytes.NewReader(gdata))
			nl, nerr := netlist.ReadJSON(bytes.NewReader(ndata))
			if gerr == nil && nerr == nil {
				if _, err := nl.Resolve(g); err == nil {
					return g, nl, true, nil
				}
			}
		}
	}

	g, err := fabric.Build(p)
	if err != nil {
		return nil, nil, false, err
	}
	nl, err := fabric.RandomNets(g, np)
	if err != nil {
		return nil, nil, false, err
	}

	var gbuf, nbuf bytes.Buffer
	if err := rrgraph.WriteJSON(g, &gbuf); err == nil {
		if err := netlist.WriteJSON(nl, &nbuf); err == nil {
			// A graph without its netlist never hits, so stop at the first failure.
			if err := r.Cache.Set(ctx, key+":graph", gbuf.Bytes(), cache.TTLDevice); err != nil {
				r.Logger.Warn("cache write failed", "key", key+":graph", "err", err)
			} else if err := r.Cache.Set(ctx, key+":netlist", nbuf.Bytes(), cache.TTLDevice); err != nil {
				r.Logger.Warn("cache write failed", "key", key+":netlist", "err", err)
			}
		}
	}
	return g, nl, false, nil
}

// WriteArtifacts writes each artifact to dir/base plus the format's
// extension and returns the paths written, in format order.
func WriteArtifacts(dir, base string, artifacts map[string][]byte) ([]string, error) {
	if err := errors.ValidateName(base); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	var paths []string
	for _, format := range []string{FormatDump, FormatOveruse, FormatJSON, FormatDOT, FormatSVG, FormatPNG} {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, base+Extensions[format])
		if err := errors.ValidateOutputPath(path); err != nil {
			return paths, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Router.Logger == nil {
		opts.Router.Logger = opts.Logger
	}
}
