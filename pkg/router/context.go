package router

import (
	"context"
	"time"

	"github.com/matzehuels/fpgaroute/pkg/cost"
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/maze"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/observability"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Sink failure reasons carried by errors.SinkError.
const (
	ReasonUnreachable = "unreachable"
	ReasonBudget      = "budget"
	ReasonLookup      = "lookup"
	ReasonCongested   = "congested"
)

// Context holds the mutable state of one routing run: congestion
// bookkeeping, one route tree and search box per net, and a pool of
// searchers. The graph and netlist are only read.
//
// Context methods are not safe for concurrent use, except that RouteNet
// may run concurrently for nets whose boxes, grown by the graph's maximum
// span, do not intersect. Run arranges exactly that when Workers > 1.
type Context struct {
	g         *rrgraph.Graph
	nl        *netlist.Netlist
	opts      Options
	state     *cost.State
	model     *cost.Model
	policy    cost.Policy
	lookahead cost.Lookahead

	trees    []*routetree.Tree
	bbs      []maze.BBox
	failures [][]*errors.SinkError

	searchers chan *maze.Router
	all       []*maze.Router
}

// NewContext prepares a run of nl over the frozen graph g. nl must already
// be resolved against g; pins that missed the lookup carry
// rrgraph.InvalidNode and fail as unreachable.
func NewContext(g *rrgraph.Graph, nl *netlist.Netlist, opts Options) (*Context, error) {
	if !g.Frozen() {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph must be frozen before routing")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkPins(g, nl); err != nil {
		return nil, err
	}

	state := cost.NewState(g.NumNodes())
	model := cost.NewModel(g, state)
	policy, err := cost.NewPolicy(opts.CostPolicy, model, opts.BendCost)
	if err != nil {
		return nil, err
	}
	lookahead, err := cost.NewLookahead(opts.Lookahead, model)
	if err != nil {
		return nil, err
	}

	c := &Context{
		g:         g,
		nl:        nl,
		opts:      opts,
		state:     state,
		model:     model,
		policy:    policy,
		lookahead: lookahead,
		trees:     make([]*routetree.Tree, len(nl.Nets)),
		bbs:       make([]maze.BBox, len(nl.Nets)),
		failures:  make([][]*errors.SinkError, len(nl.Nets)),
		searchers: make(chan *maze.Router, opts.Workers),
	}
	for i := range nl.Nets {
		c.trees[i] = routetree.New(g)
		c.bbs[i] = c.initialBBox(&nl.Nets[i])
	}
	mopts := maze.Options{AStarFac: opts.astarFac(), MaxExpansions: opts.MaxExpansions}
	for range opts.Workers {
		r := maze.NewRouter(g, policy, lookahead, mopts)
		c.all = append(c.all, r)
		c.searchers <- r
	}
	return c, nil
}

func checkPins(g *rrgraph.Graph, nl *netlist.Netlist) error {
	n := rrgraph.NodeID(g.NumNodes())
	for i := range nl.Nets {
		net := &nl.Nets[i]
		if len(net.Pins) < 2 {
			return errors.New(errors.ErrCodeInvalidNetlist, "net %s has no sinks", net.Name)
		}
		for j, p := range net.Pins {
			if p.Node != rrgraph.InvalidNode && (p.Node < 0 || p.Node >= n) {
				return errors.New(errors.ErrCodeInvalidNetlist, "net %s pin %d: node %d out of range", net.Name, j, p.Node)
			}
		}
	}
	return nil
}

// initialBBox returns the terminal bounding box, widened one tile towards
// the origin for the channels below and left of the pins, grown by
// BBFactor and clipped to the grid.
func (c *Context) initialBBox(net *netlist.Net) maze.BBox {
	var b maze.BBox
	found := false
	for _, p := range net.Pins {
		if p.Node == rrgraph.InvalidNode {
			continue
		}
		n := c.g.NodeRef(p.Node)
		if !found {
			b = maze.BBox{XMin: n.XLow, YMin: n.YLow, XMax: n.XHigh, YMax: n.YHigh}
			found = true
			continue
		}
		b.XMin, b.YMin = min(b.XMin, n.XLow), min(b.YMin, n.YLow)
		b.XMax, b.YMax = max(b.XMax, n.XHigh), max(b.YMax, n.YHigh)
	}
	if !found {
		return maze.FullDevice(c.g)
	}
	b.XMin--
	b.YMin--
	return b.Expand(c.opts.bbFactor()).Clip(c.g.Width(), c.g.Height())
}

// Graph returns the routing-resource graph.
func (c *Context) Graph() *rrgraph.Graph { return c.g }

// Netlist returns the nets being routed.
func (c *Context) Netlist() *netlist.Netlist { return c.nl }

// Options returns the options with defaults applied.
func (c *Context) Options() Options { return c.opts }

// State returns the congestion state.
func (c *Context) State() *cost.State { return c.state }

// Model returns the cost model.
func (c *Context) Model() *cost.Model { return c.model }

// Tree returns the current route tree of net id.
func (c *Context) Tree(id int) *routetree.Tree { return c.trees[id] }

// BBox returns the current search box of net id.
func (c *Context) BBox(id int) maze.BBox { return c.bbs[id] }

// Failures returns the sinks net id failed to reach when last routed.
func (c *Context) Failures(id int) []*errors.SinkError { return c.failures[id] }

// Stats sums the search counters of every searcher.
func (c *Context) Stats() maze.Stats {
	var s maze.Stats
	for _, r := range c.all {
		s = s.Add(r.Stats())
	}
	return s
}

// RipUp releases the occupancy of net id and empties its tree.
func (c *Context) RipUp(id int) {
	c.trees[id].RipUp(c.state)
	c.failures[id] = nil
}

// RouteNet re-routes net id: its tree is ripped up (or, with
// IncrementalReroute, pruned of congested branches), then every sink not
// yet in the tree is searched for in pin order, each search starting from
// the tree left by the previous ones. It returns the sinks that could not
// be reached; the net keeps whatever it did reach.
func (c *Context) RouteNet(ctx context.Context, id int) []*errors.SinkError {
	r := <-c.searchers
	defer func() { c.searchers <- r }()
	return c.routeNet(ctx, r, id)
}

func (c *Context) routeNet(ctx context.Context, r *maze.Router, id int) []*errors.SinkError {
	start := time.Now()
	net := &c.nl.Nets[id]
	tree := c.trees[id]

	if c.opts.IncrementalReroute && !tree.Empty() {
		for _, rr := range tree.Prune(c.overused) {
			c.state.Add(rr, -1)
		}
	} else {
		tree.RipUp(c.state)
	}

	var failed []*errors.SinkError
	fail := func(sink int, reason string) {
		failed = append(failed, &errors.SinkError{Net: net.Name, Sink: sink, Reason: reason})
	}

	if tree.Empty() {
		if net.Source() == rrgraph.InvalidNode {
			for i := 1; i <= net.Fanout(); i++ {
				fail(i, ReasonLookup)
			}
			c.failures[id] = failed
			return failed
		}
		tree.Reset(net.Source())
		c.state.Add(net.Source(), 1)
	}

	if c.opts.NetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.NetTimeout)
		defer cancel()
	}

	for i := 1; i <= net.Fanout(); i++ {
		sink := net.Sink(i)
		if sink == rrgraph.InvalidNode {
			fail(i, ReasonLookup)
			continue
		}
		res := r.RouteSink(ctx, maze.Request{
			Tree:        tree,
			Target:      sink,
			BBox:        c.bbs[id],
			Criticality: net.Criticality,
		})
		switch res.Outcome {
		case maze.Reached:
			for _, rr := range res.Added {
				c.state.Add(rr, 1)
			}
		case maze.AlreadyRouted:
		case maze.Unreachable:
			fail(i, ReasonUnreachable)
		case maze.BudgetExhausted:
			fail(i, ReasonBudget)
		}
	}

	c.failures[id] = failed
	d := time.Since(start)
	c.opts.Logger.Debug("net routed", "net", net.Name, "sinks", net.Fanout(), "failed", len(failed), "nodes", tree.Len(), "duration", d)
	observability.Router().OnNetRouted(ctx, net.Name, net.Fanout(), len(failed), d)
	return failed
}

func (c *Context) overused(rr rrgraph.NodeID) bool { return c.model.Overuse(rr) > 0 }

// Feasible reports whether no node is over capacity.
func (c *Context) Feasible() bool { return c.model.Feasible() }

// Overuse describes one over-used node and the nets through it.
type Overuse struct {
	Node      rrgraph.NodeID `json:"node"`
	Occupancy int            `json:"occupancy"`
	Capacity  int            `json:"capacity"`
	Nets      []string       `json:"nets"`
}

// OverusedNodes lists every node over capacity, in ascending ID order,
// with the names of the nets whose trees use it in net order.
func (c *Context) OverusedNodes() []Overuse {
	nodes := c.model.Overused()
	if len(nodes) == 0 {
		return nil
	}
	idx := make(map[rrgraph.NodeID]int, len(nodes))
	out := make([]Overuse, len(nodes))
	for i, rr := range nodes {
		idx[rr] = i
		out[i] = Overuse{Node: rr, Occupancy: c.state.Occupancy(rr), Capacity: c.g.NodeRef(rr).Capacity}
	}
	for id, tree := range c.trees {
		for rr := range tree.Nodes() {
			if i, ok := idx[rr]; ok {
				out[i].Nets = append(out[i].Nets, c.nl.Nets[id].Name)
			}
		}
	}
	return out
}

// Wirelength returns the track length used by every net: the tiles spanned
// by each CHANX and CHANY node in a tree.
func (c *Context) Wirelength() int {
	total := 0
	for id := range c.trees {
		total += c.netWirelength(id)
	}
	return total
}

func (c *Context) netWirelength(id int) int {
	wl := 0
	for rr := range c.trees[id].Nodes() {
		if n := c.g.NodeRef(rr); n.Type.IsChannel() {
			wl += n.Length() + 1
		}
	}
	return wl
}

// AvailableWirelength returns the track length the device offers: tiles
// spanned by each channel node times its capacity.
func (c *Context) AvailableWirelength() int {
	total := 0
	for i := range c.g.NumNodes() {
		if n := c.g.NodeRef(rrgraph.NodeID(i)); n.Type.IsChannel() {
			total += (n.Length() + 1) * n.Capacity
		}
	}
	return total
}
