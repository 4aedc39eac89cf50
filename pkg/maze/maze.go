// Package maze implements the single-sink search of the router: a
// multi-source A* from every node of a net's current route tree to one
// target SINK.
//
// Each node moves through three states during a search: unvisited, on heap
// (a tentative cost is known) and expanded (final). The search pops the
// entry with the lowest backward-plus-lookahead cost, stops when it pops the
// target, and otherwise expands the node, pushing every admissible
// neighbour whose cost strictly improves. When the target is reached the
// predecessor links are walked back to the first node already in the tree
// and the new branch is added to the tree.
//
// A [Router] owns scratch state sized to the graph and is not safe for
// concurrent use; run one per worker.
package maze

import (
	"context"
	"slices"

	"github.com/matzehuels/fpgaroute/pkg/cost"
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// ctxCheckInterval is how many pops pass between context checks.
const ctxCheckInterval = 1024

// Options tune a Router.
type Options struct {
	// AStarFac scales the lookahead. 0 gives plain Dijkstra; values above 1
	// trade optimality for speed.
	AStarFac float64

	// MaxExpansions caps the nodes expanded by one search. 0 means no cap.
	MaxExpansions int
}

// Request describes one search.
type Request struct {
	Tree        *routetree.Tree
	Target      rrgraph.NodeID
	BBox        BBox
	Criticality float64
}

// Outcome is how a search ended.
type Outcome uint8

const (
	Reached         Outcome = iota // new branch added to the tree
	AlreadyRouted                  // target was already in the tree
	Unreachable                    // heap emptied first
	BudgetExhausted                // expansion cap hit or context done
)

func (o Outcome) String() string {
	switch o {
	case Reached:
		return "reached"
	case AlreadyRouted:
		return "already-routed"
	case Unreachable:
		return "unreachable"
	case BudgetExhausted:
		return "budget"
	}
	return "unknown"
}

// OK reports whether the target is connected after the search.
func (o Outcome) OK() bool { return o == Reached || o == AlreadyRouted }

// Result reports one search.
type Result struct {
	Outcome  Outcome
	Attach   rrgraph.NodeID   // tree node the branch hangs from
	Added    []rrgraph.NodeID // nodes added to the tree, stubs included
	Cost     float64          // backward cost at the target
	Delay    float64          // Elmore delay at the target (timing policy only)
	Expanded int
}

// Stats accumulates counters across searches.
type Stats struct {
	Searches   int64 `json:"searches"`
	Reached    int64 `json:"reached"`
	Failed     int64 `json:"failed"`
	Pushes     int64 `json:"pushes"`
	Pops       int64 `json:"pops"`
	Expansions int64 `json:"expansions"`
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Searches:   s.Searches + o.Searches,
		Reached:    s.Reached + o.Reached,
		Failed:     s.Failed + o.Failed,
		Pushes:     s.Pushes + o.Pushes,
		Pops:       s.Pops + o.Pops,
		Expansions: s.Expansions + o.Expansions,
	}
}

type status uint8

const (
	unvisited status = iota
	onHeap
	expanded
)

type nodeState struct {
	step   cost.Step
	prev   rrgraph.NodeID
	prevSw rrgraph.SwitchID
	status status
	inTree bool
	dirty  bool
}

// Router runs searches over one graph with one cost policy and lookahead.
type Router struct {
	g         *rrgraph.Graph
	policy    cost.Policy
	lookahead cost.Lookahead
	opts      Options

	state   []nodeState
	touched []rrgraph.NodeID
	heap    minHeap
	stats   Stats
}

// NewRouter allocates scratch state for g.
func NewRouter(g *rrgraph.Graph, policy cost.Policy, lookahead cost.Lookahead, opts Options) *Router {
	r := &Router{
		g:         g,
		policy:    policy,
		lookahead: lookahead,
		opts:      opts,
		state:     make([]nodeState, g.NumNodes()),
		touched:   make([]rrgraph.NodeID, 0, 1024),
		heap:      minHeap{items: make([]entry, 0, 256)},
	}
	for i := range r.state {
		r.state[i].prev = rrgraph.InvalidNode
	}
	return r
}

// Stats returns the counters accumulated since the last ResetStats.
func (r *Router) Stats() Stats { return r.stats }

// ResetStats zeroes the counters.
func (r *Router) ResetStats() { r.stats = Stats{} }

func (r *Router) touch(n rrgraph.NodeID) *nodeState {
	st := &r.state[n]
	if !st.dirty {
		st.dirty = true
		r.touched = append(r.touched, n)
	}
	return st
}

func (r *Router) reset() {
	for _, n := range r.touched {
		r.state[n] = nodeState{prev: rrgraph.InvalidNode}
	}
	r.touched = r.touched[:0]
	r.heap.Reset()
}

// RouteSink connects req.Target to req.Tree. On success the branch is
// already part of the tree; the caller only has to account for the
// occupancy of Result.Added.
//
// Unreachable and BudgetExhausted are ordinary outcomes. A traceback that
// cannot be attached to the tree means the search state is corrupt, and
// RouteSink panics with an INTERNAL_INVARIANT error.
func (r *Router) RouteSink(ctx context.Context, req Request) Result {
	r.stats.Searches++
	if req.Tree.Contains(req.Target) {
		r.stats.Reached++
		return Result{Outcome: AlreadyRouted, Attach: req.Target}
	}
	defer r.reset()

	target := r.g.NodeRef(req.Target)
	for rr := range req.Tree.Nodes() {
		st := r.touch(rr)
		st.inTree = true
		if req.Tree.ReExpandable(rr) {
			r.push(rr, cost.Step{}, req)
		}
	}

	expansions := 0
	pops := 0
	for r.heap.Len() > 0 {
		e := r.heap.Pop()
		r.stats.Pops++
		pops++
		if pops%ctxCheckInterval == 0 && ctx.Err() != nil {
			r.stats.Failed++
			return Result{Outcome: BudgetExhausted, Expanded: expansions}
		}

		st := &r.state[e.node]
		if st.status == expanded || e.backward > st.step.Cost {
			continue
		}
		if e.node == req.Target {
			return r.traceback(req, expansions)
		}
		st.status = expanded
		expansions++
		r.stats.Expansions++
		if r.opts.MaxExpansions > 0 && expansions > r.opts.MaxExpansions {
			r.stats.Failed++
			return Result{Outcome: BudgetExhausted, Expanded: expansions}
		}
		r.expand(e.node, target, req)
	}
	r.stats.Failed++
	return Result{Outcome: Unreachable, Expanded: expansions}
}

func (r *Router) push(n rrgraph.NodeID, step cost.Step, req Request) {
	st := r.touch(n)
	st.step = step
	st.status = onHeap
	total := step.Cost
	if r.opts.AStarFac != 0 {
		total += r.opts.AStarFac * r.lookahead.Estimate(n, req.Target, step.RUpstream, req.Criticality)
	}
	r.heap.Push(n, total, step.Cost)
	r.stats.Pushes++
}

func (r *Router) expand(from rrgraph.NodeID, target *rrgraph.Node, req Request) {
	g := r.g
	prev := r.state[from].step
	first, end := g.EdgeRange(from)
	for e := first; e < end; e++ {
		to := g.EdgeSink(e)
		ts := &r.state[to]
		if ts.inTree || ts.status == expanded {
			continue
		}
		n := g.NodeRef(to)
		if !req.BBox.Admits(n) {
			continue
		}
		// Entering an IPIN anywhere but the target's tile would route
		// through a block.
		if n.Type == rrgraph.IPIN && !n.Covers(target.XLow, target.YLow) {
			continue
		}
		sw := g.EdgeSwitch(e)
		step := r.policy.Expand(prev, from, to, sw, req.Criticality)
		if ts.status == onHeap && step.Cost >= ts.step.Cost {
			continue
		}
		r.push(to, step, req)
		ts.prev = from
		ts.prevSw = sw
	}
}

func (r *Router) traceback(req Request, expansions int) Result {
	var hops []routetree.Hop
	n := req.Target
	final := r.state[n].step
	for !r.state[n].inTree {
		st := &r.state[n]
		if st.prev == rrgraph.InvalidNode || len(hops) > r.g.NumNodes() {
			errors.Invariant("traceback from %d lost its way at node %d", req.Target, n)
		}
		hops = append(hops, routetree.Hop{Node: n, Switch: st.prevSw})
		n = st.prev
	}
	slices.Reverse(hops)

	added, err := req.Tree.AddBranch(n, hops)
	if err != nil {
		errors.Invariant("branch to %d from %d: %v", req.Target, n, err)
	}
	r.stats.Reached++
	return Result{
		Outcome:  Reached,
		Attach:   n,
		Added:    added,
		Cost:     final.Cost,
		Delay:    final.Delay,
		Expanded: expansions,
	}
}
