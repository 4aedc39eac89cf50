package router

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/maze"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/observability"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Route routes nl over the frozen graph g.
//
// A run that does not converge is not an error: the returned Result says
// why it stopped, and Result.Err turns the verdict into an error when the
// caller wants one. Route returns an error for bad input, cancellation
// between iterations, or a violated internal invariant.
func Route(ctx context.Context, g *rrgraph.Graph, nl *netlist.Netlist, opts Options) (*Result, error) {
	c, err := NewContext(g, nl, opts)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

type snapshot struct {
	stats    IterationStats
	trees    []*routetree.Tree
	failures [][]*errors.SinkError
}

// Run iterates rip-up and re-route until the routing is legal or a give-up
// criterion triggers. The context is checked between iterations; within
// one, it only bounds individual sink searches.
func (c *Context) Run(ctx context.Context) (res *Result, err error) {
	defer func() {
		if err != nil {
			res = nil
		}
	}()
	defer errors.RecoverInvariant(&err)

	start := time.Now()
	runID := uuid.NewString()
	logger := c.opts.Logger.With("run", runID[:8])
	hooks := observability.Router()
	hooks.OnRouteStart(ctx, runID, len(c.nl.Nets))
	logger.Info("routing", "nets", len(c.nl.Nets), "nodes", c.g.NumNodes(), "edges", c.g.NumEdges(), "workers", c.opts.Workers)

	res = &Result{RunID: runID}
	order := c.Order()
	available := c.AvailableWirelength()
	bbChanged := make([]bool, len(c.trees))
	presFac := c.opts.FirstIterPresFac
	bbUpdated := 0
	var (
		pred predictor
		best *snapshot
	)

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "routing canceled before iteration %d", iter)
		}
		iterStart := time.Now()
		c.model.SetPresFac(presFac)
		hooks.OnIterationStart(ctx, iter, presFac)

		nets := c.selectNets(iter, order, bbChanged)
		if err := c.routeNets(ctx, nets); err != nil {
			return nil, err
		}

		st := c.iterationStats(iter, presFac, len(nets), bbUpdated)
		st.Duration = time.Since(iterStart)
		res.History = append(res.History, st)
		res.Iterations = iter
		logger.Info("iteration",
			"iter", iter,
			"pres_fac", presFac,
			"rerouted", st.Rerouted,
			"overused", st.Overused,
			"total_overuse", st.TotalOveruse,
			"failed_sinks", st.FailedSinks,
			"wirelength", st.Wirelength,
			"bb_updated", st.BBUpdated,
			"duration", st.Duration.Round(time.Millisecond))
		hooks.OnIterationComplete(ctx, iter, st.Overused, st.Wirelength, st.Duration)

		if st.Overused == 0 && !c.retryable() {
			res.Status = Converged
			if st.FailedSinks > 0 {
				res.Status = Unroutable
				res.Reason = "sinks unreachable in the full device"
			}
			res.BestIteration = iter
			break
		}
		if best == nil || st.better(best.stats) {
			best = c.snapshot(st)
		}

		pred.add(iter, st.Overused)
		if reason := c.giveUp(iter, st, available, &pred); reason != "" {
			c.restore(best)
			res.Reason = reason
			res.BestIteration = best.stats.Iteration
			res.Overused = c.OverusedNodes()
			if len(res.Overused) == 0 {
				// Legal already: only sink searches failed.
				res.Status = Unroutable
				logger.Warn("routing stopped with unreached sinks", "reason", reason, "best_iteration", res.BestIteration, "failed_sinks", best.stats.FailedSinks)
				break
			}
			res.Status = GaveUp
			c.legalize(order)
			logger.Warn("routing gave up", "reason", reason, "best_iteration", res.BestIteration, "overused", len(res.Overused))
			break
		}

		bbUpdated = c.updateBoxes(nets, bbChanged)

		accFac := c.opts.accFac()
		if iter == 1 {
			presFac = c.opts.InitialPresFac
			accFac = 0
		} else {
			presFac = min(presFac*c.opts.PresFacMult, c.opts.MaxPresFac)
		}
		c.model.UpdateHistorical(accFac)
	}

	c.collect(res)
	res.Duration = time.Since(start)
	hooks.OnRouteComplete(ctx, runID, string(res.Status), res.Iterations, res.Duration)
	logger.Info("routing finished", "status", res.Status, "iterations", res.Iterations, "wirelength", res.Wirelength, "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// selectNets picks the nets to re-route: all of them in the first
// iteration, later only those using an over-used node, those with a sink
// worth retrying, and those whose box just changed.
func (c *Context) selectNets(iter int, order []int, bbChanged []bool) []int {
	if iter == 1 {
		return order
	}
	var out []int
	for _, id := range order {
		if bbChanged[id] || c.netRetryable(id) || c.touchesOveruse(id) {
			out = append(out, id)
		}
		bbChanged[id] = false
	}
	return out
}

func (c *Context) touchesOveruse(id int) bool {
	for rr := range c.trees[id].Nodes() {
		if c.overused(rr) {
			return true
		}
	}
	return false
}

// netRetryable reports whether net id has a failed sink that another
// iteration might reach: one that ran out of budget, or was unreachable
// within a box smaller than the device.
func (c *Context) netRetryable(id int) bool {
	full := maze.FullDevice(c.g)
	for _, f := range c.failures[id] {
		switch f.Reason {
		case ReasonBudget:
			return true
		case ReasonUnreachable:
			if c.bbs[id] != full {
				return true
			}
		}
	}
	return false
}

func (c *Context) retryable() bool {
	for id := range c.trees {
		if c.netRetryable(id) {
			return true
		}
	}
	return false
}

func (c *Context) routeNets(ctx context.Context, nets []int) error {
	if c.opts.Workers == 1 {
		for _, id := range nets {
			c.RouteNet(ctx, id)
		}
		return nil
	}
	for _, wave := range c.waves(nets) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Workers)
		for _, id := range wave {
			g.Go(func() (err error) {
				defer errors.RecoverInvariant(&err)
				c.RouteNet(gctx, id)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) iterationStats(iter int, presFac float64, rerouted, bbUpdated int) IterationStats {
	st := IterationStats{
		Iteration:  iter,
		PresFac:    presFac,
		Rerouted:   rerouted,
		Wirelength: c.Wirelength(),
		BBUpdated:  bbUpdated,
	}
	for _, rr := range c.model.Overused() {
		st.Overused++
		st.TotalOveruse += c.model.Overuse(rr)
	}
	for _, f := range c.failures {
		st.FailedSinks += len(f)
	}
	return st
}

// giveUp returns why the run should stop now, or "" to continue.
func (c *Context) giveUp(iter int, st IterationStats, available int, pred *predictor) string {
	if iter >= c.opts.MaxIterations {
		return fmt.Sprintf("reached max_iterations %d", c.opts.MaxIterations)
	}
	if iter == 1 && c.opts.WirelengthAbort > 0 && available > 0 {
		if ratio := float64(st.Wirelength) / float64(available); ratio > c.opts.WirelengthAbort {
			return fmt.Sprintf("wirelength ratio %.2f exceeds %.2f", ratio, c.opts.WirelengthAbort)
		}
	}
	if factor, ok := predictorFactor[c.opts.Predictor]; ok {
		limit := factor * float64(c.opts.MaxIterations)
		if est := pred.estimate(); !math.IsNaN(est) && est > limit {
			return fmt.Sprintf("predicted success iteration %.1f exceeds %.0f", est, limit)
		}
	}
	return ""
}

// updateBoxes grows the box of every net just routed. A net that failed a
// sink gets the whole device; otherwise each side its routing touches moves
// out by one tile. It returns how many boxes changed and marks them.
func (c *Context) updateBoxes(nets []int, changed []bool) int {
	full := maze.FullDevice(c.g)
	w, h := c.g.Width(), c.g.Height()
	updated := 0
	for _, id := range nets {
		bb := c.bbs[id]
		if c.netRetryable(id) {
			if bb != full {
				c.bbs[id] = full
				changed[id] = true
				updated++
			}
			continue
		}
		if c.opts.FixedBB {
			continue
		}
		xmin, ymin, xmax, ymax, ok := c.trees[id].Extent()
		if !ok {
			continue
		}
		if xmin <= bb.XMin && bb.XMin > 0 {
			bb.XMin--
		}
		if ymin <= bb.YMin && bb.YMin > 0 {
			bb.YMin--
		}
		if xmax >= bb.XMax && bb.XMax < w-1 {
			bb.XMax++
		}
		if ymax >= bb.YMax && bb.YMax < h-1 {
			bb.YMax++
		}
		if bb != c.bbs[id] {
			c.bbs[id] = bb
			changed[id] = true
			updated++
		}
	}
	return updated
}

func (c *Context) snapshot(st IterationStats) *snapshot {
	s := &snapshot{
		stats:    st,
		trees:    make([]*routetree.Tree, len(c.trees)),
		failures: make([][]*errors.SinkError, len(c.failures)),
	}
	for i, t := range c.trees {
		s.trees[i] = t.Clone()
	}
	copy(s.failures, c.failures)
	return s
}

// restore replaces every tree with its copy in s, moving occupancy along.
func (c *Context) restore(s *snapshot) {
	for id := range c.trees {
		c.trees[id].RipUp(c.state)
		c.trees[id] = s.trees[id].Clone()
		c.trees[id].Commit(c.state)
		c.failures[id] = s.failures[id]
	}
}

// legalize keeps nets, in routing order, while their trees fit in the
// capacity left by the nets kept before them. Every other net is ripped up
// and all its sinks fail as congested, which leaves a legal partial
// routing.
func (c *Context) legalize(order []int) {
	used := make([]int, c.g.NumNodes())
	for _, id := range order {
		tree := c.trees[id]
		fits := true
		for rr := range tree.Nodes() {
			if used[rr] >= c.g.NodeRef(rr).Capacity {
				fits = false
				break
			}
		}
		if fits {
			for rr := range tree.Nodes() {
				used[rr]++
			}
			continue
		}
		net := &c.nl.Nets[id]
		c.RipUp(id)
		for i := 1; i <= net.Fanout(); i++ {
			c.failures[id] = append(c.failures[id], &errors.SinkError{Net: net.Name, Sink: i, Reason: ReasonCongested})
		}
	}
}

// collect fills the per-net part of res from the final state and checks
// every fully routed tree.
func (c *Context) collect(res *Result) {
	res.Nets = make([]NetResult, len(c.nl.Nets))
	for id := range c.nl.Nets {
		net := &c.nl.Nets[id]
		tree := c.trees[id]
		nr := NetResult{
			ID:         id,
			Name:       net.Name,
			Routed:     len(c.failures[id]) == 0 && !tree.Empty(),
			Wirelength: c.netWirelength(id),
			Failures:   c.failures[id],
			Tree:       tree,
		}
		if nr.Routed {
			sinks := make([]rrgraph.NodeID, 0, net.Fanout())
			for i := 1; i <= net.Fanout(); i++ {
				sinks = append(sinks, net.Sink(i))
			}
			if err := tree.Validate(sinks); err != nil {
				errors.Invariant("net %s: %v", net.Name, err)
			}
		}
		res.Nets[id] = nr
	}
	res.Wirelength = c.Wirelength()
	res.Stats = c.Stats()
}
