package router

import (
	"time"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/maze"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
)

// Status is the verdict of a routing run.
type Status string

const (
	// Converged: every sink is connected and no node is over capacity.
	Converged Status = "converged"

	// GaveUp: the run stopped with nodes still over capacity. The best
	// routing seen was restored and legalized.
	GaveUp Status = "gave-up"

	// Unroutable: the routing is legal but some sink was not reached: no
	// path in the full device, a pin that did not resolve, or a search
	// budget that ran out until the run stopped.
	Unroutable Status = "unroutable"
)

// Result is the outcome of Route.
type Result struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`

	// Reason says why a run that did not converge stopped.
	Reason string `json:"reason,omitempty"`

	Iterations    int `json:"iterations"`
	BestIteration int `json:"best_iteration"`
	Wirelength    int `json:"wirelength"`

	Nets []NetResult `json:"nets"`

	// Overused lists the congestion of the best routing before
	// legalization. Empty on convergence.
	Overused []Overuse `json:"overused,omitempty"`

	Stats    maze.Stats       `json:"stats"`
	History  []IterationStats `json:"history"`
	Duration time.Duration    `json:"duration"`
}

// NetResult is the final routing of one net.
type NetResult struct {
	ID         int                 `json:"id"`
	Name       string              `json:"name"`
	Routed     bool                `json:"routed"`
	Wirelength int                 `json:"wirelength"`
	Failures   []*errors.SinkError `json:"failures,omitempty"`
	Tree       *routetree.Tree     `json:"-"`
}

// IterationStats records one pass of the negotiated-congestion loop.
type IterationStats struct {
	Iteration    int           `json:"iteration"`
	PresFac      float64       `json:"pres_fac"`
	Rerouted     int           `json:"rerouted"`
	Overused     int           `json:"overused"`
	TotalOveruse int           `json:"total_overuse"`
	FailedSinks  int           `json:"failed_sinks"`
	Wirelength   int           `json:"wirelength"`
	BBUpdated    int           `json:"bb_updated"`
	Duration     time.Duration `json:"duration"`
}

// better reports whether a is a better routing than b: less total overuse,
// then fewer over-used nodes, then fewer failed sinks, then less
// wirelength.
func (a IterationStats) better(b IterationStats) bool {
	if a.TotalOveruse != b.TotalOveruse {
		return a.TotalOveruse < b.TotalOveruse
	}
	if a.Overused != b.Overused {
		return a.Overused < b.Overused
	}
	if a.FailedSinks != b.FailedSinks {
		return a.FailedSinks < b.FailedSinks
	}
	return a.Wirelength < b.Wirelength
}

// Failed returns the nets that are not fully routed.
func (r *Result) Failed() []NetResult {
	var out []NetResult
	for _, n := range r.Nets {
		if !n.Routed {
			out = append(out, n)
		}
	}
	return out
}

// Err returns nil for a converged run. A run that gave up with nodes over
// capacity is INFEASIBLE; an unroutable one carries the code of its first
// failed sink (UNREACHABLE_SINK, BUDGET_EXHAUSTED or GRAPH_LOOKUP_MISS).
func (r *Result) Err() error {
	switch r.Status {
	case Converged:
		return nil
	case GaveUp:
		return errors.New(errors.ErrCodeInfeasible, "routing gave up after %d iterations (%s): %d nodes over capacity, %d nets unrouted",
			r.Iterations, r.Reason, len(r.Overused), len(r.Failed()))
	}
	for _, n := range r.Nets {
		if len(n.Failures) > 0 {
			f := n.Failures[0]
			return errors.Wrap(f.Code(), f, "%d nets unroutable", len(r.Failed()))
		}
	}
	return errors.New(errors.ErrCodeUnreachableSink, "routing is unroutable")
}
