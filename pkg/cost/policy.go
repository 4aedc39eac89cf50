package cost

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Step is the search state carried along a partial path.
type Step struct {
	Cost      float64 // backward cost from the route tree
	RUpstream float64 // resistance seen looking back to the last buffer
	Delay     float64 // Elmore delay from the route tree
}

// Policy prices one edge of a partial path. Implementations are selected
// by name with NewPolicy.
type Policy interface {
	Name() string

	// Expand returns the state after travelling from node from, whose
	// state is prev, through switch sw into node to. crit is the net's
	// criticality in [0, 1].
	Expand(prev Step, from, to rrgraph.NodeID, sw rrgraph.SwitchID, crit float64) Step
}

// Policy names accepted by NewPolicy.
const (
	PolicyCongestion = "congestion"
	PolicyTiming     = "timing"
)

// NewPolicy returns the policy called name. bendCost is added whenever a
// path turns between CHANX and CHANY.
func NewPolicy(name string, m *Model, bendCost float64) (Policy, error) {
	switch name {
	case "", PolicyCongestion:
		return &Congestion{Model: m, BendCost: bendCost}, nil
	case PolicyTiming:
		return &Timing{Model: m, BendCost: bendCost}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cost policy %q", name)
}

func bend(g *rrgraph.Graph, from, to rrgraph.NodeID) bool {
	a, b := g.NodeRef(from).Type, g.NodeRef(to).Type
	return (a == rrgraph.ChanX && b == rrgraph.ChanY) || (a == rrgraph.ChanY && b == rrgraph.ChanX)
}

// Congestion prices edges by congestion cost alone. Criticality is ignored.
type Congestion struct {
	Model    *Model
	BendCost float64
}

func (*Congestion) Name() string { return PolicyCongestion }

func (c *Congestion) Expand(prev Step, from, to rrgraph.NodeID, _ rrgraph.SwitchID, _ float64) Step {
	next := prev
	next.Cost += c.Model.CongestionCost(to)
	if c.BendCost != 0 && bend(c.Model.g, from, to) {
		next.Cost += c.BendCost
	}
	return next
}

// Timing blends congestion and Elmore delay by criticality:
//
//	cost += (1 - crit) * congestion(to) + crit * Tdel
//
// where Tdel is the delay of the switch plus the RC delay of node to.
// Buffered switches reset the upstream resistance.
type Timing struct {
	Model    *Model
	BendCost float64
}

func (*Timing) Name() string { return PolicyTiming }

func (t *Timing) Expand(prev Step, from, to rrgraph.NodeID, sw rrgraph.SwitchID, crit float64) Step {
	g := t.Model.g
	s := g.Switch(sw)
	node := g.NodeRef(to)

	r := prev.RUpstream + s.R
	if s.Buffered {
		r = s.R
	}
	r += node.R
	tdel := (r-0.5*node.R)*node.C + s.Tdel

	next := Step{
		Cost:      prev.Cost + crit*tdel + (1-crit)*t.Model.CongestionCost(to),
		RUpstream: r,
		Delay:     prev.Delay + tdel,
	}
	if t.BendCost != 0 && bend(g, from, to) {
		next.Cost += (1 - crit) * t.BendCost
	}
	return next
}
