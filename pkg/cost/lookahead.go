package cost

import (
	"math"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Lookahead estimates the remaining cost from a node to a target SINK.
// Overestimates only cost optimality, never correctness.
type Lookahead interface {
	Name() string
	Estimate(from, target rrgraph.NodeID, rUpstream, crit float64) float64
}

// Lookahead names accepted by NewLookahead.
const (
	LookaheadClassic = "classic"
	LookaheadNone    = "none"
)

// NewLookahead returns the lookahead called name.
func NewLookahead(name string, m *Model) (Lookahead, error) {
	switch name {
	case "", LookaheadClassic:
		return NewClassic(m), nil
	case LookaheadNone:
		return None{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown lookahead %q", name)
}

// None turns the search into plain Dijkstra.
type None struct{}

func (None) Name() string { return LookaheadNone }

func (None) Estimate(rrgraph.NodeID, rrgraph.NodeID, float64, float64) float64 { return 0 }

// Classic counts the channel segments still needed in the wire's own
// direction and in the orthogonal direction, and prices them with the base
// cost and delay constants of the wire's cost class. An IPIN is estimated
// at the base cost of its SINK; every other non-wire node at 0.
type Classic struct {
	m        *Model
	ipinBase float64
	ipinTdel float64
}

// NewClassic builds the estimator. The IPIN constants are taken from the
// first IPIN node's cost class.
func NewClassic(m *Model) *Classic {
	c := &Classic{m: m}
	g := m.g
	for i := range g.NumNodes() {
		n := g.NodeRef(rrgraph.NodeID(i))
		if n.Type == rrgraph.IPIN {
			ci := g.CostIndex(n.CostIndex)
			c.ipinBase = ci.BaseCost
			c.ipinTdel = ci.TLinear
			break
		}
	}
	return c
}

func (*Classic) Name() string { return LookaheadClassic }

func (c *Classic) Estimate(from, target rrgraph.NodeID, rUpstream, crit float64) float64 {
	g := c.m.g
	n := g.NodeRef(from)
	switch n.Type {
	case rrgraph.ChanX, rrgraph.ChanY:
	case rrgraph.IPIN:
		return c.m.BaseCost(target)
	default:
		return 0
	}

	same, ortho := ExpectedSegments(g, from, target)
	ci := g.CostIndex(n.CostIndex)
	oi := g.CostIndex(ci.OrthoCostIndex)
	fs, fo := float64(same), float64(ortho)

	cong := fs*ci.BaseCost + fo*oi.BaseCost + c.ipinBase + c.m.BaseCost(target)
	if crit == 0 {
		return cong
	}
	tdel := fs*ci.TLinear + fs*fs*ci.TQuadratic +
		fo*oi.TLinear + fo*fo*oi.TQuadratic +
		rUpstream*(fs*ci.CLoad+fo*oi.CLoad) +
		c.ipinTdel
	return crit*tdel + (1-crit)*cong
}

func roundUp(x float64) int { return int(math.Ceil(x - 0.001)) }

// ExpectedSegments returns how many wires of from's class (same) and of its
// orthogonal class (ortho) a path from wire from to target still needs.
// A CHANX in row y passes the pins of tiles in rows y and y+1 without an
// orthogonal hop; CHANY is symmetric. from must be a channel node.
func ExpectedSegments(g *rrgraph.Graph, from, target rrgraph.NodeID) (same, ortho int) {
	n := g.NodeRef(from)
	t := g.NodeRef(target)
	ci := g.CostIndex(n.CostIndex)
	inv := ci.InvLength
	orthoInv := g.CostIndex(ci.OrthoCostIndex).InvLength

	// Project onto (along, across) axes of the wire.
	lo, hi, at := n.XLow, n.XHigh, n.YLow
	targetAlong, targetAcross := t.XLow, t.YLow
	if n.Type == rrgraph.ChanY {
		lo, hi, at = n.YLow, n.YHigh, n.XLow
		targetAlong, targetAcross = t.YLow, t.XLow
	}

	pass := 0
	switch {
	case at > targetAcross:
		ortho = roundUp(float64(at-targetAcross+1) * orthoInv)
		pass = 1
	case at < targetAcross-1:
		ortho = roundUp(float64(targetAcross-at) * orthoInv)
		pass = 1
	}

	switch {
	case lo > targetAlong+pass:
		same = roundUp(float64(lo-pass-targetAlong) * inv)
	case hi < targetAlong-pass:
		same = roundUp(float64(targetAlong-pass-hi) * inv)
	}
	return same, ortho
}
