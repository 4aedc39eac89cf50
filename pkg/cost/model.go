package cost

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Model computes node costs from a graph and a congestion State.
//
//	present(n)    = 1                                 if occ < cap
//	              = 1 + (occ + 1 - cap) * pres_fac    otherwise
//	historical(n) = accumulated, starts at 1, never decreases
//	total(n)      = base(cost class of n) * historical(n) * present(n)
//
// Present cost is derived from occupancy on every call, so it is always
// current for every node without a separate refresh pass.
type Model struct {
	g       *rrgraph.Graph
	state   *State
	base    []float64
	presFac float64
}

// NewModel returns a model with pres_fac 0.
func NewModel(g *rrgraph.Graph, state *State) *Model {
	m := &Model{g: g, state: state, base: make([]float64, g.NumCostIndices())}
	for i, c := range g.CostIndices() {
		m.base[i] = c.BaseCost
	}
	return m
}

// Graph returns the graph the model prices.
func (m *Model) Graph() *rrgraph.Graph { return m.g }

// State returns the congestion state the model reads.
func (m *Model) State() *State { return m.state }

// PresFac returns the present-congestion pressure factor.
func (m *Model) PresFac() float64 { return m.presFac }

// SetPresFac sets the pressure factor used by PresentCost.
func (m *Model) SetPresFac(f float64) { m.presFac = f }

// BaseCost returns the base cost of node's cost class.
func (m *Model) BaseCost(node rrgraph.NodeID) float64 {
	return m.base[m.g.NodeRef(node).CostIndex]
}

// ClassBaseCost returns the base cost of a cost class.
func (m *Model) ClassBaseCost(ci rrgraph.CostIndexID) float64 { return m.base[ci] }

// PresentCost is the cost of adding one more user to node under the current
// occupancy.
func (m *Model) PresentCost(node rrgraph.NodeID) float64 {
	occ := m.state.Occupancy(node)
	capacity := m.g.NodeRef(node).Capacity
	if occ < capacity {
		return 1
	}
	return 1 + float64(occ+1-capacity)*m.presFac
}

// HistoricalCost returns node's accumulated historical cost.
func (m *Model) HistoricalCost(node rrgraph.NodeID) float64 {
	return m.state.Historical(node)
}

// TotalCost returns base * historical * present for node.
func (m *Model) TotalCost(node rrgraph.NodeID) float64 {
	return m.BaseCost(node) * m.state.acc[node] * m.PresentCost(node)
}

// CongestionCost is the cost of entering node during a search. A node tied
// to others through non-configurable edges drags the whole set in with it,
// so the cost is summed over the set.
func (m *Model) CongestionCost(node rrgraph.NodeID) float64 {
	members, ok := m.g.NonConfigurableSet(node)
	if !ok {
		return m.TotalCost(node)
	}
	var sum float64
	for _, n := range members {
		sum += m.TotalCost(n)
	}
	return sum
}

// Overuse returns how far node's occupancy exceeds its capacity, or 0.
func (m *Model) Overuse(node rrgraph.NodeID) int {
	return max(0, m.state.Occupancy(node)-m.g.NodeRef(node).Capacity)
}

// UpdateHistorical adds (occ - cap) * accFac to the historical cost of
// every over-used node. It returns the number of over-used nodes and their
// total overuse.
func (m *Model) UpdateHistorical(accFac float64) (overused, totalOveruse int) {
	if accFac < 0 {
		errors.Invariant("negative acc_fac %g", accFac)
	}
	for i := range m.state.acc {
		over := m.Overuse(rrgraph.NodeID(i))
		if over == 0 {
			continue
		}
		m.state.acc[i] += float64(over) * accFac
		overused++
		totalOveruse += over
	}
	return overused, totalOveruse
}

// Overused returns every node whose occupancy exceeds its capacity, in
// ascending ID order.
func (m *Model) Overused() []rrgraph.NodeID {
	var out []rrgraph.NodeID
	for i := range m.state.acc {
		if m.Overuse(rrgraph.NodeID(i)) > 0 {
			out = append(out, rrgraph.NodeID(i))
		}
	}
	return out
}

// Feasible reports whether no node is over capacity.
func (m *Model) Feasible() bool {
	for i := range m.state.acc {
		if m.Overuse(rrgraph.NodeID(i)) > 0 {
			return false
		}
	}
	return true
}
