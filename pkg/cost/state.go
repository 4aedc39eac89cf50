package cost

import (
	"sync/atomic"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// State is the per-node congestion bookkeeping of one routing run:
// occupancy (how many nets use the node) and the accumulated historical
// cost.
//
// Occupancy updates are atomic so nets routed concurrently in disjoint
// regions can share one State. Historical costs are only written between
// iterations.
type State struct {
	occ []atomic.Int32
	acc []float64
}

// NewState returns a state for n nodes with zero occupancy and historical
// cost 1.
func NewState(n int) *State {
	s := &State{
		occ: make([]atomic.Int32, n),
		acc: make([]float64, n),
	}
	for i := range s.acc {
		s.acc[i] = 1
	}
	return s
}

// Len returns the number of nodes tracked.
func (s *State) Len() int { return len(s.acc) }

// Occupancy returns the number of nets currently using node.
func (s *State) Occupancy(node rrgraph.NodeID) int {
	return int(s.occ[node].Load())
}

// Add changes node's occupancy by delta. Occupancy can never go negative;
// doing so means a net released a node it did not hold, and Add panics with
// an INTERNAL_INVARIANT error.
func (s *State) Add(node rrgraph.NodeID, delta int) {
	if v := s.occ[node].Add(int32(delta)); v < 0 {
		errors.Invariant("occupancy of node %d went negative (%d)", node, v)
	}
}

// Historical returns node's accumulated historical cost.
func (s *State) Historical(node rrgraph.NodeID) float64 { return s.acc[node] }

// Occupancies returns a copy of every node's occupancy.
func (s *State) Occupancies() []int32 {
	out := make([]int32, len(s.occ))
	for i := range s.occ {
		out[i] = s.occ[i].Load()
	}
	return out
}

// Reset clears occupancy and historical cost.
func (s *State) Reset() {
	for i := range s.occ {
		s.occ[i].Store(0)
		s.acc[i] = 1
	}
}
