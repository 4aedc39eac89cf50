// Package cost implements the negotiated-congestion cost model.
//
// A [State] holds per-node occupancy and historical cost for one routing
// run. A [Model] turns that state into node costs, a [Policy] prices a
// single search step (pure congestion, or congestion blended with Elmore
// delay by net criticality), and a [Lookahead] estimates the cost still to
// go so the maze search can run as A*.
//
// The cost of a node rises in two ways. Present cost grows with the
// pressure factor as soon as a node is full, so nets compete for it within
// an iteration. Historical cost grows once per iteration for every node
// that is still overused, so a resource that was contested in the past stays
// expensive after it is momentarily free.
package cost
