// Package rrgraph stores the routing-resource graph (RRG) of an FPGA.
//
// # Overview
//
// Every wire segment, pin and logical source/sink class of a device is a
// [Node]; every programmable or hard-wired connection between two of them
// is an edge through a [Switch]. Nodes share delay and base-cost constants
// through a small table of [CostIndex] entries.
//
// # Build, then Freeze
//
// A graph is assembled with [Graph.AddSwitch], [Graph.AddCostIndex],
// [Graph.AddNode] and [Graph.AddEdge]. [Graph.Freeze] validates it,
// partitions the edges, counts fan-in, and builds two derived structures:
//
//   - a spatial index answering [Graph.FindNode] in O(1)
//   - the non-configurable node sets: groups of nodes tied together by
//     non-configurable edges, which are always used together
//
// After Freeze the graph is read-only. Calling a mutator panics with
// [ErrFrozen].
//
// # Edge Order
//
// Outgoing edges of a node are contiguous and sorted by (non-configurable,
// destination, switch), so all configurable edges come first:
//
//	first, end := g.EdgeRange(n)
//	cfgEnd := first + rrgraph.EdgeID(g.NumConfigurableEdges(n))
//	// [first, cfgEnd) configurable, [cfgEnd, end) non-configurable
//
// # File Format
//
// [ReadJSON] and [WriteJSON] use a flat JSON document with "switches",
// "cost_indices", "nodes" and "edges" arrays. Node IDs are implied by
// position in "nodes".
package rrgraph
