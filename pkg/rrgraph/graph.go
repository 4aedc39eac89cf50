package rrgraph

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrFrozen is the panic value raised when a build-time mutator is
	// called on a frozen graph.
	ErrFrozen = errors.New("rrgraph: graph is frozen")

	// ErrNotPartitioned is the panic value raised when edges are queried
	// before PartitionEdges has run.
	ErrNotPartitioned = errors.New("rrgraph: edges are not partitioned")

	// ErrNodeOutOfRange indicates a node ID outside [0, NumNodes()).
	ErrNodeOutOfRange = errors.New("rrgraph: node out of range")

	// ErrSwitchOutOfRange indicates a switch ID outside the switch table.
	ErrSwitchOutOfRange = errors.New("rrgraph: switch out of range")
)

// Graph is the routing-resource graph of one device at one channel width.
//
// A Graph is built with AddSwitch, AddCostIndex, AddNode and AddEdge, then
// frozen. After Freeze every mutator panics with ErrFrozen and the graph is
// safe for concurrent readers.
//
// Outgoing edges of a node are stored contiguously with every configurable
// edge before every non-configurable one, so the configurable subset is the
// prefix [first, first+NumConfigurableEdges).
type Graph struct {
	width, height int

	nodes       []Node
	switches    []Switch
	costIndices []CostIndex

	edgeSrc    []NodeID
	edgeDst    []NodeID
	edgeSwitch []SwitchID

	firstEdge      []EdgeID // len(nodes)+1 once partitioned
	firstNonConfig []EdgeID // len(nodes) once partitioned
	fanIn          []int32

	index   *spatialIndex
	ncSets  *nonConfigSets
	maxSpan int

	partitioned bool
	fanInDone   bool
	frozen      bool
}

// New returns an empty graph for a device grid of width x height tiles.
// Valid coordinates are x in [0, width) and y in [0, height).
func New(width, height int) *Graph {
	return &Graph{width: width, height: height}
}

func (g *Graph) mustBuild() {
	if g.frozen {
		panic(ErrFrozen)
	}
}

// Width returns the number of tile columns.
func (g *Graph) Width() int { return g.width }

// Height returns the number of tile rows.
func (g *Graph) Height() int { return g.height }

// Frozen reports whether Freeze has completed.
func (g *Graph) Frozen() bool { return g.frozen }

// AddSwitch appends a switch type and returns its ID.
func (g *Graph) AddSwitch(s Switch) SwitchID {
	g.mustBuild()
	g.switches = append(g.switches, s)
	return SwitchID(len(g.switches) - 1)
}

// AddCostIndex appends a cost class and returns its ID.
func (g *Graph) AddCostIndex(c CostIndex) CostIndexID {
	g.mustBuild()
	g.costIndices = append(g.costIndices, c)
	return CostIndexID(len(g.costIndices) - 1)
}

// AddNode appends a node and returns its ID.
func (g *Graph) AddNode(n Node) NodeID {
	g.mustBuild()
	g.nodes = append(g.nodes, n)
	g.partitioned = false
	g.fanInDone = false
	return NodeID(len(g.nodes) - 1)
}

// AddEdge appends an edge from src to dst through switch sw. Edge IDs are
// assigned by PartitionEdges; AddEdge does not return one.
//
// AddEdge panics if src, dst or sw are out of range.
func (g *Graph) AddEdge(src, dst NodeID, sw SwitchID) {
	g.mustBuild()
	if !g.validNode(src) || !g.validNode(dst) {
		panic(fmt.Errorf("AddEdge(%d, %d): %w", src, dst, ErrNodeOutOfRange))
	}
	if sw < 0 || int(sw) >= len(g.switches) {
		panic(fmt.Errorf("AddEdge(%d, %d) switch %d: %w", src, dst, sw, ErrSwitchOutOfRange))
	}
	g.edgeSrc = append(g.edgeSrc, src)
	g.edgeDst = append(g.edgeDst, dst)
	g.edgeSwitch = append(g.edgeSwitch, sw)
	g.partitioned = false
	g.fanInDone = false
}

// PartitionEdges stable-sorts the edge list by (source node, non-configurable,
// destination node, switch) and builds the per-node edge ranges.
func (g *Graph) PartitionEdges() {
	g.mustBuild()

	perm := make([]int32, len(g.edgeSrc))
	for i := range perm {
		perm[i] = int32(i)
	}
	slices.SortStableFunc(perm, func(a, b int32) int {
		if c := cmp.Compare(g.edgeSrc[a], g.edgeSrc[b]); c != 0 {
			return c
		}
		ca := g.switches[g.edgeSwitch[a]].Configurable
		cb := g.switches[g.edgeSwitch[b]].Configurable
		if ca != cb {
			if ca {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(g.edgeDst[a], g.edgeDst[b]); c != 0 {
			return c
		}
		return cmp.Compare(g.edgeSwitch[a], g.edgeSwitch[b])
	})

	src := make([]NodeID, len(perm))
	dst := make([]NodeID, len(perm))
	sw := make([]SwitchID, len(perm))
	for i, p := range perm {
		src[i], dst[i], sw[i] = g.edgeSrc[p], g.edgeDst[p], g.edgeSwitch[p]
	}
	g.edgeSrc, g.edgeDst, g.edgeSwitch = src, dst, sw

	g.firstEdge = make([]EdgeID, len(g.nodes)+1)
	for _, s := range g.edgeSrc {
		g.firstEdge[s+1]++
	}
	for i := 1; i < len(g.firstEdge); i++ {
		g.firstEdge[i] += g.firstEdge[i-1]
	}

	g.firstNonConfig = make([]EdgeID, len(g.nodes))
	for n := range g.nodes {
		e := g.firstEdge[n]
		for e < g.firstEdge[n+1] && g.switches[g.edgeSwitch[e]].Configurable {
			e++
		}
		g.firstNonConfig[n] = e
	}
	g.partitioned = true
}

// ComputeFanIn counts the incoming edges of every node.
func (g *Graph) ComputeFanIn() {
	g.mustBuild()
	g.fanIn = make([]int32, len(g.nodes))
	for _, d := range g.edgeDst {
		g.fanIn[d]++
	}
	g.fanInDone = true
}

// Freeze validates the graph, partitions edges and computes fan-in if that
// has not happened yet, then builds the spatial index and the
// non-configurable node sets. Freezing a frozen graph is a no-op.
func (g *Graph) Freeze() error {
	if g.frozen {
		return nil
	}
	if err := g.Validate(); err != nil {
		return err
	}
	if !g.partitioned {
		g.PartitionEdges()
	}
	if !g.fanInDone {
		g.ComputeFanIn()
	}
	idx, err := buildSpatialIndex(g)
	if err != nil {
		return err
	}
	g.index = idx
	g.ncSets = buildNonConfigSets(g)
	g.maxSpan = 0
	for i := range g.nodes {
		g.maxSpan = max(g.maxSpan, g.nodes[i].Length())
	}
	g.frozen = true
	return nil
}

func (g *Graph) validNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) mustPartitioned() {
	if !g.partitioned {
		panic(ErrNotPartitioned)
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edgeSrc) }

// NumSwitches returns the size of the switch table.
func (g *Graph) NumSwitches() int { return len(g.switches) }

// NumCostIndices returns the size of the cost-class table.
func (g *Graph) NumCostIndices() int { return len(g.costIndices) }

// Node returns a copy of node id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NodeRef returns a pointer into the node table. Callers must not modify
// the node.
func (g *Graph) NodeRef(id NodeID) *Node { return &g.nodes[id] }

// Switch returns switch id.
func (g *Graph) Switch(id SwitchID) Switch { return g.switches[id] }

// CostIndex returns cost class id.
func (g *Graph) CostIndex(id CostIndexID) CostIndex { return g.costIndices[id] }

// CostIndices returns the cost-class table. Callers must not modify it.
func (g *Graph) CostIndices() []CostIndex { return g.costIndices }

// EdgeSource returns the source node of e.
func (g *Graph) EdgeSource(e EdgeID) NodeID { return g.edgeSrc[e] }

// EdgeSink returns the destination node of e.
func (g *Graph) EdgeSink(e EdgeID) NodeID { return g.edgeDst[e] }

// EdgeSwitch returns the switch used by e.
func (g *Graph) EdgeSwitch(e EdgeID) SwitchID { return g.edgeSwitch[e] }

// EdgeConfigurable reports whether e goes through a programmable switch.
func (g *Graph) EdgeConfigurable(e EdgeID) bool {
	return g.switches[g.edgeSwitch[e]].Configurable
}

// EdgeRange returns the half-open range [first, end) of node's outgoing
// edges.
func (g *Graph) EdgeRange(node NodeID) (first, end EdgeID) {
	g.mustPartitioned()
	return g.firstEdge[node], g.firstEdge[node+1]
}

// Edges yields every outgoing edge of node, configurable edges first.
func (g *Graph) Edges(node NodeID) iter.Seq[EdgeID] {
	first, end := g.EdgeRange(node)
	return edgeSeq(first, end)
}

// ConfigurableEdges yields the configurable prefix of node's edges.
func (g *Graph) ConfigurableEdges(node NodeID) iter.Seq[EdgeID] {
	g.mustPartitioned()
	return edgeSeq(g.firstEdge[node], g.firstNonConfig[node])
}

// NonConfigurableEdges yields the non-configurable suffix of node's edges.
func (g *Graph) NonConfigurableEdges(node NodeID) iter.Seq[EdgeID] {
	g.mustPartitioned()
	return edgeSeq(g.firstNonConfig[node], g.firstEdge[node+1])
}

func edgeSeq(first, end EdgeID) iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		for e := first; e < end; e++ {
			if !yield(e) {
				return
			}
		}
	}
}

// NumConfigurableEdges returns how many of node's outgoing edges are
// configurable.
func (g *Graph) NumConfigurableEdges(node NodeID) int {
	g.mustPartitioned()
	return int(g.firstNonConfig[node] - g.firstEdge[node])
}

// NumNonConfigurableEdges returns how many of node's outgoing edges are
// non-configurable.
func (g *Graph) NumNonConfigurableEdges(node NodeID) int {
	g.mustPartitioned()
	return int(g.firstEdge[node+1] - g.firstNonConfig[node])
}

// FanIn returns the number of edges entering node.
func (g *Graph) FanIn(node NodeID) int {
	if !g.fanInDone {
		panic(errors.New("rrgraph: fan-in not computed"))
	}
	return int(g.fanIn[node])
}

// FindEdge returns the first edge from src to dst, if any.
func (g *Graph) FindEdge(src, dst NodeID) (EdgeID, bool) {
	first, end := g.EdgeRange(src)
	for e := first; e < end; e++ {
		if g.edgeDst[e] == dst {
			return e, true
		}
	}
	return -1, false
}

// MaxSpan returns the longest node length in tiles. Nets whose bounding
// boxes are further apart than this cannot reach a common node.
func (g *Graph) MaxSpan() int { return g.maxSpan }

// CountByType returns the number of nodes of each type.
func (g *Graph) CountByType() [NumNodeTypes]int {
	var counts [NumNodeTypes]int
	for i := range g.nodes {
		counts[g.nodes[i].Type]++
	}
	return counts
}
