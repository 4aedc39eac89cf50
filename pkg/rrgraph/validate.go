package rrgraph

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
)

// maxPTC bounds pin/track/class numbers so the spatial index stays dense.
const maxPTC = 1 << 16

// Validate checks every node and edge against the graph's tables and grid.
// It returns an INVALID_GRAPH error describing the first problem found.
func (g *Graph) Validate() error {
	if g.width <= 0 || g.height <= 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "grid size %dx%d must be positive", g.width, g.height)
	}
	for i := range g.nodes {
		if err := g.validateNode(NodeID(i)); err != nil {
			return err
		}
	}
	for i := range g.edgeSrc {
		if !g.validNode(g.edgeSrc[i]) || !g.validNode(g.edgeDst[i]) {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d: endpoint out of range", i)
		}
		if g.edgeSwitch[i] < 0 || int(g.edgeSwitch[i]) >= len(g.switches) {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d: switch %d out of range", i, g.edgeSwitch[i])
		}
		if g.edgeSrc[i] == g.edgeDst[i] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d: self loop on node %d", i, g.edgeSrc[i])
		}
	}
	for i, c := range g.costIndices {
		if c.BaseCost < 0 {
			return errors.New(errors.ErrCodeInvalidGraph, "cost index %d: negative base cost", i)
		}
		if c.OrthoCostIndex < 0 || int(c.OrthoCostIndex) >= len(g.costIndices) {
			return errors.New(errors.ErrCodeInvalidGraph, "cost index %d: ortho index %d out of range", i, c.OrthoCostIndex)
		}
	}
	return nil
}

func (g *Graph) validateNode(id NodeID) error {
	n := &g.nodes[id]
	switch {
	case int(n.Type) >= NumNodeTypes:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: bad type %d", id, n.Type)
	case n.Capacity < 0:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: negative capacity %d", id, n.Capacity)
	case n.XLow > n.XHigh || n.YLow > n.YHigh:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: bounding box (%d,%d)-(%d,%d) not ordered",
			id, n.XLow, n.YLow, n.XHigh, n.YHigh)
	case n.XLow < 0 || n.YLow < 0 || n.XHigh >= g.width || n.YHigh >= g.height:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: bounding box (%d,%d)-(%d,%d) outside %dx%d grid",
			id, n.XLow, n.YLow, n.XHigh, n.YHigh, g.width, g.height)
	case n.CostIndex < 0 || int(n.CostIndex) >= len(g.costIndices):
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: cost index %d out of range", id, n.CostIndex)
	case n.PTC < 0 || n.PTC >= maxPTC:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: ptc %d out of range", id, n.PTC)
	case n.Type.IsPin() && int(n.Side) >= NumSides:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: bad side %d", id, n.Side)
	case n.R < 0 || n.C < 0:
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: negative R or C", id)
	}
	if n.Type == ChanX && n.YLow != n.YHigh {
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: CHANX must span a single row", id)
	}
	if n.Type == ChanY && n.XLow != n.XHigh {
		return errors.New(errors.ErrCodeInvalidGraph, "node %d: CHANY must span a single column", id)
	}
	return nil
}
