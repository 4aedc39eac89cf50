package rrgraph

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
)

// spatialIndex maps (type, x, y, side) to a list of nodes keyed by ptc.
// Nodes spanning several tiles are registered at every tile they cover.
type spatialIndex struct {
	width, height int
	lists         [NumNodeTypes][][]NodeID
}

func sidesFor(t NodeType) int {
	if t.IsPin() {
		return NumSides
	}
	return 1
}

func (s *spatialIndex) slot(t NodeType, x, y int, side Side) int {
	if !t.IsPin() {
		side = 0
	}
	return (x*s.height+y)*sidesFor(t) + int(side)
}

func buildSpatialIndex(g *Graph) (*spatialIndex, error) {
	s := &spatialIndex{width: g.width, height: g.height}
	for t := range NodeType(NumNodeTypes) {
		s.lists[t] = make([][]NodeID, g.width*g.height*sidesFor(t))
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		id := NodeID(i)
		for x := n.XLow; x <= n.XHigh; x++ {
			for y := n.YLow; y <= n.YHigh; y++ {
				slot := s.slot(n.Type, x, y, n.Side)
				list := s.lists[n.Type][slot]
				for len(list) <= n.PTC {
					list = append(list, InvalidNode)
				}
				if prev := list[n.PTC]; prev != InvalidNode {
					return nil, errors.New(errors.ErrCodeInvalidGraph,
						"nodes %d and %d both claim %s ptc %d at (%d,%d)", prev, id, n.Type, n.PTC, x, y)
				}
				list[n.PTC] = id
				s.lists[n.Type][slot] = list
			}
		}
	}
	return s, nil
}

func (s *spatialIndex) find(x, y int, t NodeType, ptc int, side Side) NodeID {
	if int(t) >= NumNodeTypes || x < 0 || y < 0 || x >= s.width || y >= s.height || ptc < 0 {
		return InvalidNode
	}
	if t.IsPin() && int(side) >= NumSides {
		return InvalidNode
	}
	list := s.lists[t][s.slot(t, x, y, side)]
	if ptc >= len(list) {
		return InvalidNode
	}
	return list[ptc]
}

// FindNode looks up the node of type t with the given ptc at tile (x, y).
// side is only significant for IPIN and OPIN nodes. Coordinates outside the
// grid, or a location with no such resource, report false.
//
// FindNode panics if the graph has not been frozen.
func (g *Graph) FindNode(x, y int, t NodeType, ptc int, side Side) (NodeID, bool) {
	if g.index == nil {
		panic("rrgraph: FindNode before Freeze")
	}
	id := g.index.find(x, y, t, ptc, side)
	return id, id != InvalidNode
}

// NodesAt returns every node of type t registered at tile (x, y) on side,
// ordered by ptc.
func (g *Graph) NodesAt(x, y int, t NodeType, side Side) []NodeID {
	if g.index == nil {
		panic("rrgraph: NodesAt before Freeze")
	}
	s := g.index
	if int(t) >= NumNodeTypes || x < 0 || y < 0 || x >= s.width || y >= s.height {
		return nil
	}
	var out []NodeID
	for _, id := range s.lists[t][s.slot(t, x, y, side)] {
		if id != InvalidNode {
			out = append(out, id)
		}
	}
	return out
}
