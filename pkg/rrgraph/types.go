package rrgraph

import (
	"fmt"
	"strings"
)

// NodeID identifies a routing-resource node. IDs are dense indices in
// [0, Graph.NumNodes()).
type NodeID int32

// EdgeID identifies an edge. IDs are only stable once the graph has been
// partitioned; PartitionEdges renumbers them.
type EdgeID int32

// SwitchID indexes the graph's switch table.
type SwitchID int16

// CostIndexID indexes the graph's per-class cost table.
type CostIndexID int16

// InvalidNode is returned by lookups that do not resolve to a node.
const InvalidNode NodeID = -1

// NodeType is the kind of a routing resource.
type NodeType uint8

const (
	Source NodeType = iota // Logical driver of a net inside a block
	Sink                   // Logical sink inside a block
	IPIN                   // Block input pin
	OPIN                   // Block output pin
	ChanX                  // Horizontal channel wire
	ChanY                  // Vertical channel wire

	NumNodeTypes = 6
)

var nodeTypeNames = [NumNodeTypes]string{"SOURCE", "SINK", "IPIN", "OPIN", "CHANX", "CHANY"}

func (t NodeType) String() string {
	if int(t) < NumNodeTypes {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// IsPin reports whether t is IPIN or OPIN. Pin nodes sit on one side of a
// tile; other types ignore the side.
func (t NodeType) IsPin() bool { return t == IPIN || t == OPIN }

// IsChannel reports whether t is CHANX or CHANY.
func (t NodeType) IsChannel() bool { return t == ChanX || t == ChanY }

// ParseNodeType parses the upper- or lower-case name of a node type.
func ParseNodeType(s string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if strings.EqualFold(s, name) {
			return NodeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Direction is the signal direction of a channel wire.
type Direction uint8

const (
	NoDirection Direction = iota
	Increasing
	Decreasing
	Bidirectional
)

var directionNames = [...]string{"NONE", "INC", "DEC", "BI"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	for i, name := range directionNames {
		if strings.EqualFold(string(b), name) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", b)
}

// Side is the tile side a pin is located on.
type Side uint8

const (
	Top Side = iota
	Right
	Bottom
	Left

	NumSides = 4
)

var sideNames = [NumSides]string{"TOP", "RIGHT", "BOTTOM", "LEFT"}

func (s Side) String() string {
	if int(s) < NumSides {
		return sideNames[s]
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	for i, name := range sideNames {
		if strings.EqualFold(string(b), name) {
			*s = Side(i)
			return nil
		}
	}
	return fmt.Errorf("unknown side %q", b)
}

// Node is a routing resource: a wire segment, a pin, or a logical
// source/sink class of a block.
type Node struct {
	Type      NodeType    `json:"type"`
	XLow      int         `json:"xlow"`
	YLow      int         `json:"ylow"`
	XHigh     int         `json:"xhigh"`
	YHigh     int         `json:"yhigh"`
	Capacity  int         `json:"capacity"`
	CostIndex CostIndexID `json:"cost_index"`
	PTC       int         `json:"ptc"`
	Direction Direction   `json:"direction,omitempty"`
	Side      Side        `json:"side,omitempty"`
	R         float64     `json:"r,omitempty"`
	C         float64     `json:"c,omitempty"`
}

// Length is the number of tiles a channel wire spans, minus one.
// Non-channel nodes have length 0.
func (n *Node) Length() int {
	return max(n.XHigh-n.XLow, n.YHigh-n.YLow)
}

// Covers reports whether (x, y) lies inside the node's bounding box.
func (n *Node) Covers(x, y int) bool {
	return x >= n.XLow && x <= n.XHigh && y >= n.YLow && y <= n.YHigh
}

// Switch describes the programmable (or hard-wired) connection used by an
// edge.
type Switch struct {
	Name         string  `json:"name"`
	R            float64 `json:"r"`
	Cin          float64 `json:"cin"`
	Cout         float64 `json:"cout"`
	Tdel         float64 `json:"tdel"`
	Buffered     bool    `json:"buffered"`
	Configurable bool    `json:"configurable"`
}

// CostIndex holds the constants shared by every node of one cost class.
// The delay fields feed the lookahead estimator only.
type CostIndex struct {
	Name           string      `json:"name"`
	BaseCost       float64     `json:"base_cost"`
	OrthoCostIndex CostIndexID `json:"ortho_cost_index"`
	InvLength      float64     `json:"inv_length"`
	TLinear        float64     `json:"t_linear"`
	TQuadratic     float64     `json:"t_quadratic"`
	CLoad          float64     `json:"c_load"`
}
