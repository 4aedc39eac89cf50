package rrgraph_test

import (
	"fmt"

	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// twoTiles builds SOURCE -> OPIN -> {two CHANX tracks} -> IPIN -> SINK
// across a 2x1 device.
func twoTiles() *rrgraph.Graph {
	g := rrgraph.New(2, 1)
	sw := g.AddSwitch(rrgraph.Switch{Name: "mux", Buffered: true, Configurable: true})
	ci := g.AddCostIndex(rrgraph.CostIndex{Name: "all", BaseCost: 1})

	src := g.AddNode(rrgraph.Node{Type: rrgraph.Source, Capacity: 1, CostIndex: ci})
	opin := g.AddNode(rrgraph.Node{Type: rrgraph.OPIN, Capacity: 1, Side: rrgraph.Right, CostIndex: ci})
	t0 := g.AddNode(rrgraph.Node{Type: rrgraph.ChanX, XHigh: 1, Capacity: 1, CostIndex: ci, Direction: rrgraph.Bidirectional})
	t1 := g.AddNode(rrgraph.Node{Type: rrgraph.ChanX, XHigh: 1, Capacity: 1, PTC: 1, CostIndex: ci, Direction: rrgraph.Bidirectional})
	ipin := g.AddNode(rrgraph.Node{Type: rrgraph.IPIN, XLow: 1, XHigh: 1, Capacity: 1, Side: rrgraph.Left, CostIndex: ci})
	sink := g.AddNode(rrgraph.Node{Type: rrgraph.Sink, XLow: 1, XHigh: 1, Capacity: 1, CostIndex: ci})

	g.AddEdge(src, opin, sw)
	g.AddEdge(opin, t1, sw)
	g.AddEdge(opin, t0, sw)
	g.AddEdge(t0, ipin, sw)
	g.AddEdge(t1, ipin, sw)
	g.AddEdge(ipin, sink, sw)
	if err := g.Freeze(); err != nil {
		panic(err)
	}
	return g
}

func ExampleGraph_FindNode() {
	g := twoTiles()

	// A wire is found at every tile it spans.
	id, ok := g.FindNode(1, 0, rrgraph.ChanX, 1, 0)
	fmt.Println(id, ok, g.Node(id).Type)

	_, ok = g.FindNode(0, 0, rrgraph.Sink, 0, 0)
	fmt.Println(ok)
	// Output:
	// 3 true CHANX
	// false
}

func ExampleGraph_Edges() {
	g := twoTiles()

	// Freeze sorts each node's edges by destination.
	for e := range g.Edges(1) {
		fmt.Println(g.EdgeSource(e), "->", g.EdgeSink(e))
	}
	fmt.Println("fan-in of IPIN:", g.FanIn(4))
	// Output:
	// 1 -> 2
	// 1 -> 3
	// fan-in of IPIN: 2
}
