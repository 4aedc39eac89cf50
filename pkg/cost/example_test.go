package cost_test

import (
	"fmt"

	"github.com/matzehuels/fpgaroute/pkg/cost"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

func ExampleModel() {
	g := rrgraph.New(1, 1)
	ci := g.AddCostIndex(rrgraph.CostIndex{Name: "wire", BaseCost: 2})
	wire := g.AddNode(rrgraph.Node{Type: rrgraph.ChanX, Capacity: 1, CostIndex: ci})

	state := cost.NewState(g.NumNodes())
	m := cost.NewModel(g, state)
	m.SetPresFac(0.5)

	fmt.Println("free:", m.TotalCost(wire))

	// One net holds the wire: the next one would overuse it.
	state.Add(wire, 1)
	fmt.Println("full:", m.TotalCost(wire))

	// Two nets hold it and the iteration ends.
	state.Add(wire, 1)
	overused, total := m.UpdateHistorical(1)
	fmt.Println("overused:", overused, total)
	fmt.Println("history:", m.HistoricalCost(wire), "total:", m.TotalCost(wire))
	// Output:
	// free: 2
	// full: 3
	// overused: 1 1
	// history: 2 total: 8
}
