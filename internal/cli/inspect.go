package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// inspectCommand creates the inspect command, which prints what a graph
// holds and how a netlist resolves against it.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <graph.json> [netlist.json]",
		Short: "Summarize a routing-resource graph and a netlist",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := rrgraph.ImportJSON(args[0])
			if err != nil {
				return err
			}
			printGraph(g)
			if len(args) < 2 {
				return nil
			}
			nl, err := netlist.ImportJSON(args[1])
			if err != nil {
				return err
			}
			misses, err := nl.Resolve(g)
			if err != nil {
				return err
			}
			fmt.Println()
			printNetlist(nl, misses)
			return nil
		},
	}
}

func printGraph(g *rrgraph.Graph) {
	fmt.Println(StyleTitle.Render("Graph"))
	printKeyValue("Size", fmt.Sprintf("%d x %d", g.Width(), g.Height()))
	printKeyValue("Nodes", fmt.Sprint(g.NumNodes()))
	printKeyValue("Edges", fmt.Sprint(g.NumEdges()))
	printKeyValue("Switches", fmt.Sprint(g.NumSwitches()))
	printKeyValue("Cost indices", fmt.Sprint(g.NumCostIndices()))
	printKeyValue("Max span", fmt.Sprint(g.MaxSpan()))

	counts := g.CountByType()
	capacity := make([]int, rrgraph.NumNodeTypes)
	for id := range g.NumNodes() {
		n := g.NodeRef(rrgraph.NodeID(id))
		capacity[n.Type] += n.Capacity
	}
	rows := make([][]string, 0, rrgraph.NumNodeTypes)
	for t := range rrgraph.NumNodeTypes {
		rows = append(rows, []string{rrgraph.NodeType(t).String(), fmt.Sprint(counts[t]), fmt.Sprint(capacity[t])})
	}
	fmt.Println(newTable([]string{"Type", "Nodes", "Capacity"}, rows, nil))
}

func printNetlist(nl *netlist.Netlist, misses []netlist.LookupMiss) {
	sinks, maxFanout := 0, 0
	for i := range nl.Nets {
		fo := nl.Nets[i].Fanout()
		sinks += fo
		maxFanout = max(maxFanout, fo)
	}
	fmt.Println(StyleTitle.Render("Netlist"))
	printKeyValue("Nets", fmt.Sprint(len(nl.Nets)))
	printKeyValue("Sinks", fmt.Sprint(sinks))
	printKeyValue("Max fanout", fmt.Sprint(maxFanout))
	if len(misses) == 0 {
		printSuccess("every pin resolves")
		return
	}
	printWarning("%d pins not found in the graph", len(misses))
	for _, m := range misses {
		printDetail("net %s pin %d: %s", nl.Nets[m.Net].Name, m.Pin, m.At)
	}
}
