package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// WriteRouteDump writes the routing of every net in traceback order.
//
// Each tree is walked depth first; a line names the node, its position (and
// far corner for spanning wires), its pin, track or class number, and the
// switch to the next line. A branch point is printed again before each of
// its later branches. Sinks end a branch with switch -1.
func WriteRouteDump(w io.Writer, g *rrgraph.Graph, res *router.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Array size: %d x %d logic blocks.\n", g.Width(), g.Height())
	fmt.Fprintf(bw, "\nRouting:")
	for _, n := range res.Nets {
		fmt.Fprintf(bw, "\n\nNet %d (%s)\n\n", n.ID, n.Name)
		if n.Tree == nil || n.Tree.Empty() {
			fmt.Fprintf(bw, "Not routed.\n")
			continue
		}
		dumpTree(bw, g, n.Tree, n.Tree.Root())
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

func dumpTree(w io.Writer, g *rrgraph.Graph, t *routetree.Tree, h routetree.Handle) {
	rr := t.Node(h)
	leaf := true
	for c := range t.Children(h) {
		leaf = false
		dumpNode(w, g, rr, int(t.ParentSwitch(c)))
		dumpTree(w, g, t, c)
	}
	if leaf {
		dumpNode(w, g, rr, -1)
	}
}

func dumpNode(w io.Writer, g *rrgraph.Graph, rr rrgraph.NodeID, sw int) {
	n := g.NodeRef(rr)
	fmt.Fprintf(w, "Node:\t%d\t%6s (%d,%d) ", rr, n.Type, n.XLow, n.YLow)
	if n.XLow != n.XHigh || n.YLow != n.YHigh {
		fmt.Fprintf(w, "to (%d,%d) ", n.XHigh, n.YHigh)
	}
	fmt.Fprintf(w, " %s: %d  Switch: %d\n", ptcLabel(n.Type), n.PTC, sw)
}

func ptcLabel(t rrgraph.NodeType) string {
	switch {
	case t.IsPin():
		return "Pin"
	case t.IsChannel():
		return "Track"
	default:
		return "Class"
	}
}
