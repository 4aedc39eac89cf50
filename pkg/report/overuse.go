package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// WriteOveruse writes the verdict of res and, when it did not converge, the
// over-used nodes of the best routing with the nets through each, followed
// by the nets left unrouted.
func WriteOveruse(w io.Writer, g *rrgraph.Graph, res *router.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Routing %s after %d iterations", res.Status, res.Iterations)
	if res.Reason != "" {
		fmt.Fprintf(bw, ": %s", res.Reason)
	}
	fmt.Fprintln(bw, ".")

	if len(res.Overused) > 0 {
		total := 0
		for _, o := range res.Overused {
			total += o.Occupancy - o.Capacity
		}
		fmt.Fprintf(bw, "\n%d over-used nodes (total overuse %d) in the best routing (iteration %d):\n",
			len(res.Overused), total, res.BestIteration)
		for _, o := range res.Overused {
			fmt.Fprintf(bw, "  %s: occupancy %d, capacity %d, nets %s\n",
				Describe(g, o.Node), o.Occupancy, o.Capacity, strings.Join(o.Nets, ", "))
		}
	}

	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintf(bw, "\n%d nets not routed:\n", len(failed))
		for _, n := range failed {
			reasons := make([]string, 0, len(n.Failures))
			for _, f := range n.Failures {
				reasons = append(reasons, fmt.Sprintf("sink %d %s", f.Sink, f.Reason))
			}
			fmt.Fprintf(bw, "  %s: %s\n", n.Name, strings.Join(reasons, ", "))
		}
	}
	return bw.Flush()
}

// Describe names a node by ID, type, position and pin, track or class.
func Describe(g *rrgraph.Graph, rr rrgraph.NodeID) string {
	n := g.NodeRef(rr)
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s (%d,%d)", rr, n.Type, n.XLow, n.YLow)
	if n.XLow != n.XHigh || n.YLow != n.YHigh {
		fmt.Fprintf(&b, "-(%d,%d)", n.XHigh, n.YHigh)
	}
	fmt.Fprintf(&b, " %s %d", strings.ToLower(ptcLabel(n.Type)), n.PTC)
	return b.String()
}
