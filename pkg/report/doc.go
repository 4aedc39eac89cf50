// Package report turns a routing result into files: the classic text route
// dump, the congestion report, Graphviz drawings of route trees and the JSON
// result the cache stores.
//
//	res, _ := router.Route(ctx, g, nl, opts)
//	report.WriteRouteDump(f, g, res)
//	if res.Status != router.Converged {
//	    report.WriteOveruse(os.Stderr, g, res)
//	}
//	dot := report.RoutingDOT(g, res, nil)
//	svg, err := report.RenderSVG(dot)
package report
