// Package router implements the negotiated-congestion (PathFinder) loop that
// routes a whole netlist over a routing-resource graph.
//
// Every iteration rips up and re-routes the nets that need it, one sink at a
// time, through [maze.Router]. Over-used nodes are allowed while the loop
// runs; their present cost grows with pres_fac each iteration and their
// historical cost accumulates, until every node fits its capacity or a
// give-up criterion fires.
//
// # Usage
//
//	g, _ := rrgraph.ImportJSON("device.json")
//	nl, _ := netlist.ImportJSON("nets.json")
//	if _, err := nl.Resolve(g); err != nil {
//	    return err
//	}
//	res, err := router.Route(ctx, g, nl, router.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	if err := res.Err(); err != nil {
//	    report.WriteOveruse(os.Stderr, g, res)
//	}
//
// # Schedule
//
// The first iteration routes every net with FirstIterPresFac (0 by default,
// so congestion is ignored) and does not grow historical costs. From then
// on pres_fac starts at InitialPresFac and is multiplied by PresFacMult each
// iteration, capped at MaxPresFac; only nets touching an over-used node, nets
// with a retryable failed sink and nets whose box grew are re-routed.
//
// # Stopping
//
// The run converges when no node is over capacity and no failed sink is
// worth retrying. It gives up at MaxIterations, when the first iteration
// already uses more than WirelengthAbort of the device's track length, or
// when the routing predictor extrapolates success beyond its multiple of
// MaxIterations. On give-up the least congested routing seen is restored,
// the congestion report is taken, and nets that do not fit are dropped in
// routing order so the returned routing is legal.
//
// # Parallel routing
//
// With Workers > 1, each iteration's nets are split into waves of nets whose
// regions do not intersect. A region is the net's box grown by the graph's
// maximum node span and by every non-configurable set it reaches. A wave's
// nets run concurrently on an errgroup, one searcher per worker. Nets that
// could share a node keep their relative order, so the result matches a
// sequential run.
package router
