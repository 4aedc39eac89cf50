// Package pkg provides the libraries behind fpgaroute, a negotiated-congestion
// router for FPGA routing-resource graphs.
//
// # Overview
//
// A device is described by its routing-resource graph: every wire segment,
// pin and logic class is a node with a capacity, and every programmable
// switch is an edge. Routing a netlist means choosing, for every net, a tree
// of nodes from its driver to all of its sinks such that no node carries
// more nets than it has capacity for. The pkg directory is organized into
// three areas:
//
//  1. Routing - graph storage, costs, search, route trees and the outer loop
//  2. Inputs and outputs - netlists, synthetic devices and reports
//  3. Infrastructure - configuration, caching, errors and observability
//
// # Architecture
//
// The typical data flow through fpgaroute:
//
//	device.json + nets.json
//	         ↓
//	    [rrgraph] + [netlist] packages (load, freeze, resolve pins)
//	         ↓
//	    [router] package (rip-up and re-route until legal)
//	      ↙      ↘
//	 [maze]    [cost]   (A* per sink, congestion-aware node costs)
//	      ↘      ↙
//	    [routetree] package (per-net trees, occupancy bookkeeping)
//	         ↓
//	    [report] package (route dump, congestion report, JSON, DOT/SVG/PNG)
//
// # Quick Start
//
//	g, _ := fabric.Build(fabric.Params{Width: 8, Height: 8, ChannelWidth: 12})
//	nl, _ := fabric.RandomNets(g, fabric.NetParams{Count: 40, MaxFanout: 4, Seed: 1})
//
//	res, err := router.Route(ctx, g, nl, router.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	report.WriteRouteDump(os.Stdout, g, res)
//
// # Main Packages
//
// ## Routing
//
// [rrgraph] - Immutable routing-resource graph with edges partitioned into
// configurable and non-configurable ranges, a spatial index for pin lookup
// and non-configurable set discovery.
//
// [cost] - Occupancy, present and historical congestion costs, the cost
// policies and the A* lookahead.
//
// [maze] - Single-sink A* search with a bounded heap, bounding boxes and
// per-search budgets.
//
// [routetree] - Route trees that grow branch by branch, commit their nodes'
// occupancy and can be ripped up or pruned.
//
// [router] - The PathFinder outer loop: net ordering, congestion schedule,
// box growth, give-up criteria, parallel waves and legalization.
//
// ## Inputs and Outputs
//
// [netlist] - Nets as ordered pins, addressed by node ID or by location.
//
// [fabric] - Island-style device and random netlist generator.
//
// [report] - Text, JSON and Graphviz output of a routing.
//
// [pipeline] - Cached load → route → report sequence used by the CLI.
//
// ## Infrastructure
//
// [config] - TOML configuration file.
//
// [cache] - File, Redis and no-op result caches with content-derived keys.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hook interfaces for metrics and tracing.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./...                          # All tests
//	go test ./pkg/router/...               # Specific package
//	FPGAROUTE_REDIS_URL=redis://localhost:6379/0 go test ./pkg/cache/...
//
// [rrgraph]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/rrgraph
// [cost]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/cost
// [maze]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/maze
// [routetree]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/routetree
// [router]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/router
// [netlist]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/netlist
// [fabric]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/fabric
// [report]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/fpgaroute/pkg/buildinfo
package pkg
