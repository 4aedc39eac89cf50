package report

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/fpgaroute/pkg/fabric"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// chain is a 2x1 device with one path: SOURCE, OPIN and a wire at (0,0)
// spanning to (1,0), then IPIN and SINK at (1,0).
func chain(t *testing.T) (*rrgraph.Graph, *netlist.Netlist) {
	t.Helper()
	g := rrgraph.New(2, 1)
	sw := g.AddSwitch(rrgraph.Switch{Name: "mux", Buffered: true, Configurable: true})
	ci := g.AddCostIndex(rrgraph.CostIndex{Name: "all", BaseCost: 1})
	add := func(typ rrgraph.NodeType, x, xhigh int) rrgraph.NodeID {
		return g.AddNode(rrgraph.Node{Type: typ, XLow: x, XHigh: xhigh, Capacity: 1, CostIndex: ci})
	}
	src := add(rrgraph.Source, 0, 0)
	opin := add(rrgraph.OPIN, 0, 0)
	wire := add(rrgraph.ChanX, 0, 1)
	ipin := add(rrgraph.IPIN, 1, 1)
	sink := add(rrgraph.Sink, 1, 1)
	g.AddEdge(src, opin, sw)
	g.AddEdge(opin, wire, sw)
	g.AddEdge(wire, ipin, sw)
	g.AddEdge(ipin, sink, sw)
	if err := g.Freeze(); err != nil {
		t.Fatalf("Freeze() error: %v", err)
	}
	nl := &netlist.Netlist{Nets: []netlist.Net{{
		Name: "n0",
		Pins: []netlist.Pin{{Node: src}, {Node: sink}},
	}}}
	return g, nl
}

func route(t *testing.T, g *rrgraph.Graph, nl *netlist.Netlist, opts router.Options) *router.Result {
	t.Helper()
	res, err := router.Route(context.Background(), g, nl, opts)
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	return res
}

func TestWriteRouteDump(t *testing.T) {
	g, nl := chain(t)
	res := route(t, g, nl, router.Options{})

	var buf bytes.Buffer
	if err := WriteRouteDump(&buf, g, res); err != nil {
		t.Fatal(err)
	}
	want := "Array size: 2 x 1 logic blocks.\n" +
		"\nRouting:\n\nNet 0 (n0)\n\n" +
		"Node:\t0\tSOURCE (0,0)  Class: 0  Switch: 0\n" +
		"Node:\t1\t  OPIN (0,0)  Pin: 0  Switch: 0\n" +
		"Node:\t2\t CHANX (0,0) to (1,0)  Track: 0  Switch: 0\n" +
		"Node:\t3\t  IPIN (1,0)  Pin: 0  Switch: 0\n" +
		"Node:\t4\t  SINK (1,0)  Class: 0  Switch: -1\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteRouteDump() =\n%q\nwant\n%q", got, want)
	}
}

func TestWriteRouteDumpBranches(t *testing.T) {
	g, nl := generatedDevice(t)
	res := route(t, g, nl, router.Options{})

	var buf bytes.Buffer
	if err := WriteRouteDump(&buf, g, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, n := range res.Nets {
		if !strings.Contains(out, "Net "+strconv.Itoa(n.ID)+" ("+n.Name+")") {
			t.Errorf("dump missing header of net %s", n.Name)
		}
	}
	// Every sink reached ends one branch.
	wantEnds := 0
	for _, n := range res.Nets {
		wantEnds += len(n.Tree.Sinks())
	}
	if got := strings.Count(out, "Switch: -1"); got != wantEnds {
		t.Errorf("branch ends = %d, want %d", got, wantEnds)
	}
}

func generatedDevice(t *testing.T) (*rrgraph.Graph, *netlist.Netlist) {
	t.Helper()
	g, err := fabric.Build(fabric.Params{Width: 4, Height: 4, ChannelWidth: 6})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	nl, err := fabric.RandomNets(g, fabric.NetParams{Count: 6, MaxFanout: 3, Seed: 7})
	if err != nil {
		t.Fatalf("RandomNets() error: %v", err)
	}
	if _, err := nl.Resolve(g); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return g, nl
}

func TestWriteOveruse(t *testing.T) {
	g, nl := chain(t)
	res := route(t, g, nl, router.Options{})
	res.Status = router.GaveUp
	res.Reason = "reached max_iterations 1"
	res.BestIteration = 1
	res.Overused = []router.Overuse{{Node: 2, Occupancy: 2, Capacity: 1, Nets: []string{"n0", "n1"}}}
	res.Nets = append(res.Nets, router.NetResult{ID: 1, Name: "n1"})

	var buf bytes.Buffer
	if err := WriteOveruse(&buf, g, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Routing gave-up after",
		"reached max_iterations 1",
		"1 over-used nodes (total overuse 1)",
		"2 CHANX (0,0)-(1,0) track 0: occupancy 2, capacity 1, nets n0, n1",
		"1 nets not routed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteOveruse() missing %q in\n%s", want, out)
		}
	}
}

func TestDescribe(t *testing.T) {
	g, _ := chain(t)
	tests := []struct {
		node rrgraph.NodeID
		want string
	}{
		{0, "0 SOURCE (0,0) class 0"},
		{1, "1 OPIN (0,0) pin 0"},
		{2, "2 CHANX (0,0)-(1,0) track 0"},
	}
	for _, tt := range tests {
		if got := Describe(g, tt.node); got != tt.want {
			t.Errorf("Describe(%d) = %q, want %q", tt.node, got, tt.want)
		}
	}
}

func TestTreeDOT(t *testing.T) {
	g, nl := chain(t)
	res := route(t, g, nl, router.Options{})
	dot := TreeDOT(g, "n0", res.Nets[0].Tree)
	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("TreeDOT() does not start a digraph: %q", dot)
	}
	if got := strings.Count(dot, "->"); got != 4 {
		t.Errorf("TreeDOT() has %d edges, want 4", got)
	}
	if !strings.Contains(dot, `label="mux"`) {
		t.Error("TreeDOT() edges not labelled by switch")
	}
}

func TestRoutingDOTFilter(t *testing.T) {
	g, nl := generatedDevice(t)
	res := route(t, g, nl, router.Options{})

	all := RoutingDOT(g, res, nil)
	if got := strings.Count(all, "subgraph"); got != len(res.Nets) {
		t.Errorf("RoutingDOT(nil) has %d clusters, want %d", got, len(res.Nets))
	}
	one := RoutingDOT(g, res, []string{res.Nets[0].Name})
	if got := strings.Count(one, "subgraph"); got != 1 {
		t.Errorf("RoutingDOT(filter) has %d clusters, want 1", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeViewBox([]byte(tt.svg)); string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	g, nl := chain(t)
	res := route(t, g, nl, router.Options{})
	svg, err := RenderSVG(TreeDOT(g, "n0", res.Nets[0].Tree))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
	if _, err := RenderSVG("not valid DOT {{{"); err == nil {
		t.Error("RenderSVG() accepted invalid DOT")
	}
}

func TestMarshalResultRoundTrip(t *testing.T) {
	g, nl := generatedDevice(t)
	res := route(t, g, nl, router.Options{})

	data, err := MarshalResult(res)
	if err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalResult(data, g)
	if err != nil {
		t.Fatalf("UnmarshalResult() error: %v", err)
	}
	if back.Status != res.Status || back.RunID != res.RunID || back.Wirelength != res.Wirelength {
		t.Errorf("header = %s/%s/%d, want %s/%s/%d",
			back.Status, back.RunID, back.Wirelength, res.Status, res.RunID, res.Wirelength)
	}
	if len(back.Nets) != len(res.Nets) {
		t.Fatalf("nets = %d, want %d", len(back.Nets), len(res.Nets))
	}
	for i := range res.Nets {
		if !back.Nets[i].Tree.Equal(res.Nets[i].Tree) {
			t.Errorf("net %s: tree differs after round trip", res.Nets[i].Name)
		}
	}
	if len(back.History) != len(res.History) {
		t.Errorf("history = %d entries, want %d", len(back.History), len(res.History))
	}
}

func TestUnmarshalResultWrongGraph(t *testing.T) {
	g, nl := generatedDevice(t)
	res := route(t, g, nl, router.Options{})
	data, err := MarshalResult(res)
	if err != nil {
		t.Fatal(err)
	}
	small, _ := chain(t)
	if _, err := UnmarshalResult(data, small); err == nil {
		t.Error("UnmarshalResult() accepted a result routed on another graph")
	}
	if _, err := UnmarshalResult([]byte("{"), g); err == nil {
		t.Error("UnmarshalResult() accepted truncated JSON")
	}
}

func TestSummarize(t *testing.T) {
	g, nl := chain(t)
	res := route(t, g, nl, router.Options{})
	s := Summarize(res)
	if s.Status != router.Converged || s.Routed != 1 || s.Nets != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if want := "converged after 1 iterations: 1/1 nets routed, wirelength 2"; s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
}
