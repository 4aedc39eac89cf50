package fabric

import (
	"testing"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

func TestBuildCounts(t *testing.T) {
	p := Params{Width: 3, Height: 2, ChannelWidth: 2, Inputs: 3, Outputs: 1}
	g, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	counts := g.CountByType()
	tiles := 3 * 2
	want := map[rrgraph.NodeType]int{
		rrgraph.Source: tiles,
		rrgraph.Sink:   tiles,
		rrgraph.OPIN:   tiles,
		rrgraph.IPIN:   tiles * 3,
		rrgraph.ChanX:  tiles * 2,
		rrgraph.ChanY:  tiles * 2,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("count[%s] = %d, want %d", typ, counts[typ], n)
		}
	}
	if !g.Frozen() {
		t.Error("graph not frozen")
	}
}

func TestBuildLongSegments(t *testing.T) {
	g, err := Build(Params{Width: 5, Height: 1, ChannelWidth: 2, SegmentLength: 2})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := g.MaxSpan(); got != 1 {
		t.Errorf("MaxSpan() = %d, want 1", got)
	}
	// Track 0 starts at x=0,2,4; track 1 at x=0,1,3.
	id, ok := g.FindNode(1, 0, rrgraph.ChanX, 0, 0)
	if !ok {
		t.Fatal("no CHANX track 0 at (1,0)")
	}
	if n := g.Node(id); n.XLow != 0 || n.XHigh != 1 {
		t.Errorf("track 0 wire spans %d..%d, want 0..1", n.XLow, n.XHigh)
	}
	id, _ = g.FindNode(1, 0, rrgraph.ChanX, 1, 0)
	if n := g.Node(id); n.XLow != 1 || n.XHigh != 2 {
		t.Errorf("track 1 wire spans %d..%d, want 1..2", n.XLow, n.XHigh)
	}
}

func TestBuildPinsReachChannels(t *testing.T) {
	g, err := Build(Params{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	opin, ok := g.FindNode(0, 0, rrgraph.OPIN, 4, rrgraph.Top)
	if !ok {
		t.Fatal("no OPIN at (0,0)")
	}
	for e := range g.Edges(opin) {
		if typ := g.NodeRef(g.EdgeSink(e)).Type; typ != rrgraph.ChanX {
			t.Errorf("top OPIN drives %s, want CHANX", typ)
		}
	}
	if got := g.NumConfigurableEdges(opin); got != 4 {
		t.Errorf("OPIN fan-out = %d, want 4", got)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"fc too large", Params{ChannelWidth: 2, FcIn: 3}},
		{"negative width", Params{Width: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.p); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Build() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRandomNetsDeterministic(t *testing.T) {
	g, err := Build(Params{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	a, err := RandomNets(g, NetParams{Count: 8, MaxFanout: 3, Seed: 7})
	if err != nil {
		t.Fatalf("RandomNets() error: %v", err)
	}
	b, _ := RandomNets(g, NetParams{Count: 8, MaxFanout: 3, Seed: 7})
	if len(a.Nets) != 8 {
		t.Fatalf("len(Nets) = %d, want 8", len(a.Nets))
	}
	for i := range a.Nets {
		if a.Nets[i].Fanout() < 1 || a.Nets[i].Fanout() > 3 {
			t.Errorf("net %d fanout = %d", i, a.Nets[i].Fanout())
		}
		if len(a.Nets[i].Pins) != len(b.Nets[i].Pins) {
			t.Fatalf("net %d differs between runs", i)
		}
		for p := range a.Nets[i].Pins {
			if a.Nets[i].Pins[p].Node != b.Nets[i].Pins[p].Node {
				t.Errorf("net %d pin %d differs between runs", i, p)
			}
		}
		if g.NodeRef(a.Nets[i].Source()).Type != rrgraph.Source {
			t.Errorf("net %d driver is not a SOURCE", i)
		}
	}
}

func TestRandomNetsRunsOutOfOutputs(t *testing.T) {
	g, _ := Build(Params{Width: 2, Height: 1})
	if _, err := RandomNets(g, NetParams{Count: 3, Seed: 1}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("RandomNets() = %v, want INVALID_INPUT", err)
	}
}
