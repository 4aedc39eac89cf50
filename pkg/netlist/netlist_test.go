package netlist_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/fabric"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

func device(t *testing.T) *rrgraph.Graph {
	t.Helper()
	g, err := fabric.Build(fabric.Params{Width: 3, Height: 3})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g
}

func TestResolveLocations(t *testing.T) {
	g := device(t)
	nl := &netlist.Netlist{Nets: []netlist.Net{{
		Name: "a",
		Pins: []netlist.Pin{
			{At: &netlist.Location{X: 0, Y: 0, Type: rrgraph.Source}},
			{At: &netlist.Location{X: 2, Y: 1, Type: rrgraph.Sink, PTC: 1}},
			{At: &netlist.Location{X: 9, Y: 9, Type: rrgraph.Sink, PTC: 1}},
		},
	}}}
	misses, err := nl.Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(misses) != 1 || misses[0].Pin != 2 {
		t.Fatalf("misses = %v, want one miss on pin 2", misses)
	}
	if nl.Nets[0].Pins[2].Node != rrgraph.InvalidNode {
		t.Errorf("missed pin node = %d, want InvalidNode", nl.Nets[0].Pins[2].Node)
	}
	want, _ := g.FindNode(2, 1, rrgraph.Sink, 1, 0)
	if got := nl.Nets[0].Sink(1); got != want {
		t.Errorf("Sink(1) = %d, want %d", got, want)
	}
	if !strings.Contains(misses[0].Error(), "SINK ptc 1 at (9,9)") {
		t.Errorf("miss message = %q", misses[0].Error())
	}
}

func TestResolveErrors(t *testing.T) {
	g := device(t)
	src, _ := g.FindNode(0, 0, rrgraph.Source, 0, 0)
	snk, _ := g.FindNode(1, 0, rrgraph.Sink, 1, 0)

	tests := []struct {
		name string
		nets []netlist.Net
	}{
		{"no sinks", []netlist.Net{{Name: "a", Pins: []netlist.Pin{{Node: src}}}}},
		{"driver not source", []netlist.Net{{Name: "a", Pins: []netlist.Pin{{Node: snk}, {Node: snk}}}}},
		{"sink not sink", []netlist.Net{{Name: "a", Pins: []netlist.Pin{{Node: src}, {Node: src}}}}},
		{"node out of range", []netlist.Net{{Name: "a", Pins: []netlist.Pin{{Node: src}, {Node: 99999}}}}},
		{"bad name", []netlist.Net{{Name: "a b", Pins: []netlist.Pin{{Node: src}, {Node: snk}}}}},
		{"duplicate name", []netlist.Net{
			{Name: "a", Pins: []netlist.Pin{{Node: src}, {Node: snk}}},
			{Name: "a", Pins: []netlist.Pin{{Node: src}, {Node: snk}}},
		}},
		{"criticality", []netlist.Net{{Name: "a", Criticality: 2, Pins: []netlist.Pin{{Node: src}, {Node: snk}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := &netlist.Netlist{Nets: tt.nets}
			if _, err := nl.Resolve(g); !errors.Is(err, errors.ErrCodeInvalidNetlist) {
				t.Errorf("Resolve() = %v, want INVALID_NETLIST", err)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	input := `{"nets":[{"name":"clk_en","criticality":0.5,"pins":[
		{"at":{"x":0,"y":0,"type":"SOURCE","ptc":0}},
		{"node":3}]}]}`
	nl, err := netlist.ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if len(nl.Nets) != 1 || nl.Nets[0].Fanout() != 1 || nl.Nets[0].Criticality != 0.5 {
		t.Fatalf("decoded %+v", nl.Nets)
	}
	if nl.Nets[0].Pins[0].At.Type != rrgraph.Source {
		t.Errorf("pin 0 type = %s, want SOURCE", nl.Nets[0].Pins[0].At.Type)
	}

	var buf bytes.Buffer
	if err := netlist.WriteJSON(nl, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"clk_en"`) {
		t.Errorf("WriteJSON() output missing net name: %s", buf.String())
	}

	if _, err := netlist.ReadJSON(strings.NewReader("{")); !errors.Is(err, errors.ErrCodeInvalidNetlist) {
		t.Errorf("ReadJSON(malformed) = %v, want INVALID_NETLIST", err)
	}
}

func TestImportJSONMissing(t *testing.T) {
	_, err := netlist.ImportJSON(t.TempDir() + "/nope.json")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON() = %v, want FILE_NOT_FOUND", err)
	}
}
