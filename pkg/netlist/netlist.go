// Package netlist models the nets to be routed and resolves their pins to
// routing-resource nodes.
//
// A net is an ordered pin list: pin 0 drives the net from a SOURCE node and
// every further pin terminates at a SINK node. Pins either name a node ID
// directly or give a location that is looked up with
// [rrgraph.Graph.FindNode].
package netlist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Location addresses a node by position instead of by ID.
type Location struct {
	X    int              `json:"x"`
	Y    int              `json:"y"`
	Type rrgraph.NodeType `json:"type"`
	PTC  int              `json:"ptc"`
	Side rrgraph.Side     `json:"side,omitempty"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s ptc %d at (%d,%d)", l.Type, l.PTC, l.X, l.Y)
}

// Pin is one terminal of a net. After Resolve, Node holds the resolved ID,
// or rrgraph.InvalidNode when At could not be found in the graph.
type Pin struct {
	Node rrgraph.NodeID `json:"node"`
	At   *Location      `json:"at,omitempty"`
}

// Net is a driver pin followed by its sink pins.
type Net struct {
	Name        string  `json:"name"`
	Pins        []Pin   `json:"pins"`
	Criticality float64 `json:"criticality,omitempty"`
}

// Source returns the node driving the net.
func (n *Net) Source() rrgraph.NodeID { return n.Pins[0].Node }

// Fanout returns the number of sink pins.
func (n *Net) Fanout() int { return len(n.Pins) - 1 }

// Sink returns the node of sink pin i, 1 <= i <= Fanout().
func (n *Net) Sink(i int) rrgraph.NodeID { return n.Pins[i].Node }

// Netlist is the ordered set of nets. A net's ID is its index in Nets.
type Netlist struct {
	Nets []Net `json:"nets"`
}

// LookupMiss records a pin whose location did not resolve to a node.
type LookupMiss struct {
	Net int
	Pin int
	At  Location
}

func (m LookupMiss) Error() string {
	return fmt.Sprintf("net %d pin %d: no %s", m.Net, m.Pin, m.At)
}

// Resolve maps every pin to a node of g and checks pin types: pin 0 must be
// a SOURCE and the rest SINKs.
//
// A location that does not exist in g is not an error: the pin is set to
// rrgraph.InvalidNode and reported in the returned misses, so the router can
// treat it as an unreachable sink. Structural problems (unknown node IDs,
// wrong pin types, nets without sinks, bad names) return an INVALID_NETLIST
// error.
func (nl *Netlist) Resolve(g *rrgraph.Graph) ([]LookupMiss, error) {
	var misses []LookupMiss
	seen := make(map[string]int, len(nl.Nets))
	for i := range nl.Nets {
		net := &nl.Nets[i]
		if err := errors.ValidateName(net.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "net %d", i)
		}
		if prev, dup := seen[net.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidNetlist, "nets %d and %d share name %q", prev, i, net.Name)
		}
		seen[net.Name] = i
		if len(net.Pins) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q has no sinks", net.Name)
		}
		if net.Criticality < 0 || net.Criticality > 1 {
			return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q: criticality %g outside [0,1]", net.Name, net.Criticality)
		}
		for p := range net.Pins {
			pin := &net.Pins[p]
			if pin.At != nil {
				id, ok := g.FindNode(pin.At.X, pin.At.Y, pin.At.Type, pin.At.PTC, pin.At.Side)
				if !ok {
					pin.Node = rrgraph.InvalidNode
					misses = append(misses, LookupMiss{Net: i, Pin: p, At: *pin.At})
					continue
				}
				pin.Node = id
			}
			if pin.Node < 0 || int(pin.Node) >= g.NumNodes() {
				return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q pin %d: node %d out of range", net.Name, p, pin.Node)
			}
			want := rrgraph.Sink
			if p == 0 {
				want = rrgraph.Source
			}
			if got := g.NodeRef(pin.Node).Type; got != want {
				return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q pin %d: node %d is %s, want %s",
					net.Name, p, pin.Node, got, want)
			}
		}
	}
	return misses, nil
}

// ReadJSON decodes a netlist from r. Pins are not resolved.
func ReadJSON(r io.Reader) (*Netlist, error) {
	var nl Netlist
	if err := json.NewDecoder(r).Decode(&nl); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "decode")
	}
	return &nl, nil
}

// WriteJSON encodes nl as indented JSON.
func WriteJSON(nl *Netlist, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nl); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ImportJSON reads a netlist file at path.
func ImportJSON(path string) (*Netlist, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes nl to path.
func ExportJSON(nl *Netlist, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(nl, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
