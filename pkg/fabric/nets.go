package fabric

import (
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// NetParams controls RandomNets.
type NetParams struct {
	Count     int    `json:"count" toml:"count"`
	MaxFanout int    `json:"max_fanout" toml:"max_fanout"`
	Seed      uint64 `json:"seed" toml:"seed"`
}

// RandomNets draws a reproducible netlist for a graph built by Build.
// Drivers and sinks respect the SOURCE and SINK capacities, so a device with
// enough tracks can always route the result. Pins are given as locations.
func RandomNets(g *rrgraph.Graph, p NetParams) (*netlist.Netlist, error) {
	if p.MaxFanout < 1 {
		p.MaxFanout = 1
	}
	w, h := g.Width(), g.Height()
	if w*h < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "device needs at least two tiles")
	}

	outputsLeft := make([]int, w*h)
	inputsLeft := make([]int, w*h)
	for x := range w {
		for y := range h {
			src, ok := g.FindNode(x, y, rrgraph.Source, 0, 0)
			if !ok {
				return nil, errors.New(errors.ErrCodeGraphLookupMiss, "no SOURCE at (%d,%d)", x, y)
			}
			snk, ok := g.FindNode(x, y, rrgraph.Sink, 1, 0)
			if !ok {
				return nil, errors.New(errors.ErrCodeGraphLookupMiss, "no SINK at (%d,%d)", x, y)
			}
			outputsLeft[x*h+y] = g.NodeRef(src).Capacity
			inputsLeft[x*h+y] = g.NodeRef(snk).Capacity
		}
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	nl := &netlist.Netlist{}
	for n := range p.Count {
		var drivers []int
		for i, left := range outputsLeft {
			if left > 0 {
				drivers = append(drivers, i)
			}
		}
		if len(drivers) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "device has no free outputs for net %d of %d", n, p.Count)
		}
		d := drivers[rng.IntN(len(drivers))]
		outputsLeft[d]--

		var cands []int
		for i, left := range inputsLeft {
			if left > 0 && i != d {
				cands = append(cands, i)
			}
		}
		if len(cands) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "device has no free inputs for net %d of %d", n, p.Count)
		}
		rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		fanout := 1 + rng.IntN(min(p.MaxFanout, len(cands)))

		net := netlist.Net{
			Name: fmt.Sprintf("n%d", n),
			Pins: []netlist.Pin{{At: &netlist.Location{X: d / h, Y: d % h, Type: rrgraph.Source}}},
		}
		for _, s := range cands[:fanout] {
			inputsLeft[s]--
			net.Pins = append(net.Pins, netlist.Pin{At: &netlist.Location{X: s / h, Y: s % h, Type: rrgraph.Sink, PTC: 1}})
		}
		nl.Nets = append(nl.Nets, net)
	}
	if _, err := nl.Resolve(g); err != nil {
		return nil, err
	}
	return nl, nil
}
