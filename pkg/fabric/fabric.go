// Package fabric generates island-style FPGA routing-resource graphs and
// random netlists for them.
//
// The generated device is a Width x Height array of logic blocks. Each tile
// (x, y) holds one block with a SOURCE class feeding Outputs OPINs and
// Inputs IPINs feeding one SINK class. A horizontal channel (CHANX) runs
// above every row and a vertical channel (CHANY) to the right of every
// column, each ChannelWidth tracks wide. Tracks are SegmentLength tiles
// long with staggered start points, and a disjoint switch box joins wire
// ends with equal track numbers at every corner.
//
// Pins alternate between the TOP side (attached to CHANX at (x, y)) and the
// RIGHT side (attached to CHANY at (x, y)).
package fabric

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Cost indices assigned by Build.
const (
	CostSource rrgraph.CostIndexID = iota
	CostSink
	CostOPIN
	CostIPIN
	CostChanX
	CostChanY
)

// Switch IDs assigned by Build.
const (
	SwitchDelayless rrgraph.SwitchID = iota // SOURCE->OPIN, IPIN->SINK
	SwitchBlock                             // wire to wire
	SwitchConnection                        // wire to IPIN, OPIN to wire
)

// Params describes a device.
type Params struct {
	Width         int `json:"width" toml:"width"`
	Height        int `json:"height" toml:"height"`
	ChannelWidth  int `json:"channel_width" toml:"channel_width"`
	SegmentLength int `json:"segment_length" toml:"segment_length"`
	Inputs        int `json:"inputs" toml:"inputs"`
	Outputs       int `json:"outputs" toml:"outputs"`
	FcIn          int `json:"fc_in" toml:"fc_in"`   // tracks per IPIN
	FcOut         int `json:"fc_out" toml:"fc_out"` // tracks per OPIN
}

// SetDefaults fills zero fields with a small 4-LUT-cluster-like device.
func (p *Params) SetDefaults() {
	if p.Width == 0 {
		p.Width = 4
	}
	if p.Height == 0 {
		p.Height = 4
	}
	if p.ChannelWidth == 0 {
		p.ChannelWidth = 4
	}
	if p.SegmentLength == 0 {
		p.SegmentLength = 1
	}
	if p.Inputs == 0 {
		p.Inputs = 4
	}
	if p.Outputs == 0 {
		p.Outputs = 1
	}
	if p.FcIn == 0 {
		p.FcIn = p.ChannelWidth
	}
	if p.FcOut == 0 {
		p.FcOut = p.ChannelWidth
	}
}

// Validate checks the parameters after defaults are applied.
func (p *Params) Validate() error {
	switch {
	case p.Width < 1 || p.Height < 1:
		return errors.New(errors.ErrCodeInvalidInput, "device size %dx%d must be positive", p.Width, p.Height)
	case p.ChannelWidth < 1:
		return errors.New(errors.ErrCodeInvalidInput, "channel width must be positive")
	case p.SegmentLength < 1:
		return errors.New(errors.ErrCodeInvalidInput, "segment length must be positive")
	case p.Inputs < 1 || p.Outputs < 1:
		return errors.New(errors.ErrCodeInvalidInput, "blocks need at least one input and one output")
	case p.FcIn < 1 || p.FcIn > p.ChannelWidth || p.FcOut < 1 || p.FcOut > p.ChannelWidth:
		return errors.New(errors.ErrCodeInvalidInput, "fc_in and fc_out must be in [1, %d]", p.ChannelWidth)
	}
	return nil
}

// Electrical constants used for every generated device.
const (
	wireR   = 100.0
	wireC   = 2e-14
	switchR = 500.0
	switchT = 8e-11
	pinC    = 5e-15
)

// Build generates and freezes the routing-resource graph for p.
func Build(p Params) (*rrgraph.Graph, error) {
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := rrgraph.New(p.Width, p.Height)

	g.AddSwitch(rrgraph.Switch{Name: "delayless", Buffered: true, Configurable: true})
	g.AddSwitch(rrgraph.Switch{Name: "sb", R: switchR, Cin: pinC, Cout: pinC, Tdel: switchT, Buffered: true, Configurable: true})
	g.AddSwitch(rrgraph.Switch{Name: "cb", R: switchR, Cin: pinC, Tdel: switchT, Buffered: true, Configurable: true})

	segR := wireR * float64(p.SegmentLength)
	segC := wireC * float64(p.SegmentLength)
	tLinear := switchT + switchR*segC + 0.5*segR*segC
	inv := 1 / float64(p.SegmentLength)
	g.AddCostIndex(rrgraph.CostIndex{Name: "SOURCE", BaseCost: 1, OrthoCostIndex: CostSource})
	g.AddCostIndex(rrgraph.CostIndex{Name: "SINK", BaseCost: 0, OrthoCostIndex: CostSink})
	g.AddCostIndex(rrgraph.CostIndex{Name: "OPIN", BaseCost: 1, OrthoCostIndex: CostOPIN})
	g.AddCostIndex(rrgraph.CostIndex{Name: "IPIN", BaseCost: 0.95, OrthoCostIndex: CostIPIN, TLinear: switchT})
	g.AddCostIndex(rrgraph.CostIndex{Name: "CHANX", BaseCost: 1, OrthoCostIndex: CostChanY, InvLength: inv, TLinear: tLinear})
	g.AddCostIndex(rrgraph.CostIndex{Name: "CHANY", BaseCost: 1, OrthoCostIndex: CostChanX, InvLength: inv, TLinear: tLinear})

	b := &builder{p: p, g: g}
	b.addBlocks()
	b.addChannels()
	b.addPinEdges()
	b.addSwitchBoxes()
	if err := g.Freeze(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generated graph rejected")
	}
	return g, nil
}

type builder struct {
	p Params
	g *rrgraph.Graph

	source, sink [][]rrgraph.NodeID   // [x][y]
	opin, ipin   [][][]rrgraph.NodeID // [x][y][pin]
	chanx, chany [][][]rrgraph.NodeID // [x][y][track], wire covering the tile
}

func grid[T any](w, h int) [][]T {
	out := make([][]T, w)
	for x := range out {
		out[x] = make([]T, h)
	}
	return out
}

func pinSide(pin int) rrgraph.Side {
	if pin%2 == 0 {
		return rrgraph.Top
	}
	return rrgraph.Right
}

func (b *builder) addBlocks() {
	p, g := b.p, b.g
	b.source = grid[rrgraph.NodeID](p.Width, p.Height)
	b.sink = grid[rrgraph.NodeID](p.Width, p.Height)
	b.opin = grid[[]rrgraph.NodeID](p.Width, p.Height)
	b.ipin = grid[[]rrgraph.NodeID](p.Width, p.Height)

	for x := range p.Width {
		for y := range p.Height {
			at := rrgraph.Node{XLow: x, YLow: y, XHigh: x, YHigh: y}

			src := at
			src.Type, src.Capacity, src.CostIndex = rrgraph.Source, p.Outputs, CostSource
			b.source[x][y] = g.AddNode(src)

			snk := at
			snk.Type, snk.Capacity, snk.CostIndex, snk.PTC = rrgraph.Sink, p.Inputs, CostSink, 1
			b.sink[x][y] = g.AddNode(snk)

			for i := range p.Outputs {
				n := at
				n.Type, n.Capacity, n.CostIndex, n.PTC, n.Side = rrgraph.OPIN, 1, CostOPIN, p.Inputs+i, pinSide(i)
				id := g.AddNode(n)
				b.opin[x][y] = append(b.opin[x][y], id)
				g.AddEdge(b.source[x][y], id, SwitchDelayless)
			}
			for i := range p.Inputs {
				n := at
				n.Type, n.Capacity, n.CostIndex, n.PTC, n.Side = rrgraph.IPIN, 1, CostIPIN, i, pinSide(i)
				n.C = pinC
				id := g.AddNode(n)
				b.ipin[x][y] = append(b.ipin[x][y], id)
				g.AddEdge(id, b.sink[x][y], SwitchDelayless)
			}
		}
	}
}

// addChannels creates the wires. Track t of a channel starts a new segment
// at every position where (pos+t) % SegmentLength == 0, so starts are
// staggered across tracks.
func (b *builder) addChannels() {
	p, g := b.p, b.g
	b.chanx = grid[[]rrgraph.NodeID](p.Width, p.Height)
	b.chany = grid[[]rrgraph.NodeID](p.Width, p.Height)
	for x := range p.Width {
		for y := range p.Height {
			b.chanx[x][y] = make([]rrgraph.NodeID, p.ChannelWidth)
			b.chany[x][y] = make([]rrgraph.NodeID, p.ChannelWidth)
		}
	}

	wire := func(typ rrgraph.NodeType, t, lo, hi, fixed int) rrgraph.Node {
		n := rrgraph.Node{
			Type:      typ,
			Capacity:  1,
			PTC:       t,
			Direction: rrgraph.Bidirectional,
			R:         wireR * float64(hi-lo+1),
			C:         wireC * float64(hi-lo+1),
		}
		if typ == rrgraph.ChanX {
			n.XLow, n.XHigh, n.YLow, n.YHigh, n.CostIndex = lo, hi, fixed, fixed, CostChanX
		} else {
			n.YLow, n.YHigh, n.XLow, n.XHigh, n.CostIndex = lo, hi, fixed, fixed, CostChanY
		}
		return n
	}

	for t := range p.ChannelWidth {
		for y := range p.Height {
			for lo := 0; lo < p.Width; {
				hi := b.segmentEnd(lo, t, p.Width)
				id := g.AddNode(wire(rrgraph.ChanX, t, lo, hi, y))
				for x := lo; x <= hi; x++ {
					b.chanx[x][y][t] = id
				}
				lo = hi + 1
			}
		}
		for x := range p.Width {
			for lo := 0; lo < p.Height; {
				hi := b.segmentEnd(lo, t, p.Height)
				id := g.AddNode(wire(rrgraph.ChanY, t, lo, hi, x))
				for y := lo; y <= hi; y++ {
					b.chany[x][y][t] = id
				}
				lo = hi + 1
			}
		}
	}
}

func (b *builder) segmentEnd(lo, track, limit int) int {
	hi := lo
	for hi+1 < limit && (hi+1+track)%b.p.SegmentLength != 0 {
		hi++
	}
	return hi
}

func (b *builder) pinChannel(x, y, pin int) []rrgraph.NodeID {
	if pinSide(pin) == rrgraph.Top {
		return b.chanx[x][y]
	}
	return b.chany[x][y]
}

// addPinEdges wires the connection boxes. Pin i at a tile reaches Fc tracks
// starting at an offset that rotates with the pin number.
func (b *builder) addPinEdges() {
	p, g := b.p, b.g
	for x := range p.Width {
		for y := range p.Height {
			for i, id := range b.opin[x][y] {
				tracks := b.pinChannel(x, y, i)
				for k := range p.FcOut {
					g.AddEdge(id, tracks[(i+k)%p.ChannelWidth], SwitchConnection)
				}
			}
			for i, id := range b.ipin[x][y] {
				tracks := b.pinChannel(x, y, i)
				for k := range p.FcIn {
					g.AddEdge(tracks[(i+k)%p.ChannelWidth], id, SwitchConnection)
				}
			}
		}
	}
}

// addSwitchBoxes joins every wire end meeting at the top-right corner of
// tile (x, y) to the other ends with the same track number, in both
// directions.
func (b *builder) addSwitchBoxes() {
	p, g := b.p, b.g
	for x := range p.Width {
		for y := range p.Height {
			for t := range p.ChannelWidth {
				var ends []rrgraph.NodeID
				if id := b.chanx[x][y][t]; g.NodeRef(id).XHigh == x {
					ends = append(ends, id)
				}
				if x+1 < p.Width {
					if id := b.chanx[x+1][y][t]; g.NodeRef(id).XLow == x+1 {
						ends = append(ends, id)
					}
				}
				if id := b.chany[x][y][t]; g.NodeRef(id).YHigh == y {
					ends = append(ends, id)
				}
				if y+1 < p.Height {
					if id := b.chany[x][y+1][t]; g.NodeRef(id).YLow == y+1 {
						ends = append(ends, id)
					}
				}
				for _, a := range ends {
					for _, c := range ends {
						if a != c {
							g.AddEdge(a, c, SwitchBlock)
						}
					}
				}
			}
		}
	}
}
