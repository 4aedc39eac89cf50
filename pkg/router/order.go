package router

import (
	"cmp"
	"slices"

	"github.com/matzehuels/fpgaroute/pkg/maze"
)

// Order returns the net indices in the order they are routed within every
// iteration. Ties always fall back to ascending index, so the order is
// fully determined by the netlist and NetOrder.
func (c *Context) Order() []int {
	order := make([]int, len(c.nl.Nets))
	for i := range order {
		order[i] = i
	}
	nets := c.nl.Nets
	switch c.opts.NetOrder {
	case OrderFanout:
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(nets[b].Fanout(), nets[a].Fanout())
		})
	case OrderCriticality:
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(nets[b].Criticality, nets[a].Criticality)
		})
	}
	return order
}

// waves splits nets, already in routing order, into groups that can be
// routed concurrently. A net's region is its box grown by the graph's
// maximum node span, which covers every node the search can admit, joined
// with the extent of every non-configurable set it reaches, since routing a
// set member occupies and prices the whole set. Each net lands in the wave
// after the latest earlier net whose region it touches, so any two nets
// that could share a node keep their relative order.
func (c *Context) waves(nets []int) [][]int {
	span := c.g.MaxSpan()
	regions := make([]maze.BBox, len(nets))
	level := make([]int, len(nets))
	var out [][]int
	for i, id := range nets {
		regions[i] = c.region(c.bbs[id].Expand(span))
		for j := range i {
			if regions[i].Intersects(regions[j]) {
				level[i] = max(level[i], level[j]+1)
			}
		}
		if level[i] == len(out) {
			out = append(out, nil)
		}
		out[level[i]] = append(out[level[i]], id)
	}
	return out
}

// region grows b until it contains every non-configurable set it touches.
func (c *Context) region(b maze.BBox) maze.BBox {
	n := c.g.NumNonConfigurableSets()
	for grown := n > 0; grown; {
		grown = false
		for i := range n {
			xmin, ymin, xmax, ymax := c.g.NonConfigurableSetBounds(i)
			set := maze.BBox{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
			if !b.Intersects(set) || b.Contains(set) {
				continue
			}
			b = maze.BBox{
				XMin: min(b.XMin, set.XMin),
				YMin: min(b.YMin, set.YMin),
				XMax: max(b.XMax, set.XMax),
				YMax: max(b.YMax, set.YMax),
			}
			grown = true
		}
	}
	return b
}
