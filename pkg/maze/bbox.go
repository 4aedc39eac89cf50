package maze

import (
	"fmt"

	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// BBox is an inclusive rectangle of tiles.
type BBox struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// FullDevice returns the box covering every tile of g.
func FullDevice(g *rrgraph.Graph) BBox {
	return BBox{XMax: g.Width() - 1, YMax: g.Height() - 1}
}

func (b BBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Admits reports whether any tile of n lies inside b.
func (b BBox) Admits(n *rrgraph.Node) bool {
	return n.XHigh >= b.XMin && n.XLow <= b.XMax && n.YHigh >= b.YMin && n.YLow <= b.YMax
}

// Expand grows every side by d.
func (b BBox) Expand(d int) BBox {
	return BBox{XMin: b.XMin - d, YMin: b.YMin - d, XMax: b.XMax + d, YMax: b.YMax + d}
}

// Clip limits b to a w x h grid.
func (b BBox) Clip(w, h int) BBox {
	return BBox{
		XMin: max(b.XMin, 0),
		YMin: max(b.YMin, 0),
		XMax: min(b.XMax, w-1),
		YMax: min(b.YMax, h-1),
	}
}

// Intersects reports whether b and o share a tile.
func (b BBox) Intersects(o BBox) bool {
	return b.XMin <= o.XMax && o.XMin <= b.XMax && b.YMin <= o.YMax && o.YMin <= b.YMax
}

// Contains reports whether o lies inside b.
func (b BBox) Contains(o BBox) bool {
	return o.XMin >= b.XMin && o.XMax <= b.XMax && o.YMin >= b.YMin && o.YMax <= b.YMax
}
