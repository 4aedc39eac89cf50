package rrgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/fpgaroute/pkg/errors"
)

type graphFile struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Switches    []Switch    `json:"switches"`
	CostIndices []CostIndex `json:"cost_indices"`
	Nodes       []Node      `json:"nodes"`
	Edges       []edgeFile  `json:"edges"`
}

type edgeFile struct {
	Src    NodeID   `json:"src"`
	Dst    NodeID   `json:"dst"`
	Switch SwitchID `json:"switch"`
}

// WriteJSON encodes g as JSON and writes it to w. Node IDs are implicit in
// the order of the "nodes" array. Edges are written in partitioned order
// when available.
func WriteJSON(g *Graph, w io.Writer) error {
	out := graphFile{
		Width:       g.width,
		Height:      g.height,
		Switches:    g.switches,
		CostIndices: g.costIndices,
		Nodes:       g.nodes,
		Edges:       make([]edgeFile, len(g.edgeSrc)),
	}
	for i := range g.edgeSrc {
		out.Edges[i] = edgeFile{Src: g.edgeSrc[i], Dst: g.edgeDst[i], Switch: g.edgeSwitch[i]}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a graph from r and freezes it.
//
// ReadJSON returns an INVALID_GRAPH error if the JSON is malformed, an edge
// references an unknown node or switch, or Freeze rejects the graph.
func ReadJSON(r io.Reader) (*Graph, error) {
	var data graphFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode")
	}

	g := New(data.Width, data.Height)
	for _, s := range data.Switches {
		g.AddSwitch(s)
	}
	for _, c := range data.CostIndices {
		g.AddCostIndex(c)
	}
	for _, n := range data.Nodes {
		g.AddNode(n)
	}
	for i, e := range data.Edges {
		if !g.validNode(e.Src) || !g.validNode(e.Dst) {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %d: %d->%d references unknown node", i, e.Src, e.Dst)
		}
		if e.Switch < 0 || int(e.Switch) >= len(g.switches) {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %d: unknown switch %d", i, e.Switch)
		}
		g.AddEdge(e.Src, e.Dst, e.Switch)
	}
	if err := g.Freeze(); err != nil {
		return nil, err
	}
	return g, nil
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
