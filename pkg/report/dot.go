package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

var typeColors = [rrgraph.NumNodeTypes]string{
	rrgraph.Source: "palegreen",
	rrgraph.Sink:   "lightcoral",
	rrgraph.IPIN:   "lightyellow",
	rrgraph.OPIN:   "lightyellow",
	rrgraph.ChanX:  "lightblue",
	rrgraph.ChanY:  "lightcyan",
}

func writeHeader(buf *bytes.Buffer) {
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [fontsize=9];\n")
}

// TreeDOT draws one route tree as a Graphviz digraph. Edges are labelled
// with the switch used; non-configurable edges are dashed.
func TreeDOT(g *rrgraph.Graph, name string, t *routetree.Tree) string {
	var buf bytes.Buffer
	writeHeader(&buf)
	fmt.Fprintf(&buf, "  label=%q;\n\n", name)
	writeTree(&buf, g, "", t)
	buf.WriteString("}\n")
	return buf.String()
}

// RoutingDOT draws the trees of the named nets of res, one cluster per
// net. A nil or empty filter draws every routed net.
func RoutingDOT(g *rrgraph.Graph, res *router.Result, nets []string) string {
	var buf bytes.Buffer
	writeHeader(&buf)
	for _, n := range res.Nets {
		if n.Tree == nil || n.Tree.Empty() {
			continue
		}
		if len(nets) > 0 && !slices.Contains(nets, n.Name) {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_%d\" {\n", n.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("%s (%d)", n.Name, n.Wirelength))
		writeTree(&buf, g, fmt.Sprintf("n%d_", n.ID), n.Tree)
		buf.WriteString("  }\n")
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeTree(buf *bytes.Buffer, g *rrgraph.Graph, prefix string, t *routetree.Tree) {
	for rr := range t.Nodes() {
		n := g.NodeRef(rr)
		label := fmt.Sprintf("%s %d\n(%d,%d) %s %d", n.Type, rr, n.XLow, n.YLow, strings.ToLower(ptcLabel(n.Type)), n.PTC)
		fmt.Fprintf(buf, "  %q [label=%q, fillcolor=%s];\n", prefix+strconv.Itoa(int(rr)), label, typeColors[n.Type])
	}
	for e := range t.Edges() {
		attrs := []string{fmt.Sprintf("label=%q", g.Switch(e.Switch).Name)}
		if !g.Switch(e.Switch).Configurable {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(buf, "  %q -> %q [%s];\n",
			prefix+strconv.Itoa(int(e.From)), prefix+strconv.Itoa(int(e.To)), strings.Join(attrs, ", "))
	}
}

// RenderSVG lays out a DOT graph with Graphviz and returns SVG.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out a DOT graph with Graphviz and returns a PNG image.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from
// the origin at its natural size.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
