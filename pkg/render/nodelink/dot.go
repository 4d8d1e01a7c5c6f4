package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed labels nodes with their (i, j, k) cell instead of the index.
	// Needs the width/height/depth attributes; falls back to the index.
	Detailed bool

	// Scale is the drawing size, in inches, of one coordinate unit.
	// Zero means 0.5.
	Scale float64

	// Angle is the direction, in degrees, the depth axis recedes into.
	// Zero means 30.
	Angle float64

	// Depth scales the depth axis relative to x and y. Zero means 0.5.
	Depth float64
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 0.5
	}
	if o.Angle == 0 {
		o.Angle = 30
	}
	if o.Depth <= 0 {
		o.Depth = 0.5
	}
	return o
}

// Project maps a 3-D coordinate to the drawing plane with an oblique
// (cabinet-style) projection: z shifts the point along the receding axis.
func (o Options) Project(c lattice.Coord) (x, y float64) {
	o = o.withDefaults()
	rad := o.Angle * math.Pi / 180
	x = (c.X + c.Z*o.Depth*math.Cos(rad)) * o.Scale
	y = (c.Y + c.Z*o.Depth*math.Sin(rad)) * o.Scale
	return x, y
}

// layerColors cycles per depth layer.
var layerColors = []string{"#4e79a7", "#f28e2b", "#59a14f", "#e15759", "#76b7b2", "#edc948", "#b07aa1", "#ff9da7"}

// ToDOT converts a graph to undirected Graphviz DOT.
//
// When the graph carries positions every node is pinned at its projected
// position (pos="x,y!") and the neato engine is selected, so Graphviz keeps
// the lattice geometry. Without positions the layout is left to neato.
// Nodes are colored by depth layer when the cell can be recovered.
func ToDOT(g *graph.Graph, opts Options) string {
	opts = opts.withDefaults()
	dims, hasDims := graphDims(g)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3, fixedsize=true];\n")
	buf.WriteString("  edge [color=\"#00000066\"];\n")
	buf.WriteString("\n")

	for n := 0; n < g.NodeCount(); n++ {
		var cell *lattice.Cell
		if hasDims {
			c := dims.Cell(n)
			cell = &c
		}
		attrs := fmtAttrs(g, n, cell, opts)
		fmt.Fprintf(&buf, "  %d [%s];\n", n, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func graphDims(g *graph.Graph) (lattice.Dims, bool) {
	w, okW := g.Attribute(lattice.AttrWidth)
	h, okH := g.Attribute(lattice.AttrHeight)
	d, okD := g.Attribute(lattice.AttrDepth)
	dims := lattice.Dims{Width: w, Height: h, Depth: d}
	if !okW || !okH || !okD || w <= 0 || h <= 0 || d <= 0 || dims.Count() != g.NodeCount() {
		return lattice.Dims{}, false
	}
	return dims, true
}

func fmtLabel(n int, cell *lattice.Cell, detailed bool) string {
	if !detailed || cell == nil {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%d,%d,%d", cell.I, cell.J, cell.K)
}

func fmtAttrs(g *graph.Graph, n int, cell *lattice.Cell, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, cell, opts.Detailed))}
	if cell != nil {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", layerColors[cell.K%len(layerColors)]))
	}
	if p, ok := g.Position(n); ok {
		x, y := opts.Project(p)
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(y)))
	}
	if s, ok := g.Size(n); ok && s.W > 0 {
		attrs = append(attrs, "width="+fmtFloat(s.W*opts.Scale))
	}
	return attrs
}

// fmtFloat prints f with at most four decimals and never as "-0".
func fmtFloat(f float64) string {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image. Requires librsvg.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
