// Package render provides visualization output for generated graphs.
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// The [nodelink] subpackage draws the lattice with Graphviz, pinning every
// node at its projected 3-D position.
//
// [nodelink]: github.com/matzehuels/grid3d/pkg/render/nodelink
package render
