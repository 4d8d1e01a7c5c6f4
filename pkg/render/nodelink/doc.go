// Package nodelink renders generated lattices as node-link diagrams.
//
// # Overview
//
// This package produces undirected graph drawings using Graphviz. Each node
// is a small circle colored by its depth layer; edges are straight lines.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Projection
//
// Node positions are 3-D. [Options.Project] flattens them with an oblique
// projection: x and y are kept, and z moves the point along a receding axis
// at [Options.Angle] degrees, shortened by [Options.Depth]. The projected
// positions are pinned in the DOT source and the neato engine is selected,
// so Graphviz draws the lattice where it is instead of laying it out anew.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
