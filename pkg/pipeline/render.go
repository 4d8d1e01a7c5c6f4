package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// The DOT source is built once and shared by the Graphviz-backed formats.
func Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()

	var dot string
	if needsDOT(opts.Formats) {
		dot = nodelink.ToDOT(g, opts.NodelinkOptions())
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalGraph(g)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func needsDOT(formats []string) bool {
	for _, f := range formats {
		if f != FormatJSON {
			return true
		}
	}
	return false
}
