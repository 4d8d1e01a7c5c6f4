package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string  // output file path (or base path for multiple outputs)
	formats  string  // comma-separated output formats
	detailed bool    // label nodes with their cell coordinates
	scale    float64 // PNG resolution multiplier
	noCache  bool
}

// renderCommand creates the render command, which turns a graph JSON file
// into DOT, SVG, PDF or PNG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: pipeline.DefaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph file to DOT, SVG, PDF or PNG",
		Long: `Render a graph file produced by 'generate'.

Positioned graphs are drawn at their projected coordinates; graphs without
positions are laid out by Graphviz. Rendered artifacts are cached by the
hash of the graph.`,
		Example: `  grid3d render grid-4x4x4.json -f svg
  grid3d render cube.json -f svg,png --scale 3 -o cube`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with their cell coordinates")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender loads the graph from input and renders it to the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	formats, err := pipeline.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	logger.Debugf("Loaded graph: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	cache, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(cache, nil, c.Logger)
	defer runner.Close()

	popts := pipeline.Options{
		Formats:  formats,
		Detailed: opts.detailed,
		Scale:    opts.scale,
		Logger:   c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(formats, ", ")))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	def := strings.TrimSuffix(input, filepath.Ext(input))
	paths, err := writeArtifacts(artifacts, formats, opts.output, def)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	for _, p := range paths {
		printFile(p, len(artifacts[formatOf(p, formats)]))
	}
	return nil
}
