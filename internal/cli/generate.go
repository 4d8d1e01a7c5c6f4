package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/grid3d/pkg/config"
	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/pipeline"
)

// latticeFlags are the per-parameter overrides of the generate command.
// Only flags set on the command line override the config file.
type latticeFlags struct {
	width, height, depth int
	connectivity         string
	radius               float64
	neighborhoodType     string
	positioning          bool
	spacing              float64
}

// flagParams maps each flag name to the parameter it sets.
var flagParams = map[string]string{
	"width":        lattice.ParamWidth,
	"height":       lattice.ParamHeight,
	"depth":        lattice.ParamDepth,
	"connectivity": lattice.ParamConnectivity,
	"radius":       lattice.ParamRadius,
	"type":         lattice.ParamNeighborhoodType,
	"positioning":  lattice.ParamPositioning,
	"spacing":      lattice.ParamSpacing,
}

func (f *latticeFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.width, "width", 2, "number of nodes along x")
	fs.IntVar(&f.height, "height", 2, "number of nodes along y")
	fs.IntVar(&f.depth, "depth", 2, "number of nodes along z")
	fs.StringVar(&f.connectivity, "connectivity", "4", "node degree for grid: 0, 4 or 8")
	fs.Float64Var(&f.radius, "radius", 0, "neighborhood radius (neighborhood kind)")
	fs.StringVar(&f.neighborhoodType, "type", lattice.NeighborhoodCircular, "neighborhood shape: Circular or Square")
	fs.BoolVar(&f.positioning, "positioning", true, "assign 3-D coordinates to nodes")
	fs.Float64Var(&f.spacing, "spacing", 1.0, "spacing between nodes")
}

// params returns the parameters whose flags were set explicitly.
func (f *latticeFlags) params(fs *pflag.FlagSet) lattice.Params {
	values := map[string]any{
		"width":        f.width,
		"height":       f.height,
		"depth":        f.depth,
		"connectivity": f.connectivity,
		"radius":       f.radius,
		"type":         f.neighborhoodType,
		"positioning":  f.positioning,
		"spacing":      f.spacing,
	}
	p := lattice.Params{}
	for flag, name := range flagParams {
		if fs.Changed(flag) {
			p[name] = values[flag]
		}
	}
	return p
}

// generateOpts holds the non-parameter flags of the generate command.
type generateOpts struct {
	configFile string
	kind       string
	output     string
	formats    string
	detailed   bool
	noCache    bool
	refresh    bool
	envFile    string
	sinks      sinkFlags
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		opts  generateOpts
		flags latticeFlags
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a 3-D lattice graph",
		Long: `Generate a 3-D lattice graph.

Parameters are layered: kind defaults, then the --config file (TOML or YAML),
then any parameter flag given on the command line.

The grid kind connects nodes with a fixed degree (--connectivity 0, 4 or 8).
The neighborhood kind connects every pair of nodes within --radius, measured
as a ball (--type Circular) or a cube (--type Square).

Results are cached locally; use --refresh to regenerate or --no-cache to
bypass the cache entirely. --mongo and --neo4j persist the graph using the
connection settings from the environment or a .env file.`,
		Example: `  grid3d generate --width 20 --height 20 --depth 20 -o cube.json
  grid3d generate --kind neighborhood --radius 1.5 --type Square -f json,svg -o hood
  grid3d generate --config lattice.toml --neo4j`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, params, err := resolveParams(opts.configFile, opts.kind, cmd.Flags().Changed("kind"), flags.params(cmd.Flags()))
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), kind, params, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configFile, "config", "c", "", "parameter file (.toml, .yaml or .yml)")
	fs.StringVarP(&opts.kind, "kind", "k", string(pipeline.DefaultKind), "generator kind: grid or neighborhood")
	flags.register(fs)
	fs.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	fs.StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, pdf, png (comma-separated)")
	fs.BoolVar(&opts.detailed, "detailed", false, "label nodes with their cell coordinates")
	fs.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&opts.refresh, "refresh", false, "regenerate even when cached")
	fs.StringVar(&opts.envFile, "env-file", ".env", "file with backend connection settings")
	fs.BoolVar(&opts.sinks.mongo, "mongo", false, "persist the graph to MongoDB ("+config.EnvMongoURI+")")
	fs.BoolVar(&opts.sinks.neo4j, "neo4j", false, "persist the graph to Neo4j ("+config.EnvNeo4jURI+")")

	return cmd
}

// resolveParams layers kind defaults, the config file and the flag
// overrides. The --kind flag wins over the file's kind when set explicitly.
func resolveParams(configFile, kindFlag string, kindChanged bool, overrides lattice.Params) (lattice.Kind, lattice.Params, error) {
	file := &config.File{}
	if configFile != "" {
		f, err := config.LoadFile(configFile)
		if err != nil {
			return "", nil, err
		}
		file = f
	}

	def, ok := lattice.ParseKind(kindFlag)
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidKind, "invalid kind: %q (must be grid or neighborhood)", kindFlag)
	}
	kind := def
	if !kindChanged {
		k, err := file.KindOr(def)
		if err != nil {
			return "", nil, err
		}
		kind = k
	}

	return kind, config.Merge(lattice.Defaults(kind), file.Params(), overrides), nil
}

// runGenerate executes the pipeline and writes every requested artifact.
func (c *CLI) runGenerate(ctx context.Context, kind lattice.Kind, params lattice.Params, opts generateOpts) error {
	formats, err := pipeline.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	env := config.EnvFromOS()
	if opts.sinks.any() {
		if env, err = config.LoadEnv(opts.envFile); err != nil {
			return err
		}
	}

	popts := pipeline.Options{
		Kind:     string(kind),
		Params:   params,
		Formats:  formats,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Persist:  opts.sinks.any(),
		Logger:   c.Logger,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	if opts.refresh && opts.noCache {
		printWarning("--refresh has no effect with --no-cache")
	}

	runner, err := c.newRunner(ctx, opts.noCache, env, opts.sinks)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	dims := popts.Config().Dims()
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Creating %d×%d×%d %s lattice...", dims.Width, dims.Height, dims.Depth, kind))
	popts.Progress = spinnerProgress(spinner, "Creating edges")
	spinner.Start()

	res, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	prog := newProgress(c.Logger)
	paths, err := writeArtifacts(res.Artifacts, popts.Formats, opts.output, defaultBase(kind, dims))
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d file(s)", len(paths)))

	printSuccess("Generated %s lattice", kind)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.GenerateHit)
	printDegrees(res.Graph)
	for _, p := range paths {
		printFile(p, len(res.Artifacts[formatOf(p, popts.Formats)]))
	}
	if res.RunID != "" {
		printKeyValue("run", res.RunID)
	}
	if len(paths) > 0 && formatOf(paths[0], popts.Formats) == pipeline.FormatJSON {
		printNewline()
		printNextStep("Render it", fmt.Sprintf("%s render %s -f svg", appName, paths[0]))
	}
	return nil
}

// spinnerProgress returns a lattice.ProgressFunc that shows the completed
// percentage on s. The text changes only when the percentage does.
func spinnerProgress(s *Spinner, label string) lattice.ProgressFunc {
	last := -1
	return func(done, total int) {
		if total == 0 {
			return
		}
		pct := done * 100 / total
		if pct == last {
			return
		}
		last = pct
		s.SetMessage(fmt.Sprintf("%s %3d%%", label, pct))
	}
}

// defaultBase names output files after the lattice, e.g. "grid-20x20x20".
func defaultBase(kind lattice.Kind, d lattice.Dims) string {
	return fmt.Sprintf("%s-%dx%dx%d", kind, d.Width, d.Height, d.Depth)
}

// basePath strips a known format extension from output. An empty output
// falls back to def.
func basePath(output, def string) string {
	if output == "" {
		return def
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths returns the file written for each format. A single format
// writes to output verbatim when one is given; otherwise every format gets
// base.<format>.
func outputPaths(formats []string, output, def string) []string {
	if len(formats) == 1 && output != "" {
		return []string{output}
	}
	base := basePath(output, def)
	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + "." + f
	}
	return paths
}

// formatOf returns the format whose artifact was written to path.
func formatOf(path string, formats []string) string {
	if len(formats) == 1 {
		return formats[0]
	}
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// writeArtifacts writes artifacts to disk in formats order and returns the
// paths written.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, def string) ([]string, error) {
	paths := outputPaths(formats, output, def)
	for i, f := range formats {
		if err := os.WriteFile(paths[i], artifacts[f], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", paths[i], err)
		}
	}
	return paths, nil
}
