// Package pipeline provides the generation pipeline shared by the CLI and
// the HTTP service.
//
// The pipeline runs three stages:
//
//  1. Generate: validate parameters and enumerate the lattice into a graph
//  2. Render: produce output artifacts (JSON, DOT, SVG, PDF, PNG)
//  3. Persist: hand the graph to the configured store sinks (optional)
//
// Generation and rendering are cached. Graphs are keyed by their validated
// configuration, artifacts by the hash of the graph they were rendered from.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Kind:    "grid",
//	    Params:  lattice.Defaults(lattice.KindGrid),
//	    Formats: []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/grid3d/pkg/cache"
	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/render/nodelink"
)

// DefaultKind is the generator kind used when Options.Kind is empty.
const DefaultKind = lattice.KindGrid

// DefaultPNGScale is the PNG resolution multiplier used when Options.Scale is zero.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generate options
	Kind    string         `json:"kind"`
	Params  lattice.Params `json:"params"`
	Refresh bool           `json:"refresh,omitempty"` // bypass cached graphs and artifacts

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // label nodes with their cell
	Scale    float64  `json:"scale,omitempty"`    // PNG scale

	// Persist sends the graph to the runner's sinks.
	Persist bool `json:"persist,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger          `json:"-"`
	Progress lattice.ProgressFunc `json:"-"`

	config    lattice.GridConfig
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the generated graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph's JSON form.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// RunID is the ID the graph was persisted under; empty when not persisted.
	RunID string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	GenerateTime time.Duration
	RenderTime   time.Duration
	PersistTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool // Whether the graph came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list and validates it.
func ParseFormats(s string) ([]string, error) {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	return formats, nil
}

// ValidateAndSetDefaults validates the generation parameters and applies
// defaults for the full pipeline. Params are not defaulted: a nil Params
// fails with NO_CONFIGURATION. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGenerate resolves the kind and validates Params into a
// lattice configuration.
func (o *Options) ValidateForGenerate() error {
	if o.Kind == "" {
		o.Kind = string(DefaultKind)
	}
	kind, ok := lattice.ParseKind(o.Kind)
	if !ok {
		return errors.New(errors.ErrCodeInvalidKind, "invalid kind: %q (must be one of: grid, neighborhood)", o.Kind)
	}
	cfg, err := lattice.Validate(kind, o.Params)
	if err != nil {
		return err
	}
	o.config = cfg
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Config returns the validated configuration. It is the zero value until
// ValidateForGenerate succeeds.
func (o *Options) Config() lattice.GridConfig { return o.config }

// GraphKeyOpts returns cache key options for generation.
// Call after ValidateForGenerate.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	c := o.config
	k := cache.GraphKeyOpts{
		Kind:        o.Kind,
		Width:       c.Width,
		Height:      c.Height,
		Depth:       c.Depth,
		Spacing:     c.Spacing,
		Positioning: c.Positioning,
	}
	switch p := c.Policy.(type) {
	case lattice.FixedDegree:
		k.Connectivity = int(p.Degree)
	case lattice.Neighborhood:
		k.Radius = p.Radius
		if p.Radius > 0 {
			k.Metric = p.Metric.String()
		}
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	if format != FormatJSON {
		k.Detailed = o.Detailed
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// NodelinkOptions returns the DOT rendering options.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed}
}
