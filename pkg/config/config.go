// Package config loads generation parameters from TOML or YAML files and
// connection settings from the environment.
//
// Parameter files use snake_case keys:
//
//	kind = "neighborhood"
//	width = 10
//	height = 10
//	depth = 10
//	neighborhood_radius = 1.5
//	neighborhood_type = "Circular"
//
// Keys left out of the file are left out of the resulting Params, so the
// caller can layer them over lattice.Defaults and under command-line flags.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
)

// File is the on-disk parameter set. Nil fields were not given.
type File struct {
	Kind             string   `toml:"kind" yaml:"kind"`
	Width            *int     `toml:"width" yaml:"width"`
	Height           *int     `toml:"height" yaml:"height"`
	Depth            *int     `toml:"depth" yaml:"depth"`
	Connectivity     any      `toml:"connectivity" yaml:"connectivity"`
	Radius           *float64 `toml:"neighborhood_radius" yaml:"neighborhood_radius"`
	NeighborhoodType *string  `toml:"neighborhood_type" yaml:"neighborhood_type"`
	Positioning      *bool    `toml:"positioning" yaml:"positioning"`
	Spacing          *float64 `toml:"spacing" yaml:"spacing"`
}

// Format is a parameter file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported config file %q (want .toml, .yaml or .yml)", filepath.Base(path))
}

// LoadFile reads and decodes a parameter file.
func LoadFile(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid TOML")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid YAML")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown config format %q", format)
	}
	return &f, nil
}

// KindOr returns the file's generator kind, or def when the file names none.
func (f *File) KindOr(def lattice.Kind) (lattice.Kind, error) {
	if f.Kind == "" {
		return def, nil
	}
	k, ok := lattice.ParseKind(f.Kind)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidKind, "unknown kind %q", f.Kind)
	}
	return k, nil
}

// Params returns the parameters the file sets, keyed by parameter name.
func (f *File) Params() lattice.Params {
	p := lattice.Params{}
	if f.Width != nil {
		p[lattice.ParamWidth] = *f.Width
	}
	if f.Height != nil {
		p[lattice.ParamHeight] = *f.Height
	}
	if f.Depth != nil {
		p[lattice.ParamDepth] = *f.Depth
	}
	if c, ok := connectivityString(f.Connectivity); ok {
		p[lattice.ParamConnectivity] = c
	}
	if f.Radius != nil {
		p[lattice.ParamRadius] = *f.Radius
	}
	if f.NeighborhoodType != nil {
		p[lattice.ParamNeighborhoodType] = *f.NeighborhoodType
	}
	if f.Positioning != nil {
		p[lattice.ParamPositioning] = *f.Positioning
	}
	if f.Spacing != nil {
		p[lattice.ParamSpacing] = *f.Spacing
	}
	return p
}

// connectivityString accepts both connectivity = "4" and connectivity = 4.
// Other values are passed through as strings so validation reports them.
func connectivityString(v any) (string, bool) {
	switch c := v.(type) {
	case nil:
		return "", false
	case string:
		return c, true
	case int:
		return strconv.Itoa(c), true
	case int64:
		return strconv.FormatInt(c, 10), true
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64), true
	default:
		return fmt.Sprint(c), true
	}
}

// Merge layers each Params over the previous one and returns the result.
// Later layers win.
func Merge(layers ...lattice.Params) lattice.Params {
	out := lattice.Params{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
