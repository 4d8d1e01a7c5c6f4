package lattice

import (
	"math"

	"github.com/matzehuels/grid3d/pkg/errors"
)

// Validate checks raw parameters for kind k and returns the validated
// configuration. Checks run in a fixed order and stop at the first
// violation:
//
//  1. params present at all
//  2. every required parameter present with the right type
//  3. width, height, depth positive
//  4. spacing positive and finite
//  5. connectivity (grid) or radius and neighborhood type (neighborhood)
//  6. node count within MaxNodes
//
// Every failure is an *errors.Error whose Message is the user-facing text.
func Validate(k Kind, p Params) (GridConfig, error) {
	if p == nil {
		return GridConfig{}, errors.New(errors.ErrCodeNoConfiguration, "No dataset provided")
	}
	if _, ok := schemas[k]; !ok {
		return GridConfig{}, errors.New(errors.ErrCodeInvalidKind, "Unknown generator kind %q", k)
	}

	var cfg GridConfig
	var ok bool
	if cfg.Width, ok = p.Int(ParamWidth); !ok {
		return GridConfig{}, missing(ParamWidth)
	}
	if cfg.Height, ok = p.Int(ParamHeight); !ok {
		return GridConfig{}, missing(ParamHeight)
	}
	if cfg.Depth, ok = p.Int(ParamDepth); !ok {
		return GridConfig{}, missing(ParamDepth)
	}
	if cfg.Spacing, ok = p.Float(ParamSpacing); !ok {
		return GridConfig{}, missing(ParamSpacing)
	}
	if cfg.Positioning, ok = p.Bool(ParamPositioning); !ok {
		return GridConfig{}, missing(ParamPositioning)
	}

	var connectivity string
	var radius float64
	switch k {
	case KindGrid:
		if connectivity, ok = p.String(ParamConnectivity); !ok {
			return GridConfig{}, missing(ParamConnectivity)
		}
	case KindNeighborhood:
		if radius, ok = p.Float(ParamRadius); !ok {
			return GridConfig{}, missing(ParamRadius)
		}
	}

	for _, d := range []struct {
		name  string
		value int
	}{{ParamWidth, cfg.Width}, {ParamHeight, cfg.Height}, {ParamDepth, cfg.Depth}} {
		if d.value <= 0 {
			return GridConfig{}, errors.New(errors.ErrCodeInvalidDimension, "%s must be positive", d.name)
		}
	}
	if !(cfg.Spacing > 0) {
		return GridConfig{}, errors.New(errors.ErrCodeInvalidSpacing, "Spacing must be positive")
	}
	// Positions reach (1+spacing)*(extent-1); they must stay representable.
	if extent := max(cfg.Width, cfg.Height, cfg.Depth); math.IsInf((1+cfg.Spacing)*float64(extent), 0) {
		return GridConfig{}, errors.New(errors.ErrCodeInvalidSpacing, "Spacing must be finite")
	}

	switch k {
	case KindGrid:
		degree, err := parseConnectivity(connectivity)
		if err != nil {
			return GridConfig{}, err
		}
		cfg.Policy = FixedDegree{Degree: degree}
	case KindNeighborhood:
		policy, err := neighborhoodPolicy(p, radius)
		if err != nil {
			return GridConfig{}, err
		}
		cfg.Policy = policy
	}

	if _, ok := nodeCount(cfg.Width, cfg.Height, cfg.Depth); !ok {
		return GridConfig{}, errors.New(errors.ErrCodeGridTooLarge,
			"Grid of %dx%dx%d exceeds %d nodes", cfg.Width, cfg.Height, cfg.Depth, MaxNodes)
	}
	return cfg, nil
}

func missing(name string) error {
	return errors.New(errors.ErrCodeMissingParameter, "No %q property provided", name)
}

func parseConnectivity(s string) (Connectivity, error) {
	switch s {
	case "0":
		return Connectivity0, nil
	case "4":
		return Connectivity4, nil
	case "8":
		return Connectivity8, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConnectivity, "Connectivity must be one of 0, 4, 8 (got %q)", s)
}

// neighborhoodPolicy validates the radius and, when edges are requested,
// the neighborhood type. With a zero radius the type is not required and
// defaults to Euclidean.
func neighborhoodPolicy(p Params, radius float64) (Neighborhood, error) {
	if !(radius >= 0) {
		return Neighborhood{}, errors.New(errors.ErrCodeInvalidRadius, "Neighborhood radius must be positive or null")
	}
	if radius == 0 {
		return Neighborhood{Radius: 0, Metric: Euclidean}, nil
	}
	name, ok := p.String(ParamNeighborhoodType)
	if !ok {
		return Neighborhood{}, missing(ParamNeighborhoodType)
	}
	switch name {
	case NeighborhoodCircular:
		return Neighborhood{Radius: radius, Metric: Euclidean}, nil
	case NeighborhoodSquare:
		return Neighborhood{Radius: radius, Metric: Manhattan}, nil
	}
	return Neighborhood{}, errors.New(errors.ErrCodeUnknownNeighborhoodType, "Unknown neighborhood type")
}

// nodeCount returns w*h*d, or false if it would exceed MaxNodes. All three
// arguments must be positive.
func nodeCount(w, h, d int) (int, bool) {
	if w > MaxNodes/h {
		return 0, false
	}
	wh := w * h
	if wh > MaxNodes/d {
		return 0, false
	}
	return wh * d, true
}
