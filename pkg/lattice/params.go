package lattice

import (
	"maps"
	"math"
)

// Parameter names, as recognized in Params.
const (
	ParamWidth            = "Width"
	ParamHeight           = "Height"
	ParamDepth            = "Depth"
	ParamConnectivity     = "Connectivity"
	ParamRadius           = "Neighborhood radius"
	ParamNeighborhoodType = "Neighborhood type"
	ParamPositioning      = "Positioning"
	ParamSpacing          = "Spacing"
)

// Params is the generic key/value configuration a generation is requested
// with. Values are loosely typed: integers may arrive as any Go integer kind
// or as an integral float (as decoded from JSON).
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Int returns the named value as an int. It reports false when the value is
// absent or is not an integer.
func (p Params) Int(name string) (int, bool) {
	switch v := p[name].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return clampUint(uint64(v)), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return clampUint(v), true
	case float32:
		return integral(float64(v))
	case float64:
		return integral(v)
	}
	return 0, false
}

// Float returns the named value as a float64. Integer values are converted.
func (p Params) Float(name string) (float64, bool) {
	switch v := p[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := p.Int(name); ok {
		return float64(i), true
	}
	return 0, false
}

// Bool returns the named value as a bool.
func (p Params) Bool(name string) (bool, bool) {
	v, ok := p[name].(bool)
	return v, ok
}

// String returns the named value as a string.
func (p Params) String(name string) (string, bool) {
	v, ok := p[name].(string)
	return v, ok
}

func clampUint(v uint64) int {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int(v)
}

func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	if f <= math.MinInt64 {
		return math.MinInt64, true
	}
	return int(f), true
}

// ParamType names the declared type of a parameter.
type ParamType string

const (
	TypeUnsigned ParamType = "Unsigned int"
	TypeDouble   ParamType = "Double"
	TypeBoolean  ParamType = "Boolean"
	TypeChoice   ParamType = "String collection"
)

// Param describes one recognized parameter.
type Param struct {
	Name    string    `json:"name"`
	Type    ParamType `json:"type"`
	Default any       `json:"default"`
	Values  []string  `json:"values,omitempty"`
	Help    string    `json:"help"`
}

// Schema is the static registration data of a generator kind: its display
// name and parameter list. It plays no part in generation.
type Schema struct {
	Kind    Kind    `json:"kind"`
	Name    string  `json:"name"`
	Group   string  `json:"group"`
	Version string  `json:"version"`
	Params  []Param `json:"params"`
}

var (
	widthParam = Param{
		Name: ParamWidth, Type: TypeUnsigned, Default: 2,
		Help: "This parameter defines the grid's width.",
	}
	heightParam = Param{
		Name: ParamHeight, Type: TypeUnsigned, Default: 2,
		Help: "This parameter defines the grid's height.",
	}
	depthParam = Param{
		Name: ParamDepth, Type: TypeUnsigned, Default: 2,
		Help: "This parameter defines the grid's depth.",
	}
	connectivityParam = Param{
		Name: ParamConnectivity, Type: TypeChoice, Default: "4",
		Values: []string{"0", "4", "8"},
		Help:   "This parameter defines the connectivity number of each node.",
	}
	radiusParam = Param{
		Name: ParamRadius, Type: TypeDouble, Default: 0.0,
		Help: "This parameter defines the radius of the neighborhood connected to each node. 0 disables edges.",
	}
	neighborhoodTypeParam = Param{
		Name: ParamNeighborhoodType, Type: TypeChoice, Default: NeighborhoodCircular,
		Values: []string{NeighborhoodCircular, NeighborhoodSquare},
		Help:   "This parameter defines the shape of the neighborhood: a Euclidean ball (Circular) or a cube (Square).",
	}
	positioningParam = Param{
		Name: ParamPositioning, Type: TypeBoolean, Default: true,
		Help: "This parameter indicates if the nodes should be positioned in space.",
	}
	spacingParam = Param{
		Name: ParamSpacing, Type: TypeDouble, Default: 1.0,
		Help: "This parameter defines the spacing between each node in the grid.",
	}
)

var schemas = map[Kind]Schema{
	KindGrid: {
		Kind: KindGrid, Name: "Grid 3D", Group: "Graph", Version: "1.0",
		Params: []Param{widthParam, heightParam, depthParam, connectivityParam, positioningParam, spacingParam},
	},
	KindNeighborhood: {
		Kind: KindNeighborhood, Name: "Grid 3D Neighborhood", Group: "Graph", Version: "1.0",
		Params: []Param{widthParam, heightParam, depthParam, radiusParam, neighborhoodTypeParam, positioningParam, spacingParam},
	},
}

// SchemaFor returns the parameter schema of kind k, or false for an unknown kind.
func SchemaFor(k Kind) (Schema, bool) {
	s, ok := schemas[k]
	return s, ok
}

// Defaults returns a fully populated parameter set for kind k.
func Defaults(k Kind) Params {
	s, ok := schemas[k]
	if !ok {
		return nil
	}
	p := make(Params, len(s.Params))
	for _, param := range s.Params {
		p[param.Name] = param.Default
	}
	return p
}
