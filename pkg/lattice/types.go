package lattice

import "math"

// MaxNodes is the largest node count a lattice may have. Hosts address nodes
// with 32-bit handles, so width*height*depth must not exceed it.
const MaxNodes = math.MaxInt32

// Kind selects which generator variant a parameter set is validated for.
type Kind string

const (
	// KindGrid connects cells with a fixed degree of 0, 4 or 8.
	KindGrid Kind = "grid"
	// KindNeighborhood connects every cell pair within a radius-bounded shape.
	KindNeighborhood Kind = "neighborhood"
)

// Kinds lists the supported generator kinds in display order.
var Kinds = []Kind{KindGrid, KindNeighborhood}

// ParseKind returns the Kind named by s, or false if s names none.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Connectivity is the number of nearest-neighbor edges per interior cell
// under the fixed-degree policy.
type Connectivity int

const (
	Connectivity0 Connectivity = 0
	Connectivity4 Connectivity = 4
	Connectivity8 Connectivity = 8
)

// Metric selects the neighborhood shape.
type Metric int

const (
	// Manhattan keeps every offset of the cube [-r, r]^3. The historical
	// name is kept even though the shape is a Chebyshev ball.
	Manhattan Metric = iota
	// Euclidean keeps offsets whose Euclidean norm is at most the radius.
	Euclidean
)

// Neighborhood type values accepted in Params.
const (
	NeighborhoodCircular = "Circular"
	NeighborhoodSquare   = "Square"
)

// String returns the parameter value naming the metric.
func (m Metric) String() string {
	switch m {
	case Manhattan:
		return NeighborhoodSquare
	case Euclidean:
		return NeighborhoodCircular
	default:
		return "unknown"
	}
}

// EdgePolicy decides which cell pairs are connected. It is a closed sum
// type: the only implementations are FixedDegree and Neighborhood.
type EdgePolicy interface {
	isEdgePolicy()
}

// FixedDegree connects each cell to its forward axis neighbors (degree 4)
// or to its forward axis and diagonal neighbors (degree 8). Degree 0 emits
// no edges.
type FixedDegree struct {
	Degree Connectivity
}

// Neighborhood connects each cell to every cell reachable through one of
// the offsets produced by BuildOffsets(Radius, Metric, depth == 1).
type Neighborhood struct {
	Radius float64
	Metric Metric
}

func (FixedDegree) isEdgePolicy()  {}
func (Neighborhood) isEdgePolicy() {}

// GridConfig is a validated generation request. Use Validate to build one
// from raw Params.
type GridConfig struct {
	Width       int
	Height      int
	Depth       int
	Spacing     float64
	Positioning bool
	Policy      EdgePolicy
}

// Dims returns the grid dimensions.
func (c GridConfig) Dims() Dims {
	return Dims{Width: c.Width, Height: c.Height, Depth: c.Depth}
}

// Dims holds grid dimensions and owns the Cell <-> index bijection.
type Dims struct {
	Width, Height, Depth int
}

// Count returns the number of cells.
func (d Dims) Count() int { return d.Width * d.Height * d.Depth }

// Index returns the linear node index of c: k*(W*H) + j*W + i.
func (d Dims) Index(c Cell) int {
	return c.K*d.Width*d.Height + c.J*d.Width + c.I
}

// Cell returns the cell at linear index idx.
func (d Dims) Cell(idx int) Cell {
	plane := d.Width * d.Height
	rem := idx % plane
	return Cell{I: rem % d.Width, J: rem / d.Width, K: idx / plane}
}

// Contains reports whether c lies inside [0,W) x [0,H) x [0,D).
func (d Dims) Contains(c Cell) bool {
	return c.I >= 0 && c.I < d.Width &&
		c.J >= 0 && c.J < d.Height &&
		c.K >= 0 && c.K < d.Depth
}

// extent returns the longest step that stays inside the grid on each axis.
func (d Dims) extent() Offset {
	return Offset{DI: d.Width - 1, DJ: d.Height - 1, DK: d.Depth - 1}
}

// Cell is an integer lattice coordinate.
type Cell struct {
	I, J, K int
}

// Add returns the cell displaced by o.
func (c Cell) Add(o Offset) Cell {
	return Cell{I: c.I + o.DI, J: c.J + o.DJ, K: c.K + o.DK}
}

// Offset is a relative neighbor direction; never (0,0,0).
type Offset struct {
	DI, DJ, DK int
}

// Coord is a 3-D spatial position.
type Coord struct {
	X, Y, Z float64
}

// Size is a per-axis node extent.
type Size struct {
	W, H, D float64
}

// Edge is an unordered pair of node indices. From is the cell whose scan
// created the edge.
type Edge struct {
	From, To int
}
