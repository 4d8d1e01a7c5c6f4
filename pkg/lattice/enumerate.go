package lattice

import (
	"context"
	"fmt"

	"github.com/matzehuels/grid3d/pkg/errors"
)

// Graph attribute names recorded by Commit.
const (
	AttrWidth  = "width"
	AttrHeight = "height"
	AttrDepth  = "depth"
)

// cancelCheckInterval is how many cells are scanned between context checks.
const cancelCheckInterval = 1024

// Forward offsets of the fixed-degree policy, in emission order. Every
// target has a larger linear index than the source, so each undirected edge
// is produced exactly once.
var (
	axisOffsets = []Offset{
		{1, 0, 0}, // X
		{0, 1, 0}, // Y
		{0, 0, 1}, // Z
	}
	diagonalOffsets = []Offset{
		{-1, 1, 0}, {1, 1, 0}, // XY plane
		{-1, 0, 1}, {1, 0, 1}, // XZ plane
		{0, -1, 1}, {0, 1, 1}, // YZ plane
		{-1, -1, 1}, {-1, 1, 1}, {1, -1, 1}, {1, 1, 1}, // cross-plane
	}
)

// ProgressFunc receives the number of cells scanned so far and the total.
type ProgressFunc func(done, total int)

// Option configures Generate.
type Option func(*options)

type options struct {
	progress ProgressFunc
}

// WithProgress reports progress once per scanned cell. The callback never
// influences the result.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// Lattice is a generated grid graph. Node i is the cell Dims.Cell(i); nodes
// carry no other identity.
type Lattice struct {
	Dims
	Policy EdgePolicy

	// Positions holds one coordinate per node, or nil when positioning is off.
	Positions []Coord
	// Sizes holds one extent per node under the Neighborhood policy, else nil.
	Sizes []Size
	// Edges lists every edge once, in emission order.
	Edges []Edge
}

// NodeCount returns the number of nodes.
func (l *Lattice) NodeCount() int { return l.Count() }

// EdgeCount returns the number of edges.
func (l *Lattice) EdgeCount() int { return len(l.Edges) }

// Generate enumerates the lattice described by cfg.
//
// Cells are scanned in ascending linear index order (i fastest, then j, then
// k). Each cell gets its position when cfg.Positioning is set and emits its
// edges according to cfg.Policy:
//
//   - FixedDegree uses a unit of 1+Spacing per axis and emits forward edges
//     only, so no existence check is needed. The edge slice is sized with
//     EdgeCount up front.
//   - Neighborhood uses a unit of Spacing per axis, tests every offset from
//     BuildOffsets and skips out-of-bounds targets and pairs that already
//     have an edge. Every node also gets a size of Spacing/2 per axis.
//
// The lattice is returned only on success. If ctx is canceled the scan stops
// at the next cell boundary and ctx.Err() is returned with no lattice.
func Generate(ctx context.Context, cfg GridConfig, opts ...Option) (*Lattice, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	dims := cfg.Dims()
	total := dims.Count()
	l := &Lattice{Dims: dims, Policy: cfg.Policy}

	var (
		offsets []Offset
		seen    edgeIndex
		unit    float64
	)
	switch p := cfg.Policy.(type) {
	case FixedDegree:
		unit = 1 + cfg.Spacing
		offsets = forwardOffsets(p.Degree)
		l.Edges = make([]Edge, 0, EdgeCount(dims.Width, dims.Height, dims.Depth, p.Degree))
	case Neighborhood:
		unit = cfg.Spacing
		offsets = buildOffsets(p.Radius, p.Metric, dims.Depth == 1, dims.extent())
		if len(offsets) > 0 {
			seen = make(edgeIndex)
		}
		half := cfg.Spacing / 2
		l.Sizes = make([]Size, total)
		for n := range l.Sizes {
			l.Sizes[n] = Size{W: half, H: half, D: half}
		}
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unsupported edge policy %T", cfg.Policy)
	}
	if cfg.Positioning {
		l.Positions = make([]Coord, total)
	}

	idx := 0
	for k := 0; k < dims.Depth; k++ {
		for j := 0; j < dims.Height; j++ {
			for i := 0; i < dims.Width; i++ {
				if idx%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
				}

				if l.Positions != nil {
					l.Positions[idx] = Coord{X: float64(i) * unit, Y: float64(j) * unit, Z: float64(k) * unit}
				}

				cell := Cell{I: i, J: j, K: k}
				for _, off := range offsets {
					nb := cell.Add(off)
					if !dims.Contains(nb) {
						continue
					}
					to := dims.Index(nb)
					if seen != nil && !seen.insert(idx, to) {
						continue
					}
					l.Edges = append(l.Edges, Edge{From: idx, To: to})
				}

				idx++
				if o.progress != nil {
					o.progress(idx, total)
				}
			}
		}
	}
	return l, nil
}

func forwardOffsets(degree Connectivity) []Offset {
	switch degree {
	case Connectivity4:
		return axisOffsets
	case Connectivity8:
		out := make([]Offset, 0, len(axisOffsets)+len(diagonalOffsets))
		out = append(out, axisOffsets...)
		return append(out, diagonalOffsets...)
	}
	return nil
}

// checkConfig guards against hand-built configurations that skipped Validate.
func checkConfig(cfg GridConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Depth <= 0 {
		return errors.New(errors.ErrCodeInvalidDimension,
			"dimensions must be positive (got %dx%dx%d)", cfg.Width, cfg.Height, cfg.Depth)
	}
	if !(cfg.Spacing > 0) {
		return errors.New(errors.ErrCodeInvalidSpacing, "Spacing must be positive")
	}
	if _, ok := nodeCount(cfg.Width, cfg.Height, cfg.Depth); !ok {
		return errors.New(errors.ErrCodeGridTooLarge,
			"Grid of %dx%dx%d exceeds %d nodes", cfg.Width, cfg.Height, cfg.Depth, MaxNodes)
	}
	if cfg.Policy == nil {
		return errors.New(errors.ErrCodeInternal, "no edge policy")
	}
	return nil
}

// edgeIndex records unordered node pairs. Node indices fit in 32 bits.
type edgeIndex map[uint64]struct{}

// insert adds the pair {a, b} and reports whether it was absent.
func (e edgeIndex) insert(a, b int) bool {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := uint64(lo)<<32 | uint64(hi)
	if _, ok := e[key]; ok {
		return false
	}
	e[key] = struct{}{}
	return true
}

// Host is the graph collaborator a lattice is committed into.
type Host interface {
	// AddNodes creates n nodes addressed 0..n-1 in creation order.
	AddNodes(n int) error
	// SetAttribute records a graph-level integer attribute.
	SetAttribute(name string, value int)
	// SetPositions attaches one coordinate per node.
	SetPositions(pos []Coord) error
	// SetSizes attaches one extent per node.
	SetSizes(sizes []Size) error
	// AddEdges creates the given edges in order.
	AddEdges(edges []Edge) error
}

// Commit hands a finished lattice to h: nodes, the width/height/depth
// attributes, positions and sizes when present, then edges. The first host
// error aborts the commit; the caller must discard h.
func Commit(h Host, l *Lattice) error {
	if err := h.AddNodes(l.NodeCount()); err != nil {
		return fmt.Errorf("add nodes: %w", err)
	}
	h.SetAttribute(AttrWidth, l.Width)
	h.SetAttribute(AttrHeight, l.Height)
	h.SetAttribute(AttrDepth, l.Depth)
	if l.Positions != nil {
		if err := h.SetPositions(l.Positions); err != nil {
			return fmt.Errorf("set positions: %w", err)
		}
	}
	if l.Sizes != nil {
		if err := h.SetSizes(l.Sizes); err != nil {
			return fmt.Errorf("set sizes: %w", err)
		}
	}
	if len(l.Edges) > 0 {
		if err := h.AddEdges(l.Edges); err != nil {
			return fmt.Errorf("add edges: %w", err)
		}
	}
	return nil
}
