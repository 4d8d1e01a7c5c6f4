package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/grid3d/pkg/lattice"
)

var (
	// ErrNodeOutOfRange is returned when an edge or a per-node value refers
	// to a node index the graph does not have.
	ErrNodeOutOfRange = errors.New("node index out of range")

	// ErrSelfLoop is returned by [Graph.AddEdges] for an edge whose
	// endpoints are equal.
	ErrSelfLoop = errors.New("self-loop")

	// ErrDuplicateEdge is returned by [Graph.AddEdges] when the unordered
	// pair already has an edge. The graph is simple.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrLengthMismatch is returned by [Graph.SetPositions] and
	// [Graph.SetSizes] when the slice does not hold one value per node.
	ErrLengthMismatch = errors.New("one value per node required")
)

// Graph is an undirected simple graph addressed by dense node indices.
// It implements [lattice.Host] and is the in-memory form behind the JSON
// wire format, the renderers and the persistence sinks.
//
// The zero value is not usable; use New. Graph is not safe for concurrent
// writes.
type Graph struct {
	kind      string
	nodes     int
	attrs     map[string]int
	positions []lattice.Coord
	sizes     []lattice.Size
	edges     []lattice.Edge
	adjacency [][]int
	index     map[uint64]struct{}
}

var _ lattice.Host = (*Graph)(nil)

// New creates an empty graph labeled with the generator kind that fills it.
func New(kind string) *Graph {
	return &Graph{
		kind:  kind,
		attrs: make(map[string]int),
		index: make(map[uint64]struct{}),
	}
}

// FromLattice commits l into a fresh graph.
func FromLattice(kind lattice.Kind, l *lattice.Lattice) (*Graph, error) {
	g := New(string(kind))
	if err := lattice.Commit(g, l); err != nil {
		return nil, err
	}
	return g, nil
}

// AddNodes appends n nodes. Existing positions and sizes are extended with
// zero values.
func (g *Graph) AddNodes(n int) error {
	if n < 0 {
		return fmt.Errorf("add %d nodes: %w", n, ErrNodeOutOfRange)
	}
	g.nodes += n
	g.adjacency = append(g.adjacency, make([][]int, n)...)
	if g.positions != nil {
		g.positions = append(g.positions, make([]lattice.Coord, n)...)
	}
	if g.sizes != nil {
		g.sizes = append(g.sizes, make([]lattice.Size, n)...)
	}
	return nil
}

// SetAttribute records a graph-level integer attribute.
func (g *Graph) SetAttribute(name string, value int) { g.attrs[name] = value }

// SetPositions replaces all node positions.
func (g *Graph) SetPositions(pos []lattice.Coord) error {
	if len(pos) != g.nodes {
		return fmt.Errorf("positions: got %d for %d nodes: %w", len(pos), g.nodes, ErrLengthMismatch)
	}
	g.positions = slices.Clone(pos)
	return nil
}

// SetSizes replaces all node sizes.
func (g *Graph) SetSizes(sizes []lattice.Size) error {
	if len(sizes) != g.nodes {
		return fmt.Errorf("sizes: got %d for %d nodes: %w", len(sizes), g.nodes, ErrLengthMismatch)
	}
	g.sizes = slices.Clone(sizes)
	return nil
}

// AddEdges adds edges in order. It stops at the first invalid edge; edges
// before it stay in the graph.
func (g *Graph) AddEdges(edges []lattice.Edge) error {
	g.edges = slices.Grow(g.edges, len(edges))
	for _, e := range edges {
		if err := g.addEdge(e); err != nil {
			return fmt.Errorf("edge %d-%d: %w", e.From, e.To, err)
		}
	}
	return nil
}

func (g *Graph) addEdge(e lattice.Edge) error {
	if e.From < 0 || e.From >= g.nodes || e.To < 0 || e.To >= g.nodes {
		return ErrNodeOutOfRange
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	key := pairKey(e.From, e.To)
	if _, ok := g.index[key]; ok {
		return ErrDuplicateEdge
	}
	g.index[key] = struct{}{}
	g.edges = append(g.edges, e)
	g.adjacency[e.From] = append(g.adjacency[e.From], e.To)
	g.adjacency[e.To] = append(g.adjacency[e.To], e.From)
	return nil
}

func pairKey(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// Kind returns the generator kind the graph was created for.
func (g *Graph) Kind() string { return g.kind }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.nodes }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []lattice.Edge { return slices.Clone(g.edges) }

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b int) bool {
	_, ok := g.index[pairKey(a, b)]
	return ok
}

// Neighbors returns the nodes adjacent to n in insertion order.
func (g *Graph) Neighbors(n int) []int {
	if n < 0 || n >= g.nodes {
		return nil
	}
	return g.adjacency[n]
}

// Degree returns the number of edges incident to n.
func (g *Graph) Degree(n int) int { return len(g.Neighbors(n)) }

// Attribute returns a graph-level attribute.
func (g *Graph) Attribute(name string) (int, bool) {
	v, ok := g.attrs[name]
	return v, ok
}

// Attributes returns a copy of all graph-level attributes.
func (g *Graph) Attributes() map[string]int { return maps.Clone(g.attrs) }

// HasPositions reports whether nodes carry coordinates.
func (g *Graph) HasPositions() bool { return g.positions != nil }

// HasSizes reports whether nodes carry sizes.
func (g *Graph) HasSizes() bool { return g.sizes != nil }

// Position returns the coordinates of n.
func (g *Graph) Position(n int) (lattice.Coord, bool) {
	if g.positions == nil || n < 0 || n >= g.nodes {
		return lattice.Coord{}, false
	}
	return g.positions[n], true
}

// Size returns the extent of n.
func (g *Graph) Size(n int) (lattice.Size, bool) {
	if g.sizes == nil || n < 0 || n >= g.nodes {
		return lattice.Size{}, false
	}
	return g.sizes[n], true
}

// DegreeStats summarizes node degrees. All values are zero for an empty graph.
type DegreeStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// Degrees returns the degree summary of g.
func (g *Graph) Degrees() DegreeStats {
	if g.nodes == 0 {
		return DegreeStats{}
	}
	s := DegreeStats{Min: g.Degree(0)}
	for n := range g.nodes {
		d := g.Degree(n)
		s.Min = min(s.Min, d)
		s.Max = max(s.Max, d)
	}
	s.Mean = float64(2*len(g.edges)) / float64(g.nodes)
	return s
}
