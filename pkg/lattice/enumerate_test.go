package lattice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grid3derrors "github.com/matzehuels/grid3d/pkg/errors"
)

func fixedConfig(w, h, d int, degree Connectivity) GridConfig {
	return GridConfig{Width: w, Height: h, Depth: d, Spacing: 1, Positioning: true, Policy: FixedDegree{Degree: degree}}
}

func neighborhoodConfig(w, h, d int, radius float64, metric Metric) GridConfig {
	return GridConfig{Width: w, Height: h, Depth: d, Spacing: 1, Positioning: true, Policy: Neighborhood{Radius: radius, Metric: metric}}
}

func mustGenerate(t *testing.T, cfg GridConfig) *Lattice {
	t.Helper()
	l, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

// checkSimple asserts that every edge joins two distinct in-range nodes,
// points forward, and appears once.
func checkSimple(t *testing.T, l *Lattice) {
	t.Helper()
	n := l.NodeCount()
	seen := make(map[Edge]bool, len(l.Edges))
	for _, e := range l.Edges {
		require.True(t, e.From >= 0 && e.From < n, "from out of range: %v", e)
		require.True(t, e.To >= 0 && e.To < n, "to out of range: %v", e)
		require.Less(t, e.From, e.To, "edge not forward: %v", e)
		require.False(t, seen[e], "duplicate edge %v", e)
		seen[e] = true
	}
}

func edgeSet(l *Lattice) map[Edge]bool {
	s := make(map[Edge]bool, len(l.Edges))
	for _, e := range l.Edges {
		s[e] = true
	}
	return s
}

func TestDimsBijection(t *testing.T) {
	d := Dims{Width: 3, Height: 4, Depth: 5}
	for idx := 0; idx < d.Count(); idx++ {
		c := d.Cell(idx)
		require.True(t, d.Contains(c))
		require.Equal(t, idx, d.Index(c))
	}
	assert.Equal(t, 1*12+2*3+1, d.Index(Cell{I: 1, J: 2, K: 1}))
	assert.False(t, d.Contains(Cell{I: 3}))
	assert.False(t, d.Contains(Cell{K: -1}))
}

func TestGenerateFixedEdgeCountMatchesClosedForm(t *testing.T) {
	sizes := []int{1, 2, 3, 5}
	for _, degree := range []Connectivity{Connectivity0, Connectivity4, Connectivity8} {
		for _, w := range sizes {
			for _, h := range sizes {
				for _, d := range sizes {
					name := fmt.Sprintf("%dx%dx%d/%d", w, h, d, degree)
					t.Run(name, func(t *testing.T) {
						l := mustGenerate(t, fixedConfig(w, h, d, degree))
						assert.Equal(t, w*h*d, l.NodeCount())
						assert.Equal(t, EdgeCount(w, h, d, degree), l.EdgeCount())
						checkSimple(t, l)
					})
				}
			}
		}
	}
}

func TestGenerateSmallCases(t *testing.T) {
	tests := []struct {
		name      string
		cfg       GridConfig
		wantNodes int
		wantEdges int
	}{
		{"Single", fixedConfig(1, 1, 1, Connectivity8), 1, 0},
		{"Square4", fixedConfig(2, 2, 1, Connectivity4), 4, 4},
		{"Square8", fixedConfig(2, 2, 1, Connectivity8), 4, 6},
		{"Cube8IsComplete", fixedConfig(2, 2, 2, Connectivity8), 8, 28},
		{"Isolated", fixedConfig(4, 4, 4, Connectivity0), 64, 0},
		{"KingGraph", neighborhoodConfig(3, 3, 1, 1, Manhattan), 9, 20},
		{"NoRadius", neighborhoodConfig(3, 3, 3, 0, Euclidean), 27, 0},
		{"RadiusBelowOne", neighborhoodConfig(3, 3, 3, 0.99, Euclidean), 27, 0},
		{"HugeCubeIsComplete", neighborhoodConfig(3, 3, 3, 10, Manhattan), 27, 351},
		{"HugeBallIsComplete", neighborhoodConfig(3, 3, 3, 100, Euclidean), 27, 351},
		{"Line", neighborhoodConfig(5, 1, 1, 2, Euclidean), 5, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := mustGenerate(t, tt.cfg)
			assert.Equal(t, tt.wantNodes, l.NodeCount())
			assert.Equal(t, tt.wantEdges, l.EdgeCount())
			checkSimple(t, l)
		})
	}
}

func TestGenerateEmissionOrder(t *testing.T) {
	l := mustGenerate(t, fixedConfig(2, 2, 1, Connectivity4))
	assert.Equal(t, []Edge{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, l.Edges)

	l = mustGenerate(t, fixedConfig(2, 2, 1, Connectivity8))
	assert.Equal(t, []Edge{{0, 1}, {0, 2}, {0, 3}, {1, 3}, {1, 2}, {2, 3}}, l.Edges)
}

func TestGeneratePoliciesAgree(t *testing.T) {
	// Degree 8 is the half-cube of radius 1; degree 4 is the unit ball.
	for _, dims := range [][3]int{{1, 1, 1}, {2, 3, 1}, {3, 3, 3}, {4, 2, 3}} {
		w, h, d := dims[0], dims[1], dims[2]
		t.Run(fmt.Sprintf("%dx%dx%d", w, h, d), func(t *testing.T) {
			fixed8 := mustGenerate(t, fixedConfig(w, h, d, Connectivity8))
			cube := mustGenerate(t, neighborhoodConfig(w, h, d, 1, Manhattan))
			assert.Equal(t, edgeSet(fixed8), edgeSet(cube))

			fixed4 := mustGenerate(t, fixedConfig(w, h, d, Connectivity4))
			ball := mustGenerate(t, neighborhoodConfig(w, h, d, 1, Euclidean))
			assert.Equal(t, edgeSet(fixed4), edgeSet(ball))
		})
	}
}

func TestGenerateNeighborhoodSimple(t *testing.T) {
	for _, metric := range []Metric{Manhattan, Euclidean} {
		for _, radius := range []float64{1, 1.5, 2, 3.2} {
			l := mustGenerate(t, neighborhoodConfig(4, 3, 2, radius, metric))
			checkSimple(t, l)
		}
	}
}

func TestGeneratePositions(t *testing.T) {
	cfg := fixedConfig(2, 2, 2, Connectivity4)
	cfg.Spacing = 0.5
	l := mustGenerate(t, cfg)
	require.Len(t, l.Positions, 8)
	assert.Equal(t, Coord{}, l.Positions[0])
	assert.Equal(t, Coord{X: 1.5, Y: 1.5, Z: 0}, l.Positions[3])
	assert.Equal(t, Coord{X: 1.5, Y: 1.5, Z: 1.5}, l.Positions[7])
	assert.Nil(t, l.Sizes)

	cfg = neighborhoodConfig(2, 2, 2, 1, Euclidean)
	cfg.Spacing = 2
	l = mustGenerate(t, cfg)
	assert.Equal(t, Coord{X: 2, Y: 0, Z: 2}, l.Positions[5])
	require.Len(t, l.Sizes, 8)
	for _, s := range l.Sizes {
		assert.Equal(t, Size{W: 1, H: 1, D: 1}, s)
	}
}

func TestGenerateWithoutPositioning(t *testing.T) {
	cfg := neighborhoodConfig(2, 2, 2, 1, Manhattan)
	cfg.Positioning = false
	l := mustGenerate(t, cfg)
	assert.Nil(t, l.Positions)
	assert.Len(t, l.Sizes, 8)
}

func TestGenerateProgress(t *testing.T) {
	var calls, last int
	l, err := Generate(context.Background(), fixedConfig(3, 4, 5, Connectivity8), WithProgress(func(done, total int) {
		calls++
		assert.Equal(t, 60, total)
		assert.Equal(t, last+1, done)
		last = done
	}))
	require.NoError(t, err)
	assert.Equal(t, 60, calls)

	plain := mustGenerate(t, fixedConfig(3, 4, 5, Connectivity8))
	assert.Equal(t, plain, l)
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := Generate(ctx, fixedConfig(2, 2, 2, Connectivity4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, l)
}

func TestGenerateCanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls int
	l, err := Generate(ctx, neighborhoodConfig(20, 20, 20, 1, Manhattan), WithProgress(func(done, _ int) {
		calls++
		if done == 10 {
			cancel()
		}
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, l)
	assert.Less(t, calls, 8000)
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  GridConfig
		code grid3derrors.Code
	}{
		{"ZeroWidth", fixedConfig(0, 1, 1, Connectivity4), grid3derrors.ErrCodeInvalidDimension},
		{"ZeroSpacing", GridConfig{Width: 1, Height: 1, Depth: 1, Policy: FixedDegree{}}, grid3derrors.ErrCodeInvalidSpacing},
		{"TooLarge", fixedConfig(1<<16, 1<<16, 1, Connectivity4), grid3derrors.ErrCodeGridTooLarge},
		{"NoPolicy", GridConfig{Width: 1, Height: 1, Depth: 1, Spacing: 1}, grid3derrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Generate(context.Background(), tt.cfg)
			assert.Nil(t, l)
			assert.Equal(t, tt.code, grid3derrors.GetCode(err))
		})
	}
}

type recordingHost struct {
	nodes     int
	attrs     map[string]int
	positions []Coord
	sizes     []Size
	edges     []Edge
	failEdges error
}

func (h *recordingHost) AddNodes(n int) error {
	h.nodes += n
	return nil
}

func (h *recordingHost) SetAttribute(name string, value int) {
	if h.attrs == nil {
		h.attrs = make(map[string]int)
	}
	h.attrs[name] = value
}

func (h *recordingHost) SetPositions(pos []Coord) error {
	h.positions = pos
	return nil
}

func (h *recordingHost) SetSizes(sizes []Size) error {
	h.sizes = sizes
	return nil
}

func (h *recordingHost) AddEdges(edges []Edge) error {
	if h.failEdges != nil {
		return h.failEdges
	}
	h.edges = append(h.edges, edges...)
	return nil
}

func TestCommit(t *testing.T) {
	l := mustGenerate(t, neighborhoodConfig(3, 2, 1, 1, Manhattan))
	h := &recordingHost{}
	require.NoError(t, Commit(h, l))

	assert.Equal(t, 6, h.nodes)
	assert.Equal(t, map[string]int{AttrWidth: 3, AttrHeight: 2, AttrDepth: 1}, h.attrs)
	assert.Equal(t, l.Positions, h.positions)
	assert.Equal(t, l.Sizes, h.sizes)
	assert.Equal(t, l.Edges, h.edges)
}

func TestCommitSkipsAbsentData(t *testing.T) {
	cfg := fixedConfig(2, 1, 1, Connectivity0)
	cfg.Positioning = false
	h := &recordingHost{}
	require.NoError(t, Commit(h, mustGenerate(t, cfg)))
	assert.Equal(t, 2, h.nodes)
	assert.Nil(t, h.positions)
	assert.Nil(t, h.sizes)
	assert.Nil(t, h.edges)
}

func TestCommitHostFailure(t *testing.T) {
	boom := errors.New("store full")
	h := &recordingHost{failEdges: boom}
	err := Commit(h, mustGenerate(t, fixedConfig(2, 2, 2, Connectivity4)))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "add edges")
}
