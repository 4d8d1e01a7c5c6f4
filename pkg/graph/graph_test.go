package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/grid3d/pkg/lattice"
)

func generate(t *testing.T, kind lattice.Kind, overrides lattice.Params) *Graph {
	t.Helper()
	params := lattice.Defaults(kind)
	for k, v := range overrides {
		params[k] = v
	}
	cfg, err := lattice.Validate(kind, params)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	l, err := lattice.Generate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	g, err := FromLattice(kind, l)
	if err != nil {
		t.Fatalf("FromLattice: %v", err)
	}
	return g
}

func TestFromLattice(t *testing.T) {
	tests := []struct {
		name      string
		kind      lattice.Kind
		params    lattice.Params
		wantNodes int
		wantEdges int
		wantPos   bool
		wantSize  bool
	}{
		{"DefaultGrid", lattice.KindGrid, nil, 8, 12, true, false},
		{"Grid8Flat", lattice.KindGrid, lattice.Params{lattice.ParamConnectivity: "8", lattice.ParamDepth: 1}, 4, 6, true, false},
		{"NoPositions", lattice.KindGrid, lattice.Params{lattice.ParamPositioning: false}, 8, 12, false, false},
		{"Neighborhood", lattice.KindNeighborhood, lattice.Params{lattice.ParamRadius: 1.0}, 8, 12, true, true},
		{"NeighborhoodNoEdges", lattice.KindNeighborhood, nil, 8, 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := generate(t, tt.kind, tt.params)
			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if got := g.HasPositions(); got != tt.wantPos {
				t.Errorf("HasPositions = %v, want %v", got, tt.wantPos)
			}
			if got := g.HasSizes(); got != tt.wantSize {
				t.Errorf("HasSizes = %v, want %v", got, tt.wantSize)
			}
			if g.Kind() != string(tt.kind) {
				t.Errorf("kind = %q, want %q", g.Kind(), tt.kind)
			}
			for _, name := range []string{lattice.AttrWidth, lattice.AttrHeight, lattice.AttrDepth} {
				if _, ok := g.Attribute(name); !ok {
					t.Errorf("attribute %s missing", name)
				}
			}
		})
	}
}

func TestAddEdgesRejects(t *testing.T) {
	tests := []struct {
		name string
		edge lattice.Edge
		want error
	}{
		{"OutOfRange", lattice.Edge{From: 0, To: 3}, ErrNodeOutOfRange},
		{"Negative", lattice.Edge{From: -1, To: 0}, ErrNodeOutOfRange},
		{"SelfLoop", lattice.Edge{From: 1, To: 1}, ErrSelfLoop},
		{"Duplicate", lattice.Edge{From: 1, To: 0}, ErrDuplicateEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New("grid")
			_ = g.AddNodes(3)
			if err := g.AddEdges([]lattice.Edge{{From: 0, To: 1}}); err != nil {
				t.Fatalf("AddEdges: %v", err)
			}
			err := g.AddEdges([]lattice.Edge{tt.edge})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if g.EdgeCount() != 1 {
				t.Errorf("edges = %d, want 1", g.EdgeCount())
			}
		})
	}
}

func TestSetPositionsLength(t *testing.T) {
	g := New("grid")
	_ = g.AddNodes(2)
	if err := g.SetPositions(make([]lattice.Coord, 3)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
	if err := g.SetSizes(make([]lattice.Size, 1)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestNeighborsAndDegrees(t *testing.T) {
	g := generate(t, lattice.KindGrid, lattice.Params{lattice.ParamWidth: 3, lattice.ParamHeight: 3, lattice.ParamDepth: 1})

	if got := g.Degree(4); got != 4 {
		t.Errorf("center degree = %d, want 4", got)
	}
	if got := g.Degree(0); got != 2 {
		t.Errorf("corner degree = %d, want 2", got)
	}
	if !g.HasEdge(4, 1) || !g.HasEdge(1, 4) {
		t.Error("expected edge 1-4 in both directions")
	}
	if g.HasEdge(0, 4) {
		t.Error("unexpected diagonal edge 0-4")
	}
	if g.Neighbors(99) != nil {
		t.Error("neighbors of missing node should be nil")
	}

	s := g.Degrees()
	if s.Min != 2 || s.Max != 4 {
		t.Errorf("degrees = %+v, want min 2 max 4", s)
	}
	if want := float64(2*12) / 9; s.Mean != want {
		t.Errorf("mean = %v, want %v", s.Mean, want)
	}
	if (New("grid").Degrees() != DegreeStats{}) {
		t.Error("empty graph should have zero stats")
	}
}

func TestMarshalGraph(t *testing.T) {
	g := generate(t, lattice.KindNeighborhood, lattice.Params{
		lattice.ParamWidth:   2,
		lattice.ParamHeight:  1,
		lattice.ParamDepth:   1,
		lattice.ParamRadius:  1.0,
		lattice.ParamSpacing: 4.0,
	})

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Kind != "neighborhood" {
		t.Errorf("kind = %q", doc.Kind)
	}
	if doc.Attributes["width"] != 2 {
		t.Errorf("width = %d, want 2", doc.Attributes["width"])
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("got %d nodes %d edges, want 2 and 1", len(doc.Nodes), len(doc.Edges))
	}
	if got := doc.Nodes[1].Pos; len(got) != 3 || got[0] != 4 {
		t.Errorf("pos = %v, want [4 0 0]", got)
	}
	if got := doc.Nodes[1].Size; len(got) != 3 || got[0] != 2 {
		t.Errorf("size = %v, want [2 2 2]", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, kind := range lattice.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			g := generate(t, kind, lattice.Params{lattice.ParamRadius: 1.5, lattice.ParamNeighborhoodType: "Square"})

			var buf bytes.Buffer
			if err := WriteGraph(g, &buf); err != nil {
				t.Fatalf("WriteGraph: %v", err)
			}
			back, err := ReadGraph(&buf)
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}

			if back.NodeCount() != g.NodeCount() || back.EdgeCount() != g.EdgeCount() {
				t.Errorf("counts = %d/%d, want %d/%d", back.NodeCount(), back.EdgeCount(), g.NodeCount(), g.EdgeCount())
			}
			for _, e := range g.Edges() {
				if !back.HasEdge(e.From, e.To) {
					t.Errorf("edge %v lost", e)
				}
			}
			for n := 0; n < g.NodeCount(); n++ {
				want, _ := g.Position(n)
				got, _ := back.Position(n)
				if got != want {
					t.Errorf("node %d pos = %v, want %v", n, got, want)
				}
			}
			for name, v := range g.Attributes() {
				if got, _ := back.Attribute(name); got != v {
					t.Errorf("attribute %s = %d, want %d", name, got, v)
				}
			}
		})
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantErr   bool
	}{
		{
			name: "Valid",
			input: `{
				"kind": "grid",
				"attributes": {"width": 2, "height": 1, "depth": 1},
				"nodes": [{"id": 0}, {"id": 1}],
				"edges": [{"from": 0, "to": 1}]
			}`,
			wantNodes: 2,
			wantEdges: 1,
		},
		{
			name:  "Empty",
			input: `{"nodes": [], "edges": []}`,
		},
		{
			name:    "Invalid",
			input:   `{invalid json}`,
			wantErr: true,
		},
		{
			name:    "IDsOutOfOrder",
			input:   `{"nodes": [{"id": 1}, {"id": 0}], "edges": []}`,
			wantErr: true,
		},
		{
			name:    "DanglingEdge",
			input:   `{"nodes": [{"id": 0}], "edges": [{"from": 0, "to": 5}]}`,
			wantErr: true,
		},
		{
			name:    "PartialPositions",
			input:   `{"nodes": [{"id": 0, "pos": [0, 0, 0]}, {"id": 1}], "edges": []}`,
			wantErr: true,
		},
		{
			name:    "ShortPosition",
			input:   `{"nodes": [{"id": 0, "pos": [0, 0]}], "edges": []}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}
			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
		})
	}
}

func TestGraphFiles(t *testing.T) {
	g := generate(t, lattice.KindGrid, nil)
	path := filepath.Join(t.TempDir(), "grid.json")

	if err := WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
	back, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if back.EdgeCount() != 12 {
		t.Errorf("edges = %d, want 12", back.EdgeCount())
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	_, err := ReadGraphFile("nonexistent.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}
