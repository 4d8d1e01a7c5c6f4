package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/grid3d/pkg/lattice"
)

// Document is the canonical serialization format for generated graphs.
// Used for files, API responses, caching and the document store.
//
// Nodes are listed in index order, so a node's position in Nodes equals its
// ID. Pos and Size are omitted when the graph carries none.
type Document struct {
	Kind       string         `json:"kind" bson:"kind"`
	Attributes map[string]int `json:"attributes" bson:"attributes"`
	Nodes      []Node         `json:"nodes" bson:"nodes"`
	Edges      []Edge         `json:"edges" bson:"edges"`
}

// Node is a serialized node.
type Node struct {
	ID   int       `json:"id" bson:"id"`
	Pos  []float64 `json:"pos,omitempty" bson:"pos,omitempty"`   // x, y, z
	Size []float64 `json:"size,omitempty" bson:"size,omitempty"` // w, h, d
}

// Edge is a serialized undirected edge.
type Edge struct {
	From int `json:"from" bson:"from"`
	To   int `json:"to" bson:"to"`
}

// Export converts g to its serialization format.
func (g *Graph) Export() Document {
	doc := Document{
		Kind:       g.kind,
		Attributes: g.Attributes(),
		Nodes:      make([]Node, g.nodes),
		Edges:      make([]Edge, len(g.edges)),
	}
	for i := range doc.Nodes {
		n := Node{ID: i}
		if p, ok := g.Position(i); ok {
			n.Pos = []float64{p.X, p.Y, p.Z}
		}
		if s, ok := g.Size(i); ok {
			n.Size = []float64{s.W, s.H, s.D}
		}
		doc.Nodes[i] = n
	}
	for i, e := range g.edges {
		doc.Edges[i] = Edge{From: e.From, To: e.To}
	}
	return doc
}

// Import converts a Document back to a Graph. Node IDs must be 0..n-1 in
// order, and Pos/Size must be given for every node or for none.
func Import(doc Document) (*Graph, error) {
	g := New(doc.Kind)
	if err := g.AddNodes(len(doc.Nodes)); err != nil {
		return nil, err
	}
	for name, v := range doc.Attributes {
		g.SetAttribute(name, v)
	}

	var positions []lattice.Coord
	var sizes []lattice.Size
	for i, n := range doc.Nodes {
		if n.ID != i {
			return nil, fmt.Errorf("node %d has id %d: %w", i, n.ID, ErrNodeOutOfRange)
		}
		if n.Pos != nil {
			if len(n.Pos) != 3 {
				return nil, fmt.Errorf("node %d: pos needs 3 components, got %d", i, len(n.Pos))
			}
			if positions == nil {
				positions = make([]lattice.Coord, len(doc.Nodes))
			}
			positions[i] = lattice.Coord{X: n.Pos[0], Y: n.Pos[1], Z: n.Pos[2]}
		}
		if n.Size != nil {
			if len(n.Size) != 3 {
				return nil, fmt.Errorf("node %d: size needs 3 components, got %d", i, len(n.Size))
			}
			if sizes == nil {
				sizes = make([]lattice.Size, len(doc.Nodes))
			}
			sizes[i] = lattice.Size{W: n.Size[0], H: n.Size[1], D: n.Size[2]}
		}
	}
	if positions != nil {
		if err := requireAll(doc.Nodes, func(n Node) bool { return n.Pos != nil }, "pos"); err != nil {
			return nil, err
		}
		if err := g.SetPositions(positions); err != nil {
			return nil, err
		}
	}
	if sizes != nil {
		if err := requireAll(doc.Nodes, func(n Node) bool { return n.Size != nil }, "size"); err != nil {
			return nil, err
		}
		if err := g.SetSizes(sizes); err != nil {
			return nil, err
		}
	}

	edges := make([]lattice.Edge, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = lattice.Edge{From: e.From, To: e.To}
	}
	if err := g.AddEdges(edges); err != nil {
		return nil, err
	}
	return g, nil
}

func requireAll(nodes []Node, has func(Node) bool, field string) error {
	for i, n := range nodes {
		if !has(n) {
			return fmt.Errorf("node %d: missing %s: %w", i, field, ErrLengthMismatch)
		}
	}
	return nil
}

// UnmarshalDocument deserializes JSON bytes to a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
