// Package graph provides the in-memory host graph and its wire format.
//
// # Architecture
//
// The package sits between the generator and every output surface:
//
//   - [Graph]: undirected simple graph implementing lattice.Host
//   - [Document], [Node], [Edge]: serialization types (JSON and BSON)
//
// A generated lattice becomes a Graph through [FromLattice] (or
// lattice.Commit with a graph from [New]). Use [Graph.Export] and [Import]
// to move between the two forms.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Nodes are listed in index order:
//
//	{
//	  "kind": "grid",
//	  "attributes": {"depth": 1, "height": 1, "width": 2},
//	  "nodes": [{"id": 0, "pos": [0, 0, 0]}, {"id": 1, "pos": [2, 0, 0]}],
//	  "edges": [{"from": 0, "to": 1}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("grid.json")    // File → Graph
//	graph.WriteGraphFile(g, "output.json")      // Graph → File
//	data, _ := graph.MarshalGraph(g)            // Graph → []byte
//	doc, _ := graph.UnmarshalDocument(data)     // []byte → Document
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
