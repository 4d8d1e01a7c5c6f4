// Package pkg provides the libraries behind grid3d, a generator of regular
// 3-D lattice graphs.
//
// # Overview
//
// The pkg directory is organized into these areas:
//
//  1. [lattice] - Domain logic (validation, offsets, enumeration, edge counts)
//  2. [graph] - The in-memory graph host and its JSON wire format
//  3. [render] - DOT, SVG, PDF and PNG output
//  4. [pipeline] - Orchestration (generate → render → persist) with caching
//  5. [cache], [store] - Infrastructure (file/Redis cache, MongoDB and Neo4j)
//  6. [server], [config] - HTTP API and parameter files
//
// # Architecture
//
// The typical data flow:
//
//	Params (flags, TOML/YAML file or HTTP body)
//	         ↓
//	    [lattice.Validate] (GridConfig)
//	         ↓
//	    [lattice.Generate] (nodes, positions, edges)
//	         ↓
//	    [graph.FromLattice] (committed graph)
//	         ↓
//	    JSON/DOT/SVG/PDF/PNG, MongoDB, Neo4j
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/grid3d/pkg/graph"
//	    "github.com/matzehuels/grid3d/pkg/lattice"
//	)
//
//	p := lattice.Defaults(lattice.KindGrid)
//	p[lattice.ParamConnectivity] = "8"
//	cfg, err := lattice.Validate(lattice.KindGrid, p)
//	if err != nil {
//	    return err
//	}
//	l, err := lattice.Generate(context.Background(), cfg)
//	if err != nil {
//	    return err
//	}
//	g, err := graph.FromLattice(lattice.KindGrid, l)
//
// [lattice]: github.com/matzehuels/grid3d/pkg/lattice
// [graph]: github.com/matzehuels/grid3d/pkg/graph
// [render]: github.com/matzehuels/grid3d/pkg/render
// [pipeline]: github.com/matzehuels/grid3d/pkg/pipeline
// [cache]: github.com/matzehuels/grid3d/pkg/cache
// [store]: github.com/matzehuels/grid3d/pkg/store
// [server]: github.com/matzehuels/grid3d/pkg/server
// [config]: github.com/matzehuels/grid3d/pkg/config
// [lattice.Validate]: github.com/matzehuels/grid3d/pkg/lattice#Validate
// [lattice.Generate]: github.com/matzehuels/grid3d/pkg/lattice#Generate
// [graph.FromLattice]: github.com/matzehuels/grid3d/pkg/graph#FromLattice
package pkg
