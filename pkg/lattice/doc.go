// Package lattice generates 3-D grid graphs.
//
// A lattice has Width*Height*Depth nodes, one per integer cell (i, j, k).
// The linear node index of a cell is
//
//	index = k*(Width*Height) + j*Width + i
//
// and every other part of the package addresses nodes through that mapping
// (see [Dims.Index] and [Dims.Cell]).
//
// # Pipeline
//
// Generation runs in four steps:
//
//   - [Validate] turns loosely typed [Params] into a [GridConfig].
//   - [BuildOffsets] derives the relative neighbor offsets of a
//     [Neighborhood] policy.
//   - [EdgeCount] gives the exact edge count of a [FixedDegree] lattice so
//     storage can be sized once.
//   - [Generate] scans all cells once and produces a [Lattice].
//
// A finished lattice is handed to a graph store with [Commit]:
//
//	cfg, err := lattice.Validate(lattice.KindGrid, lattice.Defaults(lattice.KindGrid))
//	if err != nil {
//	    return err
//	}
//	l, err := lattice.Generate(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	return lattice.Commit(host, l)
//
// # Edge Policies
//
// [FixedDegree] connects each cell to its forward neighbors: the three axis
// directions for degree 4, plus ten diagonals for degree 8. Degree 0 yields
// isolated nodes. Positions use a per-axis unit of 1+Spacing.
//
// [Neighborhood] connects each cell to every in-bounds cell reached through
// an offset within the radius, measured as a cube ("Square", [Manhattan]) or
// a Euclidean ball ("Circular", [Euclidean]). Positions use a per-axis unit
// of Spacing, and every node gets a size of Spacing/2 per axis.
//
// # Cancellation
//
// [Generate] checks its context between cells and returns ctx.Err() without
// a lattice when canceled. [WithProgress] observes the scan.
package lattice
