package lattice

// EdgeCount returns the exact number of edges the fixed-degree policy emits
// for a width x height x depth grid. It is used to size the edge slice
// before enumeration.
//
// Per plane there are (W-1)*H X edges and (H-1)*W Y edges, plus
// 2*(W-1)*(H-1) XY diagonals at degree 8. Planes are linked by (D-1)*W*H Z
// edges; degree 8 adds 2*(W-1)*H*(D-1) XZ diagonals, 2*(H-1)*W*(D-1) YZ
// diagonals and 4*(W-1)*(H-1)*(D-1) cross-plane diagonals.
func EdgeCount(width, height, depth int, degree Connectivity) int {
	if degree != Connectivity4 && degree != Connectivity8 {
		return 0
	}
	w, h, d := width, height, depth

	base := (w-1)*h + (h-1)*w
	if degree == Connectivity8 {
		base += 2 * (w - 1) * (h - 1)
	}
	total := base*d + (d-1)*w*h
	if degree == Connectivity8 {
		total += 2 * (w - 1) * h * (d - 1)
		total += 2 * (h - 1) * w * (d - 1)
		total += 4 * (w - 1) * (h - 1) * (d - 1)
	}
	return total
}

// EdgeBound returns an upper bound on the number of edges Generate emits for
// cfg, without enumerating. It is exact for FixedDegree. For Neighborhood it
// is nodes*offsets/2 with the offset count capped at nodes-1, so a radius
// spanning the whole grid yields the complete-graph count.
func EdgeBound(cfg GridConfig) int64 {
	dims := cfg.Dims()
	switch p := cfg.Policy.(type) {
	case FixedDegree:
		return int64(EdgeCount(dims.Width, dims.Height, dims.Depth, p.Degree))
	case Neighborhood:
		n := int64(dims.Count())
		per := countOffsets(p.Radius, p.Metric, dims.Depth == 1, dims.extent(), n-1)
		return n * per / 2
	}
	return 0
}
