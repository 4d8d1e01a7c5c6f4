package lattice

import "math"

// BuildOffsets returns the neighbor offsets of a radius-bounded
// neighborhood, in ascending (k, j, i) order.
//
// The search cube is [-r, r]^3 with r = floor(radius); the radius is
// truncated, never rounded. The origin is skipped, and when is2D is set every
// offset with a non-zero k component is skipped too. Manhattan keeps the whole
// cube. Euclidean keeps offsets whose norm is at most the unfloored radius.
//
// A zero radius yields no offsets. So does a Euclidean radius in (0, 1),
// since every non-zero offset has norm at least 1.
func BuildOffsets(radius float64, metric Metric, is2D bool) []Offset {
	return buildOffsets(radius, metric, is2D, unbounded)
}

var unbounded = Offset{DI: math.MaxInt32, DJ: math.MaxInt32, DK: math.MaxInt32}

// reachOf returns the per-axis half-widths of the search box: floor(radius)
// capped by bound on each axis. Offsets beyond an axis' extent can never
// land in bounds, so capping never changes which edges exist.
func reachOf(radius float64, is2D bool, bound Offset) Offset {
	r := math.MaxInt32
	if radius < float64(r) {
		r = int(math.Floor(radius))
	}
	reach := Offset{DI: min(r, bound.DI), DJ: min(r, bound.DJ), DK: min(r, bound.DK)}
	if is2D {
		reach.DK = 0
	}
	return reach
}

// buildOffsets is BuildOffsets with the search box capped at bound.
func buildOffsets(radius float64, metric Metric, is2D bool, bound Offset) []Offset {
	if !(radius > 0) {
		return nil
	}
	reach := reachOf(radius, is2D, bound)

	var out []Offset
	for k := -reach.DK; k <= reach.DK; k++ {
		for j := -reach.DJ; j <= reach.DJ; j++ {
			for i := -reach.DI; i <= reach.DI; i++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				if metric == Euclidean && norm(i, j, k) > radius {
					continue
				}
				out = append(out, Offset{DI: i, DJ: j, DK: k})
			}
		}
	}
	return out
}

// countOffsets returns len(buildOffsets(radius, metric, is2D, bound)),
// saturating at limit. It walks (k, j) rows only, so it stays cheap for
// boxes far too large to materialize.
func countOffsets(radius float64, metric Metric, is2D bool, bound Offset, limit int64) int64 {
	if !(radius > 0) || limit <= 0 {
		return 0
	}
	reach := reachOf(radius, is2D, bound)

	var count int64
	for k := -reach.DK; k <= reach.DK; k++ {
		for j := -reach.DJ; j <= reach.DJ; j++ {
			m := reach.DI
			if metric == Euclidean {
				m = rowReach(j*j+k*k, radius, reach.DI)
				if m < 0 {
					continue
				}
			}
			count += int64(2*m + 1)
			if j == 0 && k == 0 {
				count--
			}
			if count >= limit {
				return limit
			}
		}
	}
	return count
}

// rowReach returns the largest m <= r with sqrt(m*m + s) <= radius, or -1
// when even m = 0 lies outside.
func rowReach(s int, radius float64, r int) int {
	m := r
	if f := math.Sqrt(max(radius*radius-float64(s), 0)); f < float64(r) {
		m = int(f)
	}
	for m >= 0 && math.Sqrt(float64(m*m+s)) > radius {
		m--
	}
	for m < r && math.Sqrt(float64((m+1)*(m+1)+s)) <= radius {
		m++
	}
	return m
}

func norm(i, j, k int) float64 {
	return math.Sqrt(float64(i*i + j*j + k*k))
}
