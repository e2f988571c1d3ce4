package search

import (
	"github.com/paulmach/orb/planar"

	"github.com/pthm-cable/frontier/grid"
)

// Beautify drops every waypoint that can be skipped without losing line of
// sight under AAPathVisible. From each anchor the furthest visible index is
// found by galloping forward with doubling steps and then bisecting the last
// step. With recomputeLength the length becomes the polyline length of the
// simplified path; otherwise the original length is kept.
func Beautify(g *grid.Grid, p Path, recomputeLength bool) Path {
	n := len(p.Cells)
	if n <= 2 {
		return p
	}
	cells := p.Cells
	visible := func(i, j int) bool {
		return g.AAPathVisible(cells[i], cells[j])
	}

	out := []grid.Point{cells[0]}
	for anchor := 0; anchor < n-1; {
		// cells[anchor+1] is adjacent and always visible
		good := anchor + 1
		step := 1
		for good+step < n && visible(anchor, good+step) {
			good += step
			step *= 2
		}
		bad := min(good+step, n)
		for bad-good > 1 {
			mid := good + (bad-good)/2
			if visible(anchor, mid) {
				good = mid
			} else {
				bad = mid
			}
		}
		out = append(out, cells[good])
		anchor = good
	}

	res := Path{Cells: out, Cost: p.Cost, Length: p.Length}
	if recomputeLength {
		res.Length = planar.Length(res.LineString(g))
	}
	return res
}
