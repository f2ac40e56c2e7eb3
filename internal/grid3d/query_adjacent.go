package grid3d

import (
	"math"

	"github.com/banshee-data/cornergrid/internal/gridprop"
)

// Adjacency codes returned by AdjacentCells.
const (
	AdjacentNone  = 0
	AdjacentFound = 1
	AdjacentFault = 2
)

// faultTolerance is the corner depth difference across a shared face above
// which the face counts as faulted.
const faultTolerance = 1e-6

// AdjacentCells marks every cell with prop == val1 that has a face
// neighbour with prop == val2: 1 for an ordinary neighbour, 2 when the
// shared face is a fault (the corner depths on the two sides differ).
// Other cells get 0. With activeOnly, inactive cells neither match nor
// count as neighbours.
func (g *Grid) AdjacentCells(prop CellValues, val1, val2 float64, activeOnly bool) (*gridprop.Property, error) {
	if err := g.checkDims(prop); err != nil {
		return nil, err
	}
	match := func(i, j, k int, want float64) bool {
		if activeOnly && !g.active0(i, j, k) {
			return false
		}
		v, ok := prop.ValueAt(i, j, k)
		return ok && v == want
	}

	values := make([]int, g.NTotal())
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				if !match(i, j, k, val1) {
					continue
				}
				res := AdjacentNone
				for _, d := range [6][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}} {
					ni, nj, nk := i+d[0], j+d[1], k+d[2]
					if ni < 0 || ni >= g.ncol || nj < 0 || nj >= g.nrow || nk < 0 || nk >= g.nlay {
						continue
					}
					if !match(ni, nj, nk, val2) {
						continue
					}
					code := AdjacentFound
					if d[2] == 0 && g.faulted(i, j, k, d[0], d[1]) {
						code = AdjacentFault
					}
					res = max(res, code)
				}
				values[g.corder(i, j, k)] = res
			}
		}
	}
	return gridprop.NewDiscrete("ADJ_CELLS", g.ncol, g.nrow, g.nlay, values, map[int]string{
		AdjacentNone:  "none",
		AdjacentFound: "adjacent",
		AdjacentFault: "fault",
	})
}

// faulted reports whether the lateral face between cell (i, j, k) and its
// neighbour in direction (di, dj) has different corner depths on each side.
func (g *Grid) faulted(i, j, k, di, dj int) bool {
	// Corners of this cell on the shared face, paired with the matching
	// corners of the neighbour.
	var mine, theirs [2]int
	switch {
	case di == 1:
		mine, theirs = [2]int{cornerSE, cornerNE}, [2]int{cornerSW, cornerNW}
	case di == -1:
		mine, theirs = [2]int{cornerSW, cornerNW}, [2]int{cornerSE, cornerNE}
	case dj == 1:
		mine, theirs = [2]int{cornerNW, cornerNE}, [2]int{cornerSW, cornerSE}
	default:
		mine, theirs = [2]int{cornerSW, cornerSE}, [2]int{cornerNW, cornerNE}
	}
	for _, l := range [2]int{k, k + 1} {
		a, b := g.quartet(i, j, l), g.quartet(i+di, j+dj, l)
		for n := 0; n < 2; n++ {
			if math.Abs(a[mine[n]]-b[theirs[n]]) > faultTolerance {
				return true
			}
		}
	}
	return false
}
