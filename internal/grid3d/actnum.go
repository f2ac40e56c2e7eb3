package grid3d

import (
	"github.com/banshee-data/cornergrid/internal/gridprop"
)

// Order selects the linearisation of cell indices.
type Order int

const (
	// OrderC is row-major with K fastest: (i*nrow + j)*nlay + k.
	OrderC Order = iota
	// OrderF is the native storage order with I fastest: (k*nrow + j)*ncol + i.
	OrderF
)

func (o Order) String() string {
	if o == OrderF {
		return "F"
	}
	return "C"
}

// Dual porosity codes.
const (
	DualInactive = 0
	DualMatrix   = 1
	DualFracture = 2
	DualBoth     = 3
)

// splitActnum validates raw values in F order and returns the authoritative
// 0/1 mask plus the retained dual codes (nil unless dual).
func splitActnum(raw []int, ntotal int, dual bool) (mask, codes []int, err error) {
	if len(raw) != ntotal {
		return nil, nil, validationf("actnum has %d values, want %d", len(raw), ntotal)
	}
	maxCode := 1
	if dual {
		maxCode = DualBoth
	}
	mask = make([]int, ntotal)
	for n, v := range raw {
		if v < 0 || v > maxCode {
			return nil, nil, validationf("actnum value %d at %d outside 0..%d", v, n, maxCode)
		}
		if v >= 1 {
			mask[n] = 1
		}
	}
	if dual {
		codes = append([]int(nil), raw...)
	}
	return mask, codes, nil
}

// IsActive reports whether the 1-based cell (i, j, k) is active. Under dual
// porosity any non-zero code counts as active.
func (g *Grid) IsActive(i, j, k int) (bool, error) {
	i, j, k, err := g.checkCell(i, j, k, false)
	if err != nil {
		return false, err
	}
	return g.actnum[g.native(i, j, k)] == 1, nil
}

func (g *Grid) active0(i, j, k int) bool { return g.actnum[g.native(i, j, k)] == 1 }

// NActive returns the number of active cells.
func (g *Grid) NActive() int {
	return len(g.activeIndices(OrderF))
}

// ActiveIndices returns the flat indices of the active cells in the given
// order, ascending.
func (g *Grid) ActiveIndices(order Order) []int {
	return append([]int(nil), g.activeIndices(order)...)
}

func (g *Grid) activeIndices(order Order) []int {
	if order == OrderF {
		return cached(g.cache, cacheActiveF, func() []int {
			return g.collect(func(n int) bool { return g.actnum[n] == 1 }, OrderF)
		})
	}
	return cached(g.cache, cacheActiveC, func() []int {
		return g.collect(func(n int) bool { return g.actnum[n] == 1 }, OrderC)
	})
}

// collect gathers the indices of cells whose native index satisfies keep.
func (g *Grid) collect(keep func(native int) bool, order Order) []int {
	var out []int
	if order == OrderF {
		for n := 0; n < g.NTotal(); n++ {
			if keep(n) {
				out = append(out, n)
			}
		}
		return out
	}
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				if keep(g.native(i, j, k)) {
					out = append(out, g.corder(i, j, k))
				}
			}
		}
	}
	return out
}

// DualActiveIndices returns the C-order indices active in the matrix
// (codes 1 and 3) or, with fracture set, in the fracture system (codes 2
// and 3). Without dual porosity both systems equal the plain active set.
func (g *Grid) DualActiveIndices(fracture bool) []int {
	if g.dual == nil {
		return g.ActiveIndices(OrderC)
	}
	key, want := cacheMatrixC, DualMatrix
	if fracture {
		key, want = cacheFractureC, DualFracture
	}
	idx := cached(g.cache, key, func() []int {
		return g.collect(func(n int) bool {
			c := g.dual[n]
			return c == want || c == DualBoth
		}, OrderC)
	})
	return append([]int(nil), idx...)
}

// SetActnum replaces the mask. values must cover every cell in the given
// order and lie in 0..1, or 0..3 under dual porosity. On error the grid is
// unchanged.
func (g *Grid) SetActnum(values []int, order Order) error {
	raw := values
	if order == OrderC && len(values) == g.NTotal() {
		raw = make([]int, len(values))
		for i := 0; i < g.ncol; i++ {
			for j := 0; j < g.nrow; j++ {
				for k := 0; k < g.nlay; k++ {
					raw[g.native(i, j, k)] = values[g.corder(i, j, k)]
				}
			}
		}
	}
	mask, codes, err := splitActnum(raw, g.NTotal(), g.dualPorosity)
	if err != nil {
		return err
	}
	g.actnum, g.dual = mask, codes
	g.invalidate()
	return nil
}

// ActivateAll makes every cell active. Under dual porosity every cell gets
// code 3, active in both systems, and the dual flag is kept.
func (g *Grid) ActivateAll() {
	for n := range g.actnum {
		g.actnum[n] = 1
	}
	for n := range g.dual {
		g.dual[n] = DualBoth
	}
	g.invalidate()
}

// setInactive clears the native cell n in both masks.
func (g *Grid) setInactive(n int) {
	g.actnum[n] = 0
	if g.dual != nil {
		g.dual[n] = DualInactive
	}
}

// InactivateByDZ inactivates active cells thinner than threshold and
// returns how many changed.
func (g *Grid) InactivateByDZ(threshold float64) (int, error) {
	if threshold < 0 {
		return 0, validationf("dz threshold must be non-negative, got %g", threshold)
	}
	var changed int
	for k := 0; k < g.nlay; k++ {
		for j := 0; j < g.nrow; j++ {
			for i := 0; i < g.ncol; i++ {
				n := g.native(i, j, k)
				if g.actnum[n] == 1 && g.cellHeight(i, j, k, false) < threshold {
					g.setInactive(n)
					changed++
				}
			}
		}
	}
	if changed > 0 {
		g.invalidate()
		g.log.Diagf("inactivated %d cells with dz < %g", changed, threshold)
	}
	return changed, nil
}

// Actnum returns the mask as a discrete property in C order. With dual set
// and dual porosity in effect, the 0..3 codes are returned instead.
func (g *Grid) Actnum(dual bool) *gridprop.Property {
	src := g.actnum
	codes := map[int]string{0: "inactive", 1: "active"}
	if dual && g.dual != nil {
		src = g.dual
		codes = map[int]string{
			DualInactive: "inactive",
			DualMatrix:   "matrix",
			DualFracture: "fracture",
			DualBoth:     "matrix+fracture",
		}
	}
	values := make([]int, g.NTotal())
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				values[g.corder(i, j, k)] = src[g.native(i, j, k)]
			}
		}
	}
	p, _ := gridprop.NewDiscrete("ACTNUM", g.ncol, g.nrow, g.nlay, values, codes)
	return p
}
