package grid3d

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cornergrid/internal/geom"
	"github.com/banshee-data/cornergrid/internal/gridprop"
)

// cellProperty builds a continuous property by evaluating fn for every
// cell. With masked set, inactive cells are left undefined.
func (g *Grid) cellProperty(name string, masked bool, fn func(i, j, k int) float64) *gridprop.Property {
	p, _ := gridprop.New(name, g.ncol, g.nrow, g.nlay, nil)
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				if masked && !g.active0(i, j, k) {
					_ = p.SetUndefined(i, j, k)
					continue
				}
				_ = p.Set(i, j, k, fn(i, j, k))
			}
		}
	}
	return p
}

// DZ returns cell heights as a property named "dZ". See CellHeight for
// noFlip.
func (g *Grid) DZ(noFlip, masked bool) *gridprop.Property {
	return g.cellProperty("dZ", masked, func(i, j, k int) float64 {
		return g.cellHeight(i, j, k, noFlip)
	})
}

// DXDY returns horizontal cell sizes as properties "dX" and "dY".
func (g *Grid) DXDY(masked bool) (dx, dy *gridprop.Property) {
	dx = g.cellProperty("dX", masked, func(i, j, k int) float64 {
		return meanXYLength(g.cellHex(i, j, k), edgesI)
	})
	dy = g.cellProperty("dY", masked, func(i, j, k int) float64 {
		return meanXYLength(g.cellHex(i, j, k), edgesJ)
	})
	return dx, dy
}

// XYZ returns cell centre coordinates as "X_UTME", "Y_UTMN" and "Z_TVDSS".
func (g *Grid) XYZ(masked bool) (x, y, z *gridprop.Property) {
	x = g.cellProperty("X_UTME", masked, func(i, j, k int) float64 { return g.cellHex(i, j, k).Center().X })
	y = g.cellProperty("Y_UTMN", masked, func(i, j, k int) float64 { return g.cellHex(i, j, k).Center().Y })
	z = g.cellProperty("Z_TVDSS", masked, func(i, j, k int) float64 { return g.cellHex(i, j, k).Center().Z })
	return x, y, z
}

// Indices returns the 1-based I, J and K of every cell as discrete
// properties.
func (g *Grid) Indices() (pi, pj, pk *gridprop.Property) {
	n := g.NTotal()
	iv, jv, kv := make([]int, n), make([]int, n), make([]int, n)
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				c := g.corder(i, j, k)
				iv[c], jv[c], kv[c] = i+1, j+1, k+1
			}
		}
	}
	pi, _ = gridprop.NewDiscrete("I", g.ncol, g.nrow, g.nlay, iv, nil)
	pj, _ = gridprop.NewDiscrete("J", g.ncol, g.nrow, g.nlay, jv, nil)
	pk, _ = gridprop.NewDiscrete("K", g.ncol, g.nrow, g.nlay, kv, nil)
	return pi, pj, pk
}

// CellPolygon is the outline of one cell in a layer slice.
type CellPolygon struct {
	// Cell is the C-order index of the cell.
	Cell    int
	Polygon geom.Polygon
}

// LayerSlice returns closed XY outlines (SW, SE, NE, NW, SW) of the cells of
// the 1-based layer, taken at the top or base, in C order.
func (g *Grid) LayerSlice(layer int, top, activeOnly bool) ([]CellPolygon, error) {
	if layer < 1 || layer > g.nlay {
		return nil, indexf("layer %d outside 1..%d", layer, g.nlay)
	}
	k := layer - 1
	var out []CellPolygon
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			if activeOnly && !g.active0(i, j, k) {
				continue
			}
			h := g.cellHex(i, j, k)
			base := 0
			if top {
				base = 4
			}
			xy := func(c int) r2.Vec { return r2.Vec{X: h[base+c].X, Y: h[base+c].Y} }
			out = append(out, CellPolygon{
				Cell:    g.corder(i, j, k),
				Polygon: geom.Polygon{xy(cornerSW), xy(cornerSE), xy(cornerNE), xy(cornerNW), xy(cornerSW)},
			})
		}
	}
	return out, nil
}
