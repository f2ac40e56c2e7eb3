package grid3d

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cornergrid/internal/geom"
)

// InactivateInside inactivates cells whose centre lies inside any of the
// polygons, within the 1-based inclusive layer range (the zero range means
// every layer). Open polygons are an error unless forceClose is set. It
// returns the number of cells that changed.
func (g *Grid) InactivateInside(polygons []geom.Polygon, layers [2]int, forceClose bool) (int, error) {
	return g.inactivateRegion(polygons, layers, true, forceClose)
}

// InactivateOutside inactivates cells whose centre lies outside every
// polygon, within the layer range.
func (g *Grid) InactivateOutside(polygons []geom.Polygon, layers [2]int, forceClose bool) (int, error) {
	return g.inactivateRegion(polygons, layers, false, forceClose)
}

func (g *Grid) inactivateRegion(polygons []geom.Polygon, layers [2]int, inside, forceClose bool) (int, error) {
	if len(polygons) == 0 {
		return 0, validationf("no polygons given")
	}
	if layers == [2]int{} {
		layers = [2]int{1, g.nlay}
	}
	if layers[0] < 1 || layers[1] > g.nlay || layers[0] > layers[1] {
		return 0, validationf("layer range %v outside 1..%d", layers, g.nlay)
	}
	closed := make([]geom.Polygon, len(polygons))
	boxes := make([]r2.Box, len(polygons))
	for n, p := range polygons {
		c, err := p.Validate(forceClose)
		if errors.Is(err, geom.ErrOpenPolygon) {
			return 0, validationf("polygon %d is not closed; set forceClose to close it", n)
		}
		if err != nil {
			return 0, validationf("polygon %d: %v", n, err)
		}
		closed[n] = c
		boxes[n] = c.Bounds()
	}

	var changed int
	for k := layers[0] - 1; k < layers[1]; k++ {
		for j := 0; j < g.nrow; j++ {
			for i := 0; i < g.ncol; i++ {
				n := g.native(i, j, k)
				if g.actnum[n] == 0 {
					continue
				}
				c := g.cellHex(i, j, k).Center()
				q := r2.Vec{X: c.X, Y: c.Y}
				hit := false
				for m, p := range closed {
					b := boxes[m]
					if q.X < b.Min.X || q.X > b.Max.X || q.Y < b.Min.Y || q.Y > b.Max.Y {
						continue
					}
					if p.Contains(q) {
						hit = true
						break
					}
				}
				if hit == inside {
					g.setInactive(n)
					changed++
				}
			}
		}
	}
	if changed > 0 {
		g.invalidate()
	}
	g.log.Diagf("polygon inactivation (inside=%t) changed %d cells", inside, changed)
	return changed, nil
}
