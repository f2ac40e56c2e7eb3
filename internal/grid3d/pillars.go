package grid3d

import "gonum.org/v1/gonum/spatial/r3"

// Pillar store layout: pillar (i, j) for 0 <= i <= ncol, 0 <= j <= nrow is
// at offset (j*(ncol+1) + i)*6 and holds xtop, ytop, ztop, xbot, ybot, zbot.

func (g *Grid) pillarOffset(i, j int) int { return (j*(g.ncol+1) + i) * 6 }

// pillarEnds returns the top and base points of pillar (i, j).
func (g *Grid) pillarEnds(i, j int) (top, bot r3.Vec) {
	p := g.coord[g.pillarOffset(i, j):]
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}, r3.Vec{X: p[3], Y: p[4], Z: p[5]}
}

// pointOnPillar interpolates pillar (i, j) at depth z. A pillar with equal
// top and base depth cannot be interpolated and yields its top XY.
func (g *Grid) pointOnPillar(i, j int, z float64) r3.Vec {
	top, bot := g.pillarEnds(i, j)
	dz := bot.Z - top.Z
	if dz == 0 {
		return r3.Vec{X: top.X, Y: top.Y, Z: z}
	}
	t := (z - top.Z) / dz
	return r3.Vec{
		X: top.X + t*(bot.X-top.X),
		Y: top.Y + t*(bot.Y-top.Y),
		Z: z,
	}
}

// PillarEnds returns the top and base points of the 1-based pillar (i, j),
// with 1 <= i <= ncol+1 and 1 <= j <= nrow+1.
func (g *Grid) PillarEnds(i, j int) (top, bot r3.Vec, err error) {
	if i < 1 || i > g.ncol+1 || j < 1 || j > g.nrow+1 {
		return r3.Vec{}, r3.Vec{}, indexf("pillar (%d, %d) outside [1,%d]x[1,%d]", i, j, g.ncol+1, g.nrow+1)
	}
	top, bot = g.pillarEnds(i-1, j-1)
	return top, bot, nil
}

// reversedCoord returns the pillar store with the J axis reversed.
func (g *Grid) reversedCoord() []float64 {
	out := make([]float64, len(g.coord))
	row := (g.ncol + 1) * 6
	for j := 0; j <= g.nrow; j++ {
		src := (g.nrow - j) * row
		copy(out[j*row:(j+1)*row], g.coord[src:src+row])
	}
	return out
}

// croppedCoord returns the pillars bounding the 0-based cell columns
// i0..i1 and rows j0..j1, both inclusive.
func (g *Grid) croppedCoord(i0, i1, j0, j1 int) []float64 {
	nc := i1 - i0 + 2
	out := make([]float64, 0, nc*(j1-j0+2)*6)
	for j := j0; j <= j1+1; j++ {
		off := g.pillarOffset(i0, j)
		out = append(out, g.coord[off:off+nc*6]...)
	}
	return out
}
