package grid3d

// Corner positions within a level quartet.
const (
	cornerSW = iota
	cornerSE
	cornerNW
	cornerNE
)

// Corner depth store layout: for 0-based column (i, j) and level l
// (0 <= l <= nlay), the four depths SW, SE, NW, NE start at
// ((l*nrow + j)*ncol + i)*4.

func (g *Grid) zOffset(i, j, level int) int {
	return ((level*g.nrow+j)*g.ncol + i) * 4
}

// quartet returns the four corner depths of column (i, j) at level.
func (g *Grid) quartet(i, j, level int) [4]float64 {
	o := g.zOffset(i, j, level)
	return [4]float64{g.zcorn[o], g.zcorn[o+1], g.zcorn[o+2], g.zcorn[o+3]}
}

func (g *Grid) setQuartet(i, j, level int, q [4]float64) {
	o := g.zOffset(i, j, level)
	copy(g.zcorn[o:o+4], q[:])
}

// columnLevels returns the nlay+1 depths of one corner of column (i, j).
func (g *Grid) columnLevels(i, j, corner int, dst []float64) []float64 {
	dst = dst[:0]
	for l := 0; l <= g.nlay; l++ {
		dst = append(dst, g.zcorn[g.zOffset(i, j, l)+corner])
	}
	return dst
}

func (g *Grid) setColumnLevels(i, j, corner int, z []float64) {
	for l, v := range z {
		g.zcorn[g.zOffset(i, j, l)+corner] = v
	}
}

// reversedZCorn returns the corner depth store with the J axis reversed.
// South and north corners trade places so each quartet keeps its meaning.
func (g *Grid) reversedZCorn() []float64 {
	out := make([]float64, len(g.zcorn))
	for l := 0; l <= g.nlay; l++ {
		for j := 0; j < g.nrow; j++ {
			for i := 0; i < g.ncol; i++ {
				src := g.zOffset(i, g.nrow-1-j, l)
				dst := g.zOffset(i, j, l)
				out[dst+cornerSW] = g.zcorn[src+cornerNW]
				out[dst+cornerSE] = g.zcorn[src+cornerNE]
				out[dst+cornerNW] = g.zcorn[src+cornerSW]
				out[dst+cornerNE] = g.zcorn[src+cornerSE]
			}
		}
	}
	return out
}

// croppedZCorn slices the 0-based inclusive box of columns, rows and layers.
func (g *Grid) croppedZCorn(i0, i1, j0, j1, k0, k1 int) []float64 {
	nc := i1 - i0 + 1
	out := make([]float64, 0, nc*(j1-j0+1)*(k1-k0+2)*4)
	for l := k0; l <= k1+1; l++ {
		for j := j0; j <= j1; j++ {
			o := g.zOffset(i0, j, l)
			out = append(out, g.zcorn[o:o+nc*4]...)
		}
	}
	return out
}

// rebuildLevels replaces the layering with nlay new layers. levels is
// called once per column and corner with the current depths and must
// return nlay+1 new depths.
func (g *Grid) rebuildLevels(nlay int, levels func(i, j, corner int, z []float64) []float64) {
	zcorn := make([]float64, g.ncol*g.nrow*(nlay+1)*4)
	buf := make([]float64, 0, g.nlay+1)
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			for c := 0; c < 4; c++ {
				buf = g.columnLevels(i, j, c, buf)
				for l, v := range levels(i, j, c, buf) {
					zcorn[((l*g.nrow+j)*g.ncol+i)*4+c] = v
				}
			}
		}
	}
	g.zcorn = zcorn
	g.nlay = nlay
}
