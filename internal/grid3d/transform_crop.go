package grid3d

// Crop reduces the grid to the 1-based inclusive ranges cols, rows and
// lays. Subgrids are clipped to the layer window and renumbered; those left
// empty are dropped. With withProps set, attached properties are cropped
// identically and the whole operation fails atomically if one cannot be;
// otherwise they are detached.
func (g *Grid) Crop(cols, rows, lays [2]int, withProps bool) error {
	for _, r := range []struct {
		name string
		rng  [2]int
		n    int
	}{{"column", cols, g.ncol}, {"row", rows, g.nrow}, {"layer", lays, g.nlay}} {
		if r.rng[0] < 1 || r.rng[1] > r.n || r.rng[0] > r.rng[1] {
			return validationf("%s range %v outside 1..%d", r.name, r.rng, r.n)
		}
	}

	var commits []func()
	if withProps {
		var err error
		commits, err = g.stageProps("crop", func(p AttachedProperty) (func(), error) {
			return p.StageCrop(cols, rows, lays)
		})
		if err != nil {
			return err
		}
	} else {
		g.detachProps("crop")
	}

	i0, i1 := cols[0]-1, cols[1]-1
	j0, j1 := rows[0]-1, rows[1]-1
	k0, k1 := lays[0]-1, lays[1]-1

	coord := g.croppedCoord(i0, i1, j0, j1)
	zcorn := g.croppedZCorn(i0, i1, j0, j1, k0, k1)
	actnum := g.croppedCells(g.actnum, i0, i1, j0, j1, k0, k1)
	var dual []int
	if g.dual != nil {
		dual = g.croppedCells(g.dual, i0, i1, j0, j1, k0, k1)
	}

	g.remapSubgrids(func(old int) []int {
		if old < lays[0] || old > lays[1] {
			return nil
		}
		return []int{old - lays[0] + 1}
	})
	g.ncol, g.nrow, g.nlay = i1-i0+1, j1-j0+1, k1-k0+1
	g.coord, g.zcorn, g.actnum, g.dual = coord, zcorn, actnum, dual
	g.invalidate()
	for _, c := range commits {
		c()
	}
	g.log.Diagf("cropped to %dx%dx%d", g.ncol, g.nrow, g.nlay)
	return nil
}

func (g *Grid) croppedCells(src []int, i0, i1, j0, j1, k0, k1 int) []int {
	nc := i1 - i0 + 1
	out := make([]int, 0, nc*(j1-j0+1)*(k1-k0+1))
	for k := k0; k <= k1; k++ {
		for j := j0; j <= j1; j++ {
			s := g.native(i0, j, k)
			out = append(out, src[s:s+nc]...)
		}
	}
	return out
}

// ReduceToOneLayer collapses every column to a single layer spanning the
// top of the first layer to the base of the last. A column stays active if
// any of its cells was. Subgrids are dropped and attached properties
// detached.
func (g *Grid) ReduceToOneLayer() {
	g.detachProps("reduce to one layer")

	actnum := make([]int, g.ncol*g.nrow)
	var dual []int
	if g.dual != nil {
		dual = make([]int, g.ncol*g.nrow)
	}
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			n := j*g.ncol + i
			for k := 0; k < g.nlay; k++ {
				src := g.native(i, j, k)
				actnum[n] = max(actnum[n], g.actnum[src])
				if dual != nil {
					dual[n] |= g.dual[src]
				}
			}
		}
	}
	last := g.nlay
	g.rebuildLevels(1, func(_, _, _ int, z []float64) []float64 {
		return []float64{z[0], z[last]}
	})
	g.actnum, g.dual = actnum, dual
	g.subgrids, g.subgridsFromZones = nil, false
	g.invalidate()
}
