package grid3d

// ReverseRowAxis mirrors the J ordering of every store and attached
// property. When target is Left or Right and the grid already has that
// handedness, nothing happens. Applying it twice restores the stores
// exactly. If an attached property cannot follow, a PropertyMismatchError
// is returned and neither the grid nor any property is modified.
func (g *Grid) ReverseRowAxis(target Handedness) error {
	if target != Undetermined && g.Handedness() == target {
		g.log.Diagf("reverse row axis: already %s, nothing to do", target)
		return nil
	}
	commits, err := g.stageProps("reverse row axis", func(p AttachedProperty) (func(), error) {
		return p.StageReverseRows()
	})
	if err != nil {
		return err
	}

	g.coord = g.reversedCoord()
	g.zcorn = g.reversedZCorn()
	g.actnum = g.reversedCells(g.actnum)
	if g.dual != nil {
		g.dual = g.reversedCells(g.dual)
	}
	g.invalidate()
	for _, c := range commits {
		c()
	}
	return nil
}

// reversedCells mirrors an F-order cell array along J.
func (g *Grid) reversedCells(src []int) []int {
	out := make([]int, len(src))
	for k := 0; k < g.nlay; k++ {
		for j := 0; j < g.nrow; j++ {
			s := g.native(0, g.nrow-1-j, k)
			d := g.native(0, j, k)
			copy(out[d:d+g.ncol], src[s:s+g.ncol])
		}
	}
	return out
}

// TranslateCoordinates flips each axis by the matching entry of flip (1 or
// -1) and then adds shift, for every pillar point and corner depth.
// Flipping is a coordinate mirror, not a reordering of cells.
func (g *Grid) TranslateCoordinates(shift [3]float64, flip [3]int) error {
	for n, f := range flip {
		if f != 1 && f != -1 {
			return validationf("flip[%d] must be 1 or -1, got %d", n, f)
		}
	}
	for p := 0; p < len(g.coord); p += 3 {
		for a := 0; a < 3; a++ {
			g.coord[p+a] = g.coord[p+a]*float64(flip[a]) + shift[a]
		}
	}
	for n := range g.zcorn {
		g.zcorn[n] = g.zcorn[n]*float64(flip[2]) + shift[2]
	}
	g.invalidate()
	return nil
}
