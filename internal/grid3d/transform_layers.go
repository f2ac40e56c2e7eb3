package grid3d

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Refinement selects vertical refinement factors. PerSubgrid, when set,
// maps subgrid names to factors; subgrids not named keep factor 1.
// Otherwise Factor applies to every layer. Zone, when set, redefines the
// subgrids from a zone property before refining.
type Refinement struct {
	Factor     int
	PerSubgrid map[string]int
	Zone       CellValues
}

// RefineVertically splits every layer into factor sublayers with linearly
// interpolated corner depths. Activity is replicated, subgrid ranges are
// expanded, and attached properties are detached.
func (g *Grid) RefineVertically(r Refinement) error {
	var zoneSubs []Subgrid
	if r.Zone != nil {
		layers, zones, err := g.zoneLog(r.Zone)
		if err != nil {
			return err
		}
		// Derive on a scratch copy so a failure leaves g untouched.
		scratch := &Grid{nlay: g.nlay, log: g.log}
		if err := scratch.SubgridsFromZoneLog(layers, zones); err != nil {
			return err
		}
		zoneSubs = scratch.subgrids
	}

	subs := g.subgrids
	if zoneSubs != nil {
		subs = zoneSubs
	}
	var factors []int
	if r.PerSubgrid != nil {
		if len(subs) == 0 {
			return validationf("refinement by subgrid on a grid without subgrids")
		}
		known := make(map[string]bool, len(subs))
		for _, s := range subs {
			known[s.Name] = true
		}
		for name, f := range r.PerSubgrid {
			if !known[name] {
				return validationf("refinement names unknown subgrid %q", name)
			}
			if f < 1 {
				return validationf("refinement factor for %q must be at least 1, got %d", name, f)
			}
		}
		tmp := &Grid{nlay: g.nlay, subgrids: subs}
		factors = tmp.layerFactors(r.PerSubgrid)
	} else {
		if r.Factor < 1 {
			return validationf("refinement factor must be at least 1, got %d", r.Factor)
		}
		factors = make([]int, g.nlay)
		for k := range factors {
			factors[k] = r.Factor
		}
	}

	if zoneSubs != nil {
		if g.subgrids != nil && !slices.EqualFunc(g.subgrids, zoneSubs, func(a, b Subgrid) bool {
			return a.Name == b.Name && slices.Equal(a.Layers, b.Layers)
		}) {
			g.log.Opsf("refine: subgrids %v replaced by zone property subgrids %v", g.SubgridCounts(), countsOf(zoneSubs))
		}
		g.subgrids, g.subgridsFromZones = zoneSubs, true
	}

	// first[k] is the 0-based new layer where old layer k starts.
	first := make([]int, g.nlay+1)
	for k, f := range factors {
		first[k+1] = first[k] + f
	}
	newNLay := first[g.nlay]

	g.detachProps("refine vertically")
	actnum := g.replicateLayers(g.actnum, factors, newNLay)
	var dual []int
	if g.dual != nil {
		dual = g.replicateLayers(g.dual, factors, newNLay)
	}
	span := make([]float64, 0, 16)
	g.rebuildLevels(newNLay, func(_, _, _ int, z []float64) []float64 {
		out := make([]float64, 0, newNLay+1)
		for k, f := range factors {
			if f == 1 {
				out = append(out, z[k])
				continue
			}
			if cap(span) < f+1 {
				span = make([]float64, 0, f+1)
			}
			span = span[:f+1]
			floats.Span(span, z[k], z[k+1])
			out = append(out, span[:f]...)
		}
		return append(out, z[len(z)-1])
	})
	g.actnum, g.dual = actnum, dual
	g.remapSubgrids(func(old int) []int {
		out := make([]int, 0, factors[old-1])
		for l := first[old-1]; l < first[old]; l++ {
			out = append(out, l+1)
		}
		return out
	})
	g.invalidate()
	g.log.Diagf("refined to %d layers", newNLay)
	return nil
}

func countsOf(subs []Subgrid) []SubgridCount {
	out := make([]SubgridCount, len(subs))
	for n, s := range subs {
		out[n] = SubgridCount{Name: s.Name, Count: len(s.Layers)}
	}
	return out
}

// replicateLayers copies an F-order cell array, repeating old layer k
// factors[k] times.
func (g *Grid) replicateLayers(src, factors []int, newNLay int) []int {
	layer := g.ncol * g.nrow
	out := make([]int, 0, layer*newNLay)
	for k, f := range factors {
		for n := 0; n < f; n++ {
			out = append(out, src[k*layer:(k+1)*layer]...)
		}
	}
	return out
}

// HybridSpec configures ConvertToHybrid. Columns are hybridised everywhere
// unless Region is set, in which case only columns holding a cell whose
// region value equals RegionNumber are.
type HybridSpec struct {
	NHDiv        int
	TopLevel     float64
	BottomLevel  float64
	Region       CellValues
	RegionNumber int
}

// ConvertToHybrid inserts NHDiv horizontal layers between TopLevel and
// BottomLevel. Each hybridised column becomes an upper section with the
// original layering clipped above TopLevel, the horizontal section, and a
// lower section with the original layering clipped below BottomLevel, for
// 2*nlay+NHDiv layers in total. Other columns keep their layering and get
// collapsed, inactive filler layers at their base. Subgrids are dropped and
// attached properties detached.
func (g *Grid) ConvertToHybrid(spec HybridSpec) error {
	if spec.NHDiv < 1 {
		return validationf("hybrid needs at least one horizontal division, got %d", spec.NHDiv)
	}
	if spec.TopLevel >= spec.BottomLevel {
		return validationf("hybrid top level %g must be above bottom level %g", spec.TopLevel, spec.BottomLevel)
	}
	hybrid := make([]bool, g.ncol*g.nrow)
	if spec.Region != nil {
		if err := g.checkDims(spec.Region); err != nil {
			return err
		}
		for j := 0; j < g.nrow; j++ {
			for i := 0; i < g.ncol; i++ {
				for k := 0; k < g.nlay; k++ {
					if v, ok := spec.Region.ValueAt(i, j, k); ok && int(math.Round(v)) == spec.RegionNumber {
						hybrid[j*g.ncol+i] = true
						break
					}
				}
			}
		}
	} else {
		for n := range hybrid {
			hybrid[n] = true
		}
	}

	nlay := g.nlay
	nhdiv := spec.NHDiv
	newNLay := 2*nlay + nhdiv
	top, bot := spec.TopLevel, spec.BottomLevel

	g.detachProps("convert to hybrid")
	layer := g.ncol * g.nrow
	actnum := make([]int, layer*newNLay)
	var dual []int
	if g.dual != nil {
		dual = make([]int, layer*newNLay)
	}
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			col := j*g.ncol + i
			var anyActive, anyDual int
			for k := 0; k < nlay; k++ {
				n := g.native(i, j, k)
				anyActive = max(anyActive, g.actnum[n])
				if dual != nil {
					anyDual |= g.dual[n]
				}
			}
			for k := 0; k < nlay; k++ {
				n := g.native(i, j, k)
				actnum[k*layer+col] = g.actnum[n]
				if dual != nil {
					dual[k*layer+col] = g.dual[n]
				}
				if hybrid[col] {
					lower := (nlay + nhdiv + k) * layer
					actnum[lower+col] = g.actnum[n]
					if dual != nil {
						dual[lower+col] = g.dual[n]
					}
				}
			}
			if hybrid[col] {
				for m := 0; m < nhdiv; m++ {
					actnum[(nlay+m)*layer+col] = anyActive
					if dual != nil {
						dual[(nlay+m)*layer+col] = anyDual
					}
				}
			}
		}
	}

	horiz := make([]float64, nhdiv+1)
	floats.Span(horiz, top, bot)
	g.rebuildLevels(newNLay, func(i, j, _ int, z []float64) []float64 {
		out := make([]float64, newNLay+1)
		if !hybrid[j*g.ncol+i] {
			copy(out, z)
			for l := nlay + 1; l <= newNLay; l++ {
				out[l] = z[nlay]
			}
			return out
		}
		for k := 0; k < nlay; k++ {
			out[k] = math.Min(z[k], top)
		}
		copy(out[nlay:], horiz)
		for k := 1; k <= nlay; k++ {
			out[nlay+nhdiv+k] = math.Max(z[k], bot)
		}
		return out
	})
	g.actnum, g.dual = actnum, dual
	g.subgrids, g.subgridsFromZones = nil, false
	g.invalidate()
	g.log.Diagf("hybrid grid with %d layers, %d horizontal between %g and %g", newNLay, nhdiv, top, bot)
	return nil
}

// CollapseInactiveCells gives inactive cells zero thickness without moving
// active cell boundaries. Leading and trailing inactive runs collapse onto
// the nearest active boundary; inside an interior run every cell but the
// last collapses onto the top of the run and the last spans the gap.
// Neighbouring cells share their boundary level, so the last cell cannot
// be thinned without moving the top of the active cell below it; an
// interior run therefore keeps one inactive cell of nonzero thickness.
// Columns without active cells are left alone.
func (g *Grid) CollapseInactiveCells() {
	active := make([]bool, g.nlay)
	buf := make([]float64, 0, g.nlay+1)
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			firstActive, lastActive := -1, -1
			for k := 0; k < g.nlay; k++ {
				active[k] = g.active0(i, j, k)
				if active[k] {
					if firstActive < 0 {
						firstActive = k
					}
					lastActive = k
				}
			}
			if firstActive < 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				z := g.columnLevels(i, j, c, buf)
				for l := 0; l < firstActive; l++ {
					z[l] = z[firstActive]
				}
				for l := lastActive + 2; l <= g.nlay; l++ {
					z[l] = z[lastActive+1]
				}
				for k := firstActive + 1; k < lastActive; {
					if active[k] {
						k++
						continue
					}
					end := k
					for !active[end+1] {
						end++
					}
					for l := k + 1; l <= end; l++ {
						z[l] = z[k]
					}
					k = end + 1
				}
				g.setColumnLevels(i, j, c, z)
			}
		}
	}
	g.invalidate()
}

// MakeZConsistent walks each corner's depth sequence downward and pushes
// any level closer than zsep below its predecessor down to exactly zsep
// below it.
func (g *Grid) MakeZConsistent(zsep float64) error {
	if zsep < 0 || math.IsNaN(zsep) {
		return validationf("zsep must be non-negative, got %g", zsep)
	}
	var moved int
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			for c := 0; c < 4; c++ {
				for l := 1; l <= g.nlay; l++ {
					prev := g.zcorn[g.zOffset(i, j, l-1)+c]
					o := g.zOffset(i, j, l) + c
					if g.zcorn[o] < prev+zsep {
						g.zcorn[o] = prev + zsep
						moved++
					}
				}
			}
		}
	}
	g.invalidate()
	if moved > 0 {
		g.log.Diagf("z consistency moved %d corner depths", moved)
	}
	return nil
}

// EstimatedDesign describes the layering style of a subgrid.
type EstimatedDesign struct {
	// Design is "P" proportional, "T" top conform, "B" base conform or "X"
	// when none fits.
	Design   string
	DZSimbox float64
}

// EstimateDesign classifies the layering of the named subgrid, or the
// whole grid when name is empty. Proportional layering keeps each layer's
// share of the zone thickness equal in every column; top (base) conform
// layering keeps every layer but the last (first) at constant thickness.
func (g *Grid) EstimateDesign(name string) (EstimatedDesign, error) {
	layers := make([]int, g.nlay)
	for k := range layers {
		layers[k] = k
	}
	if name != "" {
		found := false
		for _, s := range g.subgrids {
			if s.Name == name {
				layers = layers[:0]
				for _, l := range s.Layers {
					layers = append(layers, l-1)
				}
				found = true
				break
			}
		}
		if !found {
			return EstimatedDesign{}, validationf("no subgrid named %q", name)
		}
	}
	sort.Ints(layers)

	n := len(layers)
	var ref, refShare []float64
	proportional, topConform, baseConform := true, true, true
	var sum float64
	var count int
	th := make([]float64, n)
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			var total float64
			for m, k := range layers {
				th[m] = g.cellHeight(i, j, k, false)
				total += th[m]
			}
			if total == 0 {
				continue
			}
			sum += total / float64(n)
			count++
			if ref == nil {
				ref = append([]float64(nil), th...)
				refShare = make([]float64, n)
				for m := range th {
					refShare[m] = th[m] / total
				}
				continue
			}
			tol := 1e-4 * math.Max(1, total)
			for m := range th {
				if math.Abs(th[m]/total-refShare[m]) > 1e-4 {
					proportional = false
				}
				if m < n-1 && math.Abs(th[m]-ref[m]) > tol {
					topConform = false
				}
				if m > 0 && math.Abs(th[m]-ref[m]) > tol {
					baseConform = false
				}
			}
		}
	}
	if count == 0 {
		return EstimatedDesign{Design: "X"}, nil
	}
	d := EstimatedDesign{DZSimbox: sum / float64(count)}
	switch {
	case proportional:
		d.Design = "P"
	case topConform:
		d.Design = "T"
	case baseConform:
		d.Design = "B"
	default:
		d.Design = "X"
	}
	return d, nil
}
