package grid3d

import (
	"fmt"
	"sort"

	"github.com/banshee-data/cornergrid/internal/gridprop"
)

// Subgrid is a named set of 1-based layers, normally a contiguous range.
type Subgrid struct {
	Name   string `json:"name"`
	Layers []int  `json:"layers"`
}

// SubgridCount is the simplified name to layer count view of a subgrid.
type SubgridCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HasSubgrids reports whether any zonation is defined.
func (g *Grid) HasSubgrids() bool { return len(g.subgrids) > 0 }

// SubgridsFromZones reports whether the subgrids were derived from a zone
// log and so need not partition the layers.
func (g *Grid) SubgridsFromZones() bool { return g.subgridsFromZones && g.subgrids != nil }

// Subgrids returns a copy of the subgrids in order, or nil.
func (g *Grid) Subgrids() []Subgrid {
	if g.subgrids == nil {
		return nil
	}
	out := make([]Subgrid, len(g.subgrids))
	for n, s := range g.subgrids {
		out[n] = Subgrid{Name: s.Name, Layers: append([]int(nil), s.Layers...)}
	}
	return out
}

// SubgridCounts returns the name to layer count view, or nil.
func (g *Grid) SubgridCounts() []SubgridCount {
	if g.subgrids == nil {
		return nil
	}
	out := make([]SubgridCount, len(g.subgrids))
	for n, s := range g.subgrids {
		out[n] = SubgridCount{Name: s.Name, Count: len(s.Layers)}
	}
	return out
}

// SubgridOfLayer returns the name of the first subgrid holding the 1-based
// layer k.
func (g *Grid) SubgridOfLayer(k int) (string, bool) {
	for _, s := range g.subgrids {
		for _, l := range s.Layers {
			if l == k {
				return s.Name, true
			}
		}
	}
	return "", false
}

// SetSubgridsFromCounts expands counts to contiguous ranges from layer 1.
// The counts must sum to nlay.
func (g *Grid) SetSubgridsFromCounts(counts []SubgridCount) error {
	if counts == nil {
		g.subgrids, g.subgridsFromZones = nil, false
		return nil
	}
	subs := make([]Subgrid, 0, len(counts))
	next := 1
	for _, c := range counts {
		if c.Count < 1 {
			return validationf("subgrid %q has non-positive count %d", c.Name, c.Count)
		}
		layers := make([]int, c.Count)
		for n := range layers {
			layers[n] = next + n
		}
		next += c.Count
		subs = append(subs, Subgrid{Name: c.Name, Layers: layers})
	}
	if next-1 != g.nlay {
		return validationf("subgrid counts sum to %d, grid has %d layers", next-1, g.nlay)
	}
	return g.SetSubgrids(subs)
}

// SetSubgrids replaces the zonation. Names must be unique and non-empty and
// the layers must cover 1..nlay exactly once. A nil slice removes the
// zonation.
func (g *Grid) SetSubgrids(subs []Subgrid) error {
	if subs == nil {
		g.subgrids, g.subgridsFromZones = nil, false
		return nil
	}
	if err := validateSubgrids(subs, g.nlay, true); err != nil {
		return err
	}
	g.subgrids, g.subgridsFromZones = copySubgrids(subs), false
	return nil
}

// setZoneSubgrids restores subgrids in the zone log form, where layers may
// be left out or shared between zones.
func (g *Grid) setZoneSubgrids(subs []Subgrid) error {
	if err := validateSubgrids(subs, g.nlay, false); err != nil {
		return err
	}
	g.subgrids, g.subgridsFromZones = copySubgrids(subs), true
	return nil
}

func copySubgrids(subs []Subgrid) []Subgrid {
	out := make([]Subgrid, len(subs))
	for n, s := range subs {
		out[n] = Subgrid{Name: s.Name, Layers: append([]int(nil), s.Layers...)}
	}
	return out
}

// validateSubgrids checks names and layer ranges. A partition must also
// cover every layer exactly once.
func validateSubgrids(subs []Subgrid, nlay int, partition bool) error {
	names := make(map[string]bool, len(subs))
	owner := make(map[int]string, nlay)
	for _, s := range subs {
		if s.Name == "" {
			return validationf("subgrid name must not be empty")
		}
		if names[s.Name] {
			return validationf("duplicate subgrid name %q", s.Name)
		}
		names[s.Name] = true
		if len(s.Layers) == 0 {
			return validationf("subgrid %q has no layers", s.Name)
		}
		for _, l := range s.Layers {
			if l < 1 || l > nlay {
				return validationf("subgrid %q layer %d outside 1..%d", s.Name, l, nlay)
			}
			if prev, ok := owner[l]; ok && (partition || prev == s.Name) {
				return validationf("layer %d is in both %q and %q", l, prev, s.Name)
			}
			owner[l] = s.Name
		}
	}
	if partition && len(owner) != nlay {
		return validationf("subgrids cover %d of %d layers", len(owner), nlay)
	}
	return nil
}

// SubgridsFromZoneLog derives the zonation from paired 1-based layer
// numbers and zone codes, typically one pair per active cell. Each zone
// spans its minimum to maximum observed layer and is named "zone<code>".
// Zones whose ranges overlap are kept as observed; the overlap is reported
// on the diag stream.
func (g *Grid) SubgridsFromZoneLog(layers, zones []int) error {
	if len(layers) != len(zones) {
		return validationf("got %d layers and %d zone codes", len(layers), len(zones))
	}
	if len(layers) == 0 {
		return validationf("zone log is empty")
	}
	type extent struct{ lo, hi int }
	ext := make(map[int]*extent)
	for n, k := range layers {
		if k < 1 || k > g.nlay {
			return validationf("layer %d outside 1..%d", k, g.nlay)
		}
		z := zones[n]
		if e, ok := ext[z]; ok {
			e.lo = min(e.lo, k)
			e.hi = max(e.hi, k)
		} else {
			ext[z] = &extent{lo: k, hi: k}
		}
	}
	codes := make([]int, 0, len(ext))
	for c := range ext {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	subs := make([]Subgrid, 0, len(codes))
	for n, c := range codes {
		e := ext[c]
		layers := make([]int, 0, e.hi-e.lo+1)
		for l := e.lo; l <= e.hi; l++ {
			layers = append(layers, l)
		}
		if n > 0 {
			if prev := ext[codes[n-1]]; prev.hi >= e.lo {
				g.log.Diagf("zone %d layers %d..%d overlap zone %d layers %d..%d", c, e.lo, e.hi, codes[n-1], prev.lo, prev.hi)
			}
		}
		subs = append(subs, Subgrid{Name: fmt.Sprintf("zone%d", c), Layers: layers})
	}
	g.subgrids, g.subgridsFromZones = subs, true
	return nil
}

// SubgridsFromZoneProperty derives the zonation from a zone property,
// sampling active cells only.
func (g *Grid) SubgridsFromZoneProperty(zone CellValues) error {
	layers, zones, err := g.zoneLog(zone)
	if err != nil {
		return err
	}
	return g.SubgridsFromZoneLog(layers, zones)
}

func (g *Grid) zoneLog(zone CellValues) (layers, zones []int, err error) {
	if err := g.checkDims(zone); err != nil {
		return nil, nil, err
	}
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				if !g.active0(i, j, k) {
					continue
				}
				v, ok := zone.ValueAt(i, j, k)
				if !ok {
					continue
				}
				layers = append(layers, k+1)
				zones = append(zones, int(v))
			}
		}
	}
	return layers, zones, nil
}

// ZonePropertyFromSubgrids returns a discrete property holding, for every
// cell, the 1-based ordinal of the subgrid its layer belongs to. The code
// table maps ordinals to subgrid names.
func (g *Grid) ZonePropertyFromSubgrids() (*gridprop.Property, error) {
	if len(g.subgrids) == 0 {
		return nil, validationf("grid has no subgrids")
	}
	layerZone := make([]int, g.nlay)
	codes := make(map[int]string, len(g.subgrids))
	for n, s := range g.subgrids {
		codes[n+1] = s.Name
		for _, l := range s.Layers {
			if layerZone[l-1] == 0 {
				layerZone[l-1] = n + 1
			}
		}
	}
	values := make([]int, g.NTotal())
	for i := 0; i < g.ncol; i++ {
		for j := 0; j < g.nrow; j++ {
			for k := 0; k < g.nlay; k++ {
				values[g.corder(i, j, k)] = layerZone[k]
			}
		}
	}
	return gridprop.NewDiscrete("ZONE", g.ncol, g.nrow, g.nlay, values, codes)
}

// layerFactors maps each 0-based layer to the factor of the first subgrid
// holding it; layers outside any subgrid get 1.
func (g *Grid) layerFactors(bySubgrid map[string]int) []int {
	f := make([]int, g.nlay)
	for k := range f {
		f[k] = 1
	}
	done := make([]bool, g.nlay)
	for _, s := range g.subgrids {
		fac, ok := bySubgrid[s.Name]
		if !ok {
			fac = 1
		}
		for _, l := range s.Layers {
			if !done[l-1] {
				f[l-1] = fac
				done[l-1] = true
			}
		}
	}
	return f
}

// remapSubgrids renumbers subgrid layers through newLayers, which maps an
// old 1-based layer to its new 1-based layers. Subgrids left empty are
// dropped.
func (g *Grid) remapSubgrids(newLayers func(old int) []int) {
	if g.subgrids == nil {
		return
	}
	out := make([]Subgrid, 0, len(g.subgrids))
	for _, s := range g.subgrids {
		var layers []int
		for _, l := range s.Layers {
			layers = append(layers, newLayers(l)...)
		}
		if len(layers) > 0 {
			out = append(out, Subgrid{Name: s.Name, Layers: layers})
		}
	}
	if len(out) == 0 {
		out, g.subgridsFromZones = nil, false
	}
	g.subgrids = out
}
