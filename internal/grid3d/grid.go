package grid3d

import (
	"fmt"
	"strings"

	"github.com/banshee-data/cornergrid/internal/monitoring"
)

// DefaultRegularityTolerance is the relative tolerance used by Geometrics
// when deciding whether all cells share one size and zero rotation.
const DefaultRegularityTolerance = 1e-6

// Grid is a corner-point grid. Its stores are exclusively owned; attached
// properties are referenced.
type Grid struct {
	name   string
	source string

	ncol, nrow, nlay int

	coord []float64 // pillars, J-major, 6 floats each
	zcorn []float64 // per column and level, 4 corner depths
	// actnum is the authoritative 0/1 mask in F order. dual holds the 0..3
	// codes when dual porosity is in effect and is nil otherwise.
	actnum []int
	dual   []int

	dualPorosity     bool
	dualPermeability bool

	subgrids []Subgrid
	props    []AttachedProperty
	// subgridsFromZones marks subgrids derived from a zone log, which may
	// leave layers uncovered or overlap.
	subgridsFromZones bool

	tolerance float64
	log       monitoring.Sink
	cache     *derivedCache
}

// Option configures a Grid at construction.
type Option func(*Grid)

// WithSink routes grid diagnostics to s.
func WithSink(s monitoring.Sink) Option {
	return func(g *Grid) { g.log = monitoring.OrDiscard(s) }
}

// WithName sets the grid name.
func WithName(name string) Option {
	return func(g *Grid) { g.name = name }
}

// WithRegularityTolerance sets the tolerance used by Geometrics.
func WithRegularityTolerance(tol float64) Option {
	return func(g *Grid) {
		if tol > 0 {
			g.tolerance = tol
		}
	}
}

// ImportData is what an import adapter hands the engine, and what Snapshot
// hands back to an export adapter. Actnum is in F order and already uses
// the 0..3 dual convention when DualPorosity is set.
type ImportData struct {
	Name     string    `json:"name,omitempty"`
	NCol     int       `json:"ncol"`
	NRow     int       `json:"nrow"`
	NLay     int       `json:"nlay"`
	Coord    []float64 `json:"coord"`
	ZCorn    []float64 `json:"zcorn"`
	Actnum   []int     `json:"actnum,omitempty"`
	Subgrids []Subgrid `json:"subgrids,omitempty"`

	// SubgridsFromZones marks zone log subgrids, which may leave layers
	// uncovered or share them between zones.
	SubgridsFromZones bool   `json:"subgrids_from_zones,omitempty"`
	DualPorosity      bool   `json:"dual_porosity,omitempty"`
	DualPermeability  bool   `json:"dual_permeability,omitempty"`
	Source            string `json:"source,omitempty"`
}

func newGrid(opts []Option) *Grid {
	g := &Grid{
		tolerance: DefaultRegularityTolerance,
		log:       monitoring.Discard,
		cache:     newDerivedCache(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// FromImport validates d and builds a grid from copies of its arrays. A nil
// Actnum means every cell is active.
func FromImport(d ImportData, opts ...Option) (*Grid, error) {
	if d.NCol < 1 || d.NRow < 1 || d.NLay < 1 {
		return nil, validationf("dimensions must be positive, got (%d, %d, %d)", d.NCol, d.NRow, d.NLay)
	}
	ncoord := (d.NCol + 1) * (d.NRow + 1) * 6
	if len(d.Coord) != ncoord {
		return nil, validationf("coord has %d values, want %d", len(d.Coord), ncoord)
	}
	nzcorn := d.NCol * d.NRow * (d.NLay + 1) * 4
	if len(d.ZCorn) != nzcorn {
		return nil, validationf("zcorn has %d values, want %d", len(d.ZCorn), nzcorn)
	}
	ntotal := d.NCol * d.NRow * d.NLay
	act := d.Actnum
	if act == nil {
		act = make([]int, ntotal)
		for i := range act {
			act[i] = 1
		}
	}
	actnum, dual, err := splitActnum(act, ntotal, d.DualPorosity)
	if err != nil {
		return nil, err
	}

	g := newGrid(opts)
	if g.name == "" {
		g.name = d.Name
	}
	g.source = d.Source
	g.ncol, g.nrow, g.nlay = d.NCol, d.NRow, d.NLay
	g.coord = append([]float64(nil), d.Coord...)
	g.zcorn = append([]float64(nil), d.ZCorn...)
	g.actnum = actnum
	g.dual = dual
	g.dualPorosity = d.DualPorosity
	g.dualPermeability = d.DualPermeability
	if d.Subgrids != nil {
		set := g.SetSubgrids
		if d.SubgridsFromZones {
			set = g.setZoneSubgrids
		}
		if err := set(d.Subgrids); err != nil {
			return nil, err
		}
	}
	g.log.Diagf("grid %q imported from %q: %dx%dx%d, %d active", g.name, g.source, g.ncol, g.nrow, g.nlay, g.NActive())
	return g, nil
}

// Snapshot returns copies of the grid stores for export adapters.
func (g *Grid) Snapshot() ImportData {
	act := g.actnum
	if g.dual != nil {
		act = g.dual
	}
	return ImportData{
		Name:              g.name,
		NCol:              g.ncol,
		NRow:              g.nrow,
		NLay:              g.nlay,
		Coord:             append([]float64(nil), g.coord...),
		ZCorn:             append([]float64(nil), g.zcorn...),
		Actnum:            append([]int(nil), act...),
		Subgrids:          g.Subgrids(),
		SubgridsFromZones: g.SubgridsFromZones(),
		DualPorosity:      g.dualPorosity,
		DualPermeability:  g.dualPermeability,
		Source:            g.source,
	}
}

// Copy returns a deep copy of the grid. Attached properties are not carried
// over since they are referenced, not owned.
func (g *Grid) Copy() *Grid {
	c := newGrid(nil)
	c.name = g.name
	c.source = g.source
	c.ncol, c.nrow, c.nlay = g.ncol, g.nrow, g.nlay
	c.coord = append([]float64(nil), g.coord...)
	c.zcorn = append([]float64(nil), g.zcorn...)
	c.actnum = append([]int(nil), g.actnum...)
	if g.dual != nil {
		c.dual = append([]int(nil), g.dual...)
	}
	c.dualPorosity = g.dualPorosity
	c.dualPermeability = g.dualPermeability
	c.subgrids = g.Subgrids()
	c.subgridsFromZones = g.subgridsFromZones
	c.tolerance = g.tolerance
	c.log = g.log
	return c
}

func (g *Grid) Name() string { return g.name }

func (g *Grid) SetName(name string) { g.name = name }

// Source is the free-text origin tag supplied by the import adapter.
func (g *Grid) Source() string { return g.source }

// Dimensions returns (ncol, nrow, nlay).
func (g *Grid) Dimensions() (ncol, nrow, nlay int) { return g.ncol, g.nrow, g.nlay }

// NTotal returns the number of cells.
func (g *Grid) NTotal() int { return g.ncol * g.nrow * g.nlay }

// VectorDimensions returns the lengths of the pillar, corner-depth and
// active-mask stores.
func (g *Grid) VectorDimensions() (ncoord, nzcorn, nactnum int) {
	return len(g.coord), len(g.zcorn), len(g.actnum)
}

func (g *Grid) DualPorosity() bool { return g.dualPorosity }

func (g *Grid) DualPermeability() bool { return g.dualPermeability }

// Describe returns a short human-readable summary.
func (g *Grid) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grid %q (source %q)\n", g.name, g.source)
	fmt.Fprintf(&b, "  dimensions: %d x %d x %d = %d cells, %d active\n", g.ncol, g.nrow, g.nlay, g.NTotal(), g.NActive())
	fmt.Fprintf(&b, "  handedness: %s\n", g.Handedness())
	if g.dualPorosity {
		fmt.Fprintf(&b, "  dual porosity (dual permeability %t)\n", g.dualPermeability)
	}
	for _, c := range g.SubgridCounts() {
		fmt.Fprintf(&b, "  subgrid %s: %d layers\n", c.Name, c.Count)
	}
	for _, name := range g.PropNames() {
		fmt.Fprintf(&b, "  property %s\n", name)
	}
	return b.String()
}

// invalidate drops every derived quantity. Called by all transforms.
func (g *Grid) invalidate() {
	g.cache.clear()
}

// checkCell validates a cell index and converts it to 0-based.
func (g *Grid) checkCell(i, j, k int, zeroBased bool) (int, int, int, error) {
	if !zeroBased {
		i, j, k = i-1, j-1, k-1
	}
	if i < 0 || i >= g.ncol || j < 0 || j >= g.nrow || k < 0 || k >= g.nlay {
		if zeroBased {
			return 0, 0, 0, indexf("cell (%d, %d, %d) outside [0,%d)x[0,%d)x[0,%d)", i, j, k, g.ncol, g.nrow, g.nlay)
		}
		return 0, 0, 0, indexf("cell (%d, %d, %d) outside [1,%d]x[1,%d]x[1,%d]", i+1, j+1, k+1, g.ncol, g.nrow, g.nlay)
	}
	return i, j, k, nil
}

// native returns the F-order index of 0-based cell (i, j, k).
func (g *Grid) native(i, j, k int) int { return (k*g.nrow+j)*g.ncol + i }

// corder returns the C-order index of 0-based cell (i, j, k).
func (g *Grid) corder(i, j, k int) int { return (i*g.nrow+j)*g.nlay + k }
