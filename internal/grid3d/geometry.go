package grid3d

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cornergrid/internal/geom"
)

// Handedness is the orientation of the I, J, K axes.
type Handedness int

const (
	Undetermined Handedness = iota
	// Left: J is anticlockwise from I seen from above, with K pointing down.
	Left
	Right
)

func (h Handedness) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "undetermined"
	}
}

// cellHex returns the corners of the 0-based cell (i, j, k).
func (g *Grid) cellHex(i, j, k int) geom.Hexahedron {
	var h geom.Hexahedron
	top := g.zOffset(i, j, k)
	bot := g.zOffset(i, j, k+1)
	for c := 0; c < 8; c++ {
		q := c & 3
		z := g.zcorn[bot+q]
		if c&4 != 0 {
			z = g.zcorn[top+q]
		}
		h[c] = g.pointOnPillar(i+(q&1), j+(q>>1), z)
	}
	return h
}

// CellCorners returns the eight corners of cell (i, j, k) ordered base-SW,
// base-SE, base-NW, base-NE, top-SW, top-SE, top-NW, top-NE.
func (g *Grid) CellCorners(i, j, k int, zeroBased bool) ([8]r3.Vec, error) {
	i, j, k, err := g.checkCell(i, j, k, zeroBased)
	if err != nil {
		return [8]r3.Vec{}, err
	}
	return g.cellHex(i, j, k), nil
}

// CellCenter returns the mean of the corners of the 1-based cell (i, j, k).
func (g *Grid) CellCenter(i, j, k int) (r3.Vec, error) {
	i, j, k, err := g.checkCell(i, j, k, false)
	if err != nil {
		return r3.Vec{}, err
	}
	return g.cellHex(i, j, k).Center(), nil
}

// CellHeight returns the mean vertical distance between the top and base
// corner quartets of the 1-based cell. The result is non-negative unless
// noFlip is set, in which case the signed base minus top mean is returned.
func (g *Grid) CellHeight(i, j, k int, noFlip bool) (float64, error) {
	i, j, k, err := g.checkCell(i, j, k, false)
	if err != nil {
		return 0, err
	}
	return g.cellHeight(i, j, k, noFlip), nil
}

func (g *Grid) cellHeight(i, j, k int, noFlip bool) float64 {
	top, bot := g.quartet(i, j, k), g.quartet(i, j, k+1)
	var s float64
	for c := 0; c < 4; c++ {
		s += bot[c] - top[c]
	}
	s /= 4
	if noFlip {
		return s
	}
	return math.Abs(s)
}

// Edge pairs along I and J, projected to a constant-depth plane.
var (
	edgesI = [4][2]int{{geom.BaseSW, geom.BaseSE}, {geom.BaseNW, geom.BaseNE}, {geom.TopSW, geom.TopSE}, {geom.TopNW, geom.TopNE}}
	edgesJ = [4][2]int{{geom.BaseSW, geom.BaseNW}, {geom.BaseSE, geom.BaseNE}, {geom.TopSW, geom.TopNW}, {geom.TopSE, geom.TopNE}}
)

func meanXYLength(h geom.Hexahedron, edges [4][2]int) float64 {
	var s float64
	for _, e := range edges {
		a, b := h[e[0]], h[e[1]]
		s += r2.Norm(r2.Vec{X: b.X - a.X, Y: b.Y - a.Y})
	}
	return s / 4
}

// CellDX returns the mean horizontal length of the I-direction edges of the
// 1-based cell.
func (g *Grid) CellDX(i, j, k int) (float64, error) {
	i, j, k, err := g.checkCell(i, j, k, false)
	if err != nil {
		return 0, err
	}
	return meanXYLength(g.cellHex(i, j, k), edgesI), nil
}

// CellDY returns the mean horizontal length of the J-direction edges.
func (g *Grid) CellDY(i, j, k int) (float64, error) {
	i, j, k, err := g.checkCell(i, j, k, false)
	if err != nil {
		return 0, err
	}
	return meanXYLength(g.cellHex(i, j, k), edgesJ), nil
}

// cellRotation is the angle in radians of the cell's I direction against
// the X axis, from the mean of its top I edges.
func cellRotation(h geom.Hexahedron) float64 {
	v := r2.Vec{
		X: (h[geom.TopSE].X - h[geom.TopSW].X) + (h[geom.TopNE].X - h[geom.TopNW].X),
		Y: (h[geom.TopSE].Y - h[geom.TopSW].Y) + (h[geom.TopNE].Y - h[geom.TopNW].Y),
	}
	return math.Atan2(v.Y, v.X)
}

// Handedness returns the axis orientation, aggregated over every column
// from pillar geometry alone. The result is cached until the next
// transform.
func (g *Grid) Handedness() Handedness {
	return cached(g.cache, cacheHandedness, g.estimateHandedness)
}

func (g *Grid) estimateHandedness() Handedness {
	var votes int
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			o, ob := g.pillarEnds(i, j)
			e, _ := g.pillarEnds(i+1, j)
			n, _ := g.pillarEnds(i, j+1)
			cross := r2.Cross(r2.Vec{X: e.X - o.X, Y: e.Y - o.Y}, r2.Vec{X: n.X - o.X, Y: n.Y - o.Y})
			if cross == 0 {
				continue
			}
			down := g.columnDepthSign(i, j)
			if down == 0 {
				down = math.Copysign(1, ob.Z-o.Z)
				if ob.Z == o.Z {
					down = 1
				}
			}
			if cross*down > 0 {
				votes++
			} else {
				votes--
			}
		}
	}
	switch {
	case votes > 0:
		return Left
	case votes < 0:
		return Right
	default:
		return Undetermined
	}
}

// columnDepthSign is the sign of the total column thickness, zero when the
// column is fully collapsed.
func (g *Grid) columnDepthSign(i, j int) float64 {
	top, bot := g.quartet(i, j, 0), g.quartet(i, j, g.nlay)
	var s float64
	for c := 0; c < 4; c++ {
		s += bot[c] - top[c]
	}
	switch {
	case s > 0:
		return 1
	case s < 0:
		return -1
	}
	return 0
}

// Geometrics summarises grid geometry.
type Geometrics struct {
	// Origin is the centre of cell (1,1,1), or its top south-west corner
	// when corners were requested.
	Origin     r3.Vec
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	// AvgRotation is in degrees in [0, 360), anticlockwise from X.
	AvgRotation float64
	AvgDX       float64
	AvgDY       float64
	AvgDZ       float64
	// Regular is true when every cell shares one dx, dy and dz and has zero
	// rotation within tolerance, and no cell is degenerate.
	Regular    bool
	Degenerate int
	NCells     int
}

type layerStats struct {
	n, degenerate          int
	sumDX, sumDY, sumDZ    float64
	minDX, maxDX           float64
	minDY, maxDY           float64
	minDZ, maxDZ           float64
	maxRot                 float64
	xmin, xmax, ymin, ymax float64
	zmin, zmax             float64
	angles                 []float64
}

func newLayerStats() *layerStats {
	inf := math.Inf(1)
	return &layerStats{
		minDX: inf, maxDX: -inf, minDY: inf, maxDY: -inf, minDZ: inf, maxDZ: -inf,
		xmin: inf, xmax: -inf, ymin: inf, ymax: -inf, zmin: inf, zmax: -inf,
	}
}

func (s *layerStats) extend(p r3.Vec) {
	s.xmin, s.xmax = math.Min(s.xmin, p.X), math.Max(s.xmax, p.X)
	s.ymin, s.ymax = math.Min(s.ymin, p.Y), math.Max(s.ymax, p.Y)
	s.zmin, s.zmax = math.Min(s.zmin, p.Z), math.Max(s.zmax, p.Z)
}

func (s *layerStats) merge(o *layerStats) {
	s.n += o.n
	s.degenerate += o.degenerate
	s.sumDX += o.sumDX
	s.sumDY += o.sumDY
	s.sumDZ += o.sumDZ
	s.minDX, s.maxDX = math.Min(s.minDX, o.minDX), math.Max(s.maxDX, o.maxDX)
	s.minDY, s.maxDY = math.Min(s.minDY, o.minDY), math.Max(s.maxDY, o.maxDY)
	s.minDZ, s.maxDZ = math.Min(s.minDZ, o.minDZ), math.Max(s.maxDZ, o.maxDZ)
	s.maxRot = math.Max(s.maxRot, o.maxRot)
	s.xmin, s.xmax = math.Min(s.xmin, o.xmin), math.Max(s.xmax, o.xmax)
	s.ymin, s.ymax = math.Min(s.ymin, o.ymin), math.Max(s.ymax, o.ymax)
	s.zmin, s.zmax = math.Min(s.zmin, o.zmin), math.Max(s.zmax, o.zmax)
	s.angles = append(s.angles, o.angles...)
}

// Geometrics derives the summary over active cells, or all cells with
// allCells set. The bounding box spans cell centres when cellCenter is set
// and cell corners otherwise. Layers are processed in parallel and reduced
// in layer order, so the result equals a sequential pass.
func (g *Grid) Geometrics(allCells, cellCenter bool) (Geometrics, error) {
	key := fmt.Sprintf("%s/%t/%t", cacheGeometrics, allCells, cellCenter)
	if v, ok := g.cache.get(key); ok {
		return v.(Geometrics), nil
	}

	stats := make([]*layerStats, g.nlay)
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for k := 0; k < g.nlay; k++ {
		eg.Go(func() error {
			stats[k] = g.layerGeometrics(k, allCells, cellCenter)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Geometrics{}, err
	}
	total := newLayerStats()
	for _, s := range stats {
		total.merge(s)
	}

	out := Geometrics{NCells: total.n, Degenerate: total.degenerate}
	first := g.cellHex(0, 0, 0)
	if cellCenter {
		out.Origin = first.Center()
	} else {
		out.Origin = first[geom.TopSW]
	}
	if total.n == 0 {
		nan := math.NaN()
		out.XMin, out.XMax, out.YMin, out.YMax, out.ZMin, out.ZMax = nan, nan, nan, nan, nan, nan
		out.AvgDX, out.AvgDY, out.AvgDZ, out.AvgRotation = nan, nan, nan, nan
		return out, nil
	}
	n := float64(total.n)
	out.XMin, out.XMax = total.xmin, total.xmax
	out.YMin, out.YMax = total.ymin, total.ymax
	out.ZMin, out.ZMax = total.zmin, total.zmax
	out.AvgDX, out.AvgDY, out.AvgDZ = total.sumDX/n, total.sumDY/n, total.sumDZ/n

	rot := stat.CircularMean(total.angles, nil) * 180 / math.Pi
	if rot < 0 {
		rot += 360
	}
	if math.Abs(rot) < g.tolerance || math.Abs(rot-360) < g.tolerance {
		rot = 0
	}
	out.AvgRotation = rot

	tol := g.tolerance
	same := func(lo, hi float64) bool { return hi-lo <= tol*math.Max(1, math.Abs(hi)) }
	out.Regular = total.degenerate == 0 &&
		same(total.minDX, total.maxDX) &&
		same(total.minDY, total.maxDY) &&
		same(total.minDZ, total.maxDZ) &&
		total.maxRot <= tol
	g.cache.put(key, out)
	return out, nil
}

func (g *Grid) layerGeometrics(k int, allCells, cellCenter bool) *layerStats {
	s := newLayerStats()
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			if !allCells && !g.active0(i, j, k) {
				continue
			}
			h := g.cellHex(i, j, k)
			s.n++
			if h.IsDegenerate() {
				s.degenerate++
			}
			dx, dy, dz := meanXYLength(h, edgesI), meanXYLength(h, edgesJ), g.cellHeight(i, j, k, false)
			s.sumDX += dx
			s.sumDY += dy
			s.sumDZ += dz
			s.minDX, s.maxDX = math.Min(s.minDX, dx), math.Max(s.maxDX, dx)
			s.minDY, s.maxDY = math.Min(s.minDY, dy), math.Max(s.maxDY, dy)
			s.minDZ, s.maxDZ = math.Min(s.minDZ, dz), math.Max(s.maxDZ, dz)
			a := cellRotation(h)
			s.angles = append(s.angles, a)
			s.maxRot = math.Max(s.maxRot, math.Abs(a))
			if cellCenter {
				s.extend(h.Center())
			} else {
				for _, p := range h {
					s.extend(p)
				}
			}
		}
	}
	return s
}

// zRange returns the minimum and maximum corner depth.
func (g *Grid) zRange() (float64, float64) {
	return floats.Min(g.zcorn), floats.Max(g.zcorn)
}
