package grid3d

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/geom"
)

// Defaults for fence sampling.
const (
	DefaultFenceZIncrement = 1.0
	DefaultFenceAtLeast    = 5
	DefaultFenceNExtend    = 2
)

// FenceSpec describes a random line. Either Stations holds a ready sampled
// line with constant H spacing, or Polyline is resampled at HIncrement
// (derived from the grid when zero) with at least AtLeast stations and
// NExtend extra stations at each end. ZMin and ZMax default to the grid's
// depth range when equal.
type FenceSpec struct {
	Stations   []geom.FencePoint
	Polyline   []r3.Vec
	HIncrement float64
	AtLeast    int
	NExtend    int
	ZMin, ZMax float64
	ZIncrement float64
}

// Fence is a depth by length sample of a property. Values[row][col] holds
// depth row ZMin + row*ZIncrement at station col; NaN where no active cell
// or no defined value was found.
type Fence struct {
	HMin, HMax float64
	ZMin, ZMax float64
	ZIncrement float64
	Stations   []geom.FencePoint
	Values     [][]float64
}

// ResampleFence resamples a polyline at constant horizontal spacing. A
// non-positive hincrement is derived as half the smaller average cell size,
// shrunk if needed so the line gets at least atleast stations.
func (g *Grid) ResampleFence(polyline []r3.Vec, hincrement float64, atleast, nextend int) ([]geom.FencePoint, error) {
	if hincrement <= 0 {
		geo, err := g.Geometrics(true, true)
		if err != nil {
			return nil, err
		}
		hincrement = math.Min(geo.AvgDX, geo.AvgDY) / 2
		if !(hincrement > 0) {
			return nil, validationf("cannot derive a horizontal increment from grid geometry")
		}
		hl := geom.HorizontalLengths(polyline)
		if n := len(hl); n > 0 && atleast > 1 && hl[n-1]/hincrement < float64(atleast-1) {
			hincrement = hl[n-1] / float64(atleast-1)
		}
	}
	stations, err := geom.ResamplePolyline(polyline, hincrement, nextend)
	if err != nil {
		return nil, validationf("fence: %v", err)
	}
	return stations, nil
}

// RandomLine samples prop along a fence. Rows are sampled in parallel.
func (g *Grid) RandomLine(spec FenceSpec, prop CellValues) (Fence, error) {
	if err := g.checkDims(prop); err != nil {
		return Fence{}, err
	}
	stations := spec.Stations
	if stations == nil {
		atleast, nextend := spec.AtLeast, spec.NExtend
		if atleast == 0 {
			atleast = DefaultFenceAtLeast
		}
		var err error
		stations, err = g.ResampleFence(spec.Polyline, spec.HIncrement, atleast, nextend)
		if err != nil {
			return Fence{}, err
		}
	}
	if len(stations) < 2 {
		return Fence{}, validationf("fence needs at least 2 stations, got %d", len(stations))
	}
	zinc := spec.ZIncrement
	if zinc == 0 {
		zinc = DefaultFenceZIncrement
	}
	if zinc < 0 {
		return Fence{}, validationf("z increment must be positive, got %g", zinc)
	}
	zmin, zmax := spec.ZMin, spec.ZMax
	if zmin == zmax {
		zmin, zmax = g.zRange()
	}
	if zmin > zmax {
		return Fence{}, validationf("zmin %g exceeds zmax %g", zmin, zmax)
	}
	nz := int(math.Floor((zmax-zmin)/zinc+1e-9)) + 1

	f := Fence{
		HMin:       stations[0].H,
		HMax:       stations[len(stations)-1].H,
		ZMin:       zmin,
		ZMax:       zmin + float64(nz-1)*zinc,
		ZIncrement: zinc,
		Stations:   stations,
		Values:     make([][]float64, nz),
	}
	g.columns()
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for row := 0; row < nz; row++ {
		eg.Go(func() error {
			z := zmin + float64(row)*zinc
			vals := make([]float64, len(stations))
			for n, s := range stations {
				vals[n] = math.NaN()
				i, j, k, ok := g.locate(r3.Vec{X: s.X, Y: s.Y, Z: z}, true)
				if !ok {
					continue
				}
				if v, ok := prop.ValueAt(i, j, k); ok {
					vals[n] = v
				}
			}
			f.Values[row] = vals
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Fence{}, err
	}
	return f, nil
}
