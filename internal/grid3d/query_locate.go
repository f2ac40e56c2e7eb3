package grid3d

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// IJK is a cell index triple.
type IJK struct {
	I, J, K int
}

// UndefIJK marks a point that is in no cell.
var UndefIJK = IJK{-1, -1, -1}

// colPoint is the XY centre of a cell column's bounding box.
type colPoint struct {
	x, y float64
	col  int
}

func (p colPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(colPoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p colPoint) Dims() int { return 2 }

// Distance returns the squared XY distance.
func (p colPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(colPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type colPoints []colPoint

func (p colPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p colPoints) Len() int                              { return len(p) }
func (p colPoints) Pivot(d kdtree.Dim) int                { return colPlane{colPoints: p, Dim: d}.Pivot() }
func (p colPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type colPlane struct {
	kdtree.Dim
	colPoints
}

func (p colPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.colPoints[i].x < p.colPoints[j].x
	}
	return p.colPoints[i].y < p.colPoints[j].y
}
func (p colPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p colPlane) Slice(start, end int) kdtree.SortSlicer {
	p.colPoints = p.colPoints[start:end]
	return p
}
func (p colPlane) Swap(i, j int) {
	p.colPoints[i], p.colPoints[j] = p.colPoints[j], p.colPoints[i]
}

// columnIndex locates candidate cell columns for a point.
type columnIndex struct {
	tree     *kdtree.Tree
	boxes    []r3.Box // per column, j*ncol + i
	envelope r3.Box
	radius2  float64
	tol      float64
}

func (g *Grid) columns() *columnIndex {
	return cached(g.cache, cacheColumns, g.buildColumnIndex)
}

func (g *Grid) buildColumnIndex() *columnIndex {
	idx := &columnIndex{boxes: make([]r3.Box, g.ncol*g.nrow)}
	pts := make(colPoints, 0, g.ncol*g.nrow)
	inf := math.Inf(1)
	idx.envelope = r3.Box{Min: r3.Vec{X: inf, Y: inf, Z: inf}, Max: r3.Vec{X: -inf, Y: -inf, Z: -inf}}
	var maxHalf float64
	for j := 0; j < g.nrow; j++ {
		for i := 0; i < g.ncol; i++ {
			b := r3.Box{Min: r3.Vec{X: inf, Y: inf, Z: inf}, Max: r3.Vec{X: -inf, Y: -inf, Z: -inf}}
			for l := 0; l <= g.nlay; l++ {
				o := g.zOffset(i, j, l)
				for c := 0; c < 4; c++ {
					p := g.pointOnPillar(i+(c&1), j+(c>>1), g.zcorn[o+c])
					b = extendBox(b, p)
				}
			}
			col := j*g.ncol + i
			idx.boxes[col] = b
			idx.envelope = extendBox(extendBox(idx.envelope, b.Min), b.Max)
			ctr := b.Center()
			pts = append(pts, colPoint{x: ctr.X, y: ctr.Y, col: col})
			half := math.Hypot(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y) / 2
			maxHalf = math.Max(maxHalf, half)
		}
	}
	idx.tol = 1e-9 * math.Max(1, r3.Norm(idx.envelope.Size()))
	r := maxHalf + idx.tol
	idx.radius2 = r * r
	idx.tree = kdtree.New(pts, false)
	return idx
}

func extendBox(b r3.Box, p r3.Vec) r3.Box {
	b.Min.X, b.Max.X = math.Min(b.Min.X, p.X), math.Max(b.Max.X, p.X)
	b.Min.Y, b.Max.Y = math.Min(b.Min.Y, p.Y), math.Max(b.Max.Y, p.Y)
	b.Min.Z, b.Max.Z = math.Min(b.Min.Z, p.Z), math.Max(b.Max.Z, p.Z)
	return b
}

func boxHas(b r3.Box, p r3.Vec, tol float64) bool {
	return p.X >= b.Min.X-tol && p.X <= b.Max.X+tol &&
		p.Y >= b.Min.Y-tol && p.Y <= b.Max.Y+tol &&
		p.Z >= b.Min.Z-tol && p.Z <= b.Max.Z+tol
}

// IJKFromXYZ finds the cell containing p. Indices are 1-based unless
// zeroBased is set. With activeOnly, inactive cells are skipped. A point in
// no cell yields UndefIJK and false.
func (g *Grid) IJKFromXYZ(p r3.Vec, activeOnly, zeroBased bool) (IJK, bool) {
	i, j, k, ok := g.locate(p, activeOnly)
	if !ok {
		return UndefIJK, false
	}
	if !zeroBased {
		i, j, k = i+1, j+1, k+1
	}
	return IJK{i, j, k}, true
}

// locate returns the 0-based cell holding p.
func (g *Grid) locate(p r3.Vec, activeOnly bool) (int, int, int, bool) {
	idx := g.columns()
	if !boxHas(idx.envelope, p, idx.tol) {
		return 0, 0, 0, false
	}
	keep := kdtree.NewDistKeeper(idx.radius2)
	idx.tree.NearestSet(keep, colPoint{x: p.X, y: p.Y})
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		col := c.Comparable.(colPoint).col
		if !boxHas(idx.boxes[col], p, idx.tol) {
			continue
		}
		i, j := col%g.ncol, col/g.ncol
		for k := 0; k < g.nlay; k++ {
			if activeOnly && !g.active0(i, j, k) {
				continue
			}
			if g.cellHex(i, j, k).Contains(p) {
				return i, j, k, true
			}
		}
	}
	return 0, 0, 0, false
}

// IJKFromPoints locates many points in parallel. Misses are UndefIJK.
func (g *Grid) IJKFromPoints(points []r3.Vec, activeOnly, zeroBased bool) []IJK {
	out := make([]IJK, len(points))
	g.columns() // build the shared index once, before fanning out
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(points) + workers - 1) / workers
	var eg errgroup.Group
	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))
		eg.Go(func() error {
			for n := start; n < end; n++ {
				out[n], _ = g.IJKFromXYZ(points[n], activeOnly, zeroBased)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
