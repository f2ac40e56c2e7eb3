package grid3d

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// BoxSpec describes a regular box grid.
type BoxSpec struct {
	NCol, NRow, NLay int
	// Origin is the top south-west corner of cell (1,1,1), or its centre
	// when OriCenter is set.
	Origin    [3]float64
	Increment [3]float64
	// Rotation in degrees, anticlockwise from the X axis.
	Rotation float64
	// Flip is 1 for J towards positive Y (left-handed with depth down) and
	// -1 for the mirrored, right-handed grid. Zero means 1.
	Flip      int
	OriCenter bool
}

// NewBox builds a regular, fully active box grid.
func NewBox(spec BoxSpec, opts ...Option) (*Grid, error) {
	if spec.NCol < 1 || spec.NRow < 1 || spec.NLay < 1 {
		return nil, validationf("dimensions must be positive, got (%d, %d, %d)", spec.NCol, spec.NRow, spec.NLay)
	}
	for n, inc := range spec.Increment {
		if inc <= 0 {
			return nil, validationf("increment %d must be positive, got %g", n, inc)
		}
	}
	flip := float64(spec.Flip)
	switch spec.Flip {
	case 0:
		flip = 1
	case 1, -1:
	default:
		return nil, validationf("flip must be 1 or -1, got %d", spec.Flip)
	}
	dx, dy, dz := spec.Increment[0], spec.Increment[1]*flip, spec.Increment[2]
	x0, y0, z0 := 0.0, 0.0, spec.Origin[2]
	if spec.OriCenter {
		x0, y0, z0 = -dx/2, -dy/2, z0-dz/2
	}
	rot := r2.NewRotation(spec.Rotation*math.Pi/180, r2.Vec{})
	origin := r2.Vec{X: spec.Origin[0], Y: spec.Origin[1]}
	zbot := z0 + float64(spec.NLay)*dz

	d := ImportData{
		NCol:   spec.NCol,
		NRow:   spec.NRow,
		NLay:   spec.NLay,
		Coord:  make([]float64, 0, (spec.NCol+1)*(spec.NRow+1)*6),
		ZCorn:  make([]float64, spec.NCol*spec.NRow*(spec.NLay+1)*4),
		Source: "box",
	}
	for j := 0; j <= spec.NRow; j++ {
		for i := 0; i <= spec.NCol; i++ {
			local := r2.Vec{X: x0 + float64(i)*dx, Y: y0 + float64(j)*dy}
			p := r2.Add(origin, rot.Rotate(local))
			d.Coord = append(d.Coord, p.X, p.Y, z0, p.X, p.Y, zbot)
		}
	}
	for l := 0; l <= spec.NLay; l++ {
		z := z0 + float64(l)*dz
		for n := 0; n < spec.NCol*spec.NRow*4; n++ {
			d.ZCorn[l*spec.NCol*spec.NRow*4+n] = z
		}
	}
	return FromImport(d, opts...)
}
