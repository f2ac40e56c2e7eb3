package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// FencePoint is one resampled polyline station. H is the horizontal
// distance along the line measured from the first input vertex; stations
// added by extension before the start have negative H.
type FencePoint struct {
	X, Y, Z, H float64
}

// HorizontalLengths returns the cumulative XY length at each vertex.
func HorizontalLengths(pts []r3.Vec) []float64 {
	h := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		h[i] = h[i-1] + r2.Norm(r2.Vec{X: pts[i].X - pts[i-1].X, Y: pts[i].Y - pts[i-1].Y})
	}
	return h
}

// ResamplePolyline resamples pts at constant horizontal spacing, extending
// the line by nextend stations at each end along the direction of the end
// segments. Z is interpolated along the line and held constant on the
// extensions.
func ResamplePolyline(pts []r3.Vec, sampling float64, nextend int) ([]FencePoint, error) {
	if sampling <= 0 {
		return nil, fmt.Errorf("sampling must be positive, got %g", sampling)
	}
	if nextend < 0 {
		return nil, fmt.Errorf("nextend must be non-negative, got %d", nextend)
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("polyline needs at least 2 points, got %d", len(pts))
	}
	hl := HorizontalLengths(pts)
	total := hl[len(hl)-1]
	if total == 0 {
		return nil, fmt.Errorf("polyline has zero horizontal length")
	}

	ext := float64(nextend) * sampling
	nsamp := int(math.Floor((total+2*ext)/sampling+1e-9)) + 1
	stations := []float64{-ext}
	if nsamp > 1 {
		stations = make([]float64, nsamp)
		floats.Span(stations, -ext, -ext+float64(nsamp-1)*sampling)
	}

	startDir := unitXY(pts[0], firstDistinct(pts, hl))
	endDir := unitXY(lastDistinct(pts, hl), pts[len(pts)-1])

	out := make([]FencePoint, 0, nsamp)
	seg := 0
	for _, s := range stations {
		switch {
		case s < 0:
			p := pts[0]
			out = append(out, FencePoint{X: p.X + s*startDir.X, Y: p.Y + s*startDir.Y, Z: p.Z, H: s})
		case s > total:
			p := pts[len(pts)-1]
			d := s - total
			out = append(out, FencePoint{X: p.X + d*endDir.X, Y: p.Y + d*endDir.Y, Z: p.Z, H: s})
		default:
			for seg < len(pts)-2 && hl[seg+1] < s {
				seg++
			}
			a, b := pts[seg], pts[seg+1]
			t := 0.0
			if l := hl[seg+1] - hl[seg]; l > 0 {
				t = (s - hl[seg]) / l
			}
			p := r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
			out = append(out, FencePoint{X: p.X, Y: p.Y, Z: p.Z, H: s})
		}
	}
	return out, nil
}

func firstDistinct(pts []r3.Vec, hl []float64) r3.Vec {
	for i := 1; i < len(pts); i++ {
		if hl[i] > 0 {
			return pts[i]
		}
	}
	return pts[len(pts)-1]
}

func lastDistinct(pts []r3.Vec, hl []float64) r3.Vec {
	last := hl[len(hl)-1]
	for i := len(pts) - 2; i >= 0; i-- {
		if hl[i] < last {
			return pts[i]
		}
	}
	return pts[0]
}

func unitXY(a, b r3.Vec) r2.Vec {
	d := r2.Vec{X: b.X - a.X, Y: b.Y - a.Y}
	n := r2.Norm(d)
	if n == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/n, d)
}
