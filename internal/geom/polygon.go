package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrOpenPolygon is returned when a polygon must be closed and is not.
var ErrOpenPolygon = errors.New("polygon is not closed")

// Polygon is a sequence of XY vertices. A closed polygon repeats its first
// vertex at the end.
type Polygon []r2.Vec

// IsClosed reports whether the last vertex equals the first.
func (p Polygon) IsClosed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Closed returns a closed copy of p, appending the first vertex if needed.
func (p Polygon) Closed() Polygon {
	out := make(Polygon, len(p), len(p)+1)
	copy(out, p)
	if !p.IsClosed() && len(p) > 0 {
		out = append(out, p[0])
	}
	return out
}

// Validate checks that p has at least three distinct vertices and, unless
// forceClose is set, that it is closed. The returned polygon is closed.
func (p Polygon) Validate(forceClose bool) (Polygon, error) {
	n := len(p)
	if p.IsClosed() {
		n--
	}
	if n < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", n)
	}
	if !p.IsClosed() {
		if !forceClose {
			return nil, ErrOpenPolygon
		}
		return p.Closed(), nil
	}
	return p, nil
}

// Contains reports whether q lies inside p using even-odd ray casting.
// The polygon is treated as closed whether or not the last vertex repeats.
func (p Polygon) Contains(q r2.Vec) bool {
	n := len(p)
	if p.IsClosed() {
		n--
	}
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds returns the XY bounding box of p.
func (p Polygon) Bounds() r2.Box {
	if len(p) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: p[0], Max: p[0]}
	for _, v := range p[1:] {
		b.Min.X = min(b.Min.X, v.X)
		b.Min.Y = min(b.Min.Y, v.Y)
		b.Max.X = max(b.Max.X, v.X)
		b.Max.Y = max(b.Max.Y, v.Y)
	}
	return b
}

// SignedArea returns the shoelace area; positive for counter-clockwise
// vertex order.
func (p Polygon) SignedArea() float64 {
	n := len(p)
	if p.IsClosed() {
		n--
	}
	var a float64
	for i := 0; i < n; i++ {
		a += r2.Cross(p[i], p[(i+1)%n])
	}
	return a / 2
}
