package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Corner positions within a Hexahedron. Bit 0 selects east, bit 1 north and
// bit 2 the top face, so index arithmetic on corners stays cheap.
const (
	BaseSW = iota
	BaseSE
	BaseNW
	BaseNE
	TopSW
	TopSE
	TopNW
	TopNE
)

// relTol scales absolute tolerances to the size of a cell.
const relTol = 1e-9

// Hexahedron is a corner-point cell: eight corners ordered base-SW, base-SE,
// base-NW, base-NE, top-SW, top-SE, top-NW, top-NE.
type Hexahedron [8]r3.Vec

// faces lists the six quads, each as a cyclic sequence of corner indices.
var faces = [6][4]int{
	{BaseSW, BaseSE, BaseNE, BaseNW},
	{TopSW, TopSE, TopNE, TopNW},
	{BaseSW, BaseNW, TopNW, TopSW},
	{BaseSE, BaseNE, TopNE, TopSE},
	{BaseSW, BaseSE, TopSE, TopSW},
	{BaseNW, BaseNE, TopNE, TopNW},
}

// Two six-tetrahedron decompositions, around the SW-base/NE-top diagonal and
// around the SE-base/NW-top diagonal. A twisted cell is covered by their union.
var (
	tetsA = [6][4]int{
		{BaseSW, BaseSE, BaseNE, TopNE},
		{BaseSW, BaseNE, BaseNW, TopNE},
		{BaseSW, BaseNW, TopNW, TopNE},
		{BaseSW, TopNW, TopSW, TopNE},
		{BaseSW, TopSW, TopSE, TopNE},
		{BaseSW, TopSE, BaseSE, TopNE},
	}
	tetsB = [6][4]int{
		{BaseSE, BaseSW, BaseNW, TopNW},
		{BaseSE, BaseNW, BaseNE, TopNW},
		{BaseSE, BaseNE, TopNE, TopNW},
		{BaseSE, TopNE, TopSE, TopNW},
		{BaseSE, TopSE, TopSW, TopNW},
		{BaseSE, TopSW, BaseSW, TopNW},
	}
)

// Center returns the arithmetic mean of the eight corners.
func (h Hexahedron) Center() r3.Vec {
	var c r3.Vec
	for _, v := range h {
		c = r3.Add(c, v)
	}
	return r3.Scale(1.0/8.0, c)
}

// Bounds returns the axis-aligned bounding box of the corners.
func (h Hexahedron) Bounds() r3.Box {
	b := r3.Box{Min: h[0], Max: h[0]}
	for _, v := range h[1:] {
		b.Min.X = math.Min(b.Min.X, v.X)
		b.Min.Y = math.Min(b.Min.Y, v.Y)
		b.Min.Z = math.Min(b.Min.Z, v.Z)
		b.Max.X = math.Max(b.Max.X, v.X)
		b.Max.Y = math.Max(b.Max.Y, v.Y)
		b.Max.Z = math.Max(b.Max.Z, v.Z)
	}
	return b
}

// size is the bounding-box diagonal, used to scale tolerances.
func (h Hexahedron) size() float64 {
	return r3.Norm(h.Bounds().Size())
}

// Volume returns the unsigned volume from decomposition A.
func (h Hexahedron) Volume() float64 {
	var v float64
	for _, t := range tetsA {
		v += math.Abs(signedVolume(h[t[0]], h[t[1]], h[t[2]], h[t[3]]))
	}
	return v
}

// IsDegenerate reports whether the cell has (numerically) zero volume.
func (h Hexahedron) IsDegenerate() bool {
	s := h.size()
	if s == 0 {
		return true
	}
	return h.Volume() <= relTol*s*s*s
}

// Contains reports whether p lies inside or on the boundary of the cell.
// Cells with planar faces are tested against the six face half-spaces; when
// a face is twisted the test falls back to the tetrahedral decompositions.
func (h Hexahedron) Contains(p r3.Vec) bool {
	s := h.size()
	if s == 0 {
		return false
	}
	tol := relTol * s
	b := h.Bounds()
	if p.X < b.Min.X-tol || p.X > b.Max.X+tol ||
		p.Y < b.Min.Y-tol || p.Y > b.Max.Y+tol ||
		p.Z < b.Min.Z-tol || p.Z > b.Max.Z+tol {
		return false
	}
	if h.IsDegenerate() {
		return false
	}

	inside, planar := h.containsByFaces(p, tol)
	if planar {
		return inside
	}
	return h.containsByTets(p, tetsA) || h.containsByTets(p, tetsB)
}

// containsByFaces tests the face half-spaces. planar is false when any face
// deviates from its mean plane, in which case inside must be ignored.
func (h Hexahedron) containsByFaces(p r3.Vec, tol float64) (inside, planar bool) {
	centre := h.Center()
	inside = true
	for _, f := range faces {
		a, b, c, d := h[f[0]], h[f[1]], h[f[2]], h[f[3]]
		n := r3.Cross(r3.Sub(c, a), r3.Sub(d, b))
		nn := r3.Norm(n)
		if nn == 0 {
			// Collapsed face (pinched pillar); let the tetrahedra decide.
			return false, false
		}
		n = r3.Scale(1/nn, n)
		fc := r3.Scale(0.25, r3.Add(r3.Add(a, b), r3.Add(c, d)))
		for _, v := range [4]r3.Vec{a, b, c, d} {
			if math.Abs(r3.Dot(n, r3.Sub(v, fc))) > 1e-6*h.size() {
				return false, false
			}
		}
		ref := r3.Dot(n, r3.Sub(centre, fc))
		got := r3.Dot(n, r3.Sub(p, fc))
		if ref > 0 && got < -tol || ref < 0 && got > tol {
			inside = false
		}
	}
	return inside, true
}

func (h Hexahedron) containsByTets(p r3.Vec, tets [6][4]int) bool {
	for _, t := range tets {
		if PointInTetrahedron(h[t[0]], h[t[1]], h[t[2]], h[t[3]], p) {
			return true
		}
	}
	return false
}

// signedVolume returns six times the signed volume of tetrahedron abcd.
func signedVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)), r3.Sub(d, a))
}

// PointInTetrahedron reports whether p is inside or on tetrahedron abcd.
// Degenerate tetrahedra contain nothing.
func PointInTetrahedron(a, b, c, d, p r3.Vec) bool {
	v := signedVolume(a, b, c, d)
	scale := math.Max(math.Max(r3.Norm(r3.Sub(b, a)), r3.Norm(r3.Sub(c, a))), r3.Norm(r3.Sub(d, a)))
	eps := relTol * scale * scale * scale
	if math.Abs(v) <= eps {
		return false
	}
	for _, w := range [4]float64{
		signedVolume(p, b, c, d),
		signedVolume(a, p, c, d),
		signedVolume(a, b, p, d),
		signedVolume(a, b, c, p),
	} {
		if v > 0 && w < -eps || v < 0 && w > eps {
			return false
		}
	}
	return true
}
