// Package geom holds the small computational-geometry kernels used by the
// grid engine: hexahedral cell containment, tetrahedra, 2D polygons and
// polyline resampling.
//
// Everything is expressed with gonum's r2/r3 vector types. No function in
// this package knows about grid indexing; callers hand in corner points.
package geom
