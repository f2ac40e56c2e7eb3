// Package grid3d is the corner-point grid geometry engine.
//
// A Grid is defined by (ncol+1)*(nrow+1) pillars and, for every cell
// column, a quartet of corner depths at each of the nlay+1 levels. Level k
// is the top of layer k and the base of layer k-1, with depth increasing
// downward. The package owns active-cell bookkeeping (including dual
// porosity codes), subgrid zonation, geometric derivation, in-place
// transforms (row reversal, crop, refinement, hybrid layering, collapse,
// z repair, polygon inactivation) and spatial queries (point location,
// fences, adjacency and well zone mismatch).
//
// Public cell indices are 1-based unless a zeroBased flag says otherwise.
// Storage runs I fastest, then J, then K ("F" order); attached properties
// use C order, K fastest.
//
// Dependency rule: grid3d may depend on geom, gridprop and monitoring, but
// never on file formats or storage. Adapters go through ImportData and
// Snapshot.
package grid3d
