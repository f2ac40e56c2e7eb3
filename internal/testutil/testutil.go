// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/gridprop"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertVecInDelta checks that every component of got is within delta of
// want.
func AssertVecInDelta(t testing.TB, want, got r3.Vec, delta float64) {
	t.Helper()
	if math.Abs(want.X-got.X) > delta || math.Abs(want.Y-got.Y) > delta || math.Abs(want.Z-got.Z) > delta {
		t.Errorf("vector = %+v, want %+v (delta %g)", got, want, delta)
	}
}

// BoxGrid builds an unrotated box grid at the origin with the given
// dimensions and increments.
func BoxGrid(t testing.TB, ncol, nrow, nlay int, dx, dy, dz float64) *grid3d.Grid {
	t.Helper()
	g, err := grid3d.NewBox(grid3d.BoxSpec{
		NCol:      ncol,
		NRow:      nrow,
		NLay:      nlay,
		Increment: [3]float64{dx, dy, dz},
	})
	AssertNoError(t, err)
	return g
}

// LayerZones returns a discrete property sized to g whose value in every
// cell is zoneOf(k) for its 1-based layer k.
func LayerZones(t testing.TB, g *grid3d.Grid, name string, zoneOf func(k int) int) *gridprop.Property {
	t.Helper()
	ncol, nrow, nlay := g.Dimensions()
	values := make([]int, 0, ncol*nrow*nlay)
	for i := 0; i < ncol; i++ {
		for j := 0; j < nrow; j++ {
			for k := 1; k <= nlay; k++ {
				values = append(values, zoneOf(k))
			}
		}
	}
	p, err := gridprop.NewDiscrete(name, ncol, nrow, nlay, values, nil)
	AssertNoError(t, err)
	return p
}
