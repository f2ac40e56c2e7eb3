package grid3d_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/monitoring"
	"github.com/banshee-data/cornergrid/internal/testutil"
)

// columnImport returns import data for a 1x1 grid whose four corners share
// the given level depths, on vertical pillars spanning 0..20.
func columnImport(levels ...float64) grid3d.ImportData {
	d := grid3d.ImportData{NCol: 1, NRow: 1, NLay: len(levels) - 1}
	for _, xy := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		d.Coord = append(d.Coord, xy[0], xy[1], 0, xy[0], xy[1], 20)
	}
	for _, z := range levels {
		d.ZCorn = append(d.ZCorn, z, z, z, z)
	}
	return d
}

func TestEndToEnd_SmallBox(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 2, 2, 100, 100, 10)

	assert.Equal(t, 8, g.NTotal())
	assert.Equal(t, 8, g.NActive())

	c, err := g.CellCenter(1, 1, 1)
	require.NoError(t, err)
	testutil.AssertVecInDelta(t, r3.Vec{X: 50, Y: 50, Z: 5}, c, 1e-9)

	require.NoError(t, g.Crop([2]int{1, 1}, [2]int{1, 2}, [2]int{1, 2}, false))
	ncol, nrow, nlay := g.Dimensions()
	assert.Equal(t, [3]int{1, 2, 2}, [3]int{ncol, nrow, nlay})
}

func TestBoxGeometrics_Regular(t *testing.T) {
	t.Parallel()
	for _, dims := range [][3]int{{1, 1, 1}, {2, 3, 4}, {5, 1, 2}} {
		g := testutil.BoxGrid(t, dims[0], dims[1], dims[2], 25, 50, 4)
		geo, err := g.Geometrics(false, true)
		require.NoError(t, err)
		assert.InDelta(t, 25.0, geo.AvgDX, 1e-9)
		assert.InDelta(t, 50.0, geo.AvgDY, 1e-9)
		assert.InDelta(t, 4.0, geo.AvgDZ, 1e-9)
		assert.Equal(t, 0.0, geo.AvgRotation)
		assert.True(t, geo.Regular, "dims %v", dims)
		assert.Equal(t, 0, geo.Degenerate)
		assert.Equal(t, g.NTotal(), geo.NCells)
		testutil.AssertVecInDelta(t, r3.Vec{X: 12.5, Y: 25, Z: 2}, geo.Origin, 1e-9)
	}
}

func TestGeometrics_Bounds(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 2, 2, 100, 100, 10)

	centres, err := g.Geometrics(true, true)
	require.NoError(t, err)
	assert.Equal(t, [6]float64{50, 150, 50, 150, 5, 15},
		[6]float64{centres.XMin, centres.XMax, centres.YMin, centres.YMax, centres.ZMin, centres.ZMax})

	corners, err := g.Geometrics(true, false)
	require.NoError(t, err)
	assert.Equal(t, [6]float64{0, 200, 0, 200, 0, 20},
		[6]float64{corners.XMin, corners.XMax, corners.YMin, corners.YMax, corners.ZMin, corners.ZMax})
	assert.Equal(t, r3.Vec{}, corners.Origin)
}

func TestGeometrics_Rotated(t *testing.T) {
	t.Parallel()
	g, err := grid3d.NewBox(grid3d.BoxSpec{
		NCol: 3, NRow: 2, NLay: 2,
		Origin:    [3]float64{1000, 2000, 1500},
		Increment: [3]float64{50, 50, 5},
		Rotation:  30,
	})
	require.NoError(t, err)
	geo, err := g.Geometrics(true, true)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, geo.AvgRotation, 1e-9)
	assert.InDelta(t, 50.0, geo.AvgDX, 1e-9)
	assert.False(t, geo.Regular, "rotated grids are not regular")
}

func TestGeometrics_ActiveOnly(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 1, 1, 10, 10, 10)
	require.NoError(t, g.SetActnum([]int{1, 0}, grid3d.OrderF))

	geo, err := g.Geometrics(false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.NCells)
	assert.Equal(t, 5.0, geo.XMax)

	geo, err = g.Geometrics(true, true)
	require.NoError(t, err)
	assert.Equal(t, 15.0, geo.XMax)
}

func TestGeometrics_DegenerateCell(t *testing.T) {
	t.Parallel()
	g, err := grid3d.FromImport(columnImport(0, 10, 10, 20))
	require.NoError(t, err)
	geo, err := g.Geometrics(true, true)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.Degenerate)
	assert.False(t, geo.Regular)
}

func TestHandedness(t *testing.T) {
	t.Parallel()
	left := testutil.BoxGrid(t, 2, 2, 1, 1, 1, 1)
	assert.Equal(t, grid3d.Left, left.Handedness())

	right, err := grid3d.NewBox(grid3d.BoxSpec{NCol: 2, NRow: 2, NLay: 1, Increment: [3]float64{1, 1, 1}, Flip: -1})
	require.NoError(t, err)
	assert.Equal(t, grid3d.Right, right.Handedness())

	// Independent of activity.
	require.NoError(t, left.SetActnum(make([]int, 4), grid3d.OrderF))
	assert.Equal(t, grid3d.Left, left.Handedness())

	// Every pillar at the same XY leaves nothing to decide on.
	d := columnImport(0, 10)
	for p := 0; p < 4; p++ {
		d.Coord[p*6], d.Coord[p*6+1], d.Coord[p*6+3], d.Coord[p*6+4] = 0, 0, 0, 0
	}
	flat, err := grid3d.FromImport(d)
	require.NoError(t, err)
	assert.Equal(t, grid3d.Undetermined, flat.Handedness())
	assert.Equal(t, "undetermined", flat.Handedness().String())
}

func TestCellCorners(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 2, 2, 100, 100, 10)

	got, err := g.CellCorners(2, 1, 2, false)
	require.NoError(t, err)
	want := [8]r3.Vec{
		{X: 100, Y: 0, Z: 20}, {X: 200, Y: 0, Z: 20}, {X: 100, Y: 100, Z: 20}, {X: 200, Y: 100, Z: 20},
		{X: 100, Y: 0, Z: 10}, {X: 200, Y: 0, Z: 10}, {X: 100, Y: 100, Z: 10}, {X: 200, Y: 100, Z: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("corners mismatch (-want +got):\n%s", diff)
	}

	zero, err := g.CellCorners(1, 0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, got, zero)

	for _, ijk := range [][3]int{{0, 1, 1}, {3, 1, 1}, {1, 1, 3}} {
		_, err := g.CellCorners(ijk[0], ijk[1], ijk[2], false)
		assert.ErrorIs(t, err, grid3d.ErrIndex, "cell %v", ijk)
	}
	_, err = g.CellCorners(2, 0, 0, true)
	assert.ErrorIs(t, err, grid3d.ErrIndex)
}

func TestCellSizes(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 1, 1, 1, 30, 40, 5)
	dx, err := g.CellDX(1, 1, 1)
	require.NoError(t, err)
	dy, err := g.CellDY(1, 1, 1)
	require.NoError(t, err)
	dz, err := g.CellHeight(1, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{30, 40, 5}, [3]float64{dx, dy, dz})

	require.NoError(t, g.TranslateCoordinates([3]float64{}, [3]int{1, 1, -1}))
	dz, err = g.CellHeight(1, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 5.0, dz)
	signed, err := g.CellHeight(1, 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, -5.0, signed)

	_, err = g.CellDX(2, 1, 1)
	assert.ErrorIs(t, err, grid3d.ErrIndex)
}

func TestCellSizes_SlantedPillars(t *testing.T) {
	t.Parallel()
	d := columnImport(0, 10)
	// Lean every pillar by 10 in X over its 20 length; dx stays horizontal.
	for p := 0; p < 4; p++ {
		d.Coord[p*6+3] += 10
	}
	g, err := grid3d.FromImport(d)
	require.NoError(t, err)
	dx, err := g.CellDX(1, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dx, 1e-12)
	dz, err := g.CellHeight(1, 1, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, dz, 1e-12)
	c, err := g.CellCenter(1, 1, 1)
	require.NoError(t, err)
	testutil.AssertVecInDelta(t, r3.Vec{X: 3, Y: 0.5, Z: 5}, c, 1e-12)
}

func TestDegeneratePillar(t *testing.T) {
	t.Parallel()
	d := columnImport(0, 10)
	d.Coord[5] = d.Coord[2] // first pillar has no extent in depth
	g, err := grid3d.FromImport(d)
	require.NoError(t, err)
	corners, err := g.CellCorners(1, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: 10}, corners[0])
	_, err = g.CellCenter(1, 1, 1)
	assert.NoError(t, err)
}

func TestFromImport_Validation(t *testing.T) {
	t.Parallel()
	good := columnImport(0, 10, 20)

	tests := []struct {
		name   string
		mutate func(d *grid3d.ImportData)
	}{
		{"zero dimension", func(d *grid3d.ImportData) { d.NLay = 0 }},
		{"short coord", func(d *grid3d.ImportData) { d.Coord = d.Coord[:6] }},
		{"short zcorn", func(d *grid3d.ImportData) { d.ZCorn = d.ZCorn[:4] }},
		{"short actnum", func(d *grid3d.ImportData) { d.Actnum = []int{1} }},
		{"dual code without dual porosity", func(d *grid3d.ImportData) { d.Actnum = []int{1, 2} }},
		{"bad subgrids", func(d *grid3d.ImportData) { d.Subgrids = []grid3d.Subgrid{{Name: "A", Layers: []int{1}}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := good
			d.Coord = append([]float64(nil), good.Coord...)
			d.ZCorn = append([]float64(nil), good.ZCorn...)
			tt.mutate(&d)
			_, err := grid3d.FromImport(d)
			assert.ErrorIs(t, err, grid3d.ErrValidation)
		})
	}
}

func TestNewBox_Validation(t *testing.T) {
	t.Parallel()
	_, err := grid3d.NewBox(grid3d.BoxSpec{NCol: 1, NRow: 1, NLay: 1, Increment: [3]float64{1, 0, 1}})
	assert.ErrorIs(t, err, grid3d.ErrValidation)
	_, err = grid3d.NewBox(grid3d.BoxSpec{NCol: 1, NRow: 1, NLay: 1, Increment: [3]float64{1, 1, 1}, Flip: 2})
	assert.ErrorIs(t, err, grid3d.ErrValidation)
	_, err = grid3d.NewBox(grid3d.BoxSpec{NRow: 1, NLay: 1, Increment: [3]float64{1, 1, 1}})
	assert.ErrorIs(t, err, grid3d.ErrValidation)
}

func TestNewBox_OriCenter(t *testing.T) {
	t.Parallel()
	g, err := grid3d.NewBox(grid3d.BoxSpec{
		NCol: 2, NRow: 2, NLay: 2,
		Origin:    [3]float64{50, 50, 5},
		Increment: [3]float64{100, 100, 10},
		OriCenter: true,
	})
	require.NoError(t, err)
	c, err := g.CellCenter(1, 1, 1)
	require.NoError(t, err)
	testutil.AssertVecInDelta(t, r3.Vec{X: 50, Y: 50, Z: 5}, c, 1e-9)
}

func TestSnapshotAndCopy(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 3, 2, 10, 10, 1)
	require.NoError(t, g.SetSubgridsFromCounts([]grid3d.SubgridCount{{Name: "A", Count: 1}, {Name: "B", Count: 1}}))

	snap := g.Snapshot()
	back, err := grid3d.FromImport(snap)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, back.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	snap.ZCorn[0] = 999
	again := g.Snapshot()
	assert.NotEqual(t, 999.0, again.ZCorn[0], "snapshot must not alias grid stores")

	c := g.Copy()
	require.NoError(t, c.TranslateCoordinates([3]float64{1, 0, 0}, [3]int{1, 1, 1}))
	assert.NotEqual(t, g.Snapshot().Coord[0], c.Snapshot().Coord[0])

	ncoord, nzcorn, nact := g.VectorDimensions()
	assert.Equal(t, [3]int{3 * 4 * 6, 2 * 3 * 3 * 4, 12}, [3]int{ncoord, nzcorn, nact})
}

func TestDescribeAndSink(t *testing.T) {
	t.Parallel()
	var diag bytes.Buffer
	g, err := grid3d.FromImport(columnImport(0, 10, 20),
		grid3d.WithName("tiny"),
		grid3d.WithSink(monitoring.NewStreams("[grid3d] ", nil, &diag, nil)))
	require.NoError(t, err)
	assert.Contains(t, diag.String(), `grid "tiny" imported`)

	s := g.Describe()
	assert.True(t, strings.Contains(s, "1 x 1 x 2 = 2 cells, 2 active"), s)
	assert.Contains(t, s, "handedness: left")
}

func TestPropertyMismatchError(t *testing.T) {
	t.Parallel()
	inner := errors.New("boom")
	err := error(&grid3d.PropertyMismatchError{Property: "PORO", Op: "crop", Err: inner})
	assert.ErrorIs(t, err, grid3d.ErrPropertyMismatch)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, `crop: property "PORO": boom`, err.Error())
}
