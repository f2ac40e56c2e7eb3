package grid3d_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/monitoring"
	"github.com/banshee-data/cornergrid/internal/testutil"
)

// dualGrid is a 2x2x1 dual porosity grid holding one cell of each code.
func dualGrid(t *testing.T) *grid3d.Grid {
	t.Helper()
	d := testutil.BoxGrid(t, 2, 2, 1, 1, 1, 1).Snapshot()
	d.DualPorosity = true
	d.Actnum = []int{0, 1, 2, 3}
	g, err := grid3d.FromImport(d)
	require.NoError(t, err)
	return g
}

func TestActiveIndices(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 1, 2, 1, 1, 1)
	// C order: (i,j,k) = (0,0,0), (0,0,1), (1,0,0), (1,0,1).
	require.NoError(t, g.SetActnum([]int{1, 0, 1, 1}, grid3d.OrderC))

	assert.Equal(t, 3, g.NActive())
	assert.Equal(t, []int{0, 1, 3}, g.ActiveIndices(grid3d.OrderF))
	assert.Equal(t, []int{0, 2, 3}, g.ActiveIndices(grid3d.OrderC))

	on, err := g.IsActive(1, 1, 2)
	require.NoError(t, err)
	assert.False(t, on)
	_, err = g.IsActive(3, 1, 1)
	assert.ErrorIs(t, err, grid3d.ErrIndex)

	got := g.ActiveIndices(grid3d.OrderC)
	got[0] = 99
	assert.Equal(t, []int{0, 2, 3}, g.ActiveIndices(grid3d.OrderC), "returned slices must be copies")
}

func TestSetActnum_Validation(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 1, 1, 1, 1, 1)

	assert.ErrorIs(t, g.SetActnum([]int{1}, grid3d.OrderF), grid3d.ErrValidation)
	assert.ErrorIs(t, g.SetActnum([]int{1, 2}, grid3d.OrderF), grid3d.ErrValidation)
	assert.ErrorIs(t, g.SetActnum([]int{-1, 1}, grid3d.OrderC), grid3d.ErrValidation)
	assert.Equal(t, 2, g.NActive(), "failed updates leave the mask alone")
}

func TestDualPorosity(t *testing.T) {
	t.Parallel()
	g := dualGrid(t)

	assert.True(t, g.DualPorosity())
	assert.Equal(t, 3, g.NActive())
	assert.Equal(t, []int{1, 2, 3}, g.ActiveIndices(grid3d.OrderC))
	// Native cells 1 (i1,j0) and 3 (i1,j1) hold matrix codes; in C order
	// they are 2 and 3. Fracture codes sit at native 2 and 3: C 1 and 3.
	assert.Equal(t, []int{2, 3}, g.DualActiveIndices(false))
	assert.Equal(t, []int{1, 3}, g.DualActiveIndices(true))

	assert.Equal(t, []float64{0, 2, 1, 3}, g.Actnum(true).Values())
	assert.Equal(t, []float64{0, 1, 1, 1}, g.Actnum(false).Values())

	require.NoError(t, g.SetActnum([]int{3, 3, 0, 2}, grid3d.OrderF))
	assert.Equal(t, []int{0, 2}, g.DualActiveIndices(false))
	assert.Equal(t, []int{0, 2, 3}, g.DualActiveIndices(true))

	g.ActivateAll()
	assert.True(t, g.DualPorosity())
	assert.Equal(t, 4, g.NActive())
	assert.Equal(t, []float64{3, 3, 3, 3}, g.Actnum(true).Values())
}

func TestDualActiveIndices_SingleSystem(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 1, 1, 1, 1, 1)
	require.NoError(t, g.SetActnum([]int{0, 1}, grid3d.OrderF))
	assert.Equal(t, g.ActiveIndices(grid3d.OrderC), g.DualActiveIndices(false))
	assert.Equal(t, g.ActiveIndices(grid3d.OrderC), g.DualActiveIndices(true))
}

func TestInactivateByDZ(t *testing.T) {
	t.Parallel()
	g, err := grid3d.FromImport(columnImport(0, 0.5, 10))
	require.NoError(t, err)

	n, err := g.InactivateByDZ(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{1}, g.ActiveIndices(grid3d.OrderF))

	n, err = g.InactivateByDZ(1)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = g.InactivateByDZ(-1)
	assert.ErrorIs(t, err, grid3d.ErrValidation)
}

func TestSubgrids(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 1, 1, 7, 1, 1, 1)
	assert.False(t, g.HasSubgrids())
	assert.Nil(t, g.SubgridCounts())

	counts := []grid3d.SubgridCount{{Name: "A", Count: 3}, {Name: "B", Count: 4}}
	require.NoError(t, g.SetSubgridsFromCounts(counts))
	assert.Equal(t, counts, g.SubgridCounts())
	for k := 1; k <= 7; k++ {
		name, ok := g.SubgridOfLayer(k)
		require.True(t, ok)
		want := "A"
		if k > 3 {
			want = "B"
		}
		assert.Equal(t, want, name, "layer %d", k)
	}

	err := g.SetSubgridsFromCounts([]grid3d.SubgridCount{{Name: "A", Count: 3}, {Name: "B", Count: 3}})
	assert.ErrorIs(t, err, grid3d.ErrValidation)
	assert.Equal(t, counts, g.SubgridCounts(), "failed update keeps the old zonation")

	require.NoError(t, g.SetSubgrids(nil))
	assert.False(t, g.HasSubgrids())
}

func TestSetSubgrids_Validation(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 1, 1, 3, 1, 1, 1)
	tests := []struct {
		name string
		subs []grid3d.Subgrid
	}{
		{"empty name", []grid3d.Subgrid{{Layers: []int{1, 2, 3}}}},
		{"duplicate name", []grid3d.Subgrid{{Name: "A", Layers: []int{1}}, {Name: "A", Layers: []int{2, 3}}}},
		{"overlap", []grid3d.Subgrid{{Name: "A", Layers: []int{1, 2}}, {Name: "B", Layers: []int{2, 3}}}},
		{"gap", []grid3d.Subgrid{{Name: "A", Layers: []int{1}}, {Name: "B", Layers: []int{3}}}},
		{"out of range", []grid3d.Subgrid{{Name: "A", Layers: []int{1, 2, 3, 4}}}},
		{"no layers", []grid3d.Subgrid{{Name: "A", Layers: []int{1, 2, 3}}, {Name: "B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, g.SetSubgrids(tt.subs), grid3d.ErrValidation)
		})
	}
}

func TestSubgridsFromZoneLog(t *testing.T) {
	t.Parallel()
	var diag bytes.Buffer
	g, err := grid3d.NewBox(grid3d.BoxSpec{NCol: 1, NRow: 1, NLay: 4, Increment: [3]float64{1, 1, 1}},
		grid3d.WithSink(monitoring.NewStreams("", nil, &diag, nil)))
	require.NoError(t, err)

	require.NoError(t, g.SubgridsFromZoneLog([]int{1, 2, 3, 4, 2}, []int{1, 1, 2, 2, 3}))
	assert.Equal(t, []grid3d.Subgrid{
		{Name: "zone1", Layers: []int{1, 2}},
		{Name: "zone2", Layers: []int{3, 4}},
		{Name: "zone3", Layers: []int{2}},
	}, g.Subgrids())
	assert.Contains(t, diag.String(), "zone 3 layers 2..2 overlap zone 2")

	assert.ErrorIs(t, g.SubgridsFromZoneLog([]int{1}, nil), grid3d.ErrValidation)
	assert.ErrorIs(t, g.SubgridsFromZoneLog([]int{5}, []int{1}), grid3d.ErrValidation)
}

func TestSubgridsFromZoneLog_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		layers []int
		zones  []int
		want   []grid3d.Subgrid
	}{
		{
			name:   "layer without zone",
			layers: []int{1, 2, 4},
			zones:  []int{1, 1, 2},
			want:   []grid3d.Subgrid{{Name: "zone1", Layers: []int{1, 2}}, {Name: "zone2", Layers: []int{4}}},
		},
		{
			name:   "overlapping zones",
			layers: []int{1, 3, 2, 4},
			zones:  []int{1, 1, 2, 2},
			want:   []grid3d.Subgrid{{Name: "zone1", Layers: []int{1, 2, 3}}, {Name: "zone2", Layers: []int{2, 3, 4}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := testutil.BoxGrid(t, 1, 1, 4, 1, 1, 1)
			require.NoError(t, g.SubgridsFromZoneLog(tt.layers, tt.zones))
			require.True(t, g.SubgridsFromZones())

			d := g.Snapshot()
			assert.True(t, d.SubgridsFromZones)
			back, err := grid3d.FromImport(d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, back.Subgrids())
			assert.True(t, back.SubgridsFromZones())
			assert.Equal(t, tt.want, back.Copy().Subgrids())

			// Without the marker the same layers are not a partition.
			d.SubgridsFromZones = false
			_, err = grid3d.FromImport(d)
			assert.ErrorIs(t, err, grid3d.ErrValidation)
		})
	}
}

func TestSetSubgrids_ClearsZoneForm(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 1, 1, 4, 1, 1, 1)
	require.NoError(t, g.SubgridsFromZoneLog([]int{1, 4}, []int{1, 2}))
	require.True(t, g.SubgridsFromZones())

	require.NoError(t, g.SetSubgridsFromCounts([]grid3d.SubgridCount{{Name: "A", Count: 1}, {Name: "B", Count: 3}}))
	assert.False(t, g.SubgridsFromZones())
	assert.False(t, g.Snapshot().SubgridsFromZones)

	// The zone form still rejects repeated names and layers out of range.
	d := g.Snapshot()
	d.SubgridsFromZones = true
	d.Subgrids = []grid3d.Subgrid{{Name: "A", Layers: []int{1}}, {Name: "A", Layers: []int{2}}}
	_, err := grid3d.FromImport(d)
	assert.ErrorIs(t, err, grid3d.ErrValidation)
	d.Subgrids = []grid3d.Subgrid{{Name: "A", Layers: []int{5}}}
	_, err = grid3d.FromImport(d)
	assert.ErrorIs(t, err, grid3d.ErrValidation)
}

func TestZonePropertyRoundTrip(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 2, 2, 5, 1, 1, 1)
	_, err := g.ZonePropertyFromSubgrids()
	assert.ErrorIs(t, err, grid3d.ErrValidation)

	zones := testutil.LayerZones(t, g, "Zone", func(k int) int {
		if k <= 2 {
			return 1
		}
		return 2
	})
	require.NoError(t, g.SubgridsFromZoneProperty(zones))
	assert.Equal(t, []grid3d.SubgridCount{{Name: "zone1", Count: 2}, {Name: "zone2", Count: 3}}, g.SubgridCounts())

	p, err := g.ZonePropertyFromSubgrids()
	require.NoError(t, err)
	assert.Equal(t, "ZONE", p.Name())
	assert.Equal(t, zones.Values(), p.Values())
	assert.Equal(t, map[int]string{1: "zone1", 2: "zone2"}, p.Codes())
}

func TestSubgridsFromZoneProperty_SkipsInactive(t *testing.T) {
	t.Parallel()
	g := testutil.BoxGrid(t, 1, 1, 3, 1, 1, 1)
	require.NoError(t, g.SetActnum([]int{1, 1, 0}, grid3d.OrderF))
	zones := testutil.LayerZones(t, g, "Zone", func(k int) int { return k })
	require.NoError(t, g.SubgridsFromZoneProperty(zones))
	assert.Equal(t, []grid3d.SubgridCount{{Name: "zone1", Count: 1}, {Name: "zone2", Count: 1}}, g.SubgridCounts())
}
