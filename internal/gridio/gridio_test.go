package gridio_test

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/gridio"
	"github.com/banshee-data/cornergrid/internal/monitoring"
)

// zonedBox is a rotated 3x2x4 box with two subgrids and one inactive cell.
func zonedBox(t *testing.T) *grid3d.Grid {
	t.Helper()
	g, err := grid3d.NewBox(grid3d.BoxSpec{
		NCol: 3, NRow: 2, NLay: 4,
		Origin:    [3]float64{1000, 2000, 1500},
		Increment: [3]float64{50, 25, 2.5},
		Rotation:  12,
	}, grid3d.WithName("Emerald"))
	require.NoError(t, err)
	require.NoError(t, g.SetSubgrids([]grid3d.Subgrid{
		{Name: "Upper", Layers: []int{1, 2}},
		{Name: "Lower", Layers: []int{3, 4}},
	}))
	act := make([]int, g.NTotal())
	for n := range act {
		act[n] = 1
	}
	act[5] = 0
	require.NoError(t, g.SetActnum(act, grid3d.OrderF))
	return g
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    gridio.Format
		wantErr bool
	}{
		{"a/b/grid.cgrid", gridio.FormatSnapshot, false},
		{"GRID.CGRID", gridio.FormatSnapshot, false},
		{"grid.json", gridio.FormatJSON, false},
		{"grid.grdecl", 0, true},
		{"grid", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := gridio.FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, gridio.ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(filepath.Ext(tt.path)), got.Extension())
		})
	}
	assert.Equal(t, "snapshot", gridio.FormatSnapshot.String())
	assert.Equal(t, "json", gridio.FormatJSON.String())
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"out/emerald.cgrid", "out/emerald.json"} {
		t.Run(name, func(t *testing.T) {
			g := zonedBox(t)
			mem := gridio.NewMemoryFileSystem()
			var diag bytes.Buffer
			files := gridio.New(mem, gridio.WithSink(monitoring.NewStreams("", nil, &diag, nil)))

			require.NoError(t, files.Write(name, g))
			info, err := mem.Stat(name)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
			dir, err := mem.Stat("out")
			require.NoError(t, err)
			assert.True(t, dir.IsDir())

			back, err := files.Read(name)
			require.NoError(t, err)
			assert.Equal(t, "Emerald", back.Name())
			assert.Equal(t, "box", back.Source(), "the recorded source is kept")
			assert.Equal(t, g.NActive(), back.NActive())

			if diff := cmp.Diff(g.Snapshot(), back.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
			assert.Contains(t, diag.String(), "wrote grid \"Emerald\" (3 x 2 x 4)")
			assert.Contains(t, diag.String(), "read grid \"Emerald\" (3 x 2 x 4) from "+name)
		})
	}
}

func TestRoundTrip_ZoneLogSubgrids(t *testing.T) {
	for _, name := range []string{"zones.cgrid", "zones.json"} {
		t.Run(name, func(t *testing.T) {
			g, err := grid3d.NewBox(grid3d.BoxSpec{NCol: 1, NRow: 1, NLay: 4, Increment: [3]float64{1, 1, 1}})
			require.NoError(t, err)
			// zone1 spans layers 1..3 and zone2 layers 2..4.
			require.NoError(t, g.SubgridsFromZoneLog([]int{1, 3, 2, 4}, []int{1, 1, 2, 2}))

			files := gridio.New(gridio.NewMemoryFileSystem())
			require.NoError(t, files.Write(name, g))
			back, err := files.Read(name)
			require.NoError(t, err)
			assert.Equal(t, g.Subgrids(), back.Subgrids())
			assert.True(t, back.SubgridsFromZones())
		})
	}
}

func TestSnapshotSmallerThanJSON(t *testing.T) {
	g, err := grid3d.NewBox(grid3d.BoxSpec{NCol: 20, NRow: 20, NLay: 10, Increment: [3]float64{10, 10, 1}})
	require.NoError(t, err)

	var snap, js bytes.Buffer
	c, err := gridio.CodecFor(gridio.FormatSnapshot)
	require.NoError(t, err)
	require.NoError(t, c.Encode(&snap, g.Snapshot()))
	c, err = gridio.CodecFor(gridio.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, c.Encode(&js, g.Snapshot()))

	assert.Less(t, snap.Len(), js.Len())
	assert.True(t, bytes.HasPrefix(snap.Bytes(), []byte("CGRD")))
}

func TestOSFileSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grid.cgrid")
	files := gridio.New(nil)

	require.NoError(t, files.Write(path, zonedBox(t)))
	g, err := files.Read(path, grid3d.WithName("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", g.Name())
	assert.Equal(t, []grid3d.SubgridCount{{Name: "Upper", Count: 2}, {Name: "Lower", Count: 2}}, g.SubgridCounts())
}

func TestReadErrors(t *testing.T) {
	mem := gridio.NewMemoryFileSystem()
	files := gridio.New(mem)

	_, err := files.Read("missing.cgrid")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = files.Read("grid.txt")
	assert.ErrorIs(t, err, gridio.ErrFormat)

	writeRaw(t, mem, "fake.cgrid", "not a snapshot")
	_, err = files.Read("fake.cgrid")
	assert.ErrorIs(t, err, gridio.ErrFormat)

	writeRaw(t, mem, "short.cgrid", "CG")
	_, err = files.Read("short.cgrid")
	assert.ErrorIs(t, err, gridio.ErrFormat)

	writeRaw(t, mem, "extra.json", `{"ncol": 1, "nrow": 1, "nlay": 1, "colour": "red"}`)
	_, err = files.Read("extra.json")
	assert.ErrorIs(t, err, gridio.ErrFormat)

	writeRaw(t, mem, "small.json", `{"ncol": 1, "nrow": 1, "nlay": 1, "coord": [0], "zcorn": [0]}`)
	_, err = files.Read("small.json")
	assert.ErrorIs(t, err, grid3d.ErrValidation)
}

func TestWriteUnknownFormat(t *testing.T) {
	mem := gridio.NewMemoryFileSystem()
	err := gridio.New(mem).Write("grid.egrid", zonedBox(t))
	assert.ErrorIs(t, err, gridio.ErrFormat)
	_, statErr := mem.Stat("grid.egrid")
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func writeRaw(t *testing.T, fsys gridio.FileSystem, name, body string) {
	t.Helper()
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}
