package well

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/testutil"
)

var nan = math.NaN()

// vertical returns a vertical well at (150, 150) sampled at the depths.
func vertical(t *testing.T, name string, z ...float64) *Well {
	t.Helper()
	x := make([]float64, len(z))
	y := make([]float64, len(z))
	for n := range z {
		x[n], y[n] = 150, 150
	}
	w, err := New(name, 150, 150, 25, x, y, z)
	require.NoError(t, err)
	return w
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", 0, 0, 0, []float64{0}, []float64{0}, []float64{0})
	assert.Error(t, err)
	_, err = New("A", 0, 0, 0, []float64{0}, []float64{0}, nil)
	assert.Error(t, err)
	_, err = New("A", 0, 0, 0, nil, nil, nil)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	w := vertical(t, "31/2-E-4 AH", 0)
	assert.Equal(t, "31_2-E-4_AH", w.XWellName())
	assert.Equal(t, "31/2-E-4 AH", w.TrueWellName())
	xpos, ypos, rkb := w.Wellhead()
	assert.Equal(t, [3]float64{150, 150, 25}, [3]float64{xpos, ypos, rkb})
}

func TestLogs(t *testing.T) {
	w := vertical(t, "OP-1", 0, 1, 2)

	require.NoError(t, w.SetLog("PORO", Continuous, []float64{0.1, nan, 0.3}, nil))
	require.NoError(t, w.SetLog("ZONE", Discrete, []float64{1, 1, 2}, map[int]string{1: "Upper", 2: "Lower"}))
	assert.Equal(t, []string{"PORO", "ZONE"}, w.LogNames())

	got, ok := w.Log("PORO")
	require.True(t, ok)
	got[0] = 99
	again, _ := w.Log("PORO")
	assert.Equal(t, 0.1, again[0], "Log returns a copy")

	z, ok := w.Log(LogZ)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2}, z)

	typ, ok := w.LogType("ZONE")
	require.True(t, ok)
	assert.Equal(t, Discrete, typ)
	assert.Equal(t, "DISC", typ.String())
	name, ok := w.LogRecordCodeName("ZONE", 2)
	require.True(t, ok)
	assert.Equal(t, "Lower", name)
	_, ok = w.LogRecord("PORO")
	assert.False(t, ok)

	assert.ErrorIs(t, w.SetLog("SHORT", Continuous, []float64{1}, nil), ErrLog)
	assert.ErrorIs(t, w.SetLog("FAC", Discrete, []float64{1, 1.5, 2}, nil), ErrLog)
	assert.ErrorIs(t, w.SetLog(LogX, Continuous, []float64{1, 2, 3}, nil), ErrLog)

	assert.True(t, w.DeleteLog("PORO"))
	assert.False(t, w.DeleteLog("PORO"))
	assert.Equal(t, []string{"ZONE"}, w.LogNames())
}

func TestGeometrics(t *testing.T) {
	// Vertical, then 45 degrees.
	w, err := New("DEV", 0, 0, 0, []float64{0, 0, 10}, []float64{0, 0, 0}, []float64{100, 110, 120})
	require.NoError(t, err)
	require.NoError(t, w.Geometrics())

	md, ok := w.Log(LogMD)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{100, 110, 110 + 10*math.Sqrt2}, md, 1e-9)

	incl, ok := w.Log(LogIncl)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 0, 45}, incl, 1e-9)

	require.NoError(t, w.CreateRelativeHLen())
	hlen, _ := w.Log(LogRHLen)
	assert.InDeltaSlice(t, []float64{0, 0, 10}, hlen, 1e-12)
}

func TestFencePolyline(t *testing.T) {
	w, err := New("H", 0, 0, 0, []float64{0, 0, 100}, []float64{0, 0, 0}, []float64{0, 50, 50})
	require.NoError(t, err)

	st, err := w.FencePolyline(25, 1, 40)
	require.NoError(t, err)
	// Only the horizontal leg at depth 50 qualifies: 100 long plus one
	// station of extension each side.
	require.Len(t, st, 7)
	assert.Equal(t, -25.0, st[0].H)
	assert.InDelta(t, -25.0, st[0].X, 1e-9)
	assert.InDelta(t, 125.0, st[6].X, 1e-9)
	for _, s := range st {
		assert.Equal(t, 50.0, s.Z)
	}

	_, err = w.FencePolyline(25, 1, 60)
	assert.Error(t, err)
}

func TestZonationHoles(t *testing.T) {
	w := vertical(t, "OP-1", 0, 1, 2, 3, 4, 5, 6)
	require.NoError(t, w.SetLog("ZONE", Discrete, []float64{1, 2, 1, 1, nan, 1, 3}, nil))

	holes, err := w.ZonationHoles("ZONE", 0)
	require.NoError(t, err)
	require.Len(t, holes, 2)
	assert.Equal(t, ZoneHole{Row: 1, X: 150, Y: 150, Z: 1, Zone: 1}, holes[0])
	assert.Equal(t, 4, holes[1].Row)

	holes, err = w.ZonationHoles("ZONE", 1)
	require.NoError(t, err)
	assert.Len(t, holes, 1)

	require.NoError(t, w.SetLog("PORO", Continuous, make([]float64, 7), nil))
	_, err = w.ZonationHoles("PORO", 0)
	assert.ErrorIs(t, err, ErrLog)
	_, err = w.ZonationHoles("NOPE", 0)
	assert.ErrorIs(t, err, ErrLog)
}

func TestZonationPoints(t *testing.T) {
	w := vertical(t, "OP-1", 0, 10, 20, 30, 40)
	require.NoError(t, w.SetLog("ZONE", Discrete, []float64{1, 1, nan, 2, 3}, map[int]string{2: "Mid"}))

	tops, err := w.ZonationPoints("ZONE", true, 90, "Top")
	require.NoError(t, err)
	require.Len(t, tops, 2)
	assert.Equal(t, ZonePoint{X: 150, Y: 150, Z: 20, MD: 20, Incl: 0, Zone: 2, Name: "TopMid", Well: "OP-1"}, tops[0])
	assert.Equal(t, 35.0, tops[1].Z)
	assert.Equal(t, "Top3", tops[1].Name)

	bases, err := w.ZonationPoints("ZONE", false, 90, "Base")
	require.NoError(t, err)
	require.Len(t, bases, 2)
	assert.Equal(t, 1, bases[0].Zone)
	assert.Equal(t, "Base1", bases[0].Name)

	// A deviated well past the inclination limit yields nothing.
	dev, err := New("DEV", 0, 0, 0, []float64{0, 10, 20}, []float64{0, 0, 0}, []float64{0, 1, 2})
	require.NoError(t, err)
	require.NoError(t, dev.SetLog("ZONE", Discrete, []float64{1, 2, 3}, nil))
	pts, err := dev.ZonationPoints("ZONE", true, 45, "")
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestZonationPoints_PartialDerivedLogs(t *testing.T) {
	w := vertical(t, "OP-1", 0, 10, 20)
	require.NoError(t, w.SetLog("ZONE", Discrete, []float64{1, 2, 2}, nil))
	require.NoError(t, w.Geometrics())

	require.True(t, w.DeleteLog(LogMD))
	_, err := w.ZonationPoints("ZONE", true, 90, "")
	assert.ErrorIs(t, err, ErrLog)

	require.NoError(t, w.Geometrics())
	require.True(t, w.DeleteLog(LogIncl))
	_, err = w.ZonationPoints("ZONE", true, 90, "")
	assert.ErrorIs(t, err, ErrLog)

	// With both gone they are derived again.
	require.True(t, w.DeleteLog(LogMD))
	pts, err := w.ZonationPoints("ZONE", true, 90, "")
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, 5.0, pts[0].Z)
}

func TestReportZoneMismatch(t *testing.T) {
	g := testutil.BoxGrid(t, 3, 3, 2, 100, 100, 10)
	zones := testutil.LayerZones(t, g, "Zone", func(k int) int { return k })
	w := vertical(t, "OP-1", 2, 7, 12, 17)
	require.NoError(t, w.SetLog("ZONELOG", Discrete, []float64{1, 2, 2, 2}, nil))

	var zw grid3d.ZonedWell = w
	res, err := g.ReportZoneMismatch(zw, grid3d.ZoneMismatchSpec{
		ZoneProp:     zones,
		ZoneLog:      "ZONELOG",
		ZoneLogRange: [2]int{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Match1)
	assert.Equal(t, 4, res.TCount1)
}

func TestJSONFile(t *testing.T) {
	w := vertical(t, "OP-1", 2, 7, 12)
	require.NoError(t, w.SetLog("ZONELOG", Discrete, []float64{1, nan, 2}, map[int]string{1: "Upper", 2: "Lower"}))
	require.NoError(t, w.SetLog("PORO", Continuous, []float64{0.2, 0.25, nan}, nil))

	var buf bytes.Buffer
	require.NoError(t, w.WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"type": "DISC"`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, "OP-1", got.Name())
	assert.Equal(t, []string{"ZONELOG", "PORO"}, got.LogNames())
	zl, ok := got.Log("ZONELOG")
	require.True(t, ok)
	assert.Equal(t, 1.0, zl[0])
	assert.True(t, math.IsNaN(zl[1]))
	name, ok := got.LogRecordCodeName("ZONELOG", 2)
	require.True(t, ok)
	assert.Equal(t, "Lower", name)
	typ, ok := got.LogType("PORO")
	require.True(t, ok)
	assert.Equal(t, Continuous, typ)

	_, err = ReadJSON(strings.NewReader(`{"name": "W", "x": [0], "y": [0], "z": [0], "logs": [{"name": "A", "type": "BOOL", "values": [1]}]}`))
	assert.ErrorIs(t, err, ErrLog)
	_, err = ReadJSON(strings.NewReader(`{"name": "W", "depth": 1}`))
	assert.Error(t, err)
}
