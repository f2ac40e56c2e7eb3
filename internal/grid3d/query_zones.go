package grid3d

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMissingLog is returned by ReportZoneMismatch when a named well log
// does not exist.
var ErrMissingLog = errors.New("well log not found")

// ZonedWell is the well collaborator used for zone mismatch reports.
type ZonedWell interface {
	Name() string
	NRows() int
	// Trajectory returns the X, Y and depth of every sample.
	Trajectory() (x, y, z []float64)
	// Log returns a copy of the named log, NaN where undefined.
	Log(name string) ([]float64, bool)
}

// ZoneMismatchSpec configures ReportZoneMismatch.
type ZoneMismatchSpec struct {
	ZoneProp CellValues
	ZoneLog  string
	// ZoneLogRange is the inclusive range of zone codes considered.
	ZoneLogRange [2]int
	// ZoneLogShift is added to the well zone codes before comparing.
	ZoneLogShift int
	// DepthRange restricts samples to an inclusive depth interval when set.
	DepthRange *[2]float64
	// PerfLog and FilterLog, when named, keep only samples where the log
	// value is positive.
	PerfLog   string
	FilterLog string
}

// ZoneMismatch holds match statistics for the two counting policies.
// Policy 1 counts samples whose well zone lies in range; policy 2 counts
// samples where either the well zone or the grid zone lies in range.
// Match values are percentages, 0 when nothing was counted.
type ZoneMismatch struct {
	Match1  float64 `json:"match1"`
	MCount1 int     `json:"mcount1"`
	TCount1 int     `json:"tcount1"`
	Match2  float64 `json:"match2"`
	MCount2 int     `json:"mcount2"`
	TCount2 int     `json:"tcount2"`
}

// ReportZoneMismatch walks the well trajectory, locates each sample in the
// active grid and compares the well zone log with the grid zone property.
func (g *Grid) ReportZoneMismatch(well ZonedWell, spec ZoneMismatchSpec) (ZoneMismatch, error) {
	if spec.ZoneProp == nil {
		return ZoneMismatch{}, validationf("zone property is required")
	}
	if err := g.checkDims(spec.ZoneProp); err != nil {
		return ZoneMismatch{}, err
	}
	if spec.ZoneLogRange[0] > spec.ZoneLogRange[1] {
		return ZoneMismatch{}, validationf("zone log range %v is reversed", spec.ZoneLogRange)
	}
	zlog, ok := well.Log(spec.ZoneLog)
	if !ok {
		return ZoneMismatch{}, fmt.Errorf("well %q: zone log %q: %w", well.Name(), spec.ZoneLog, ErrMissingLog)
	}
	filters := make([][]float64, 0, 2)
	for _, name := range []string{spec.PerfLog, spec.FilterLog} {
		if name == "" {
			continue
		}
		l, ok := well.Log(name)
		if !ok {
			return ZoneMismatch{}, fmt.Errorf("well %q: log %q: %w", well.Name(), name, ErrMissingLog)
		}
		filters = append(filters, l)
	}

	x, y, z := well.Trajectory()
	for _, l := range append(filters, zlog) {
		if len(l) != len(x) {
			return ZoneMismatch{}, validationf("well %q: log has %d samples, trajectory %d", well.Name(), len(l), len(x))
		}
	}
	inRange := func(v int) bool { return v >= spec.ZoneLogRange[0] && v <= spec.ZoneLogRange[1] }
	var res ZoneMismatch
	for n := range x {
		if math.IsNaN(zlog[n]) {
			continue
		}
		if spec.DepthRange != nil && (z[n] < spec.DepthRange[0] || z[n] > spec.DepthRange[1]) {
			continue
		}
		skip := false
		for _, f := range filters {
			if !(f[n] > 0) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		i, j, k, ok := g.locate(r3.Vec{X: x[n], Y: y[n], Z: z[n]}, true)
		if !ok {
			continue
		}
		gv, ok := spec.ZoneProp.ValueAt(i, j, k)
		if !ok {
			continue
		}
		wz := int(math.Round(zlog[n])) + spec.ZoneLogShift
		gz := int(math.Round(gv))
		if inRange(wz) {
			res.TCount1++
			if wz == gz {
				res.MCount1++
			}
		}
		if inRange(wz) || inRange(gz) {
			res.TCount2++
			if wz == gz {
				res.MCount2++
			}
		}
	}
	if res.TCount1 > 0 {
		res.Match1 = 100 * float64(res.MCount1) / float64(res.TCount1)
	}
	if res.TCount2 > 0 {
		res.Match2 = 100 * float64(res.MCount2) / float64(res.TCount2)
	}
	g.log.Diagf("zone mismatch for %q: %.1f%% (%d/%d), %.1f%% (%d/%d)",
		well.Name(), res.Match1, res.MCount1, res.TCount1, res.Match2, res.MCount2, res.TCount2)
	return res, nil
}
