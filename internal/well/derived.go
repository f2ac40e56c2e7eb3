package well

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/geom"
)

func (w *Well) point(n int) r3.Vec { return r3.Vec{X: w.x[n], Y: w.y[n], Z: w.z[n]} }

// Geometrics adds LogMD, the measured depth along the trajectory starting
// at the first sample's depth, and LogIncl, the inclination from vertical
// in degrees of the segment arriving at each sample (the first sample uses
// the first segment).
func (w *Well) Geometrics() error {
	n := w.NRows()
	steps := make([]float64, n)
	incl := make([]float64, n)
	for i := 1; i < n; i++ {
		d := r3.Sub(w.point(i), w.point(i-1))
		steps[i] = r3.Norm(d)
		if steps[i] > 0 {
			incl[i] = math.Acos(math.Min(1, math.Abs(d.Z)/steps[i])) * 180 / math.Pi
		}
	}
	if n > 1 {
		incl[0] = incl[1]
	}
	md := floats.CumSum(make([]float64, n), steps)
	floats.AddConst(w.z[0], md)

	if err := w.SetLog(LogMD, Continuous, md, nil); err != nil {
		return err
	}
	return w.SetLog(LogIncl, Continuous, incl, nil)
}

// CreateRelativeHLen adds LogRHLen, the cumulative horizontal length along
// the trajectory from the first sample.
func (w *Well) CreateRelativeHLen() error {
	pts := make([]r3.Vec, w.NRows())
	for n := range pts {
		pts[n] = w.point(n)
	}
	return w.SetLog(LogRHLen, Continuous, geom.HorizontalLengths(pts), nil)
}

// FencePolyline resamples the part of the trajectory at or below tvdmin at
// constant horizontal spacing, extended by nextend stations at each end.
func (w *Well) FencePolyline(sampling float64, nextend int, tvdmin float64) ([]geom.FencePoint, error) {
	var pts []r3.Vec
	for n := 0; n < w.NRows(); n++ {
		if w.z[n] >= tvdmin {
			pts = append(pts, w.point(n))
		}
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("well %q has %d samples below %g, need 2", w.name, len(pts), tvdmin)
	}
	stations, err := geom.ResamplePolyline(pts, sampling, nextend)
	if err != nil {
		return nil, fmt.Errorf("well %q: %w", w.name, err)
	}
	w.log.Diagf("well %q fence: %d stations from %d samples", w.name, len(stations), len(pts))
	return stations, nil
}

// ZoneHole is a sample whose zone differs from two equal neighbours.
type ZoneHole struct {
	Row     int
	X, Y, Z float64
	// Zone is the zone of the surrounding samples.
	Zone int
}

// ZonationHoles returns up to maxholes samples of the discrete zonelog
// whose zone (or lack of one) differs from the defined, equal zones of the
// samples just above and below.
func (w *Well) ZonationHoles(zonelog string, maxholes int) ([]ZoneHole, error) {
	z, err := w.discreteLog(zonelog)
	if err != nil {
		return nil, err
	}
	var holes []ZoneHole
	for n := 1; n+1 < len(z); n++ {
		above, below := z[n-1], z[n+1]
		if math.IsNaN(above) || above != below || z[n] == above {
			continue
		}
		holes = append(holes, ZoneHole{Row: n, X: w.x[n], Y: w.y[n], Z: w.z[n], Zone: int(above)})
		if maxholes > 0 && len(holes) >= maxholes {
			w.log.Opsf("well %q: zonation hole limit %d reached", w.name, maxholes)
			break
		}
	}
	return holes, nil
}

// ZonePoint is a zone boundary crossed by the trajectory.
type ZonePoint struct {
	X, Y, Z float64
	MD      float64
	Incl    float64
	Zone    int
	Name    string
	Well    string
}

// ZonationPoints returns the zone boundaries crossed by the trajectory,
// located midway between the two samples on either side. With tops set
// each point is the top of the deeper zone; otherwise it is the base of
// the shallower one. Points where the inclination exceeds inclLimit degrees
// are skipped. Names are prefix followed by the zone code name, or the code
// when the log has none. Q_MDEPTH and Q_INCL are derived when both are
// absent; a well holding only one of them is an ErrLog.
func (w *Well) ZonationPoints(zonelog string, tops bool, inclLimit float64, prefix string) ([]ZonePoint, error) {
	z, err := w.discreteLog(zonelog)
	if err != nil {
		return nil, err
	}
	mdLog, hasMD := w.logs[LogMD]
	inclLog, hasIncl := w.logs[LogIncl]
	switch {
	case !hasMD && !hasIncl:
		if err := w.Geometrics(); err != nil {
			return nil, err
		}
		mdLog, inclLog = w.logs[LogMD], w.logs[LogIncl]
	case !hasMD:
		return nil, fmt.Errorf("%w: well %q has %s but no %s", ErrLog, w.name, LogIncl, LogMD)
	case !hasIncl:
		return nil, fmt.Errorf("%w: well %q has %s but no %s", ErrLog, w.name, LogMD, LogIncl)
	}
	md, incl := mdLog.values, inclLog.values

	var out []ZonePoint
	prev := -1
	for n := range z {
		if math.IsNaN(z[n]) {
			continue
		}
		if prev >= 0 && z[n] != z[prev] {
			in := math.Max(incl[prev], incl[n])
			if in <= inclLimit {
				zone := int(z[n])
				if !tops {
					zone = int(z[prev])
				}
				name, ok := w.LogRecordCodeName(zonelog, zone)
				if !ok {
					name = strconv.Itoa(zone)
				}
				out = append(out, ZonePoint{
					X:    (w.x[prev] + w.x[n]) / 2,
					Y:    (w.y[prev] + w.y[n]) / 2,
					Z:    (w.z[prev] + w.z[n]) / 2,
					MD:   (md[prev] + md[n]) / 2,
					Incl: in,
					Zone: zone,
					Name: prefix + name,
					Well: w.name,
				})
			}
		}
		prev = n
	}
	return out, nil
}

func (w *Well) discreteLog(name string) ([]float64, error) {
	l, ok := w.logs[name]
	if !ok {
		return nil, fmt.Errorf("%w: well %q has no log %q", ErrLog, w.name, name)
	}
	if l.typ != Discrete {
		return nil, fmt.Errorf("%w: %q is not discrete", ErrLog, name)
	}
	return l.values, nil
}
