// Package well holds a deviated well trajectory with named sample logs. It
// is the well side of grid zone mismatch reports and fence sampling.
package well

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/banshee-data/cornergrid/internal/monitoring"
)

// ErrLog marks a missing or malformed log.
var ErrLog = errors.New("well log")

// Names of the trajectory logs and of the derived logs.
const (
	LogX     = "X_UTME"
	LogY     = "Y_UTMN"
	LogZ     = "Z_TVDSS"
	LogMD    = "Q_MDEPTH"
	LogIncl  = "Q_INCL"
	LogRHLen = "R_HLEN"
)

// LogType tells continuous logs from discrete, coded ones.
type LogType int

const (
	Continuous LogType = iota
	Discrete
)

func (t LogType) String() string {
	if t == Discrete {
		return "DISC"
	}
	return "CONT"
}

type sampleLog struct {
	typ    LogType
	values []float64 // NaN where undefined
	codes  map[int]string
}

// Well is a trajectory of X, Y and depth samples with logs of equal length.
type Well struct {
	name       string
	xpos, ypos float64
	rkb        float64

	x, y, z []float64
	logs    map[string]*sampleLog
	order   []string

	log monitoring.Sink
}

// Option configures a Well.
type Option func(*Well)

// WithSink routes well diagnostics to s.
func WithSink(s monitoring.Sink) Option {
	return func(w *Well) { w.log = monitoring.OrDiscard(s) }
}

// New builds a well from its trajectory. xpos, ypos and rkb describe the
// wellhead; the arrays are copied.
func New(name string, xpos, ypos, rkb float64, x, y, z []float64, opts ...Option) (*Well, error) {
	if name == "" {
		return nil, errors.New("well name must not be empty")
	}
	if len(x) != len(y) || len(x) != len(z) {
		return nil, fmt.Errorf("trajectory arrays differ in length: %d, %d, %d", len(x), len(y), len(z))
	}
	if len(x) == 0 {
		return nil, errors.New("trajectory has no samples")
	}
	w := &Well{
		name: name,
		xpos: xpos,
		ypos: ypos,
		rkb:  rkb,
		x:    append([]float64(nil), x...),
		y:    append([]float64(nil), y...),
		z:    append([]float64(nil), z...),
		logs: make(map[string]*sampleLog),
		log:  monitoring.Discard,
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

func (w *Well) Name() string { return w.name }

// Wellhead returns the wellhead position and rotary kelly bushing height.
func (w *Well) Wellhead() (xpos, ypos, rkb float64) { return w.xpos, w.ypos, w.rkb }

// NRows returns the number of samples.
func (w *Well) NRows() int { return len(w.z) }

// Trajectory returns copies of the X, Y and depth arrays.
func (w *Well) Trajectory() (x, y, z []float64) {
	return append([]float64(nil), w.x...), append([]float64(nil), w.y...), append([]float64(nil), w.z...)
}

// XWellName is the name with blanks and slashes replaced by underscores,
// usable in file names.
func (w *Well) XWellName() string {
	return strings.NewReplacer(" ", "_", "/", "_").Replace(w.name)
}

// TrueWellName reverses XWellName on the usual naming convention: the first
// underscore becomes a slash and the rest become blanks.
func (w *Well) TrueWellName() string {
	n := strings.Replace(w.XWellName(), "_", "/", 1)
	return strings.ReplaceAll(n, "_", " ")
}

// SetLog adds or replaces a log. values must have one entry per sample; NaN
// marks undefined samples. Discrete logs take an optional code table and
// their defined values must be whole numbers.
func (w *Well) SetLog(name string, typ LogType, values []float64, codes map[int]string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrLog)
	}
	switch name {
	case LogX, LogY, LogZ:
		return fmt.Errorf("%w: %q is a trajectory log", ErrLog, name)
	}
	if len(values) != w.NRows() {
		return fmt.Errorf("%w: %q has %d values, well has %d rows", ErrLog, name, len(values), w.NRows())
	}
	l := &sampleLog{typ: typ, values: append([]float64(nil), values...)}
	if typ == Discrete {
		for n, v := range values {
			if !math.IsNaN(v) && v != math.Trunc(v) {
				return fmt.Errorf("%w: discrete %q has fraction %g at row %d", ErrLog, name, v, n)
			}
		}
		l.codes = make(map[int]string, len(codes))
		for c, s := range codes {
			l.codes[c] = s
		}
	}
	if _, ok := w.logs[name]; !ok {
		w.order = append(w.order, name)
	}
	w.logs[name] = l
	return nil
}

// Log returns a copy of the named log. The trajectory logs are available
// under LogX, LogY and LogZ.
func (w *Well) Log(name string) ([]float64, bool) {
	switch name {
	case LogX:
		return append([]float64(nil), w.x...), true
	case LogY:
		return append([]float64(nil), w.y...), true
	case LogZ:
		return append([]float64(nil), w.z...), true
	}
	l, ok := w.logs[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), l.values...), true
}

// LogNames returns the non-trajectory logs in insertion order.
func (w *Well) LogNames() []string {
	return append([]string(nil), w.order...)
}

// LogType returns the type of the named log.
func (w *Well) LogType(name string) (LogType, bool) {
	switch name {
	case LogX, LogY, LogZ:
		return Continuous, true
	}
	l, ok := w.logs[name]
	if !ok {
		return Continuous, false
	}
	return l.typ, true
}

// LogRecord returns a copy of the code table of a discrete log.
func (w *Well) LogRecord(name string) (map[int]string, bool) {
	l, ok := w.logs[name]
	if !ok || l.typ != Discrete {
		return nil, false
	}
	out := make(map[int]string, len(l.codes))
	for c, s := range l.codes {
		out[c] = s
	}
	return out, true
}

// LogRecordCodeName returns the name of a code in a discrete log.
func (w *Well) LogRecordCodeName(name string, code int) (string, bool) {
	l, ok := w.logs[name]
	if !ok || l.typ != Discrete {
		return "", false
	}
	s, ok := l.codes[code]
	return s, ok
}

// DeleteLog removes a log and reports whether it existed.
func (w *Well) DeleteLog(name string) bool {
	if _, ok := w.logs[name]; !ok {
		return false
	}
	delete(w.logs, name)
	if n := slices.Index(w.order, name); n >= 0 {
		w.order = slices.Delete(w.order, n, n+1)
	}
	return true
}
