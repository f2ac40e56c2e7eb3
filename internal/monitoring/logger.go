package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger used by command-line tools and
// the migration runner. It defaults to log.Printf but may be replaced by
// SetLogger. Core grid code does not use it; it takes a Sink instead.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Sink receives diagnostics from grid components. It is passed explicitly to
// the components that need it.
type Sink interface {
	// Opsf logs actionable warnings: detached properties, replaced subgrids.
	Opsf(format string, args ...interface{})
	// Diagf logs day-to-day diagnostics and tuning context.
	Diagf(format string, args ...interface{})
	// Tracef logs high-frequency per-cell or per-sample telemetry.
	Tracef(format string, args ...interface{})
}

// Streams is a Sink backed by up to three log.Logger streams.
type Streams struct {
	ops   *log.Logger
	diag  *log.Logger
	trace *log.Logger
}

// NewStreams builds a Sink writing each stream to its own writer with the
// given prefix. Pass nil for any writer to disable that stream.
func NewStreams(prefix string, ops, diag, trace io.Writer) *Streams {
	return &Streams{
		ops:   newLogger(prefix, ops),
		diag:  newLogger(prefix, diag),
		trace: newLogger(prefix, trace),
	}
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func (s *Streams) Opsf(format string, args ...interface{}) {
	if s != nil && s.ops != nil {
		s.ops.Printf(format, args...)
	}
}

// Diagf logs to the diag stream.
func (s *Streams) Diagf(format string, args ...interface{}) {
	if s != nil && s.diag != nil {
		s.diag.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func (s *Streams) Tracef(format string, args ...interface{}) {
	if s != nil && s.trace != nil {
		s.trace.Printf(format, args...)
	}
}

type discard struct{}

func (discard) Opsf(string, ...interface{})   {}
func (discard) Diagf(string, ...interface{})  {}
func (discard) Tracef(string, ...interface{}) {}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
