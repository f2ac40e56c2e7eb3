package well

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// wellFile is the JSON layout of a well. Undefined log samples are null.
type wellFile struct {
	Name string    `json:"name"`
	XPos float64   `json:"xpos"`
	YPos float64   `json:"ypos"`
	RKB  float64   `json:"rkb"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
	Z    []float64 `json:"z"`
	Logs []fileLog `json:"logs,omitempty"`
}

type fileLog struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Values []*float64     `json:"values"`
	Codes  map[int]string `json:"codes,omitempty"`
}

// ReadJSON decodes a well written by WriteJSON.
func ReadJSON(r io.Reader, opts ...Option) (*Well, error) {
	var f wellFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode well: %w", err)
	}
	w, err := New(f.Name, f.XPos, f.YPos, f.RKB, f.X, f.Y, f.Z, opts...)
	if err != nil {
		return nil, err
	}
	for _, l := range f.Logs {
		var typ LogType
		switch l.Type {
		case "", Continuous.String():
			typ = Continuous
		case Discrete.String():
			typ = Discrete
		default:
			return nil, fmt.Errorf("%w: %q has unknown type %q", ErrLog, l.Name, l.Type)
		}
		values := make([]float64, len(l.Values))
		for n, v := range l.Values {
			values[n] = math.NaN()
			if v != nil {
				values[n] = *v
			}
		}
		if err := w.SetLog(l.Name, typ, values, l.Codes); err != nil {
			return nil, err
		}
	}
	w.log.Diagf("read well %q with %d rows and %d logs", w.name, w.NRows(), len(f.Logs))
	return w, nil
}

// WriteJSON encodes the well and its logs, derived logs included.
func (w *Well) WriteJSON(out io.Writer) error {
	f := wellFile{
		Name: w.name, XPos: w.xpos, YPos: w.ypos, RKB: w.rkb,
		X: w.x, Y: w.y, Z: w.z,
	}
	for _, name := range w.order {
		l := w.logs[name]
		fl := fileLog{Name: name, Type: l.typ.String(), Values: make([]*float64, len(l.values))}
		for n, v := range l.values {
			if !math.IsNaN(v) {
				fl.Values[n] = &v
			}
		}
		if l.typ == Discrete && len(l.codes) > 0 {
			fl.Codes = l.codes
		}
		f.Logs = append(f.Logs, fl)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}
