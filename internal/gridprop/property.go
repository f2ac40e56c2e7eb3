package gridprop

import (
	"fmt"
	"math"
	"sort"
)

// Property is a cell-indexed array of values for a grid of dimensions
// (ncol, nrow, nlay). Values are stored in C order, K fastest:
// index = (i*nrow + j)*nlay + k, with 0-based i, j, k.
type Property struct {
	name             string
	ncol, nrow, nlay int
	values           []float64
	undef            []bool // nil when every cell is defined
	discrete         bool
	codes            map[int]string
}

// New returns a continuous property holding a copy of values, which must
// be in C order and of length ncol*nrow*nlay.
func New(name string, ncol, nrow, nlay int, values []float64) (*Property, error) {
	if ncol < 1 || nrow < 1 || nlay < 1 {
		return nil, fmt.Errorf("property %q: dimensions must be positive, got (%d, %d, %d)", name, ncol, nrow, nlay)
	}
	n := ncol * nrow * nlay
	if values == nil {
		values = make([]float64, n)
	}
	if len(values) != n {
		return nil, fmt.Errorf("property %q: got %d values for %d cells", name, len(values), n)
	}
	return &Property{
		name:   name,
		ncol:   ncol,
		nrow:   nrow,
		nlay:   nlay,
		values: append([]float64(nil), values...),
	}, nil
}

// NewConstant returns a continuous property with every cell set to v.
func NewConstant(name string, ncol, nrow, nlay int, v float64) (*Property, error) {
	p, err := New(name, ncol, nrow, nlay, nil)
	if err != nil {
		return nil, err
	}
	for i := range p.values {
		p.values[i] = v
	}
	return p, nil
}

// NewDiscrete returns a discrete property from integer codes in C order.
// codes maps code values to names and may be nil.
func NewDiscrete(name string, ncol, nrow, nlay int, values []int, codes map[int]string) (*Property, error) {
	fv := make([]float64, len(values))
	for i, v := range values {
		fv[i] = float64(v)
	}
	p, err := New(name, ncol, nrow, nlay, fv)
	if err != nil {
		return nil, err
	}
	p.discrete = true
	p.codes = make(map[int]string, len(codes))
	for k, v := range codes {
		p.codes[k] = v
	}
	return p, nil
}

func (p *Property) Name() string { return p.name }

func (p *Property) SetName(name string) { p.name = name }

// Dimensions returns (ncol, nrow, nlay).
func (p *Property) Dimensions() (int, int, int) { return p.ncol, p.nrow, p.nlay }

func (p *Property) IsDiscrete() bool { return p.discrete }

// Codes returns a copy of the code table of a discrete property.
func (p *Property) Codes() map[int]string {
	out := make(map[int]string, len(p.codes))
	for k, v := range p.codes {
		out[k] = v
	}
	return out
}

// SetCode names a discrete code.
func (p *Property) SetCode(code int, name string) {
	if p.codes == nil {
		p.codes = make(map[int]string)
	}
	p.codes[code] = name
}

// UniqueCodes returns the distinct defined values of a discrete property in
// ascending order.
func (p *Property) UniqueCodes() []int {
	seen := make(map[int]struct{})
	for idx, v := range p.values {
		if p.undef != nil && p.undef[idx] {
			continue
		}
		seen[int(v)] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

func (p *Property) index(i, j, k int) (int, error) {
	if i < 0 || i >= p.ncol || j < 0 || j >= p.nrow || k < 0 || k >= p.nlay {
		return 0, fmt.Errorf("property %q: cell (%d, %d, %d) outside (%d, %d, %d)", p.name, i, j, k, p.ncol, p.nrow, p.nlay)
	}
	return (i*p.nrow+j)*p.nlay + k, nil
}

// ValueAt returns the value at 0-based cell (i, j, k). ok is false when the
// cell is out of range or undefined.
func (p *Property) ValueAt(i, j, k int) (v float64, ok bool) {
	idx, err := p.index(i, j, k)
	if err != nil {
		return math.NaN(), false
	}
	if p.undef != nil && p.undef[idx] {
		return math.NaN(), false
	}
	return p.values[idx], true
}

// Set assigns v at 0-based cell (i, j, k) and marks the cell defined.
func (p *Property) Set(i, j, k int, v float64) error {
	idx, err := p.index(i, j, k)
	if err != nil {
		return err
	}
	p.values[idx] = v
	if p.undef != nil {
		p.undef[idx] = false
	}
	return nil
}

// SetUndefined masks the 0-based cell (i, j, k).
func (p *Property) SetUndefined(i, j, k int) error {
	idx, err := p.index(i, j, k)
	if err != nil {
		return err
	}
	if p.undef == nil {
		p.undef = make([]bool, len(p.values))
	}
	p.undef[idx] = true
	return nil
}

// Values returns a copy of the values in C order. Undefined cells hold NaN.
func (p *Property) Values() []float64 {
	out := append([]float64(nil), p.values...)
	for idx, u := range p.undef {
		if u {
			out[idx] = math.NaN()
		}
	}
	return out
}

// NDefined returns the number of defined cells.
func (p *Property) NDefined() int {
	n := len(p.values)
	for _, u := range p.undef {
		if u {
			n--
		}
	}
	return n
}

// Copy returns a deep copy of p under a new name; an empty name keeps the
// current one.
func (p *Property) Copy(name string) *Property {
	if name == "" {
		name = p.name
	}
	c := *p
	c.name = name
	c.values = append([]float64(nil), p.values...)
	if p.undef != nil {
		c.undef = append([]bool(nil), p.undef...)
	}
	c.codes = p.Codes()
	return &c
}
