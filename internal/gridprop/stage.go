package gridprop

import "fmt"

// StageReverseRows prepares the property for a reversal of the J axis.
// Nothing changes until the returned commit is called.
func (p *Property) StageReverseRows() (commit func(), err error) {
	values := make([]float64, len(p.values))
	var undef []bool
	if p.undef != nil {
		undef = make([]bool, len(p.undef))
	}
	for i := 0; i < p.ncol; i++ {
		for j := 0; j < p.nrow; j++ {
			src := (i*p.nrow + j) * p.nlay
			dst := (i*p.nrow + p.nrow - 1 - j) * p.nlay
			copy(values[dst:dst+p.nlay], p.values[src:src+p.nlay])
			if undef != nil {
				copy(undef[dst:dst+p.nlay], p.undef[src:src+p.nlay])
			}
		}
	}
	return func() {
		p.values = values
		p.undef = undef
	}, nil
}

// StageCrop prepares the property for cropping to the 1-based inclusive
// ranges cols, rows and lays. The ranges are validated here so that a grid
// can stage every attached property before mutating anything.
func (p *Property) StageCrop(cols, rows, lays [2]int) (commit func(), err error) {
	for _, r := range []struct {
		name string
		rng  [2]int
		n    int
	}{{"column", cols, p.ncol}, {"row", rows, p.nrow}, {"layer", lays, p.nlay}} {
		if r.rng[0] < 1 || r.rng[1] > r.n || r.rng[0] > r.rng[1] {
			return nil, fmt.Errorf("property %q: %s range %v outside 1..%d", p.name, r.name, r.rng, r.n)
		}
	}
	nc := cols[1] - cols[0] + 1
	nr := rows[1] - rows[0] + 1
	nl := lays[1] - lays[0] + 1
	values := make([]float64, nc*nr*nl)
	var undef []bool
	if p.undef != nil {
		undef = make([]bool, len(values))
	}
	for i := 0; i < nc; i++ {
		for j := 0; j < nr; j++ {
			src := ((cols[0]-1+i)*p.nrow+rows[0]-1+j)*p.nlay + lays[0] - 1
			dst := (i*nr + j) * nl
			copy(values[dst:dst+nl], p.values[src:src+nl])
			if undef != nil {
				copy(undef[dst:dst+nl], p.undef[src:src+nl])
			}
		}
	}
	return func() {
		p.ncol, p.nrow, p.nlay = nc, nr, nl
		p.values = values
		p.undef = undef
	}, nil
}
