package grid3d

// Dimensioned is anything sized to a grid.
type Dimensioned interface {
	Dimensions() (ncol, nrow, nlay int)
}

// CellValues is a read-only cell-indexed array.
type CellValues interface {
	Dimensioned
	// ValueAt returns the value at the 0-based cell (i, j, k); ok is false
	// where the value is undefined.
	ValueAt(i, j, k int) (v float64, ok bool)
}

// AttachedProperty is a property linked to a grid. It follows the grid
// through row reversal and cropping in two phases: Stage* computes the new
// layout without changing anything and returns a commit that applies it.
type AttachedProperty interface {
	Dimensioned
	Name() string
	StageReverseRows() (commit func(), err error)
	// StageCrop takes 1-based inclusive ranges.
	StageCrop(cols, rows, lays [2]int) (commit func(), err error)
}

func (g *Grid) checkDims(p Dimensioned) error {
	nc, nr, nl := p.Dimensions()
	if nc != g.ncol || nr != g.nrow || nl != g.nlay {
		return validationf("property dimensions (%d, %d, %d) do not match grid (%d, %d, %d)", nc, nr, nl, g.ncol, g.nrow, g.nlay)
	}
	return nil
}

// AppendProp attaches p. Its dimensions must match the grid and its name
// must not already be attached.
func (g *Grid) AppendProp(p AttachedProperty) error {
	if err := g.checkDims(p); err != nil {
		return err
	}
	if _, ok := g.PropByName(p.Name()); ok {
		return validationf("property %q is already attached", p.Name())
	}
	g.props = append(g.props, p)
	return nil
}

// SetProps replaces the attached properties. Nothing changes on error.
func (g *Grid) SetProps(props []AttachedProperty) error {
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if err := g.checkDims(p); err != nil {
			return err
		}
		if seen[p.Name()] {
			return validationf("property %q given twice", p.Name())
		}
		seen[p.Name()] = true
	}
	g.props = append([]AttachedProperty(nil), props...)
	return nil
}

// Props returns the attached properties.
func (g *Grid) Props() []AttachedProperty {
	return append([]AttachedProperty(nil), g.props...)
}

func (g *Grid) PropNames() []string {
	names := make([]string, len(g.props))
	for n, p := range g.props {
		names[n] = p.Name()
	}
	return names
}

func (g *Grid) PropByName(name string) (AttachedProperty, bool) {
	for _, p := range g.props {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// detachProps drops every attached property, reporting it on the ops
// stream since callers lose the link.
func (g *Grid) detachProps(op string) {
	if len(g.props) == 0 {
		return
	}
	g.log.Opsf("%s: detached properties %v, they no longer match the grid", op, g.PropNames())
	g.props = nil
}

// stageProps runs stage on every attached property and returns the commits.
// The first failure aborts with a PropertyMismatchError and no commits run.
func (g *Grid) stageProps(op string, stage func(AttachedProperty) (func(), error)) ([]func(), error) {
	commits := make([]func(), 0, len(g.props))
	for _, p := range g.props {
		if err := g.checkDims(p); err != nil {
			return nil, &PropertyMismatchError{Property: p.Name(), Op: op, Err: err}
		}
		c, err := stage(p)
		if err != nil {
			return nil, &PropertyMismatchError{Property: p.Name(), Op: op, Err: err}
		}
		commits = append(commits, c)
	}
	return commits, nil
}
