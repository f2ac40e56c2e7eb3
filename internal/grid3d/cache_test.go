package grid3d

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCached(t *testing.T) {
	c := newDerivedCache()
	calls := 0
	compute := func() int { calls++; return 42 }

	assert.Equal(t, 42, cached(c, "answer", compute))
	assert.Equal(t, 42, cached(c, "answer", compute))
	assert.Equal(t, 1, calls)

	c.clear()
	assert.Zero(t, c.len())
	assert.Equal(t, 42, cached(c, "answer", compute))
	assert.Equal(t, 2, calls)
}

func TestTransformsInvalidateCache(t *testing.T) {
	g, err := NewBox(BoxSpec{NCol: 2, NRow: 2, NLay: 2, Increment: [3]float64{10, 10, 1}})
	require.NoError(t, err)

	ops := []struct {
		name string
		run  func() error
	}{
		{"translate", func() error { return g.TranslateCoordinates([3]float64{1, 0, 0}, [3]int{1, 1, 1}) }},
		{"reverse", func() error { return g.ReverseRowAxis(Undetermined) }},
		{"actnum", func() error { return g.SetActnum([]int{1, 1, 1, 1, 0, 1, 1, 1}, OrderF) }},
		{"refine", func() error { return g.RefineVertically(Refinement{Factor: 2}) }},
		{"zconsistent", func() error { return g.MakeZConsistent(0) }},
		{"crop", func() error { return g.Crop([2]int{1, 2}, [2]int{1, 2}, [2]int{1, 3}, false) }},
	}
	for _, op := range ops {
		g.Handedness()
		g.NActive()
		_, err := g.Geometrics(true, true)
		require.NoError(t, err)
		g.IJKFromXYZ(r3.Vec{X: 5, Y: 5, Z: 0.5}, false, false)
		require.Positive(t, g.cache.len())

		require.NoError(t, op.run(), op.name)
		assert.Zero(t, g.cache.len(), "%s must clear derived quantities", op.name)
	}
}

func TestGeometrics_ConcurrentQueries(t *testing.T) {
	g, err := NewBox(BoxSpec{NCol: 4, NRow: 4, NLay: 8, Increment: [3]float64{10, 10, 1}, Rotation: 12})
	require.NoError(t, err)
	want := g.Copy()
	ref, err := want.Geometrics(false, true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := g.Geometrics(false, true)
			assert.NoError(t, err)
			assert.Equal(t, ref, got)
			g.IJKFromXYZ(r3.Vec{X: 1, Y: 1, Z: 0.5}, true, false)
		}()
	}
	wg.Wait()
}
