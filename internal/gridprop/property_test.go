package gridprop

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq returns a 2x3x2 property whose value encodes its 1-based (i, j, k)
// as i*100 + j*10 + k.
func seq(t *testing.T) *Property {
	t.Helper()
	p, err := New("SEQ", 2, 3, 2, nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				require.NoError(t, p.Set(i, j, k, float64((i+1)*100+(j+1)*10+k+1)))
			}
		}
	}
	return p
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	_, err := New("X", 0, 1, 1, nil)
	assert.Error(t, err)
	_, err = New("X", 2, 2, 2, make([]float64, 7))
	assert.Error(t, err)

	p, err := NewConstant("C", 2, 2, 2, 0.25)
	require.NoError(t, err)
	v, ok := p.ValueAt(1, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, 0.25, v)
}

func TestProperty_COrder(t *testing.T) {
	t.Parallel()
	p := seq(t)
	vals := p.Values()
	// K runs fastest, then J, then I.
	assert.Equal(t, []float64{111, 112, 121, 122, 131, 132, 211, 212, 221, 222, 231, 232}, vals)

	_, ok := p.ValueAt(2, 0, 0)
	assert.False(t, ok)
	assert.Error(t, p.Set(0, 3, 0, 1))
}

func TestProperty_Undefined(t *testing.T) {
	t.Parallel()
	p := seq(t)
	require.NoError(t, p.SetUndefined(0, 0, 0))
	v, ok := p.ValueAt(0, 0, 0)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))
	assert.Equal(t, 11, p.NDefined())

	require.NoError(t, p.Set(0, 0, 0, 5))
	assert.Equal(t, 12, p.NDefined())
}

func TestProperty_Discrete(t *testing.T) {
	t.Parallel()
	p, err := NewDiscrete("ZONE", 1, 1, 4, []int{2, 1, 2, 3}, map[int]string{1: "Upper", 2: "Mid"})
	require.NoError(t, err)
	assert.True(t, p.IsDiscrete())
	assert.Equal(t, []int{1, 2, 3}, p.UniqueCodes())

	p.SetCode(3, "Lower")
	if diff := cmp.Diff(map[int]string{1: "Upper", 2: "Mid", 3: "Lower"}, p.Codes()); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}

	c := p.Copy("ZONE2")
	require.NoError(t, c.Set(0, 0, 0, 9))
	v, _ := p.ValueAt(0, 0, 0)
	assert.Equal(t, 2.0, v, "copy must not alias")
	assert.Equal(t, "ZONE2", c.Name())
}

func TestStageReverseRows(t *testing.T) {
	t.Parallel()
	p := seq(t)
	before := p.Values()

	commit, err := p.StageReverseRows()
	require.NoError(t, err)
	assert.Equal(t, before, p.Values(), "staging must not mutate")

	commit()
	v, _ := p.ValueAt(0, 0, 0)
	assert.Equal(t, 131.0, v)
	v, _ = p.ValueAt(1, 2, 1)
	assert.Equal(t, 212.0, v)

	commit, err = p.StageReverseRows()
	require.NoError(t, err)
	commit()
	assert.Equal(t, before, p.Values())
}

func TestStageCrop(t *testing.T) {
	t.Parallel()
	p := seq(t)
	require.NoError(t, p.SetUndefined(1, 1, 1))

	_, err := p.StageCrop([2]int{1, 3}, [2]int{1, 1}, [2]int{1, 1})
	assert.Error(t, err)
	_, err = p.StageCrop([2]int{2, 1}, [2]int{1, 1}, [2]int{1, 1})
	assert.Error(t, err)

	commit, err := p.StageCrop([2]int{2, 2}, [2]int{2, 3}, [2]int{2, 2})
	require.NoError(t, err)
	nc, nr, nl := p.Dimensions()
	assert.Equal(t, [3]int{2, 3, 2}, [3]int{nc, nr, nl})

	commit()
	nc, nr, nl = p.Dimensions()
	assert.Equal(t, [3]int{1, 2, 1}, [3]int{nc, nr, nl})
	vals := p.Values()
	require.Len(t, vals, 2)
	assert.True(t, math.IsNaN(vals[0]), "undefined cell carried through crop")
	assert.Equal(t, 232.0, vals[1])
}
