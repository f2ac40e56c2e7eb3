package gridio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cornergrid/internal/gridio"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		format gridio.Format
		want   string
	}{
		{"Emerald", gridio.FormatSnapshot, "Emerald.cgrid"},
		{"31/2 E-4  (sim)", gridio.FormatJSON, "31_2_E-4_sim.json"},
		{"..", gridio.FormatSnapshot, "grid.cgrid"},
		{"", gridio.FormatJSON, "grid.json"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, gridio.FileName(tt.name, tt.format))
		})
	}
}

func TestWithRoot(t *testing.T) {
	root := t.TempDir()
	files := gridio.New(nil, gridio.WithRoot(root))
	g := zonedBox(t)

	require.NoError(t, files.Write("models/emerald.cgrid", g))
	_, err := os.Stat(filepath.Join(root, "models", "emerald.cgrid"))
	require.NoError(t, err)

	back, err := files.Read(filepath.Join(root, "models", "emerald.cgrid"))
	require.NoError(t, err)
	assert.Equal(t, g.NActive(), back.NActive())

	err = files.Write("../escape.cgrid", g)
	assert.ErrorIs(t, err, gridio.ErrOutsideRoot)
	_, err = files.Read("/etc/grid.json")
	assert.ErrorIs(t, err, gridio.ErrOutsideRoot)
}

func TestWithRoot_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	files := gridio.New(nil, gridio.WithRoot(root))

	err := files.Write("link/grid.cgrid", zonedBox(t))
	assert.ErrorIs(t, err, gridio.ErrOutsideRoot)
	_, statErr := os.Stat(filepath.Join(outside, "grid.cgrid"))
	assert.True(t, os.IsNotExist(statErr))
}
