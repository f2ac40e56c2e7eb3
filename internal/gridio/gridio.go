// Package gridio reads and writes corner-point grids as files. The format is
// chosen by file extension: .cgrid for compressed snapshots and .json for
// readable import records.
package gridio

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/monitoring"
)

// Files reads and writes grids on a FileSystem.
type Files struct {
	fs   FileSystem
	log  monitoring.Sink
	root string
}

// Option configures Files.
type Option func(*Files)

// WithSink routes file diagnostics, and the diagnostics of grids read back,
// to s.
func WithSink(s monitoring.Sink) Option {
	return func(f *Files) { f.log = monitoring.OrDiscard(s) }
}

// New returns Files on fsys. A nil fsys means the OS filesystem.
func New(fsys FileSystem, opts ...Option) *Files {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	f := &Files{fs: fsys, log: monitoring.Discard}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Read decodes the grid at path. The grid's source is set to path when the
// file does not name one.
func (f *Files) Read(path string, opts ...grid3d.Option) (*grid3d.Grid, error) {
	d, err := f.ReadImport(path)
	if err != nil {
		return nil, err
	}
	if d.Source == "" {
		d.Source = path
	}
	opts = append([]grid3d.Option{grid3d.WithSink(f.log)}, opts...)
	g, err := grid3d.FromImport(d, opts...)
	if err != nil {
		return nil, fmt.Errorf("grid file %s: %w", path, err)
	}
	return g, nil
}

// ReadImport decodes the import record at path without building a grid.
func (f *Files) ReadImport(path string) (d grid3d.ImportData, err error) {
	codec, err := codecForPath(path)
	if err != nil {
		return d, err
	}
	if path, err = f.resolve(path); err != nil {
		return d, err
	}
	r, err := f.fs.Open(path)
	if err != nil {
		return d, fmt.Errorf("open grid file: %w", err)
	}
	defer r.Close()

	d, err = codec.Decode(r)
	if err != nil {
		return d, fmt.Errorf("grid file %s: %w", path, err)
	}
	f.log.Diagf("read grid %q (%d x %d x %d) from %s", d.Name, d.NCol, d.NRow, d.NLay, path)
	return d, nil
}

// Write encodes g to path, creating parent directories as needed.
func (f *Files) Write(path string, g *grid3d.Grid) (err error) {
	codec, err := codecForPath(path)
	if err != nil {
		return err
	}
	if path, err = f.resolve(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	w, err := f.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create grid file: %w", err)
	}
	defer func() {
		err = errors.Join(err, w.Close())
		if err != nil {
			f.fs.Remove(path)
		}
	}()

	if err := codec.Encode(w, g.Snapshot()); err != nil {
		return fmt.Errorf("grid file %s: %w", path, err)
	}
	ncol, nrow, nlay := g.Dimensions()
	f.log.Diagf("wrote grid %q (%d x %d x %d) to %s", g.Name(), ncol, nrow, nlay, path)
	return nil
}

func codecForPath(path string) (Codec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return CodecFor(format)
}
