package gridio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/banshee-data/cornergrid/internal/grid3d"
)

// ErrFormat marks an unknown file format or a file that is not in the
// format its name claims.
var ErrFormat = errors.New("grid file format")

// Format selects the on-disk encoding of a grid.
type Format int

const (
	// FormatSnapshot is a zstd compressed msgpack record behind a short
	// magic header. It is the compact native format.
	FormatSnapshot Format = iota
	// FormatJSON is the import record as indented JSON, for inspection and
	// hand-edited test grids.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatSnapshot:
		return "snapshot"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension written for f.
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".cgrid"
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cgrid":
		return FormatSnapshot, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: unknown extension %q", ErrFormat, ext)
	}
}

// Codec encodes and decodes grid import records.
type Codec interface {
	Decode(r io.Reader) (grid3d.ImportData, error)
	Encode(w io.Writer, d grid3d.ImportData) error
}

// CodecFor returns the codec of a format.
func CodecFor(f Format) (Codec, error) {
	switch f {
	case FormatSnapshot:
		return snapshotCodec{}, nil
	case FormatJSON:
		return jsonCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrFormat, f)
}

var snapshotMagic = []byte("CGRD\x01")

type snapshotCodec struct{}

func (snapshotCodec) Encode(w io.Writer, d grid3d.ImportData) error {
	if _, err := w.Write(snapshotMagic); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&d); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

func (snapshotCodec) Decode(r io.Reader) (grid3d.ImportData, error) {
	var d grid3d.ImportData
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return d, fmt.Errorf("%w: read header: %v", ErrFormat, err)
	}
	if !bytes.Equal(magic, snapshotMagic) {
		return d, fmt.Errorf("%w: not a grid snapshot", ErrFormat)
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return d, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer zr.Close()
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("decode snapshot: %w", err)
	}
	return d, nil
}

type jsonCodec struct{}

func (jsonCodec) Encode(w io.Writer, d grid3d.ImportData) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&d); err != nil {
		return err
	}
	return bw.Flush()
}

func (jsonCodec) Decode(r io.Reader) (grid3d.ImportData, error) {
	var d grid3d.ImportData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return d, nil
}
