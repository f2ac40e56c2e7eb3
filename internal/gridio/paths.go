package gridio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the Files root.
var ErrOutsideRoot = errors.New("path outside grid root")

// WithRoot confines reads and writes to paths inside dir. Relative paths
// are resolved against dir.
func WithRoot(dir string) Option {
	return func(f *Files) { f.root = filepath.Clean(dir) }
}

// resolve applies the root to path. Symlinks are resolved on the longest
// existing prefix of both paths so a link inside the root cannot lead out
// of it.
func (f *Files) resolve(path string) (string, error) {
	if f.root == "" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	root, err := filepath.Abs(f.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve grid root: %w", err)
	}
	rel, err := filepath.Rel(f.canonical(root), f.canonical(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s escapes %s", ErrOutsideRoot, path, f.root)
	}
	return abs, nil
}

// canonical resolves symlinks on the OS filesystem. Other filesystems have
// no links and keep the path as is.
func (f *Files) canonical(path string) string {
	if _, ok := f.fs.(OSFileSystem); !ok {
		return path
	}
	for dir, rest := path, ""; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

// FileName makes a file name for a grid from its name and the format,
// replacing anything but ASCII letters, digits, dot, underscore and dash by
// a single underscore.
func FileName(gridName string, f Format) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range gridName {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		name = "grid"
	}
	return name + f.Extension()
}
