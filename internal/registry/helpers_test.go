package registry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"filedeck/internal/fsops"
)

// writeTree creates files below root. Keys ending in "/" become directories.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func indexOf(t *testing.T, r *Registry, relPath string) int {
	t.Helper()
	for i, e := range r.Entries() {
		if e.RelPath == relPath {
			return i
		}
	}
	t.Fatalf("entry %q not in registry", relPath)
	return -1
}

func relPaths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.RelPath)
	}
	return out
}

// flakyFS injects enumeration failures on top of a real filesystem.
type flakyFS struct {
	fsops.FS
	unreadable map[string]bool // ReadDir fails with permission denied
	vanished   map[string]bool // listed, but gone by the time it is stat'ed
	badSize    map[string]bool // listed, but the size probe fails
}

func (f *flakyFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	if f.unreadable[dir] {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrPermission}
	}
	children, err := f.FS.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, 0, len(children))
	for _, d := range children {
		p := filepath.Join(dir, d.Name())
		switch {
		case f.vanished[p]:
			out = append(out, brokenDirEntry{DirEntry: d, err: &fs.PathError{Op: "lstat", Path: p, Err: fs.ErrNotExist}})
		case f.badSize[p]:
			out = append(out, brokenDirEntry{DirEntry: d, err: errors.New("input/output error")})
		default:
			out = append(out, d)
		}
	}
	return out, nil
}

type brokenDirEntry struct {
	fs.DirEntry
	err error
}

func (b brokenDirEntry) Info() (fs.FileInfo, error) {
	return nil, b.err
}

// memRecorder keeps everything it is given.
type memRecorder struct {
	scans   []ScanSummary
	results []Result
	err     error
}

func (m *memRecorder) RecordScan(s ScanSummary) error {
	m.scans = append(m.scans, s)
	return m.err
}

func (m *memRecorder) RecordResult(res Result) error {
	m.results = append(m.results, res)
	return m.err
}

// denyGuard rejects any target whose name contains deny.
type denyGuard struct {
	deny string
}

var errDenied = errors.New("denied")

func (g denyGuard) ValidateTarget(path, _ string) error {
	if strings.Contains(filepath.Base(path), g.deny) {
		return errDenied
	}
	return nil
}

// countingThrottle counts how often a batch paused.
type countingThrottle struct{ n int }

func (c *countingThrottle) Throttle() { c.n++ }
