package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"
)

// Scan replaces the registry contents with the children of root, or with
// its whole subtree in depth-first pre-order when recursive is set.
//
// Scan never fails. An unreadable root leaves the registry empty with
// CurrentPath set to root. Children that vanish mid-scan and directories
// that cannot be opened are skipped. New entries are unselected and
// unfiltered; the previous filter is not re-applied.
func (r *Registry) Scan(root string, recursive bool) {
	start := time.Now()

	r.entries = nil
	r.currentPath = root
	r.recursive = recursive

	summary := ScanSummary{
		Root:      root,
		Recursive: recursive,
		At:        start,
	}

	info, err := r.fs.Stat(root)
	switch {
	case err != nil:
		summary.Err = err
	case !info.IsDir():
		summary.Err = fmt.Errorf("%s: not a directory", root)
	default:
		summary.Err = r.walk(root, root, 0, &summary)
	}

	summary.Entries = len(r.entries)
	summary.Duration = time.Since(start)

	if summary.Err != nil {
		r.entries = nil
		summary.Entries = 0
		r.logger.Warn().
			Err(summary.Err).
			Str("root", root).
			Msg("Scan root not accessible")
	} else {
		r.logger.Info().
			Str("root", root).
			Bool("recursive", recursive).
			Int("entries", summary.Entries).
			Int("skipped", summary.Skipped).
			Dur("duration", summary.Duration).
			Msg("Scan complete")
	}

	r.recordScan(summary)
}

// walk appends the children of dir. Only a failure to list root itself is
// returned; deeper failures are counted and skipped.
func (r *Registry) walk(root, dir string, depth int, summary *ScanSummary) error {
	children, err := r.fs.ReadDir(dir)
	if err != nil {
		if dir == root && len(children) == 0 {
			return err
		}
		// os.ReadDir hands back whatever it read before failing
		summary.Skipped++
		r.logger.Warn().Err(err).Str("path", dir).Msg("Cannot list directory, skipping")
		if len(children) == 0 {
			return nil
		}
	}

	for _, d := range children {
		path := filepath.Join(dir, d.Name())

		entry, ok := r.probe(root, path, d, depth)
		if !ok {
			summary.Skipped++
			continue
		}
		r.entries = append(r.entries, entry)

		// Linked directories are listed, never entered
		if r.recursive && entry.IsDir && d.Type()&fs.ModeSymlink == 0 {
			_ = r.walk(root, path, depth+1, summary)
		}
	}
	return nil
}

// probe builds the entry for one listed child. It reports false when the
// child disappeared before it could be examined.
func (r *Registry) probe(root, path string, d fs.DirEntry, depth int) (Entry, bool) {
	e := Entry{
		Path:  path,
		Name:  d.Name(),
		Depth: depth,
		IsDir: d.IsDir(),
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		e.RelPath = filepath.ToSlash(rel)
	} else {
		e.RelPath = e.Name
	}

	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = r.fs.Stat(path)
		if err != nil {
			// Broken link: keep it unless the link itself is gone too
			if _, lerr := r.fs.Lstat(path); errors.Is(lerr, fs.ErrNotExist) {
				r.logger.Debug().Str("path", path).Msg("Entry vanished during scan")
				return Entry{}, false
			}
			e.IsDir = false
			return e, true
		}
		e.IsDir = info.IsDir()
	} else {
		info, err = d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug().Str("path", path).Msg("Entry vanished during scan")
			return Entry{}, false
		}
	}

	if e.IsDir {
		return e, true
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("path", path).Msg("Size probe failed, reporting 0")
		return e, true
	}
	e.Size = info.Size()
	return e, true
}
