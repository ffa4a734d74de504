package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ExecuteDelete removes every selected, visible entry and returns how many
// were removed. Failures leave the entry in place, still selected.
func (r *Registry) ExecuteDelete() int {
	return countSucceeded(r.DeleteSelected())
}

// ExecuteRename inserts suffix between the stem and the extension of every
// selected, visible entry and returns how many were renamed. An empty
// suffix does nothing.
func (r *Registry) ExecuteRename(suffix string) int {
	return countSucceeded(r.RenameSelected(suffix))
}

// DeleteSelected is ExecuteDelete with one Result per eligible entry.
func (r *Registry) DeleteSelected() []Result {
	var results []Result
	kept := r.entries[:0]

	for _, e := range r.entries {
		if !e.Eligible() {
			kept = append(kept, e)
			continue
		}

		r.pace()
		res := r.deleteOne(e)
		results = append(results, res)
		r.recordResult(res)

		if !res.Succeeded() {
			kept = append(kept, e)
		}
	}

	// Drop references held by the unused tail
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = Entry{}
	}
	r.entries = kept

	r.logBatch(OpDelete, results)
	return results
}

func (r *Registry) deleteOne(e Entry) Result {
	res := Result{
		Op:    OpDelete,
		Path:  e.Path,
		Name:  e.Name,
		IsDir: e.IsDir,
		Size:  e.Size,
		At:    time.Now(),
	}

	if err := r.validate(e.Path); err != nil {
		res.Err = err
		return res
	}

	n, err := r.fs.RemoveAll(e.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Err = fmt.Errorf("delete %s: %w", e.Path, ErrVanished)
	case err != nil:
		res.Err = fmt.Errorf("delete %s: %w", e.Path, err)
	case n == 0:
		res.Err = fmt.Errorf("delete %s: %w", e.Path, ErrVanished)
	default:
		res.Removed = n
	}

	if res.Err != nil {
		r.logger.Warn().Err(res.Err).Str("path", e.Path).Msg("Failed to delete")
	} else {
		r.logger.Debug().Str("path", e.Path).Int("removed", n).Msg("Deleted")
	}
	return res
}

// RenameSelected is ExecuteRename with one Result per eligible entry.
func (r *Registry) RenameSelected(suffix string) []Result {
	if suffix == "" {
		return nil
	}

	var results []Result
	for i := range r.entries {
		if !r.entries[i].Eligible() {
			continue
		}

		r.pace()
		oldRel := r.entries[i].RelPath
		res := r.renameOne(&r.entries[i], suffix)
		results = append(results, res)
		r.recordResult(res)

		if res.Succeeded() && r.entries[i].IsDir {
			r.rebase(res.Path, res.NewPath, oldRel, r.entries[i].RelPath)
		}
	}

	r.logBatch(OpRename, results)
	return results
}

func (r *Registry) renameOne(e *Entry, suffix string) Result {
	newName := SuffixedName(e.Name, suffix)
	newPath := filepath.Join(filepath.Dir(e.Path), newName)

	res := Result{
		Op:      OpRename,
		Path:    e.Path,
		NewPath: newPath,
		Name:    e.Name,
		IsDir:   e.IsDir,
		Size:    e.Size,
		At:      time.Now(),
	}

	if err := r.validate(e.Path); err != nil {
		res.Err = err
		return res
	}
	if err := r.validate(newPath); err != nil {
		res.Err = err
		return res
	}

	// rename(2) silently replaces files
	if _, err := r.fs.Lstat(newPath); err == nil {
		res.Err = fmt.Errorf("rename %s: %w", e.Path, ErrTargetExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		res.Err = fmt.Errorf("rename %s: %w", e.Path, err)
	} else if err := r.fs.Rename(e.Path, newPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrVanished
		}
		res.Err = fmt.Errorf("rename %s: %w", e.Path, err)
	}

	if res.Err != nil {
		r.logger.Warn().Err(res.Err).Str("path", e.Path).Str("new_path", newPath).Msg("Failed to rename")
		return res
	}

	e.Path = newPath
	e.Name = newName
	e.RelPath = path.Join(path.Dir(e.RelPath), newName)

	r.logger.Debug().Str("path", res.Path).Str("new_path", newPath).Msg("Renamed")
	return res
}

// rebase points the descendants of a renamed directory at its new location.
func (r *Registry) rebase(oldDir, newDir, oldRel, newRel string) {
	prefix := oldDir + string(filepath.Separator)
	for i := range r.entries {
		e := &r.entries[i]
		if !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		e.Path = newDir + e.Path[len(oldDir):]
		if strings.HasPrefix(e.RelPath, oldRel+"/") {
			e.RelPath = newRel + e.RelPath[len(oldRel):]
		}
	}
}

func (r *Registry) pace() {
	if r.throttle != nil {
		r.throttle.Throttle()
	}
}

func (r *Registry) validate(target string) error {
	if r.guard == nil {
		return nil
	}
	if err := r.guard.ValidateTarget(target, r.currentPath); err != nil {
		return fmt.Errorf("%s: %w: %w", target, ErrUnsafeTarget, err)
	}
	return nil
}

func (r *Registry) logBatch(op Op, results []Result) {
	ok := countSucceeded(results)
	r.logger.Info().
		Str("op", string(op)).
		Int("eligible", len(results)).
		Int("succeeded", ok).
		Int("failed", len(results)-ok).
		Msg("Batch complete")
}

// SuffixedName inserts suffix before the extension of name. Names without
// an extension, and dotfiles whose only dot leads the name, get the suffix
// appended.
func SuffixedName(name, suffix string) string {
	ext := filepath.Ext(name)
	if ext == name {
		ext = ""
	}
	return strings.TrimSuffix(name, ext) + suffix + ext
}

func countSucceeded(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}
