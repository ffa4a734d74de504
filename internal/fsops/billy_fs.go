package fsops

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillyFS implements FS on top of a go-billy filesystem.
type BillyFS struct {
	fs billy.Filesystem
}

// NewBillyFS wraps the given go-billy filesystem.
func NewBillyFS(fsys billy.Filesystem) *BillyFS {
	return &BillyFS{fs: fsys}
}

// NewMemFS creates an in-memory filesystem.
func NewMemFS() *BillyFS {
	return &BillyFS{fs: memfs.New()}
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // exposes the adapter target.
func (b *BillyFS) Raw() billy.Filesystem {
	return b.fs
}

func (b *BillyFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	infos, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("billy: readdir %q: %w", dir, err)
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

func (b *BillyFS) Stat(path string) (fs.FileInfo, error) {
	info, err := b.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("billy: stat %q: %w", path, err)
	}
	return info, nil
}

func (b *BillyFS) Lstat(path string) (fs.FileInfo, error) {
	info, err := b.fs.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("billy: lstat %q: %w", path, err)
	}
	return info, nil
}

func (b *BillyFS) RemoveAll(path string) (int, error) {
	if _, err := b.Lstat(path); err != nil {
		return 0, err
	}

	count := 0
	_ = util.Walk(b.fs, path, func(_ string, _ os.FileInfo, err error) error {
		if err == nil {
			count++
		}
		return nil
	})

	if err := util.RemoveAll(b.fs, path); err != nil {
		return 0, fmt.Errorf("billy: removeall %q: %w", path, err)
	}
	return count, nil
}

func (b *BillyFS) Rename(oldpath, newpath string) error {
	if err := b.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("billy: rename %q to %q: %w", oldpath, newpath, err)
	}
	return nil
}
