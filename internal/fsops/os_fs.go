package fsops

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS implements FS using real os package calls
type OSFS struct{}

func (OSFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	return os.ReadDir(dir)
}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

func (OSFS) RemoveAll(path string) (int, error) {
	// os.RemoveAll is silent about missing paths
	if _, err := os.Lstat(path); err != nil {
		return 0, err
	}

	count := 0
	_ = filepath.WalkDir(path, func(_ string, _ fs.DirEntry, err error) error {
		if err == nil {
			count++
		}
		return nil
	})

	if err := os.RemoveAll(path); err != nil {
		return 0, err
	}
	return count, nil
}

func (OSFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
