package fsops

import (
	"io/fs"
)

// FS abstracts the filesystem calls the registry makes.
// Every method takes absolute paths.
type FS interface {
	ReadDir(dir string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)

	// RemoveAll removes path and everything below it and reports how many
	// filesystem objects were destroyed. A path that is already gone yields
	// 0 and an error matching fs.ErrNotExist.
	RemoveAll(path string) (int, error)

	Rename(oldpath, newpath string) error
}
