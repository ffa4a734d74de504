package fsops

import (
	"io/fs"
)

// FakeFS implements FS for testing.
// Reads pass through to Base; mutating calls are recorded and, unless a
// failure is injected for the path, forwarded to Base as well. With a nil
// Base the mutating calls succeed without touching anything.
type FakeFS struct {
	Base  FS
	Calls []string

	// Fail maps a path to the error its RemoveAll or Rename call returns.
	Fail map[string]error
}

func (f *FakeFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	if f.Base == nil {
		return nil, fs.ErrNotExist
	}
	return f.Base.ReadDir(dir)
}

func (f *FakeFS) Stat(path string) (fs.FileInfo, error) {
	if f.Base == nil {
		return nil, fs.ErrNotExist
	}
	return f.Base.Stat(path)
}

func (f *FakeFS) Lstat(path string) (fs.FileInfo, error) {
	if f.Base == nil {
		return nil, fs.ErrNotExist
	}
	return f.Base.Lstat(path)
}

func (f *FakeFS) RemoveAll(path string) (int, error) {
	f.Calls = append(f.Calls, "rmall:"+path)
	if err := f.Fail[path]; err != nil {
		return 0, err
	}
	if f.Base == nil {
		return 1, nil
	}
	return f.Base.RemoveAll(path)
}

func (f *FakeFS) Rename(oldpath, newpath string) error {
	f.Calls = append(f.Calls, "mv:"+oldpath+"->"+newpath)
	if err := f.Fail[oldpath]; err != nil {
		return err
	}
	if f.Base == nil {
		return nil
	}
	return f.Base.Rename(oldpath, newpath)
}
