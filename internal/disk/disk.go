package disk

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// ErrStale is returned by Probe when a path does not answer a stat in time
// or fails with an error typical of a dead network mount.
var ErrStale = errors.New("stale or unresponsive mount")

// Usage is the filesystem-level capacity of the volume holding a path
type Usage struct {
	UsedPercent float64
	FreeBytes   int64
	TotalBytes  int64
}

// FreePercent returns the percentage of free space
func (u Usage) FreePercent() float64 {
	if u.TotalBytes == 0 {
		return 100
	}
	return 100 - u.UsedPercent
}

// GetDiskUsage returns capacity figures for the filesystem containing path
func GetDiskUsage(path string) (Usage, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return Usage{}, &os.PathError{Op: "statfs", Path: path, Err: err}
	}

	u := Usage{
		TotalBytes: int64(stat.Blocks) * int64(stat.Bsize),
		FreeBytes:  int64(stat.Bavail) * int64(stat.Bsize),
	}
	if u.TotalBytes > 0 {
		u.UsedPercent = float64(u.TotalBytes-u.FreeBytes) / float64(u.TotalBytes) * 100.0
	}
	return u, nil
}

// Probe stats path with a timeout so callers can avoid hanging on a stale
// NFS mount before listing it. Returns nil for a live path, ErrStale for a
// timeout or EIO/ESTALE/ENXIO, and the stat error otherwise.
func Probe(path string, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		_, err := os.Stat(path)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if os.IsTimeout(err) ||
			errors.Is(err, syscall.EIO) ||
			errors.Is(err, syscall.ESTALE) ||
			errors.Is(err, syscall.ENXIO) {
			return ErrStale
		}
		return err
	case <-time.After(timeout):
		return ErrStale
	}
}
