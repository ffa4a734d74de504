package registry

import (
	"errors"
	"time"
)

var (
	// ErrVanished means there was nothing left at the path to act on.
	ErrVanished = errors.New("path no longer exists")
	// ErrTargetExists means a rename would overwrite an existing object.
	ErrTargetExists = errors.New("rename target already exists")
	// ErrUnsafeTarget wraps a Guard rejection.
	ErrUnsafeTarget = errors.New("unsafe target")
)

// Op names a batch operation.
type Op string

const (
	OpDelete Op = "delete"
	OpRename Op = "rename"
)

// Result is the outcome of one batch operation on one entry.
type Result struct {
	Op      Op
	Path    string // path before the operation
	NewPath string // rename target, empty for deletes
	Name    string
	IsDir   bool
	Size    int64
	Removed int // filesystem objects destroyed by a delete
	At      time.Time
	Err     error
}

// Succeeded reports whether the entry was removed or renamed.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Outcome returns "ok" or "failed".
func (r Result) Outcome() string {
	if r.Succeeded() {
		return "ok"
	}
	return "failed"
}

// ObjectType returns "directory" or "file".
func (r Result) ObjectType() string {
	if r.IsDir {
		return "directory"
	}
	return "file"
}

// ScanSummary describes one completed scan.
type ScanSummary struct {
	Root      string
	Recursive bool
	Entries   int
	Skipped   int // children or subtrees that could not be enumerated
	Duration  time.Duration
	At        time.Time
	Err       error // set when the root itself could not be listed
}

// Recorder receives scan summaries and per-entry results.
// Errors are logged by the registry and otherwise ignored.
type Recorder interface {
	RecordScan(ScanSummary) error
	RecordResult(Result) error
}

// Guard authorizes mutating path, an entry found below root.
type Guard interface {
	ValidateTarget(path, root string) error
}

// Throttler slows a batch down between entries.
type Throttler interface {
	Throttle()
}
