// Package registry owns the scanned entry list and every operation on it:
// scan, filter, selection, and the delete and rename batches.
//
// A Registry is single-threaded. Every call runs to completion on
// the caller's goroutine and callers must not share one Registry between
// goroutines without their own serialisation.
package registry

import (
	"strings"

	"github.com/rs/zerolog"

	"filedeck/internal/fsops"
)

// Registry is the ordered entry list of the most recent scan.
type Registry struct {
	fs        fsops.FS
	logger    zerolog.Logger
	guard     Guard
	throttle  Throttler
	recorders []Recorder

	entries     []Entry
	currentPath string
	recursive   bool
	pattern     string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithGuard checks every delete and rename target before touching it.
func WithGuard(g Guard) Option {
	return func(r *Registry) {
		r.guard = g
	}
}

// WithThrottle paces batch operations: t.Throttle runs before each entry.
func WithThrottle(t Throttler) Option {
	return func(r *Registry) {
		r.throttle = t
	}
}

// WithRecorder adds a Recorder. May be given more than once.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorders = append(r.recorders, rec)
		}
	}
}

// New creates an empty registry over fsys. A nil fsys means the real filesystem.
func New(fsys fsops.FS, opts ...Option) *Registry {
	if fsys == nil {
		fsys = fsops.OSFS{}
	}
	r := &Registry{
		fs:     fsys,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentPath returns the root of the last scan attempt.
func (r *Registry) CurrentPath() string {
	return r.currentPath
}

// Recursive reports whether the last scan descended into subdirectories.
func (r *Registry) Recursive() bool {
	return r.recursive
}

// Pattern returns the last filter pattern applied.
func (r *Registry) Pattern() string {
	return r.pattern
}

// Len returns the number of entries, filtered ones included.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of every entry in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Visible returns a copy of the entries that pass the filter.
func (r *Registry) Visible() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Visible() {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns a copy of entry i.
func (r *Registry) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[i], true
}

// ApplyFilter hides every entry whose name does not contain pattern.
// Matching is a case-sensitive literal substring test; an empty pattern
// shows everything. Selection is left alone.
func (r *Registry) ApplyFilter(pattern string) {
	r.pattern = pattern
	hidden := 0
	for i := range r.entries {
		r.entries[i].Filtered = pattern != "" && !strings.Contains(r.entries[i].Name, pattern)
		if r.entries[i].Filtered {
			hidden++
		}
	}
	r.logger.Debug().
		Str("pattern", pattern).
		Int("hidden", hidden).
		Int("total", len(r.entries)).
		Msg("Filter applied")
}

func (r *Registry) recordScan(s ScanSummary) {
	for _, rec := range r.recorders {
		if err := rec.RecordScan(s); err != nil {
			r.logger.Error().Err(err).Str("root", s.Root).Msg("Failed to record scan")
		}
	}
}

func (r *Registry) recordResult(res Result) {
	for _, rec := range r.recorders {
		if err := rec.RecordResult(res); err != nil {
			r.logger.Error().Err(err).Str("path", res.Path).Msg("Failed to record result")
		}
	}
}
