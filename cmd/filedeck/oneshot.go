package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"filedeck/internal/config"
	"filedeck/internal/console"
	"filedeck/internal/disk"
	"filedeck/internal/exitcodes"
	"filedeck/internal/registry"
)

type entryJSON struct {
	Index    int    `json:"index"`
	Path     string `json:"path"`
	RelPath  string `json:"rel_path"`
	Depth    int    `json:"depth"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Selected bool   `json:"selected"`
	Filtered bool   `json:"filtered"`
}

type resultJSON struct {
	Path    string    `json:"path"`
	NewPath string    `json:"new_path,omitempty"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
	Removed int       `json:"removed,omitempty"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type diskJSON struct {
	UsedPercent float64 `json:"used_percent"`
	FreeBytes   int64   `json:"free_bytes"`
	TotalBytes  int64   `json:"total_bytes"`
}

type report struct {
	Root      string       `json:"root"`
	Recursive bool         `json:"recursive"`
	Filter    string       `json:"filter,omitempty"`
	Entries   []entryJSON  `json:"entries"`
	Op        string       `json:"op,omitempty"`
	Succeeded int          `json:"succeeded"`
	Results   []resultJSON `json:"results,omitempty"`
	Disk      *diskJSON    `json:"disk,omitempty"`
}

// runOnce scans the root, selects, optionally runs one batch and prints
// the listing as it stood before the batch.
func runOnce(reg *registry.Registry, cfg *config.Config, f *flags, logger zerolog.Logger, stdout, stderr io.Writer) int {
	if cfg.Root == "" {
		fmt.Fprintln(stderr, "ERROR: no root directory (use -root or set root in the config)")
		return exitcodes.InvalidConfig
	}
	if err := probeRoot(cfg.Root); errors.Is(err, disk.ErrStale) {
		logger.Error().Err(err).Str("root", cfg.Root).Msg("Root not responding")
		return exitcodes.RuntimeError
	}

	reg.Scan(cfg.Root, cfg.Recursive)
	reg.ApplyFilter(cfg.Filter)

	if err := applySelection(reg, f.selection); err != nil {
		fmt.Fprintf(stderr, "ERROR: -select: %v\n", err)
		return exitcodes.InvalidConfig
	}

	rep := report{
		Root:      reg.CurrentPath(),
		Recursive: reg.Recursive(),
		Filter:    reg.Pattern(),
		Entries:   entriesJSON(reg),
	}

	var (
		results []registry.Result
		verb    string
	)
	switch {
	case f.del:
		results, verb = reg.DeleteSelected(), "Deleted"
		rep.Op = string(registry.OpDelete)
	case f.set["rename"]:
		results, verb = reg.RenameSelected(f.rename), "Renamed"
		rep.Op = string(registry.OpRename)
	}
	for _, res := range results {
		if res.Succeeded() {
			rep.Succeeded++
		}
		rep.Results = append(rep.Results, toResultJSON(res))
	}

	u, diskErr := diskUsage(reg.CurrentPath())
	if diskErr == nil {
		rep.Disk = &diskJSON{UsedPercent: u.UsedPercent, FreeBytes: u.FreeBytes, TotalBytes: u.TotalBytes}
	}

	if f.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			logger.Error().Err(err).Msg("Failed to write output")
			return exitcodes.RuntimeError
		}
	} else {
		fmt.Fprintf(stdout, "%s (%d entries, %d visible)\n", rep.Root, reg.Len(), len(reg.Visible()))
		console.PrintEntries(stdout, reg)
		if verb != "" {
			console.PrintResults(stdout, verb, results)
		}
		if diskErr == nil {
			fmt.Fprintf(stdout, "Free space: %s of %s (%.1f%% used)\n",
				humanize.IBytes(uint64(u.FreeBytes)), humanize.IBytes(uint64(u.TotalBytes)), u.UsedPercent)
		}
	}

	return exitCodeFor(results)
}

// applySelection understands "all", "none" and index lists. Listed indices
// hidden by the filter are left unselected.
func applySelection(reg *registry.Registry, list string) error {
	switch list {
	case "":
		return nil
	case "all":
		reg.SelectAll()
		return nil
	case "none":
		reg.DeselectAll()
		return nil
	}

	indices, err := console.ParseIndexList(list)
	if err != nil {
		return err
	}
	for _, i := range indices {
		e, ok := reg.Entry(i)
		if !ok {
			return fmt.Errorf("no entry %d (%d entries)", i, reg.Len())
		}
		if e.Visible() {
			reg.SetSelected(i, true)
		}
	}
	return nil
}

// exitCodeFor reports a safety violation only when the guard refused every
// attempted entry.
func exitCodeFor(results []registry.Result) int {
	if len(results) == 0 {
		return exitcodes.Success
	}
	for _, res := range results {
		if !errors.Is(res.Err, registry.ErrUnsafeTarget) {
			return exitcodes.Success
		}
	}
	return exitcodes.SafetyViolation
}

func entriesJSON(reg *registry.Registry) []entryJSON {
	entries := reg.Entries()
	out := make([]entryJSON, 0, len(entries))
	for i, e := range entries {
		out = append(out, entryJSON{
			Index:    i,
			Path:     e.Path,
			RelPath:  e.RelPath,
			Depth:    e.Depth,
			Type:     e.ObjectType(),
			Size:     e.Size,
			Selected: e.Selected,
			Filtered: e.Filtered,
		})
	}
	return out
}

func toResultJSON(res registry.Result) resultJSON {
	r := resultJSON{
		Path:    res.Path,
		NewPath: res.NewPath,
		Type:    res.ObjectType(),
		Size:    res.Size,
		Removed: res.Removed,
		Outcome: res.Outcome(),
		At:      res.At,
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}
