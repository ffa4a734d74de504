package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"filedeck/internal/registry"
)

// PrintEntries writes the visible entries of reg as a table, keyed by
// registry index, followed by the selected count.
func PrintEntries(w io.Writer, reg *registry.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tSEL\tTYPE\tSIZE\tNAME")
	for i, e := range reg.Entries() {
		if !e.Visible() {
			continue
		}
		mark := "[ ]"
		if e.Selected {
			mark = "[X]"
		}
		size := "-"
		kind := "File"
		if e.IsDir {
			kind = "Folder"
		} else {
			size = humanize.IBytes(uint64(e.Size))
		}
		name := e.Name
		if reg.Recursive() {
			name = e.RelPath
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, mark, kind, size, name)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "%d selected.\n", reg.SelectedCount())
}

// PrintResults writes a one-line batch summary and one line per failure.
func PrintResults(w io.Writer, verb string, results []registry.Result) {
	ok := 0
	for _, res := range results {
		if res.Succeeded() {
			ok++
		}
	}
	_, _ = fmt.Fprintf(w, "%s %d of %d entries.\n", verb, ok, len(results))
	for _, res := range results {
		if !res.Succeeded() {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", res.Name, res.Err)
		}
	}
}
