package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"filedeck/internal/config"
	"filedeck/internal/exitcodes"
	"filedeck/internal/journal"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type query struct {
	out        io.Writer
	j          *journal.Journal
	jsonOutput bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("filedeck-query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", config.DefaultJournalPath(), "Path to operation journal")
	recent := fs.Int("recent", 0, "Show N most recent operations")
	stats := fs.Bool("stats", false, "Show operation statistics")
	op := fs.String("op", "", "Filter by operation (delete, rename)")
	outcome := fs.String("outcome", "", "Filter by outcome (ok, failed)")
	pathPattern := fs.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	largest := fs.Int("largest", 0, "Show N largest deletions")
	scans := fs.Int("scans", 0, "Show N most recent scans")
	days := fs.Int("days", 30, "Number of days for statistics")
	prune := fs.Int("prune", 0, "Delete records older than N days, then vacuum")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitcodes.Success
		}
		return exitcodes.InvalidConfig
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).With().Timestamp().Logger()

	if *dbPath == "" {
		logger.Error().Msg("No journal path; use -db")
		return exitcodes.InvalidConfig
	}

	j, err := journal.Open(*dbPath)
	if err != nil {
		logger.Error().Err(err).Str("db", *dbPath).Msg("Failed to open journal")
		return exitcodes.RuntimeError
	}
	defer func() {
		if err := j.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close journal")
		}
	}()

	q := &query{out: stdout, j: j, jsonOutput: *jsonOutput}

	switch {
	case *prune > 0:
		err = q.prune(*prune)
	case *stats:
		err = q.showStats(*days)
	case *recent > 0:
		err = q.showOperations(fmt.Sprintf("Most recent %d operations:", *recent), func() ([]journal.OperationRecord, error) {
			return j.GetRecentOperations(*recent)
		})
	case *op != "":
		err = q.showOperations("Operations of kind: "+*op, func() ([]journal.OperationRecord, error) {
			return j.GetOperationsByOp(*op)
		})
	case *outcome != "":
		err = q.showOperations("Operations with outcome: "+*outcome, func() ([]journal.OperationRecord, error) {
			return j.GetOperationsByOutcome(*outcome)
		})
	case *pathPattern != "":
		err = q.showOperations("Operations matching path pattern: "+*pathPattern, func() ([]journal.OperationRecord, error) {
			return j.GetOperationsByPath(*pathPattern)
		})
	case *largest > 0:
		err = q.showOperations(fmt.Sprintf("Largest %d deletions:", *largest), func() ([]journal.OperationRecord, error) {
			return j.GetLargestDeletions(*largest)
		})
	case *scans > 0:
		err = q.showScans(*scans)
	default:
		fs.Usage()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintln(stderr, "  filedeck-query -recent 10            # Show 10 most recent operations")
		fmt.Fprintln(stderr, "  filedeck-query -stats -days 7        # Show statistics for the last week")
		fmt.Fprintln(stderr, "  filedeck-query -outcome failed       # Show only failures")
		fmt.Fprintln(stderr, "  filedeck-query -path '/srv/logs/%'   # Show operations under /srv/logs")
		fmt.Fprintln(stderr, "  filedeck-query -largest 10           # Show 10 largest deletions")
		fmt.Fprintln(stderr, "  filedeck-query -scans 5              # Show 5 most recent scans")
		fmt.Fprintln(stderr, "  filedeck-query -prune 90             # Forget records older than 90 days")
		return exitcodes.InvalidConfig
	}

	if err != nil {
		logger.Error().Err(err).Msg("Query failed")
		return exitcodes.RuntimeError
	}
	return exitcodes.Success
}

func (q *query) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(q.out, string(data))
	return err
}

func (q *query) showStats(days int) error {
	stats, err := q.j.GetStats(days)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}
	if q.jsonOutput {
		return q.writeJSON(stats)
	}

	fmt.Fprintf(q.out, "Operation Statistics (Last %d days)\n", days)
	fmt.Fprintf(q.out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(q.out, "Scans:            %d\n", stats.Scans)
	fmt.Fprintf(q.out, "Deleted:          %d\n", stats.Deleted)
	fmt.Fprintf(q.out, "Renamed:          %d\n", stats.Renamed)
	fmt.Fprintf(q.out, "Failed:           %d\n", stats.Failed)
	fmt.Fprintf(q.out, "Objects Removed:  %d\n", stats.ObjectsRemoved)
	fmt.Fprintf(q.out, "Space Freed:      %s\n", humanize.IBytes(uint64(stats.BytesDeleted)))

	if len(stats.ByOp) > 0 {
		keys := make([]string, 0, len(stats.ByOp))
		for k := range stats.ByOp {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(q.out, "\nBy Operation:")
		for _, k := range keys {
			fmt.Fprintf(q.out, "  %-15s %d\n", k, stats.ByOp[k])
		}
	}
	return nil
}

func (q *query) showOperations(title string, fetch func() ([]journal.OperationRecord, error)) error {
	records, err := fetch()
	if err != nil {
		return fmt.Errorf("query operations: %w", err)
	}
	if q.jsonOutput {
		if records == nil {
			records = []journal.OperationRecord{}
		}
		return q.writeJSON(records)
	}

	fmt.Fprintf(q.out, "%s\n\n", title)
	printOperations(q.out, records)
	return nil
}

func (q *query) showScans(limit int) error {
	records, err := q.j.GetRecentScans(limit)
	if err != nil {
		return fmt.Errorf("query scans: %w", err)
	}
	if q.jsonOutput {
		if records == nil {
			records = []journal.ScanRecord{}
		}
		return q.writeJSON(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(q.out, "No records found")
		return nil
	}

	w := tabwriter.NewWriter(q.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tMode\tEntries\tSkipped\tDuration\tRoot")
	_, _ = fmt.Fprintln(w, "--\t---------\t----\t-------\t-------\t--------\t----")
	for _, r := range records {
		mode := "flat"
		if r.Recursive {
			mode = "recursive"
		}
		root := r.Root
		if r.ErrorMessage != "" {
			root += " (" + r.ErrorMessage + ")"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%dms\t%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), mode, r.Entries, r.Skipped, r.DurationMS, root)
	}
	return w.Flush()
}

func (q *query) prune(days int) error {
	n, err := q.j.DeleteOldRecords(days)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if err := q.j.Vacuum(); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if q.jsonOutput {
		return q.writeJSON(map[string]int64{"deleted": n})
	}
	fmt.Fprintf(q.out, "Deleted %d records older than %d days\n", n, days)
	return nil
}

func printOperations(out io.Writer, records []journal.OperationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tOp\tOutcome\tSize\tPath")
	_, _ = fmt.Fprintln(w, "--\t---------\t--\t-------\t----\t----")

	for _, r := range records {
		size := "-"
		if r.ObjectType != "directory" {
			size = humanize.IBytes(uint64(r.Size))
		}
		target := r.Path
		if r.NewPath != "" {
			target += " -> " + r.NewPath
		}
		if r.ErrorMessage != "" {
			target += " (" + r.ErrorMessage + ")"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Op, r.Outcome, size, target)
	}
	_ = w.Flush()
}
