package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedeck/internal/exitcodes"
	"filedeck/internal/journal"
	"filedeck/internal/registry"
)

func seed(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordScan(registry.ScanSummary{Root: "/srv", Recursive: true, Entries: 4, Duration: 3 * time.Millisecond}))
	for _, res := range []registry.Result{
		{Op: registry.OpDelete, Path: "/srv/logs/a.log", Name: "a.log", Size: 2048, Removed: 1},
		{Op: registry.OpRename, Path: "/srv/b.txt", NewPath: "/srv/b_old.txt", Name: "b.txt", Size: 10},
		{Op: registry.OpDelete, Path: "/srv/c", Name: "c", IsDir: true, Err: errors.New("permission denied")},
	} {
		require.NoError(t, j.RecordResult(res))
	}
	return dbPath
}

func runQuery(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String()
}

func TestRecent(t *testing.T) {
	db := seed(t)

	code, out := runQuery(t, "-db", db, "-recent", "10")
	require.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "/srv/b.txt -> /srv/b_old.txt")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "(permission denied)")
}

func TestFiltersJSON(t *testing.T) {
	db := seed(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"-op", "rename"}, []string{"/srv/b.txt"}},
		{[]string{"-outcome", "failed"}, []string{"/srv/c"}},
		{[]string{"-path", "/srv/logs/%"}, []string{"/srv/logs/a.log"}},
		{[]string{"-largest", "1"}, []string{"/srv/logs/a.log"}},
		{[]string{"-op", "none"}, nil},
	}

	for _, tt := range tests {
		code, out := runQuery(t, append([]string{"-db", db, "-json"}, tt.args...)...)
		require.Equal(t, exitcodes.Success, code, tt.args)

		var records []journal.OperationRecord
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		var paths []string
		for _, r := range records {
			paths = append(paths, r.Path)
		}
		assert.Equal(t, tt.want, paths, tt.args)
	}
}

func TestStats(t *testing.T) {
	db := seed(t)

	code, out := runQuery(t, "-db", db, "-stats", "-json")
	require.Equal(t, exitcodes.Success, code)

	var stats journal.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 1, stats.Renamed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, int64(2048), stats.BytesDeleted)
	assert.Equal(t, 1, stats.Scans)

	code, out = runQuery(t, "-db", db, "-stats", "-days", "7")
	require.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "Operation Statistics (Last 7 days)")
	assert.Contains(t, out, "delete:failed")
}

func TestScans(t *testing.T) {
	db := seed(t)

	code, out := runQuery(t, "-db", db, "-scans", "5")
	require.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "recursive")
	assert.Contains(t, out, "/srv")
}

func TestPrune(t *testing.T) {
	db := seed(t)

	code, out := runQuery(t, "-db", db, "-prune", "1")
	require.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "Deleted 0 records")
}

func TestNoQuery(t *testing.T) {
	db := seed(t)

	code, _ := runQuery(t, "-db", db)
	assert.Equal(t, exitcodes.InvalidConfig, code)

	code, _ = runQuery(t, "-bogus")
	assert.Equal(t, exitcodes.InvalidConfig, code)
}
