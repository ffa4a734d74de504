package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"filedeck/internal/registry"
)

// Journal is the SQLite history of scans and batch operations.
// It implements registry.Recorder.
type Journal struct {
	db *sql.DB
}

// OperationRecord is one delete or rename attempt on one entry.
type OperationRecord struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Op           string    `json:"op"`
	Path         string    `json:"path"`
	NewPath      string    `json:"new_path,omitempty"`
	Name         string    `json:"name"`
	ObjectType   string    `json:"object_type"`
	Size         int64     `json:"size"`
	Removed      int       `json:"removed"`
	Outcome      string    `json:"outcome"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// ScanRecord is one completed scan.
type ScanRecord struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Root         string    `json:"root"`
	Recursive    bool      `json:"recursive"`
	Entries      int       `json:"entries"`
	Skipped      int       `json:"skipped"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Open creates or opens the journal at dbPath and initializes its schema
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A real statement makes sqlite create the file now
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize journal (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	j := &Journal{db: db}
	if err = j.initSchema(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		op TEXT NOT NULL,
		path TEXT NOT NULL,
		new_path TEXT,
		name TEXT,
		object_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		removed INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_timestamp ON operations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_operations_op ON operations(op);
	CREATE INDEX IF NOT EXISTS idx_operations_outcome ON operations(outcome);
	CREATE INDEX IF NOT EXISTS idx_operations_path ON operations(path);

	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		root TEXT NOT NULL,
		recursive INTEGER NOT NULL,
		entries INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// RecordResult inserts one batch operation outcome
func (j *Journal) RecordResult(res registry.Result) error {
	var newPath, errMsg sql.NullString
	if res.NewPath != "" {
		newPath = sql.NullString{String: res.NewPath, Valid: true}
	}
	if res.Err != nil {
		errMsg = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	ts := res.At
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.db.Exec(`
	INSERT INTO operations (
		timestamp, op, path, new_path, name, object_type, size, removed, outcome, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ts,
		string(res.Op),
		res.Path,
		newPath,
		res.Name,
		res.ObjectType(),
		res.Size,
		res.Removed,
		res.Outcome(),
		errMsg,
	)
	return err
}

// RecordScan inserts one scan summary
func (j *Journal) RecordScan(s registry.ScanSummary) error {
	var errMsg sql.NullString
	if s.Err != nil {
		errMsg = sql.NullString{String: s.Err.Error(), Valid: true}
	}

	ts := s.At
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.db.Exec(`
	INSERT INTO scans (timestamp, root, recursive, entries, skipped, duration_ms, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ts,
		s.Root,
		s.Recursive,
		s.Entries,
		s.Skipped,
		s.Duration.Milliseconds(),
		errMsg,
	)
	return err
}

// Ping checks that the database is still reachable
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (j *Journal) Vacuum() error {
	_, err := j.db.Exec("VACUUM")
	return err
}
