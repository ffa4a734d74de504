package journal

import (
	"database/sql"
	"time"
)

const operationColumns = `
	SELECT id, timestamp, op, path, new_path, name, object_type, size, removed, outcome, error_message
	FROM operations`

// GetRecentOperations returns the N most recent operations
func (j *Journal) GetRecentOperations(limit int) ([]OperationRecord, error) {
	return j.queryOperations(operationColumns+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?`, limit)
}

// GetOperationsByOp returns operations of one kind ("delete" or "rename")
func (j *Journal) GetOperationsByOp(op string) ([]OperationRecord, error) {
	return j.queryOperations(operationColumns+`
	WHERE op = ?
	ORDER BY timestamp DESC, id DESC`, op)
}

// GetOperationsByOutcome returns operations that ended "ok" or "failed"
func (j *Journal) GetOperationsByOutcome(outcome string) ([]OperationRecord, error) {
	return j.queryOperations(operationColumns+`
	WHERE outcome = ?
	ORDER BY timestamp DESC, id DESC`, outcome)
}

// GetOperationsByPath returns operations whose original path matches a LIKE pattern
func (j *Journal) GetOperationsByPath(pathPattern string) ([]OperationRecord, error) {
	return j.queryOperations(operationColumns+`
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC`, pathPattern)
}

// GetLargestDeletions returns the N largest successful deletions by size
func (j *Journal) GetLargestDeletions(limit int) ([]OperationRecord, error) {
	return j.queryOperations(operationColumns+`
	WHERE op = 'delete' AND outcome = 'ok'
	ORDER BY size DESC
	LIMIT ?`, limit)
}

// GetRecentScans returns the N most recent scans
func (j *Journal) GetRecentScans(limit int) ([]ScanRecord, error) {
	rows, err := j.db.Query(`
	SELECT id, timestamp, root, recursive, entries, skipped, duration_ms, error_message
	FROM scans
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Root, &r.Recursive, &r.Entries,
			&r.Skipped, &r.DurationMS, &errMsg); err != nil {
			return nil, err
		}
		r.ErrorMessage = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats holds aggregated statistics
type Stats struct {
	Deleted        int            `json:"deleted"`
	Renamed        int            `json:"renamed"`
	Failed         int            `json:"failed"`
	BytesDeleted   int64          `json:"bytes_deleted"`
	ObjectsRemoved int64          `json:"objects_removed"`
	Scans          int            `json:"scans"`
	ByOp           map[string]int `json:"by_op"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
}

// GetStats returns statistics for the last days days
func (j *Journal) GetStats(days int) (*Stats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &Stats{
		StartDate: since,
		EndDate:   now,
		ByOp:      make(map[string]int),
	}

	err := j.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN op = 'delete' AND outcome = 'ok' THEN 1 END),
			COUNT(CASE WHEN op = 'rename' AND outcome = 'ok' THEN 1 END),
			COUNT(CASE WHEN outcome = 'failed' THEN 1 END),
			COALESCE(SUM(CASE WHEN op = 'delete' AND outcome = 'ok' THEN size END), 0),
			COALESCE(SUM(removed), 0)
		FROM operations
		WHERE timestamp >= ?
	`, since).Scan(&stats.Deleted, &stats.Renamed, &stats.Failed, &stats.BytesDeleted, &stats.ObjectsRemoved)
	if err != nil {
		return nil, err
	}

	if err := j.db.QueryRow(`SELECT COUNT(*) FROM scans WHERE timestamp >= ?`, since).Scan(&stats.Scans); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(`
		SELECT op || ':' || outcome, COUNT(*)
		FROM operations
		WHERE timestamp >= ?
		GROUP BY op, outcome
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		stats.ByOp[key] = count
	}

	return stats, rows.Err()
}

// DeleteOldRecords removes operations and scans older than olderThanDays
func (j *Journal) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	ops, err := j.db.Exec(`DELETE FROM operations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	scans, err := j.db.Exec(`DELETE FROM scans WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	n1, _ := ops.RowsAffected()
	n2, _ := scans.RowsAffected()
	return n1 + n2, nil
}

func (j *Journal) queryOperations(query string, args ...interface{}) ([]OperationRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []OperationRecord
	for rows.Next() {
		var r OperationRecord
		var newPath, name, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Op, &r.Path, &newPath, &name,
			&r.ObjectType, &r.Size, &r.Removed, &r.Outcome, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.NewPath = newPath.String
		r.Name = name.String
		r.ErrorMessage = errMsg.String
		records = append(records, r)
	}

	return records, rows.Err()
}
