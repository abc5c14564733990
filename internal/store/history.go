package store

import (
	"context"
	"database/sql"
	"time"
)

// HistoryRepo reads and writes query_history.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert stores rec and returns its id.
func (r *HistoryRepo) Insert(ctx context.Context, rec HistoryRecord) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO query_history (owner, query_text, database_name, status, execution_time_ms, rows_affected, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Owner, rec.QueryText, rec.DatabaseName, rec.Status,
		rec.ExecutionTimeMs, rec.RowsAffected, formatTime(rec.Timestamp),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns the owner's newest limit records, newest first.
func (r *HistoryRepo) List(ctx context.Context, owner string, limit int) ([]HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, query_text, database_name, status, execution_time_ms, rows_affected, timestamp
		 FROM query_history WHERE owner = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		owner, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []HistoryRecord{}
	for rows.Next() {
		var rec HistoryRecord
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.QueryText, &rec.DatabaseName,
			&rec.Status, &rec.ExecutionTimeMs, &rec.RowsAffected, &ts); err != nil {
			return nil, err
		}
		rec.Timestamp = parseTime(ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one of the owner's records. ErrNotFound if there was none.
func (r *HistoryRepo) Delete(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM query_history WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all of the owner's records and returns how many went.
func (r *HistoryRepo) Clear(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM query_history WHERE owner = ?", owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
