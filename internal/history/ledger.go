// Package history keeps the per-user ledger of executed queries.
package history

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/luisdotcom/db-hub/internal/store"
)

// DefaultLimit is the number of entries List returns when none is asked for.
const DefaultLimit = 50

// Status is the outcome of a recorded query.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is one executed query.
type Entry struct {
	ID              int64     `json:"id"`
	Owner           string    `json:"-"`
	QueryText       string    `json:"query_text"`
	DatabaseLabel   string    `json:"database_name"`
	Status          Status    `json:"status"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	RowsAffected    int64     `json:"rows_affected"`
	Timestamp       time.Time `json:"timestamp"`
}

// ErrNotFound is returned by DeleteOne for unknown ids.
var ErrNotFound = errors.New("history entry not found")

// Ledger records and lists history entries.
type Ledger struct {
	repo   *store.HistoryRepo
	logger *slog.Logger
}

func NewLedger(repo *store.HistoryRepo, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{repo: repo, logger: logger}
}

// Record stores e. Failures are logged and never reach the caller.
func (l *Ledger) Record(ctx context.Context, e Entry) {
	if _, err := l.Add(ctx, e); err != nil {
		l.logger.Error("recording query history", "owner", e.Owner, "error", err)
	}
}

// Add stores e and returns it with its id. Unlike Record it reports failures;
// it backs explicit client submissions.
func (l *Ledger) Add(ctx context.Context, e Entry) (Entry, error) {
	switch e.Status {
	case StatusSuccess, StatusError:
	default:
		e.Status = StatusError
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	id, err := l.repo.Insert(ctx, store.HistoryRecord{
		Owner:           e.Owner,
		QueryText:       e.QueryText,
		DatabaseName:    e.DatabaseLabel,
		Status:          string(e.Status),
		ExecutionTimeMs: e.ExecutionTimeMs,
		RowsAffected:    e.RowsAffected,
		Timestamp:       e.Timestamp,
	})
	if err != nil {
		return Entry{}, err
	}
	e.ID = id
	return e, nil
}

// List returns owner's newest entries first. limit <= 0 means DefaultLimit.
func (l *Ledger) List(ctx context.Context, owner string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	recs, err := l.repo.List(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, Entry{
			ID:              r.ID,
			Owner:           r.Owner,
			QueryText:       r.QueryText,
			DatabaseLabel:   r.DatabaseName,
			Status:          Status(r.Status),
			ExecutionTimeMs: r.ExecutionTimeMs,
			RowsAffected:    r.RowsAffected,
			Timestamp:       r.Timestamp,
		})
	}
	return entries, nil
}

// DeleteOne removes one of owner's entries.
func (l *Ledger) DeleteOne(ctx context.Context, owner string, id int64) error {
	err := l.repo.Delete(ctx, owner, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Clear removes all of owner's entries.
func (l *Ledger) Clear(ctx context.Context, owner string) (int64, error) {
	return l.repo.Clear(ctx, owner)
}
