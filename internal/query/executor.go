// Package query runs SQL against resolved connections and shapes the results.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
)

// Result is the outcome of one statement. Rows and RowsAffected are mutually
// exclusive: row-returning statements fill Columns/Rows, others RowsAffected.
// A successful statement with neither produced no result set and no count.
type Result struct {
	Success         bool             `json:"success"`
	Columns         []string         `json:"columns,omitempty"`
	Rows            []map[string]any `json:"rows,omitempty"`
	RowsAffected    *int64           `json:"rows_affected,omitempty"`
	Message         string           `json:"message,omitempty"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
}

// Executor runs a single statement against a resolved connection.
type Executor interface {
	Execute(ctx context.Context, conn dbconn.Resolved, stmt dialect.Statement) (*Result, error)
}

// SQLExecutor is the database/sql backed Executor.
type SQLExecutor struct {
	pool    *Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewSQLExecutor creates an executor drawing handles from pool. A zero
// timeout disables the per-statement deadline.
func NewSQLExecutor(pool *Pool, timeout time.Duration, logger *slog.Logger) *SQLExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLExecutor{pool: pool, timeout: timeout, logger: logger}
}

func (e *SQLExecutor) Execute(ctx context.Context, conn dbconn.Resolved, stmt dialect.Statement) (*Result, error) {
	db, err := e.pool.DB(conn)
	if err != nil {
		return nil, &ExecutionError{Message: err.Error(), Err: err}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	var res *Result
	if classify(conn.Dialect, stmt.SQL) == kindExec {
		res, err = e.exec(ctx, db, stmt)
	} else {
		res, err = e.query(ctx, db, stmt)
	}
	elapsed := elapsedMs(start)
	if err != nil {
		e.logger.Debug("statement failed", "target", conn.Label(), "dialect", conn.Dialect, "elapsed_ms", elapsed, "error", err)
		return nil, &ExecutionError{Message: err.Error(), ExecutionTimeMs: elapsed, Err: err}
	}
	res.ExecutionTimeMs = elapsed
	e.logger.Debug("statement executed", "target", conn.Label(), "dialect", conn.Dialect, "elapsed_ms", elapsed)
	return res, nil
}

func (e *SQLExecutor) exec(ctx context.Context, db *sql.DB, stmt dialect.Statement) (*Result, error) {
	r, err := db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	n, err := r.RowsAffected()
	if err != nil {
		// The driver cannot count; report success without a count.
		return &Result{Success: true, Message: noCountMessage}, nil
	}
	return &Result{
		Success:      true,
		RowsAffected: &n,
		Message:      affectedMessage(n),
	}, nil
}

func (e *SQLExecutor) query(ctx context.Context, db *sql.DB, stmt dialect.Statement) (*Result, error) {
	rows, err := db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	// A procedure call or SELECT ... INTO without a result set. database/sql
	// exposes no affected count here.
	if len(cols) == 0 {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return &Result{Success: true, Message: noCountMessage}, nil
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = formatValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{Success: true, Columns: cols, Rows: out}, nil
}

// formatValue converts driver values into JSON-friendly ones.
func formatValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return val
	}
}

const noCountMessage = "Query executed successfully."

func affectedMessage(n int64) string {
	if n == 1 {
		return "Query executed successfully. 1 row affected."
	}
	return fmt.Sprintf("Query executed successfully. %d rows affected.", n)
}

func elapsedMs(start time.Time) float64 {
	ms := float64(time.Since(start).Microseconds()) / 1000
	return math.Round(ms*100) / 100
}
