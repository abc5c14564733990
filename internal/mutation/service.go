package mutation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/query"
)

// WarningRowCountMismatch flags a mutation that touched other than one row.
const WarningRowCountMismatch = "RowCountMismatch"

// KeyLister reports a table's primary-key columns in key order.
type KeyLister interface {
	ListPrimaryKeys(ctx context.Context, t dbconn.Target, database, table string) ([]string, error)
}

// Outcome is the result of one mutation.
type Outcome struct {
	Success         bool    `json:"success"`
	RowsAffected    *int64  `json:"rows_affected,omitempty"`
	Warning         string  `json:"warning,omitempty"`
	Message         string  `json:"message"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
}

// Service performs single-row updates and deletes.
type Service struct {
	resolver query.Resolver
	keys     KeyLister
	exec     query.Executor
	logger   *slog.Logger
}

func NewService(resolver query.Resolver, keys KeyLister, exec query.Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, keys: keys, exec: exec, logger: logger}
}

// Update sets values on the row identified by pk. Primary-key columns in
// values are ignored.
func (s *Service) Update(ctx context.Context, t dbconn.Target, database, table string, pk Identity, values map[string]any) (*Outcome, error) {
	return s.mutate(ctx, t, database, table, pk, func(d dialect.Dialect, keys []string) (dialect.Statement, error) {
		return BuildUpdate(d, table, pk, keys, values)
	})
}

// Delete removes the row identified by pk.
func (s *Service) Delete(ctx context.Context, t dbconn.Target, database, table string, pk Identity) (*Outcome, error) {
	return s.mutate(ctx, t, database, table, pk, func(d dialect.Dialect, keys []string) (dialect.Statement, error) {
		return BuildDelete(d, table, pk, keys)
	})
}

type buildFunc func(d dialect.Dialect, keys []string) (dialect.Statement, error)

func (s *Service) mutate(ctx context.Context, t dbconn.Target, database, table string, pk Identity, build buildFunc) (*Outcome, error) {
	if strings.TrimSpace(table) == "" {
		return nil, refuse(table, "table name is required")
	}
	if len(pk) == 0 {
		return nil, refuse(table, "primary key identity is empty")
	}
	conn, err := s.resolver.Resolve(ctx, t, database)
	if err != nil {
		return nil, err
	}
	keys, err := s.keys.ListPrimaryKeys(ctx, t, database, table)
	if err != nil {
		return nil, err
	}
	stmt, err := build(conn.Dialect, keys)
	if err != nil {
		return nil, err
	}

	res, err := s.exec.Execute(ctx, conn, stmt)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Success:         true,
		RowsAffected:    res.RowsAffected,
		Message:         res.Message,
		ExecutionTimeMs: res.ExecutionTimeMs,
	}
	// Without a count from the driver there is nothing to compare.
	if n := res.RowsAffected; n != nil && *n != 1 {
		out.Warning = WarningRowCountMismatch
		s.logger.Warn("mutation affected unexpected row count",
			"target", conn.Label(), "table", table, "rows_affected", *n)
	}
	return out, nil
}
