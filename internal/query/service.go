package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/history"
)

// Resolver turns a target into a connection.
type Resolver interface {
	Resolve(ctx context.Context, t dbconn.Target, database string) (dbconn.Resolved, error)
}

// Recorder receives one history entry per executed query.
type Recorder interface {
	Record(ctx context.Context, e history.Entry)
}

// Request is an ad-hoc query submitted by an operator.
type Request struct {
	Owner    string
	Target   dbconn.Target
	Database string
	SQL      string
}

// Service executes operator queries and records them in the history ledger.
type Service struct {
	resolver Resolver
	exec     Executor
	history  Recorder
	logger   *slog.Logger
}

func NewService(resolver Resolver, exec Executor, rec Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, exec: exec, history: rec, logger: logger}
}

// Execute resolves the target, runs the query and records exactly one history
// entry whatever the outcome.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	entry := history.Entry{
		Owner:         req.Owner,
		QueryText:     req.SQL,
		DatabaseLabel: labelFor(req),
		Timestamp:     time.Now().UTC(),
	}
	defer func() {
		if s.history != nil {
			s.history.Record(context.WithoutCancel(ctx), entry)
		}
	}()

	if strings.TrimSpace(req.SQL) == "" {
		entry.Status = history.StatusError
		return nil, ErrEmptyQuery
	}

	conn, err := s.resolver.Resolve(ctx, req.Target, req.Database)
	if err != nil {
		entry.Status = history.StatusError
		return nil, err
	}
	entry.DatabaseLabel = conn.Label()

	res, err := s.exec.Execute(ctx, conn, dialect.Statement{SQL: req.SQL})
	if err != nil {
		entry.Status = history.StatusError
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			entry.ExecutionTimeMs = execErr.ExecutionTimeMs
		}
		s.logger.Info("query failed", "owner", req.Owner, "target", conn.Label(), "error", err)
		return nil, err
	}

	entry.Status = history.StatusSuccess
	entry.ExecutionTimeMs = res.ExecutionTimeMs
	switch {
	case res.RowsAffected != nil:
		entry.RowsAffected = *res.RowsAffected
	default:
		entry.RowsAffected = int64(len(res.Rows))
	}
	return res, nil
}

func labelFor(req Request) string {
	label := req.Target.String()
	if req.Database != "" {
		label += "/" + req.Database
	}
	return label
}
