package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
)

// Action is a quick action offered on a schema object.
type Action string

const (
	ActionShowCreate Action = "show_create"
	ActionSelectTop  Action = "select_top"
	ActionCount      Action = "count"
	ActionDescribe   Action = "describe"
	ActionCall       Action = "call"
)

// ObjectRef points at a schema object.
type ObjectRef struct {
	Type  dialect.ObjectType `json:"type"`
	Name  string             `json:"name"`
	Table string             `json:"table,omitempty"`
	Event string             `json:"event,omitempty"`
}

// InvalidRequestError is returned for requests refused before reaching the
// database.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

// ErrSystemDatabase is returned when asked to drop a system catalog.
var ErrSystemDatabase = errors.New("refusing to drop a system database")

// QuickAction renders the SQL text for action on ref, ready for the editor.
// limit applies to select_top only.
func QuickAction(d dialect.Dialect, ref ObjectRef, action Action, limit int) (string, error) {
	if !d.Valid() {
		return "", &InvalidRequestError{Message: fmt.Sprintf("unsupported dialect: %s", d)}
	}
	if strings.TrimSpace(ref.Name) == "" {
		return "", &InvalidRequestError{Message: "object name is required"}
	}
	if _, err := dialect.ParseObjectType(string(ref.Type)); err != nil {
		return "", &InvalidRequestError{Message: err.Error()}
	}
	relation := ref.Type == dialect.ObjectTable || ref.Type == dialect.ObjectView

	var op dialect.Operation
	switch {
	case action == ActionShowCreate:
		op = dialect.OpShowCreate
	case action == ActionSelectTop && relation:
		op = dialect.OpSelectTop
	case action == ActionCount && relation:
		op = dialect.OpCountRows
	case action == ActionDescribe && relation:
		op = dialect.OpDescribeTable
	case action == ActionCall && ref.Type == dialect.ObjectProcedure:
		op = dialect.OpCallProcedure
	case action == ActionCall && ref.Type == dialect.ObjectFunction:
		op = dialect.OpCallFunction
	default:
		return "", &InvalidRequestError{Message: fmt.Sprintf("action %q does not apply to a %s", action, ref.Type)}
	}
	stmt := dialect.Template(d, op, dialect.Args{Name: ref.Name, Object: ref.Type, Limit: limit})
	return stmt.Inline(d), nil
}

func validDatabaseName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &InvalidRequestError{Message: "database name is required"}
	}
	if strings.ContainsAny(name, "\x00") {
		return &InvalidRequestError{Message: "database name contains a NUL byte"}
	}
	return nil
}

// CreateDatabase creates database name on the target's server.
func (s *Service) CreateDatabase(ctx context.Context, t dbconn.Target, name string) error {
	if err := validDatabaseName(name); err != nil {
		return err
	}
	conn, err := s.resolver.Resolve(ctx, t, "")
	if err != nil {
		return err
	}
	for _, stmt := range dialect.For(conn.Dialect).CreateDatabase(name) {
		if _, err := s.exec.Execute(ctx, conn, stmt); err != nil {
			return err
		}
	}
	s.logger.Info("database created", "target", conn.Target, "database", name)
	return nil
}

// DropDatabase drops database name, first disconnecting other sessions the
// way the dialect requires. System catalogs are refused.
func (s *Service) DropDatabase(ctx context.Context, t dbconn.Target, name string) error {
	if err := validDatabaseName(name); err != nil {
		return err
	}
	conn, err := s.resolver.Resolve(ctx, t, "")
	if err != nil {
		return err
	}
	if s.systemDBs[conn.Dialect][strings.ToLower(name)] {
		return fmt.Errorf("%w: %s", ErrSystemDatabase, name)
	}
	if strings.EqualFold(conn.Database, name) {
		return &InvalidRequestError{Message: fmt.Sprintf("cannot drop %s while connected to it", name)}
	}
	for _, stmt := range dialect.For(conn.Dialect).DropDatabase(name) {
		if _, err := s.exec.Execute(ctx, conn, stmt); err != nil {
			return err
		}
	}
	s.logger.Info("database dropped", "target", conn.Target, "database", name)
	return nil
}
