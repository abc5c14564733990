// Package metadata answers catalog questions (databases, tables, routines,
// keys, indexes) for any supported dialect.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/query"
)

// DefaultSystemDatabases are hidden from ListDatabases unless overridden.
var DefaultSystemDatabases = map[dialect.Dialect][]string{
	dialect.MySQL:     {"information_schema", "mysql", "performance_schema", "sys"},
	dialect.Postgres:  {"postgres"},
	dialect.SQLServer: {},
}

// Service runs catalog queries through an executor.
type Service struct {
	resolver  query.Resolver
	exec      query.Executor
	systemDBs map[dialect.Dialect]map[string]bool
	logger    *slog.Logger
}

// NewService creates a metadata service. systemDBs overrides the default
// exclusion set per dialect; dialects missing from it keep the defaults.
func NewService(resolver query.Resolver, exec query.Executor, systemDBs map[dialect.Dialect][]string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	sets := make(map[dialect.Dialect]map[string]bool, len(DefaultSystemDatabases))
	for d, names := range DefaultSystemDatabases {
		if override, ok := systemDBs[d]; ok {
			names = override
		}
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[strings.ToLower(n)] = true
		}
		sets[d] = set
	}
	return &Service{resolver: resolver, exec: exec, systemDBs: sets, logger: logger}
}

// run resolves the target and executes the template for op. Resolution
// errors pass through untouched; engine errors become FetchError.
func (s *Service) run(ctx context.Context, op dialect.Operation, t dbconn.Target, database string, args dialect.Args) (*query.Result, dialect.Dialect, error) {
	conn, err := s.resolver.Resolve(ctx, t, database)
	if err != nil {
		return nil, "", err
	}
	stmt := dialect.Template(conn.Dialect, op, args)
	res, err := s.exec.Execute(ctx, conn, stmt)
	if err != nil {
		msg := err.Error()
		var execErr *query.ExecutionError
		if errors.As(err, &execErr) {
			msg = execErr.Message
		}
		s.logger.Warn("metadata fetch failed", "operation", op, "target", conn.Label(), "error", msg)
		return nil, conn.Dialect, &FetchError{Operation: op, Dialect: conn.Dialect, Message: msg, Err: err}
	}
	return res, conn.Dialect, nil
}

// ListDatabases lists user databases; the dialect's system catalogs are
// filtered out client-side.
func (s *Service) ListDatabases(ctx context.Context, t dbconn.Target) ([]string, error) {
	res, d, err := s.run(ctx, dialect.OpListDatabases, t, "", dialect.Args{})
	if err != nil {
		return nil, err
	}
	exclude := s.systemDBs[d]
	names := []string{}
	for _, name := range firstColumn(res) {
		if !exclude[strings.ToLower(name)] {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *Service) listNames(ctx context.Context, op dialect.Operation, t dbconn.Target, database string) ([]string, error) {
	res, _, err := s.run(ctx, op, t, database, dialect.Args{})
	if err != nil {
		return nil, err
	}
	return firstColumn(res), nil
}

// ListTables lists base tables of the current schema.
func (s *Service) ListTables(ctx context.Context, t dbconn.Target, database string) ([]string, error) {
	return s.listNames(ctx, dialect.OpListTables, t, database)
}

// ListViews lists views of the current schema.
func (s *Service) ListViews(ctx context.Context, t dbconn.Target, database string) ([]string, error) {
	return s.listNames(ctx, dialect.OpListViews, t, database)
}

func (s *Service) listRoutines(ctx context.Context, op dialect.Operation, t dbconn.Target, database string) ([]Routine, error) {
	res, _, err := s.run(ctx, op, t, database, dialect.Args{})
	if err != nil {
		return nil, err
	}
	out := make([]Routine, 0, len(res.Rows))
	for _, r := range res.Rows {
		out = append(out, Routine{Name: str(r["name"]), Type: str(r["type"])})
	}
	return out, nil
}

// ListProcedures lists stored procedures.
func (s *Service) ListProcedures(ctx context.Context, t dbconn.Target, database string) ([]Routine, error) {
	return s.listRoutines(ctx, dialect.OpListProcedures, t, database)
}

// ListFunctions lists user-defined functions.
func (s *Service) ListFunctions(ctx context.Context, t dbconn.Target, database string) ([]Routine, error) {
	return s.listRoutines(ctx, dialect.OpListFunctions, t, database)
}

// ListTriggers lists triggers with their table and firing events.
func (s *Service) ListTriggers(ctx context.Context, t dbconn.Target, database string) ([]Trigger, error) {
	res, _, err := s.run(ctx, dialect.OpListTriggers, t, database, dialect.Args{})
	if err != nil {
		return nil, err
	}
	out := make([]Trigger, 0, len(res.Rows))
	for _, r := range res.Rows {
		out = append(out, Trigger{Name: str(r["name"]), Table: str(r["table_name"]), Event: str(r["event"])})
	}
	return out, nil
}

// ListPrimaryKeys returns the primary-key columns of table in key order.
func (s *Service) ListPrimaryKeys(ctx context.Context, t dbconn.Target, database, table string) ([]string, error) {
	res, _, err := s.run(ctx, dialect.OpListPrimaryKeys, t, database, dialect.Args{Name: table})
	if err != nil {
		return nil, err
	}
	return firstColumn(res), nil
}

// ListIndexes returns the indexes of table, columns in key order.
func (s *Service) ListIndexes(ctx context.Context, t dbconn.Target, database, table string) ([]Index, error) {
	res, _, err := s.run(ctx, dialect.OpListIndexes, t, database, dialect.Args{Name: table})
	if err != nil {
		return nil, err
	}
	var out []Index
	pos := map[string]int{}
	for _, r := range res.Rows {
		name := str(r["index_name"])
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, Index{
				Name:    name,
				Unique:  num(r["is_unique"]) != 0,
				Primary: num(r["is_primary"]) != 0,
			})
		}
		out[i].Columns = append(out[i].Columns, str(r["column_name"]))
	}
	if out == nil {
		out = []Index{}
	}
	return out, nil
}

// ListForeignKeys returns the foreign keys declared on table.
func (s *Service) ListForeignKeys(ctx context.Context, t dbconn.Target, database, table string) ([]ForeignKey, error) {
	res, _, err := s.run(ctx, dialect.OpListForeignKeys, t, database, dialect.Args{Name: table})
	if err != nil {
		return nil, err
	}
	var out []ForeignKey
	pos := map[string]int{}
	for _, r := range res.Rows {
		name := str(r["constraint_name"])
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, ForeignKey{Name: name, ReferencedTable: str(r["referenced_table"])})
		}
		out[i].Columns = append(out[i].Columns, str(r["column_name"]))
		out[i].ReferencedColumns = append(out[i].ReferencedColumns, str(r["referenced_column"]))
	}
	if out == nil {
		out = []ForeignKey{}
	}
	return out, nil
}

// GetTableSchema returns the columns of table in ordinal order.
func (s *Service) GetTableSchema(ctx context.Context, t dbconn.Target, database, table string) ([]Column, error) {
	res, d, err := s.run(ctx, dialect.OpTableSchema, t, database, dialect.Args{Name: table})
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(res.Rows))
	for _, r := range res.Rows {
		col := Column{
			Name:     str(r["column_name"]),
			DataType: str(r["data_type"]),
			Nullable: strings.EqualFold(str(r["is_nullable"]), "YES"),
			Position: int(num(r["ordinal_position"])),
		}
		if v := r["column_default"]; v != nil {
			def := str(v)
			col.Default = &def
		}
		col.Type = d.NormalizeType(col.DataType)
		out = append(out, col)
	}
	return out, nil
}

// ServerVersion returns the engine's version banner.
func (s *Service) ServerVersion(ctx context.Context, t dbconn.Target) (string, error) {
	res, _, err := s.run(ctx, dialect.OpServerVersion, t, "", dialect.Args{})
	if err != nil {
		return "", err
	}
	vals := firstColumn(res)
	if len(vals) == 0 {
		return "Unknown", nil
	}
	return strings.TrimSpace(vals[0]), nil
}

// TestConnection pings the target and reports its version. Engine failures
// are reported in the status, not as errors.
func (s *Service) TestConnection(ctx context.Context, t dbconn.Target, database string) (ConnectionStatus, error) {
	if _, d, err := s.run(ctx, dialect.OpPing, t, database, dialect.Args{}); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return ConnectionStatus{Success: false, Dialect: string(d), Message: fe.Message}, nil
		}
		return ConnectionStatus{}, err
	}
	conn, err := s.resolver.Resolve(ctx, t, database)
	if err != nil {
		return ConnectionStatus{}, err
	}
	version, err := s.ServerVersion(ctx, t)
	if err != nil {
		version = "Unknown"
	}
	return ConnectionStatus{
		Success: true,
		Dialect: string(conn.Dialect),
		Version: version,
		Message: fmt.Sprintf("Connected to %s", conn.Dialect.Label()),
	}, nil
}

// Definition runs showCreate and returns the object's DDL text.
func (s *Service) Definition(ctx context.Context, t dbconn.Target, database string, obj dialect.ObjectType, name string) (string, error) {
	res, _, err := s.run(ctx, dialect.OpShowCreate, t, database, dialect.Args{Object: obj, Name: name})
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", nil
	}
	row := res.Rows[0]
	for _, c := range res.Columns {
		lc := strings.ToLower(c)
		if strings.HasPrefix(lc, "create ") || lc == "sql original statement" || lc == "definition" {
			return str(row[c]), nil
		}
	}
	return str(row[res.Columns[len(res.Columns)-1]]), nil
}

func firstColumn(res *query.Result) []string {
	out := make([]string, 0, len(res.Rows))
	if len(res.Columns) == 0 {
		return out
	}
	col := res.Columns[0]
	for _, r := range res.Rows {
		out = append(out, str(r[col]))
	}
	return out
}

func str(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func num(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	case float64:
		return int64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(val), 10, 64)
		return n
	}
	return 0
}
