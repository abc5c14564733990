package dialect

import "fmt"

// ObjectType is the kind of schema object a SchemaObjectRef points at.
type ObjectType string

const (
	ObjectTable     ObjectType = "table"
	ObjectView      ObjectType = "view"
	ObjectProcedure ObjectType = "procedure"
	ObjectFunction  ObjectType = "function"
	ObjectTrigger   ObjectType = "trigger"
)

// ParseObjectType validates an object type name.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case ObjectTable, ObjectView, ObjectProcedure, ObjectFunction, ObjectTrigger:
		return ObjectType(s), nil
	}
	return "", fmt.Errorf("unknown object type: %s", s)
}

// Operation is an abstract metadata or DDL request.
type Operation string

const (
	OpListDatabases   Operation = "listDatabases"
	OpListTables      Operation = "listTables"
	OpListViews       Operation = "listViews"
	OpListProcedures  Operation = "listProcedures"
	OpListFunctions   Operation = "listFunctions"
	OpListTriggers    Operation = "listTriggers"
	OpListIndexes     Operation = "listIndexes"
	OpListForeignKeys Operation = "listForeignKeys"
	OpListPrimaryKeys Operation = "listPrimaryKeys"
	OpTableSchema     Operation = "tableSchema"
	OpShowCreate      Operation = "showCreate"
	OpSelectTop       Operation = "selectTop"
	OpCountRows       Operation = "countRows"
	OpDescribeTable   Operation = "describeTable"
	OpCallProcedure   Operation = "callProcedureTemplate"
	OpCallFunction    Operation = "callFunctionTemplate"
	OpServerVersion   Operation = "serverVersion"
	OpPing            Operation = "ping"
)

// Operations lists every operation a profile must answer.
var Operations = []Operation{
	OpListDatabases, OpListTables, OpListViews, OpListProcedures, OpListFunctions,
	OpListTriggers, OpListIndexes, OpListForeignKeys, OpListPrimaryKeys, OpTableSchema,
	OpShowCreate, OpSelectTop, OpCountRows, OpDescribeTable, OpCallProcedure,
	OpCallFunction, OpServerVersion, OpPing,
}

// Args carries the parameters of name-bound operations.
type Args struct {
	Name   string     // table / object name
	Object ObjectType // showCreate only
	Limit  int        // selectTop only
}

// Profile is the immutable template table of one dialect. Every field must be
// set; the struct layout is the exhaustiveness check.
type Profile struct {
	Dialect Dialect

	// Catalog queries without parameters, scoped to the connection's current
	// database / schema.
	ListDatabases  string
	ListTables     string
	ListViews      string
	ListProcedures string
	ListFunctions  string
	ListTriggers   string
	ServerVersion  string
	Ping           string

	// Catalog queries taking the table name as their only placeholder.
	ListIndexes     string
	ListForeignKeys string
	ListPrimaryKeys string
	TableSchema     string

	ShowCreate     func(obj ObjectType, name string) (Statement, bool)
	SelectTop      func(n int, name string) string
	CountRows      func(name string) string
	DescribeTable  func(name string) Statement
	CallProcedure  func(name string) string
	CallFunction   func(name string) string
	CreateDatabase func(name string) []Statement
	DropDatabase   func(name string) []Statement
}

// UnsupportedOperationError reports a (dialect, operation) pair missing from
// the static tables. It is raised as a panic: the tables are fixed at build
// time, so reaching it is a programming error.
type UnsupportedOperationError struct {
	Dialect   Dialect
	Operation Operation
	Detail    string
}

func (e *UnsupportedOperationError) Error() string {
	msg := fmt.Sprintf("unsupported dialect operation: %s for %s", e.Operation, e.Dialect)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

var profiles = map[Dialect]*Profile{
	MySQL:     &mysqlProfile,
	Postgres:  &postgresProfile,
	SQLServer: &mssqlProfile,
}

// For returns the profile of d. It panics for an unknown dialect.
func For(d Dialect) *Profile {
	p, ok := profiles[d]
	if !ok {
		panic(&UnsupportedOperationError{Dialect: d, Detail: "no profile"})
	}
	return p
}

// Template resolves (dialect, operation) into an executable statement.
// Name-bound catalog queries get args.Name bound as their placeholder; display
// templates (selectTop, countRows, call*) inline the quoted identifier.
func Template(d Dialect, op Operation, args Args) Statement {
	p := For(d)
	switch op {
	case OpListDatabases:
		return Statement{SQL: p.ListDatabases}
	case OpListTables:
		return Statement{SQL: p.ListTables}
	case OpListViews:
		return Statement{SQL: p.ListViews}
	case OpListProcedures:
		return Statement{SQL: p.ListProcedures}
	case OpListFunctions:
		return Statement{SQL: p.ListFunctions}
	case OpListTriggers:
		return Statement{SQL: p.ListTriggers}
	case OpServerVersion:
		return Statement{SQL: p.ServerVersion}
	case OpPing:
		return Statement{SQL: p.Ping}
	case OpListIndexes:
		return Statement{SQL: p.ListIndexes, Args: []any{args.Name}}
	case OpListForeignKeys:
		return Statement{SQL: p.ListForeignKeys, Args: []any{args.Name}}
	case OpListPrimaryKeys:
		return Statement{SQL: p.ListPrimaryKeys, Args: []any{args.Name}}
	case OpTableSchema:
		return Statement{SQL: p.TableSchema, Args: []any{args.Name}}
	case OpShowCreate:
		stmt, ok := p.ShowCreate(args.Object, args.Name)
		if !ok {
			panic(&UnsupportedOperationError{Dialect: d, Operation: op, Detail: string(args.Object)})
		}
		return stmt
	case OpSelectTop:
		n := args.Limit
		if n <= 0 {
			n = 100
		}
		return Statement{SQL: p.SelectTop(n, args.Name)}
	case OpCountRows:
		return Statement{SQL: p.CountRows(args.Name)}
	case OpDescribeTable:
		return p.DescribeTable(args.Name)
	case OpCallProcedure:
		return Statement{SQL: p.CallProcedure(args.Name)}
	case OpCallFunction:
		return Statement{SQL: p.CallFunction(args.Name)}
	}
	panic(&UnsupportedOperationError{Dialect: d, Operation: op})
}
