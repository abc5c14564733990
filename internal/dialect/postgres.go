package dialect

import "fmt"

// pgCreateTable rebuilds a CREATE TABLE statement from information_schema,
// since PostgreSQL has no server-side SHOW CREATE TABLE.
const pgCreateTable = `SELECT 'CREATE TABLE ' || quote_ident($1) || E' (\n' ||
  string_agg('  ' || quote_ident(column_name) || ' ' ||
    CASE WHEN character_maximum_length IS NOT NULL
      THEN data_type || '(' || character_maximum_length || ')'
      ELSE data_type END ||
    CASE WHEN is_nullable = 'NO' THEN ' NOT NULL' ELSE '' END ||
    CASE WHEN column_default IS NOT NULL THEN ' DEFAULT ' || column_default ELSE '' END,
    E',\n' ORDER BY ordinal_position) || E'\n);' AS definition
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

var postgresProfile = Profile{
	Dialect: Postgres,

	ListDatabases: "SELECT datname AS name FROM pg_database WHERE datistemplate = false ORDER BY datname",
	ListTables: `SELECT table_name AS name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	ListViews: `SELECT table_name AS name FROM information_schema.views
WHERE table_schema = current_schema()
ORDER BY table_name`,
	ListProcedures: `SELECT p.proname AS name, 'PROCEDURE' AS type
FROM pg_proc p JOIN pg_namespace n ON p.pronamespace = n.oid
WHERE n.nspname = current_schema() AND p.prokind = 'p'
ORDER BY p.proname`,
	ListFunctions: `SELECT p.proname AS name, 'FUNCTION' AS type
FROM pg_proc p JOIN pg_namespace n ON p.pronamespace = n.oid
WHERE n.nspname = current_schema() AND p.prokind = 'f'
ORDER BY p.proname`,
	ListTriggers: `SELECT trigger_name AS name, event_object_table AS table_name,
  string_agg(event_manipulation, ' OR ' ORDER BY event_manipulation) AS event
FROM information_schema.triggers
WHERE trigger_schema = current_schema()
GROUP BY trigger_name, event_object_table
ORDER BY trigger_name`,
	ServerVersion: "SELECT version() AS version",
	Ping:          "SELECT 1",

	ListIndexes: `SELECT i.relname AS index_name, a.attname AS column_name,
  CASE WHEN ix.indisunique THEN 1 ELSE 0 END AS is_unique,
  CASE WHEN ix.indisprimary THEN 1 ELSE 0 END AS is_primary,
  k.ord AS seq
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = current_schema() AND t.relname = $1
ORDER BY i.relname, k.ord`,
	ListForeignKeys: `SELECT tc.constraint_name AS constraint_name, kcu.column_name AS column_name,
  ccu.table_name AS referenced_table, ccu.column_name AS referenced_column
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY tc.constraint_name, kcu.ordinal_position`,
	ListPrimaryKeys: `SELECT kcu.column_name AS column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY kcu.ordinal_position`,
	TableSchema: `SELECT column_name AS column_name,
  CASE WHEN character_maximum_length IS NOT NULL
    THEN data_type || '(' || character_maximum_length || ')'
    WHEN data_type = 'numeric' AND numeric_precision IS NOT NULL
    THEN data_type || '(' || numeric_precision || ',' || COALESCE(numeric_scale, 0) || ')'
    ELSE data_type END AS data_type,
  is_nullable AS is_nullable, column_default AS column_default, ordinal_position AS ordinal_position
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`,

	ShowCreate: func(obj ObjectType, name string) (Statement, bool) {
		switch obj {
		case ObjectTable:
			return Statement{SQL: pgCreateTable, Args: []any{name}}, true
		case ObjectView:
			return Statement{
				SQL:  `SELECT 'CREATE OR REPLACE VIEW ' || quote_ident($1) || E' AS\n' || pg_get_viewdef(quote_ident($1)::regclass, true) AS definition`,
				Args: []any{name},
			}, true
		case ObjectProcedure, ObjectFunction:
			return Statement{
				SQL: `SELECT pg_get_functiondef(p.oid) AS definition
FROM pg_proc p JOIN pg_namespace n ON p.pronamespace = n.oid
WHERE n.nspname = current_schema() AND p.proname = $1`,
				Args: []any{name},
			}, true
		case ObjectTrigger:
			return Statement{
				SQL:  `SELECT pg_get_triggerdef(oid, true) AS definition FROM pg_trigger WHERE tgname = $1 AND NOT tgisinternal`,
				Args: []any{name},
			}, true
		}
		return Statement{}, false
	},
	SelectTop: func(n int, name string) string {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", Postgres.QuoteIdent(name), n)
	},
	CountRows: func(name string) string {
		return fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", Postgres.QuoteIdent(name))
	},
	DescribeTable: func(name string) Statement {
		return Statement{
			SQL: `SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ` + quoteLiteral(name) + `
ORDER BY ordinal_position`,
		}
	},
	CallProcedure: func(name string) string {
		return fmt.Sprintf("CALL %s()", Postgres.QuoteIdent(name))
	},
	CallFunction: func(name string) string {
		return fmt.Sprintf("SELECT %s()", Postgres.QuoteIdent(name))
	},
	CreateDatabase: func(name string) []Statement {
		return []Statement{{SQL: "CREATE DATABASE " + Postgres.QuoteIdent(name)}}
	},
	DropDatabase: func(name string) []Statement {
		return []Statement{
			{
				SQL:  "SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
				Args: []any{name},
			},
			{SQL: "DROP DATABASE " + Postgres.QuoteIdent(name)},
		}
	},
}
