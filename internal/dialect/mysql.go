package dialect

import "fmt"

var mysqlProfile = Profile{
	Dialect: MySQL,

	ListDatabases: "SHOW DATABASES",
	ListTables: `SELECT TABLE_NAME AS name FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`,
	ListViews: `SELECT TABLE_NAME AS name FROM information_schema.VIEWS
WHERE TABLE_SCHEMA = DATABASE()
ORDER BY TABLE_NAME`,
	ListProcedures: `SELECT ROUTINE_NAME AS name, ROUTINE_TYPE AS type FROM information_schema.ROUTINES
WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'PROCEDURE'
ORDER BY ROUTINE_NAME`,
	ListFunctions: `SELECT ROUTINE_NAME AS name, ROUTINE_TYPE AS type FROM information_schema.ROUTINES
WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'FUNCTION'
ORDER BY ROUTINE_NAME`,
	ListTriggers: `SELECT TRIGGER_NAME AS name, EVENT_OBJECT_TABLE AS table_name, EVENT_MANIPULATION AS event
FROM information_schema.TRIGGERS
WHERE TRIGGER_SCHEMA = DATABASE()
ORDER BY TRIGGER_NAME`,
	ServerVersion: "SELECT VERSION() AS version",
	Ping:          "SELECT 1",

	ListIndexes: `SELECT INDEX_NAME AS index_name, COLUMN_NAME AS column_name,
  CASE WHEN NON_UNIQUE = 0 THEN 1 ELSE 0 END AS is_unique,
  CASE WHEN INDEX_NAME = 'PRIMARY' THEN 1 ELSE 0 END AS is_primary,
  SEQ_IN_INDEX AS seq
FROM information_schema.STATISTICS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`,
	ListForeignKeys: `SELECT kcu.CONSTRAINT_NAME AS constraint_name, kcu.COLUMN_NAME AS column_name,
  kcu.REFERENCED_TABLE_NAME AS referenced_table, kcu.REFERENCED_COLUMN_NAME AS referenced_column
FROM information_schema.KEY_COLUMN_USAGE kcu
WHERE kcu.TABLE_SCHEMA = DATABASE() AND kcu.TABLE_NAME = ?
  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`,
	ListPrimaryKeys: `SELECT COLUMN_NAME AS column_name FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
ORDER BY ORDINAL_POSITION`,
	TableSchema: `SELECT COLUMN_NAME AS column_name, COLUMN_TYPE AS data_type, IS_NULLABLE AS is_nullable,
  COLUMN_DEFAULT AS column_default, ORDINAL_POSITION AS ordinal_position
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`,

	ShowCreate: func(obj ObjectType, name string) (Statement, bool) {
		var kw string
		switch obj {
		case ObjectTable:
			kw = "TABLE"
		case ObjectView:
			kw = "VIEW"
		case ObjectProcedure:
			kw = "PROCEDURE"
		case ObjectFunction:
			kw = "FUNCTION"
		case ObjectTrigger:
			kw = "TRIGGER"
		default:
			return Statement{}, false
		}
		return Statement{SQL: fmt.Sprintf("SHOW CREATE %s %s", kw, MySQL.QuoteIdent(name))}, true
	},
	SelectTop: func(n int, name string) string {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", MySQL.QuoteIdent(name), n)
	},
	CountRows: func(name string) string {
		return fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", MySQL.QuoteIdent(name))
	},
	DescribeTable: func(name string) Statement {
		return Statement{SQL: "DESCRIBE " + MySQL.QuoteIdent(name)}
	},
	CallProcedure: func(name string) string {
		return fmt.Sprintf("CALL %s()", MySQL.QuoteIdent(name))
	},
	CallFunction: func(name string) string {
		return fmt.Sprintf("SELECT %s()", MySQL.QuoteIdent(name))
	},
	CreateDatabase: func(name string) []Statement {
		return []Statement{{SQL: "CREATE DATABASE " + MySQL.QuoteIdent(name)}}
	},
	DropDatabase: func(name string) []Statement {
		return []Statement{{SQL: "DROP DATABASE " + MySQL.QuoteIdent(name)}}
	},
}
