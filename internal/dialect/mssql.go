package dialect

import "fmt"

const mssqlCreateTable = `SELECT 'CREATE TABLE ' + QUOTENAME(@p1) + ' (' + CHAR(10) +
  STRING_AGG(CAST('  ' + QUOTENAME(COLUMN_NAME) + ' ' + DATA_TYPE +
    CASE WHEN CHARACTER_MAXIMUM_LENGTH = -1 THEN '(MAX)'
      WHEN CHARACTER_MAXIMUM_LENGTH IS NOT NULL THEN '(' + CAST(CHARACTER_MAXIMUM_LENGTH AS VARCHAR(10)) + ')'
      ELSE '' END +
    CASE WHEN IS_NULLABLE = 'NO' THEN ' NOT NULL' ELSE '' END AS NVARCHAR(MAX)), ',' + CHAR(10))
    WITHIN GROUP (ORDER BY ORDINAL_POSITION) + CHAR(10) + ');' AS definition
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1`

var mssqlProfile = Profile{
	Dialect: SQLServer,

	ListDatabases: "SELECT name FROM sys.databases ORDER BY name",
	ListTables: `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`,
	ListViews: `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.VIEWS
WHERE TABLE_SCHEMA = SCHEMA_NAME()
ORDER BY TABLE_NAME`,
	ListProcedures: `SELECT name, type_desc AS type FROM sys.procedures
WHERE type = 'P'
ORDER BY name`,
	ListFunctions: `SELECT name, type_desc AS type FROM sys.objects
WHERE type IN ('FN', 'IF', 'TF')
ORDER BY name`,
	ListTriggers: `SELECT t.name AS name, o.name AS table_name,
  ISNULL(STUFF((SELECT ' OR ' + te.type_desc FROM sys.trigger_events te
    WHERE te.object_id = t.object_id FOR XML PATH('')), 1, 4, ''), '') AS event
FROM sys.triggers t
JOIN sys.objects o ON t.parent_id = o.object_id
ORDER BY t.name`,
	ServerVersion: "SELECT @@VERSION AS version",
	Ping:          "SELECT 1",

	ListIndexes: `SELECT i.name AS index_name, c.name AS column_name,
  CAST(i.is_unique AS INT) AS is_unique, CAST(i.is_primary_key AS INT) AS is_primary,
  ic.key_ordinal AS seq
FROM sys.indexes i
JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
WHERE i.object_id = OBJECT_ID(QUOTENAME(SCHEMA_NAME()) + '.' + QUOTENAME(@p1)) AND i.name IS NOT NULL
ORDER BY i.name, ic.key_ordinal`,
	ListForeignKeys: `SELECT fk.name AS constraint_name, pc.name AS column_name,
  rt.name AS referenced_table, rc.name AS referenced_column
FROM sys.foreign_keys fk
JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
WHERE fk.parent_object_id = OBJECT_ID(QUOTENAME(SCHEMA_NAME()) + '.' + QUOTENAME(@p1))
ORDER BY fk.name, fkc.constraint_column_id`,
	ListPrimaryKeys: `SELECT kcu.COLUMN_NAME AS column_name
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
  ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = SCHEMA_NAME() AND tc.TABLE_NAME = @p1
ORDER BY kcu.ORDINAL_POSITION`,
	TableSchema: `SELECT COLUMN_NAME AS column_name,
  CASE WHEN CHARACTER_MAXIMUM_LENGTH = -1 THEN DATA_TYPE + '(max)'
    WHEN CHARACTER_MAXIMUM_LENGTH IS NOT NULL THEN DATA_TYPE + '(' + CAST(CHARACTER_MAXIMUM_LENGTH AS VARCHAR(10)) + ')'
    WHEN DATA_TYPE IN ('decimal', 'numeric') THEN DATA_TYPE + '(' + CAST(NUMERIC_PRECISION AS VARCHAR(10)) + ',' + CAST(NUMERIC_SCALE AS VARCHAR(10)) + ')'
    ELSE DATA_TYPE END AS data_type,
  IS_NULLABLE AS is_nullable, COLUMN_DEFAULT AS column_default, ORDINAL_POSITION AS ordinal_position
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`,

	ShowCreate: func(obj ObjectType, name string) (Statement, bool) {
		switch obj {
		case ObjectTable:
			return Statement{SQL: mssqlCreateTable, Args: []any{name}}, true
		case ObjectView, ObjectProcedure, ObjectFunction, ObjectTrigger:
			return Statement{
				SQL:  "SELECT OBJECT_DEFINITION(OBJECT_ID(QUOTENAME(SCHEMA_NAME()) + '.' + QUOTENAME(@p1))) AS definition",
				Args: []any{name},
			}, true
		}
		return Statement{}, false
	},
	SelectTop: func(n int, name string) string {
		return fmt.Sprintf("SELECT TOP %d * FROM %s", n, SQLServer.QuoteIdent(name))
	},
	CountRows: func(name string) string {
		return fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", SQLServer.QuoteIdent(name))
	},
	DescribeTable: func(name string) Statement {
		return Statement{SQL: "EXEC sp_help " + quoteLiteral(name)}
	},
	CallProcedure: func(name string) string {
		return "EXEC " + SQLServer.QuoteIdent(name)
	},
	CallFunction: func(name string) string {
		return fmt.Sprintf("SELECT dbo.%s()", SQLServer.QuoteIdent(name))
	},
	CreateDatabase: func(name string) []Statement {
		return []Statement{{SQL: "CREATE DATABASE " + SQLServer.QuoteIdent(name)}}
	},
	DropDatabase: func(name string) []Statement {
		q := SQLServer.QuoteIdent(name)
		return []Statement{
			{SQL: "ALTER DATABASE " + q + " SET SINGLE_USER WITH ROLLBACK IMMEDIATE"},
			{SQL: "DROP DATABASE " + q},
		}
	},
}
