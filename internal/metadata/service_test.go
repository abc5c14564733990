package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/query"
	"github.com/luisdotcom/db-hub/internal/testutil"
)

var (
	mysqlTarget = dbconn.Target{Name: "mysql"}
	pgTarget    = dbconn.Target{Name: "postgres"}
	mssqlTarget = dbconn.Target{Name: "sqlserver"}
)

func newTestService(t *testing.T, systemDBs map[dialect.Dialect][]string) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pool := query.NewPool(query.PoolSettings{}, func(string, string) (*sql.DB, error) { return db, nil })
	exec := query.NewSQLExecutor(pool, 5*time.Second, testutil.NewTestLogger(t))
	resolver := dbconn.NewResolver(map[string]dbconn.ConnectionConfig{
		"mysql":     {Dialect: "mysql", Host: "h", Port: 9306, Username: "u", Password: "p", Database: "master"},
		"postgres":  {Dialect: "postgres", Host: "h", Port: 9432, Username: "u", Password: "p", Database: "master"},
		"sqlserver": {Dialect: "sqlserver", Host: "h", Port: 9433, Username: "sa", Password: "p", Database: "master"},
	}, nil)
	return NewService(resolver, exec, systemDBs, testutil.NewTestLogger(t)), mock
}

func sqlOf(d dialect.Dialect, op dialect.Operation, args dialect.Args) string {
	return dialect.Template(d, op, args).SQL
}

func TestListDatabases_ExcludesSystemCatalogs(t *testing.T) {
	cases := []struct {
		name   string
		target dbconn.Target
		d      dialect.Dialect
		col    string
		rows   []string
		want   []string
	}{
		{
			name: "mysql", target: mysqlTarget, d: dialect.MySQL, col: "Database",
			rows: []string{"information_schema", "mysql", "performance_schema", "shop", "sys"},
			want: []string{"shop"},
		},
		{
			name: "postgres", target: pgTarget, d: dialect.Postgres, col: "name",
			rows: []string{"analytics", "postgres"},
			want: []string{"analytics"},
		},
		{
			name: "sqlserver keeps everything", target: mssqlTarget, d: dialect.SQLServer, col: "name",
			rows: []string{"master", "model", "shop"},
			want: []string{"master", "model", "shop"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, mock := newTestService(t, nil)
			rows := sqlmock.NewRows([]string{c.col})
			for _, r := range c.rows {
				rows.AddRow(r)
			}
			mock.ExpectQuery(sqlOf(c.d, dialect.OpListDatabases, dialect.Args{})).WillReturnRows(rows)

			got, err := svc.ListDatabases(context.Background(), c.target)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListDatabases_ConfiguredExclusions(t *testing.T) {
	svc, mock := newTestService(t, map[dialect.Dialect][]string{
		dialect.SQLServer: {"master", "model", "msdb", "tempdb"},
	})
	mock.ExpectQuery(sqlOf(dialect.SQLServer, dialect.OpListDatabases, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("master").AddRow("shop").AddRow("tempdb"))

	got, err := svc.ListDatabases(context.Background(), mssqlTarget)
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, got)
}

func TestListTables_FetchError(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(sqlOf(dialect.Postgres, dialect.OpListTables, dialect.Args{})).
		WillReturnError(errors.New(`permission denied for schema public`))

	_, err := svc.ListTables(context.Background(), pgTarget, "shop")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, dialect.OpListTables, fe.Operation)
	assert.Equal(t, dialect.Postgres, fe.Dialect)
	assert.Equal(t, "permission denied for schema public", fe.Message)
}

func TestListTables_MalformedTargetNeverQueries(t *testing.T) {
	svc, mock := newTestService(t, nil)
	_, err := svc.ListTables(context.Background(), dbconn.Target{Name: "custom", ConnectionString: "nope://x"}, "")
	var mErr *dbconn.MalformedConnectionStringError
	require.ErrorAs(t, err, &mErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoutinesAndTriggers(t *testing.T) {
	svc, mock := newTestService(t, nil)
	ctx := context.Background()

	mock.ExpectQuery(sqlOf(dialect.MySQL, dialect.OpListProcedures, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name", "type"}).AddRow("refresh_stats", "PROCEDURE"))
	mock.ExpectQuery(sqlOf(dialect.MySQL, dialect.OpListTriggers, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name", "table_name", "event"}).AddRow("trg_audit", "orders", "INSERT"))

	procs, err := svc.ListProcedures(ctx, mysqlTarget, "shop")
	require.NoError(t, err)
	assert.Equal(t, []Routine{{Name: "refresh_stats", Type: "PROCEDURE"}}, procs)

	trgs, err := svc.ListTriggers(ctx, mysqlTarget, "shop")
	require.NoError(t, err)
	assert.Equal(t, []Trigger{{Name: "trg_audit", Table: "orders", Event: "INSERT"}}, trgs)
}

func TestListIndexes_GroupsColumns(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(sqlOf(dialect.MySQL, dialect.OpListIndexes, dialect.Args{Name: "orders"})).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"index_name", "column_name", "is_unique", "is_primary", "seq"}).
			AddRow("PRIMARY", "id", int64(1), int64(1), int64(1)).
			AddRow("idx_customer_date", "customer_id", int64(0), int64(0), int64(1)).
			AddRow("idx_customer_date", "created_at", int64(0), int64(0), int64(2)))

	got, err := svc.ListIndexes(context.Background(), mysqlTarget, "shop", "orders")
	require.NoError(t, err)
	assert.Equal(t, []Index{
		{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true},
		{Name: "idx_customer_date", Columns: []string{"customer_id", "created_at"}},
	}, got)
}

func TestListForeignKeys_GroupsColumns(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(sqlOf(dialect.Postgres, dialect.OpListForeignKeys, dialect.Args{Name: "order_lines"})).
		WithArgs("order_lines").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "referenced_table", "referenced_column"}).
			AddRow("fk_order", "order_id", "orders", "id").
			AddRow("fk_product", "sku", "products", "sku").
			AddRow("fk_product", "vendor", "products", "vendor"))

	got, err := svc.ListForeignKeys(context.Background(), pgTarget, "shop", "order_lines")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"sku", "vendor"}, got[1].Columns)
	assert.Equal(t, []string{"sku", "vendor"}, got[1].ReferencedColumns)
	assert.Equal(t, "products", got[1].ReferencedTable)
}

func TestGetTableSchema(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(sqlOf(dialect.SQLServer, dialect.OpTableSchema, dialect.Args{Name: "orders"})).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "int", "NO", nil, int64(1)).
			AddRow("total", "decimal(10,2)", "YES", "((0))", int64(2)))

	cols, err := svc.GetTableSchema(context.Background(), mssqlTarget, "shop", "orders")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.False(t, cols[0].Nullable)
	assert.Nil(t, cols[0].Default)
	assert.Equal(t, dialect.FamilyInteger, cols[0].Type.Family)
	assert.True(t, cols[1].Nullable)
	require.NotNil(t, cols[1].Default)
	assert.Equal(t, "((0))", *cols[1].Default)
	assert.Equal(t, dialect.FamilyNumeric, cols[1].Type.Family)
	assert.Equal(t, 2, cols[1].Position)
}

func TestRefresh_PartialSuccess(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.MatchExpectationsInOrder(false)
	d := dialect.MySQL

	mock.ExpectQuery(sqlOf(d, dialect.OpListTables, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders").AddRow("customers"))
	mock.ExpectQuery(sqlOf(d, dialect.OpListViews, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("v_orders"))
	mock.ExpectQuery(sqlOf(d, dialect.OpListProcedures, dialect.Args{})).
		WillReturnError(errors.New("SELECT command denied"))
	mock.ExpectQuery(sqlOf(d, dialect.OpListFunctions, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name", "type"}))
	mock.ExpectQuery(sqlOf(d, dialect.OpListTriggers, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"name", "table_name", "event"}))

	cat, err := svc.Refresh(context.Background(), mysqlTarget, "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, cat.Tables)
	assert.Equal(t, []string{"v_orders"}, cat.Views)
	assert.Empty(t, cat.Procedures)
	assert.NotNil(t, cat.Procedures)
	assert.Empty(t, cat.Functions)
	require.Contains(t, cat.Errors, "procedures")
	assert.Contains(t, cat.Errors["procedures"], "SELECT command denied")
	assert.Len(t, cat.Errors, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableDetail_MarksPrimaryKeys(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.MatchExpectationsInOrder(false)
	d := dialect.Postgres
	args := dialect.Args{Name: "orders"}

	mock.ExpectQuery(sqlOf(d, dialect.OpTableSchema, args)).WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "integer", "NO", "nextval('orders_id_seq'::regclass)", int64(1)).
			AddRow("status", "character varying(20)", "YES", nil, int64(2)))
	mock.ExpectQuery(sqlOf(d, dialect.OpListForeignKeys, args)).WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "referenced_table", "referenced_column"}))
	mock.ExpectQuery(sqlOf(d, dialect.OpListIndexes, args)).WithArgs("orders").
		WillReturnError(errors.New("relation does not exist"))
	mock.ExpectQuery(sqlOf(d, dialect.OpListPrimaryKeys, args)).WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))

	detail, err := svc.TableDetail(context.Background(), pgTarget, "shop", "orders")
	require.NoError(t, err)
	require.Len(t, detail.Columns, 2)
	assert.True(t, detail.Columns[0].PrimaryKey)
	assert.False(t, detail.Columns[1].PrimaryKey)
	assert.Equal(t, []string{"id"}, detail.PrimaryKeys)
	assert.Empty(t, detail.Indexes)
	assert.Contains(t, detail.Errors, "indexes")
}

func TestServerVersionAndTestConnection(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	mock.ExpectQuery(sqlOf(dialect.Postgres, dialect.OpServerVersion, dialect.Args{})).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2 on x86_64"))

	st, err := svc.TestConnection(context.Background(), pgTarget, "")
	require.NoError(t, err)
	assert.True(t, st.Success)
	assert.Equal(t, "PostgreSQL 16.2 on x86_64", st.Version)
	assert.Equal(t, "postgres", st.Dialect)

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))
	st, err = svc.TestConnection(context.Background(), pgTarget, "")
	require.NoError(t, err)
	assert.False(t, st.Success)
	assert.Equal(t, "connection refused", st.Message)
}

func TestDefinition_PicksCreateColumn(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery("SHOW CREATE TABLE `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("orders", "CREATE TABLE `orders` (...)"))

	def, err := svc.Definition(context.Background(), mysqlTarget, "shop", dialect.ObjectTable, "orders")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `orders` (...)", def)
}
