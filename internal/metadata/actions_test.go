package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

func TestQuickAction(t *testing.T) {
	cases := []struct {
		name   string
		d      dialect.Dialect
		ref    ObjectRef
		action Action
		want   string
	}{
		{"mysql top", dialect.MySQL, ObjectRef{Type: dialect.ObjectTable, Name: "orders"}, ActionSelectTop, "SELECT * FROM `orders` LIMIT 100"},
		{"mssql top", dialect.SQLServer, ObjectRef{Type: dialect.ObjectView, Name: "v"}, ActionSelectTop, "SELECT TOP 100 * FROM [v]"},
		{"pg count", dialect.Postgres, ObjectRef{Type: dialect.ObjectTable, Name: "orders"}, ActionCount, `SELECT COUNT(*) AS count FROM "orders"`},
		{"mysql describe", dialect.MySQL, ObjectRef{Type: dialect.ObjectTable, Name: "orders"}, ActionDescribe, "DESCRIBE `orders`"},
		{"mssql describe", dialect.SQLServer, ObjectRef{Type: dialect.ObjectTable, Name: "o'rders"}, ActionDescribe, "EXEC sp_help 'o''rders'"},
		{"pg call proc", dialect.Postgres, ObjectRef{Type: dialect.ObjectProcedure, Name: "refresh"}, ActionCall, `CALL "refresh"()`},
		{"mssql call func", dialect.SQLServer, ObjectRef{Type: dialect.ObjectFunction, Name: "fn"}, ActionCall, "SELECT dbo.[fn]()"},
		{"mysql show trigger", dialect.MySQL, ObjectRef{Type: dialect.ObjectTrigger, Name: "trg", Table: "orders"}, ActionShowCreate, "SHOW CREATE TRIGGER `trg`"},
		{
			"pg show trigger inlined", dialect.Postgres, ObjectRef{Type: dialect.ObjectTrigger, Name: "trg"}, ActionShowCreate,
			"SELECT pg_get_triggerdef(oid, true) AS definition FROM pg_trigger WHERE tgname = 'trg' AND NOT tgisinternal",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := QuickAction(c.d, c.ref, c.action, 0)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestQuickAction_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		d      dialect.Dialect
		ref    ObjectRef
		action Action
	}{
		{"call on table", dialect.MySQL, ObjectRef{Type: dialect.ObjectTable, Name: "t"}, ActionCall},
		{"count on procedure", dialect.MySQL, ObjectRef{Type: dialect.ObjectProcedure, Name: "p"}, ActionCount},
		{"empty name", dialect.MySQL, ObjectRef{Type: dialect.ObjectTable}, ActionSelectTop},
		{"unknown type", dialect.MySQL, ObjectRef{Type: "sequence", Name: "s"}, ActionShowCreate},
		{"unknown dialect", dialect.Dialect("oracle"), ObjectRef{Type: dialect.ObjectTable, Name: "t"}, ActionSelectTop},
		{"unknown action", dialect.MySQL, ObjectRef{Type: dialect.ObjectTable, Name: "t"}, Action("truncate")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := QuickAction(c.d, c.ref, c.action, 10)
			var inv *InvalidRequestError
			assert.ErrorAs(t, err, &inv)
		})
	}
}

func TestCreateDatabase(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectExec("CREATE DATABASE `shop`").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.CreateDatabase(context.Background(), mysqlTarget, "shop"))
	require.NoError(t, mock.ExpectationsWereMet())

	var inv *InvalidRequestError
	assert.ErrorAs(t, svc.CreateDatabase(context.Background(), mysqlTarget, " "), &inv)
}

func TestDropDatabase_PostgresTerminatesBackends(t *testing.T) {
	svc, mock := newTestService(t, nil)
	stmts := dialect.For(dialect.Postgres).DropDatabase("shop")
	mock.ExpectQuery(stmts[0].SQL).WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"pg_terminate_backend"}).AddRow(true))
	mock.ExpectExec(`DROP DATABASE "shop"`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.DropDatabase(context.Background(), pgTarget, "shop"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDropDatabase_SQLServerSingleUser(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectExec("ALTER DATABASE [shop] SET SINGLE_USER WITH ROLLBACK IMMEDIATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP DATABASE [shop]").WillReturnError(errors.New("database in use"))

	err := svc.DropDatabase(context.Background(), mssqlTarget, "shop")
	require.Error(t, err)
	assert.Equal(t, "database in use", err.Error())
}

func TestDropDatabase_Refusals(t *testing.T) {
	svc, mock := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DropDatabase(ctx, mysqlTarget, "mysql"), ErrSystemDatabase)
	var inv *InvalidRequestError
	assert.ErrorAs(t, svc.DropDatabase(ctx, mssqlTarget, "master"), &inv)
	require.NoError(t, mock.ExpectationsWereMet())
}
