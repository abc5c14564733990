package dbconn

import (
	"fmt"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

// Driver names registered with database/sql.
const (
	DriverMySQL     = "mysql"
	DriverPostgres  = "pgx"
	DriverSQLServer = "sqlserver"
)

// DriverDSN translates r into the database/sql driver name and DSN.
func (r Resolved) DriverDSN() (driver, dsn string, err error) {
	p, err := split(r.ConnectionString)
	if err != nil {
		return "", "", err
	}
	switch r.Dialect {
	case dialect.MySQL:
		dsn, err := mysqlDSN(p)
		return DriverMySQL, dsn, err
	case dialect.Postgres:
		return DriverPostgres, postgresDSN(p), nil
	case dialect.SQLServer:
		return DriverSQLServer, mssqlDSN(p), nil
	}
	return "", "", fmt.Errorf("no driver for dialect %q", r.Dialect)
}
