package dbconn

import (
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlDSN builds a go-sql-driver DSN: user:password@tcp(host:port)/db?parseTime=true.
func mysqlDSN(p parts) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = p.u.User.Username()
	cfg.Passwd, _ = p.u.User.Password()
	cfg.Net = "tcp"
	port := p.u.Port()
	if port == "" {
		port = "3306"
	}
	cfg.Addr = net.JoinHostPort(p.u.Hostname(), port)
	cfg.DBName = p.database()
	cfg.ParseTime = true
	cfg.MultiStatements = true
	// rows_affected counts matched rows, not only changed ones.
	cfg.ClientFoundRows = true
	cfg.TLSConfig = "preferred"

	q := p.u.Query()
	if v := q.Get("charset"); v != "" {
		cfg.Params = map[string]string{"charset": v}
	}
	switch v := q.Get("ssl_mode"); v {
	case "disable", "DISABLED":
		cfg.TLSConfig = "false"
	case "require", "REQUIRED":
		cfg.TLSConfig = "true"
	}
	if v := q.Get("tls"); v != "" {
		cfg.TLSConfig = v
	}
	if v := q.Get("connect_timeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return "", malformed(p.String(), "connect_timeout must be an integer")
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}
	return cfg.FormatDSN(), nil
}
