package dbconn

import (
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// pgPassthrough lists the options pgx understands that are carried over from
// the connection string.
var pgPassthrough = []string{"sslmode", "connect_timeout", "application_name", "search_path", "sslrootcert"}

func postgresDSN(p parts) string {
	host := p.u.Hostname()
	port := p.u.Port()
	if port == "" {
		port = "5432"
	}
	q := p.u.Query()
	out := url.Values{}
	for _, k := range pgPassthrough {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	if out.Get("sslmode") == "" {
		out.Set("sslmode", "prefer")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     p.u.User,
		Host:     host + ":" + port,
		Path:     "/" + p.database(),
		RawQuery: out.Encode(),
	}
	return u.String()
}
