package dbconn

import (
	"net/url"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

// parts is a connection string split into its byte-exact sections:
// scheme "://" authority path suffix, where suffix is "?query" and/or
// "#fragment". Rejoining the sections yields the input unchanged.
type parts struct {
	scheme    string
	authority string
	path      string
	suffix    string
	u         *url.URL
}

func split(raw string) (parts, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return parts{}, malformed(raw, err.Error())
	}
	if u.Scheme == "" || u.Host == "" || u.Opaque != "" {
		return parts{}, malformed(raw, "expected <scheme>://<user>:<password>@<host>[:<port>]/<database>")
	}
	i := strings.Index(raw, "://")
	if i < 0 {
		return parts{}, malformed(raw, "missing ://")
	}
	p := parts{scheme: raw[:i], u: u}
	rest := raw[i+3:]
	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}
	p.authority = rest[:end]
	// the located authority must agree with what the URL parser saw
	if !strings.HasSuffix(p.authority, u.Host) {
		return parts{}, malformed(raw, "cannot locate host")
	}
	tail := rest[end:]
	if strings.HasPrefix(tail, "/") {
		if j := strings.IndexAny(tail, "?#"); j >= 0 {
			p.path, p.suffix = tail[:j], tail[j:]
		} else {
			p.path = tail
		}
	} else {
		p.suffix = tail
	}
	return p, nil
}

func (p parts) String() string {
	return p.scheme + "://" + p.authority + p.path + p.suffix
}

// database returns the unescaped database name carried in the path.
func (p parts) database() string {
	return strings.TrimPrefix(p.u.Path, "/")
}

// ClassifyURL maps a raw connection string to its dialect by scheme prefix.
// The "+driver" part of the scheme is ignored. Unknown schemes are rejected.
func ClassifyURL(raw string) (dialect.Dialect, error) {
	p, err := split(raw)
	if err != nil {
		return "", err
	}
	base, _, _ := strings.Cut(strings.ToLower(p.scheme), "+")
	switch {
	case strings.HasPrefix(base, "mysql"):
		return dialect.MySQL, nil
	case strings.HasPrefix(base, "postgres"):
		return dialect.Postgres, nil
	case strings.HasPrefix(base, "mssql"), strings.HasPrefix(base, "sqlserver"):
		return dialect.SQLServer, nil
	}
	return "", malformed(raw, "unrecognized scheme "+p.scheme)
}

// Retarget replaces the database path segment of raw with database. Scheme,
// userinfo, host, port, query string and fragment are preserved
// byte-for-byte. An empty database leaves raw untouched.
func Retarget(raw, database string) (string, error) {
	p, err := split(raw)
	if err != nil {
		return "", err
	}
	if database == "" {
		return raw, nil
	}
	p.path = "/" + url.PathEscape(database)
	return p.String(), nil
}

// DatabaseOf returns the database named in the path of raw.
func DatabaseOf(raw string) (string, error) {
	p, err := split(raw)
	if err != nil {
		return "", err
	}
	return p.database(), nil
}

// SplitPassword removes the password from raw, returning the password-less
// connection string and the decoded password. Strings without a password are
// returned unchanged with an empty password.
func SplitPassword(raw string) (string, string, error) {
	p, err := split(raw)
	if err != nil {
		return "", "", err
	}
	pw, ok := p.u.User.Password()
	if !ok {
		return raw, "", nil
	}
	at := strings.LastIndex(p.authority, "@")
	userinfo, host := p.authority[:at], p.authority[at:]
	user, _, _ := strings.Cut(userinfo, ":")
	p.authority = user + host
	return p.String(), pw, nil
}

// WithPassword injects password into raw, replacing any existing one.
func WithPassword(raw, password string) (string, error) {
	p, err := split(raw)
	if err != nil {
		return "", err
	}
	if password == "" {
		return raw, nil
	}
	at := strings.LastIndex(p.authority, "@")
	if at < 0 {
		return "", malformed(raw, "no user to attach a password to")
	}
	user, _, _ := strings.Cut(p.authority[:at], ":")
	// url.UserPassword takes care of escaping; strip its "x:" prefix.
	escaped := strings.TrimPrefix(url.UserPassword("x", password).String(), "x:")
	p.authority = user + ":" + escaped + p.authority[at:]
	return p.String(), nil
}

// Redact hides the password of raw for logging. Unparseable strings are
// replaced wholesale.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable connection string>"
	}
	return u.Redacted()
}
