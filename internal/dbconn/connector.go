// Package dbconn resolves connection targets into dialect-tagged connection
// strings and translates them into Go driver DSNs.
package dbconn

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

const (
	// CustomTarget marks a target whose connection string is supplied by the
	// caller.
	CustomTarget = "custom"
	// ProfilePrefix prefixes saved connection profile targets ("profile:12").
	ProfilePrefix = "profile:"
)

// ConnectionConfig holds the parameters of a pre-provisioned server.
type ConnectionConfig struct {
	Dialect  string            `json:"dialect" koanf:"dialect"`
	Driver   string            `json:"driver,omitempty" koanf:"driver"` // scheme suffix, e.g. pymysql
	Host     string            `json:"host" koanf:"host"`
	Port     int               `json:"port" koanf:"port"`
	Database string            `json:"database" koanf:"database"`
	Username string            `json:"username" koanf:"username"`
	Password string            `json:"password" koanf:"password"`
	Options  map[string]string `json:"options,omitempty" koanf:"options"`
}

// ConnectionString renders cfg as "<scheme>[+<driver>]://user:pw@host:port/db?options".
func (c ConnectionConfig) ConnectionString() (string, error) {
	d, err := dialect.Parse(c.Dialect)
	if err != nil {
		return "", err
	}
	scheme := map[dialect.Dialect]string{
		dialect.MySQL:     "mysql",
		dialect.Postgres:  "postgresql",
		dialect.SQLServer: "mssql",
	}[d]
	if c.Driver != "" {
		scheme += "+" + c.Driver
	}
	host := c.Host
	if c.Port != 0 {
		host += ":" + strconv.Itoa(c.Port)
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.Username, c.Password),
		Host:   host,
		Path:   "/" + c.Database,
	}
	if len(c.Options) > 0 {
		q := url.Values{}
		for k, v := range c.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Target names what to connect to: a symbolic server name, a saved profile
// ("profile:<id>") or CustomTarget with a raw connection string.
type Target struct {
	Name             string `json:"target"`
	ConnectionString string `json:"connection_string,omitempty"`
}

func (t Target) String() string {
	if t.Name == "" || t.Name == CustomTarget {
		return CustomTarget
	}
	return t.Name
}

// Resolved is a connection ready to hand to a driver. It is computed per call
// and never cached.
type Resolved struct {
	Target           string
	Dialect          dialect.Dialect
	ConnectionString string
	Database         string
}

// Label identifies the connection in history and logs.
func (r Resolved) Label() string {
	if r.Database == "" {
		return r.Target
	}
	return r.Target + "/" + r.Database
}

// ProfileSource looks up saved connection profiles.
type ProfileSource interface {
	ConnectionString(ctx context.Context, id int64) (string, error)
}

// Resolver maps targets to connection strings.
type Resolver struct {
	targets  map[string]ConnectionConfig
	profiles ProfileSource
}

// NewResolver builds a resolver over the configured symbolic targets. profiles
// may be nil when saved profiles are unavailable.
func NewResolver(targets map[string]ConnectionConfig, profiles ProfileSource) *Resolver {
	m := make(map[string]ConnectionConfig, len(targets))
	for k, v := range targets {
		m[strings.ToLower(k)] = v
	}
	return &Resolver{targets: m, profiles: profiles}
}

// SetProfiles attaches the saved profile source after construction.
func (r *Resolver) SetProfiles(p ProfileSource) { r.profiles = p }

// Targets returns the configured symbolic target names, sorted.
func (r *Resolver) Targets() []string {
	names := make([]string, 0, len(r.targets))
	for k := range r.targets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the raw connection string behind t.
func (r *Resolver) Lookup(ctx context.Context, t Target) (string, error) {
	name := strings.ToLower(strings.TrimSpace(t.Name))
	switch {
	case name == "" || name == CustomTarget:
		if t.ConnectionString == "" {
			return "", malformed("", "custom target requires a connection string")
		}
		return t.ConnectionString, nil
	case strings.HasPrefix(name, ProfilePrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(name, ProfilePrefix), 10, 64)
		if err != nil {
			return "", &UnknownTargetError{Name: t.Name}
		}
		if r.profiles == nil {
			return "", &UnknownTargetError{Name: t.Name}
		}
		raw, err := r.profiles.ConnectionString(ctx, id)
		if err != nil {
			return "", fmt.Errorf("loading profile %d: %w", id, err)
		}
		return raw, nil
	}
	cfg, ok := r.targets[name]
	if !ok {
		return "", &UnknownTargetError{Name: t.Name}
	}
	return cfg.ConnectionString()
}

// Classify determines the dialect of t without touching the database.
func (r *Resolver) Classify(ctx context.Context, t Target) (dialect.Dialect, error) {
	raw, err := r.Lookup(ctx, t)
	if err != nil {
		return "", err
	}
	return ClassifyURL(raw)
}

// Resolve classifies t and retargets it to database. An empty database keeps
// the one named in the connection string.
func (r *Resolver) Resolve(ctx context.Context, t Target, database string) (Resolved, error) {
	raw, err := r.Lookup(ctx, t)
	if err != nil {
		return Resolved{}, err
	}
	d, err := ClassifyURL(raw)
	if err != nil {
		return Resolved{}, err
	}
	retargeted, err := Retarget(raw, database)
	if err != nil {
		return Resolved{}, err
	}
	db, err := DatabaseOf(retargeted)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		Target:           t.String(),
		Dialect:          d,
		ConnectionString: retargeted,
		Database:         db,
	}, nil
}
