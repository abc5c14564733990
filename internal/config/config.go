// Package config loads db-hub settings from defaults, dbhub.yaml,
// environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/luisdotcom/db-hub/internal/auth"
	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
)

// Keyring modes for saved profile passwords.
const (
	KeyringNone   = "none"
	KeyringOS     = "os"
	KeyringMemory = "memory"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// StoreConfig locates the local SQLite database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// ExecutorConfig bounds statement execution and the handle pool.
type ExecutorConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// MetadataConfig overrides the per-dialect system databases hidden from
// database listings.
type MetadataConfig struct {
	SystemDatabases map[string][]string `koanf:"system_databases"`
}

// ProfilesConfig configures saved connection profiles.
type ProfilesConfig struct {
	Keyring      string        `koanf:"keyring"`
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds all db-hub configuration.
type Config struct {
	Server   ServerConfig                       `koanf:"server"`
	Auth     auth.Config                        `koanf:"auth"`
	Store    StoreConfig                        `koanf:"store"`
	Executor ExecutorConfig                     `koanf:"executor"`
	Targets  map[string]dbconn.ConnectionConfig `koanf:"targets"`
	Metadata MetadataConfig                     `koanf:"metadata"`
	Profiles ProfilesConfig                     `koanf:"profiles"`
	Log      LogConfig                          `koanf:"log"`
}

// SystemDatabases converts the configured overrides to dialect keys.
func (c *Config) SystemDatabases() (map[dialect.Dialect][]string, error) {
	out := make(map[dialect.Dialect][]string, len(c.Metadata.SystemDatabases))
	for name, dbs := range c.Metadata.SystemDatabases {
		d, err := dialect.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("metadata.system_databases: %w", err)
		}
		out[d] = dbs
	}
	return out, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	for name, t := range c.Targets {
		if _, err := dialect.Parse(t.Dialect); err != nil {
			return fmt.Errorf("targets.%s: %w", name, err)
		}
		if name == dbconn.CustomTarget || strings.HasPrefix(name, dbconn.ProfilePrefix) {
			return fmt.Errorf("targets.%s: name is reserved", name)
		}
	}
	switch c.Profiles.Keyring {
	case KeyringNone, KeyringOS, KeyringMemory:
	default:
		return fmt.Errorf("profiles.keyring: unknown mode %q (want none, os or memory)", c.Profiles.Keyring)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if _, err := c.SystemDatabases(); err != nil {
		return err
	}
	return nil
}

// ValidateServer checks the settings only the API server needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Auth.Password == "" {
		return fmt.Errorf("auth.password is required (set DBHUB_AUTH__PASSWORD)")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set DBHUB_AUTH__SECRET)")
	}
	return nil
}
