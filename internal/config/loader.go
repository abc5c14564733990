package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every db-hub environment variable. Nested keys are
// separated by a double underscore: DBHUB_SERVER__PORT sets server.port.
const EnvPrefix = "DBHUB_"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "dbhub.yaml"

func defaults() map[string]any {
	return map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 9000,
		"server.cors_origins": []string{
			"http://localhost:5173", "http://localhost:9090",
			"http://127.0.0.1:5173", "http://127.0.0.1:9090",
			"http://localhost:3000",
		},
		"server.read_timeout":     "30s",
		"server.write_timeout":    "5m",
		"server.shutdown_timeout": "10s",

		"auth.username":      "developer",
		"auth.ttl":           "24h",
		"auth.secure_cookie": false,

		"store.path": "data/dbhub.sqlite",

		"executor.timeout":           "5m",
		"executor.max_open_conns":    10,
		"executor.max_idle_conns":    2,
		"executor.conn_max_lifetime": "30m",

		"targets.mysql.dialect":      "mysql",
		"targets.mysql.host":         "localhost",
		"targets.mysql.port":         9306,
		"targets.mysql.username":     "luisdotcom",
		"targets.mysql.database":     "master",
		"targets.postgres.dialect":   "postgres",
		"targets.postgres.host":      "localhost",
		"targets.postgres.port":      9432,
		"targets.postgres.username":  "luisdotcom",
		"targets.postgres.database":  "master",
		"targets.sqlserver.dialect":  "sqlserver",
		"targets.sqlserver.host":     "localhost",
		"targets.sqlserver.port":     9433,
		"targets.sqlserver.username": "sa",
		"targets.sqlserver.database": "master",

		"profiles.keyring":       KeyringNone,
		"profiles.probe_timeout": "5s",

		"log.level":  "info",
		"log.format": "text",
	}
}

// legacyEnv maps the flat variable names of a .env-style deployment onto
// config keys. DBHUB_ variables take precedence over these.
var legacyEnv = map[string]string{
	"MYSQL_HOST":         "targets.mysql.host",
	"MYSQL_PORT":         "targets.mysql.port",
	"MYSQL_USER":         "targets.mysql.username",
	"MYSQL_PASSWORD":     "targets.mysql.password",
	"MYSQL_DATABASE":     "targets.mysql.database",
	"POSTGRES_HOST":      "targets.postgres.host",
	"POSTGRES_PORT":      "targets.postgres.port",
	"POSTGRES_USER":      "targets.postgres.username",
	"POSTGRES_PASSWORD":  "targets.postgres.password",
	"POSTGRES_DATABASE":  "targets.postgres.database",
	"SQLSERVER_HOST":     "targets.sqlserver.host",
	"SQLSERVER_PORT":     "targets.sqlserver.port",
	"SQLSERVER_USER":     "targets.sqlserver.username",
	"SQLSERVER_PASSWORD": "targets.sqlserver.password",
	"SQLSERVER_DATABASE": "targets.sqlserver.database",
	"API_HOST":           "server.host",
	"API_PORT":           "server.port",
	"CORS_ORIGINS":       "server.cors_origins",
	"AUTH_USERNAME":      "auth.username",
	"AUTH_PASSWORD":      "auth.password",
	"SESSION_SECRET":     "auth.secret",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"store":      "store.path",
	"log-level":  "log.level",
	"log-format": "log.format",
	"timeout":    "executor.timeout",
	"keyring":    "profiles.keyring",
}

// Loader reads configuration. The zero value is ready to use.
type Loader struct {
	used string
}

// FileUsed returns the config file read by the last Load, if any.
func (l *Loader) FileUsed() string { return l.used }

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultFile, "dbhub.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration. Precedence, highest first: flags, DBHUB_
// environment variables, legacy environment variables, the config file,
// defaults.
func (l *Loader) Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	l.used = findConfigFile(cfgFile)
	if l.used != "" {
		if err := k.Load(file.Provider(l.used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", l.used, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// DBHUB_SERVER__CORS_ORIGINS -> server.cors_origins
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Server.CORSOrigins = splitOrigins(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
