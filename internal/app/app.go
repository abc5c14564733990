// Package app assembles the db-hub services from configuration.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luisdotcom/db-hub/internal/config"
	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/history"
	"github.com/luisdotcom/db-hub/internal/metadata"
	"github.com/luisdotcom/db-hub/internal/mutation"
	"github.com/luisdotcom/db-hub/internal/profile"
	"github.com/luisdotcom/db-hub/internal/query"
	"github.com/luisdotcom/db-hub/internal/store"
)

// App owns every long-lived resource of a db-hub process.
type App struct {
	version string
	logger  *slog.Logger

	db   *sql.DB
	pool *query.Pool

	Resolver *dbconn.Resolver
	Query    *query.Service
	Metadata *metadata.Service
	Mutation *mutation.Service
	History  *history.Ledger
	Profiles *profile.Service
}

// Option customises New.
type Option func(*options)

type options struct {
	opener  query.Opener
	secrets dbconn.SecretStore
}

// WithOpener replaces sql.Open for target databases.
func WithOpener(o query.Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// WithSecretStore overrides the store chosen by profiles.keyring.
func WithSecretStore(s dbconn.SecretStore) Option {
	return func(opts *options) { opts.secrets = s }
}

// New opens the local store and wires the services. Call Close when done.
func New(cfg *config.Config, version string, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.secrets == nil {
		o.secrets = secretStore(cfg.Profiles.Keyring)
	}
	systemDBs, err := cfg.SystemDatabases()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}

	pool := query.NewPool(query.PoolSettings{
		MaxOpenConns:    cfg.Executor.MaxOpenConns,
		MaxIdleConns:    cfg.Executor.MaxIdleConns,
		ConnMaxLifetime: cfg.Executor.ConnMaxLifetime,
	}, o.opener)
	exec := query.NewSQLExecutor(pool, cfg.Executor.Timeout, logger.With("component", "executor"))
	resolver := dbconn.NewResolver(cfg.Targets, nil)

	ledger := history.NewLedger(store.NewHistoryRepo(db), logger.With("component", "history"))
	meta := metadata.NewService(resolver, exec, systemDBs, logger.With("component", "metadata"))
	profiles := profile.NewService(store.NewConnectionRepo(db), meta, profile.Options{
		Secrets:      o.secrets,
		ProbeTimeout: cfg.Profiles.ProbeTimeout,
	}, logger.With("component", "profiles"))
	resolver.SetProfiles(profiles)

	a := &App{
		version:  version,
		logger:   logger,
		db:       db,
		pool:     pool,
		Resolver: resolver,
		Query:    query.NewService(resolver, exec, ledger, logger.With("component", "query")),
		Metadata: meta,
		Mutation: mutation.NewService(resolver, meta, exec, logger.With("component", "mutation")),
		History:  ledger,
		Profiles: profiles,
	}
	logger.Debug("app ready", "store", cfg.Store.Path, "targets", resolver.Targets(), "keyring", cfg.Profiles.Keyring)
	return a, nil
}

// Version returns the application version.
func (a *App) Version() string {
	return a.version
}

// OpenHandles reports how many target database handles are cached.
func (a *App) OpenHandles() int {
	return a.pool.Len()
}

// Close releases target handles and the local store.
func (a *App) Close() error {
	return errors.Join(a.pool.Close(), a.db.Close())
}

func secretStore(mode string) dbconn.SecretStore {
	switch mode {
	case config.KeyringOS:
		return dbconn.KeyringStore{}
	case config.KeyringMemory:
		return dbconn.NewMemoryStore()
	}
	return nil
}
