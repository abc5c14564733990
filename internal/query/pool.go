package query

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luisdotcom/db-hub/internal/dbconn"
)

// Opener opens a database handle. sql.Open in production; tests swap in
// sqlmock.
type Opener func(driver, dsn string) (*sql.DB, error)

// PoolSettings tunes every handle the pool opens.
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool caches one *sql.DB per driver DSN. database/sql does the actual
// connection pooling; this only avoids reopening handles per request.
type Pool struct {
	mu       sync.RWMutex
	dbs      map[string]*sql.DB
	open     Opener
	settings PoolSettings
}

// NewPool creates an empty pool. A nil opener means sql.Open.
func NewPool(settings PoolSettings, open Opener) *Pool {
	if open == nil {
		open = sql.Open
	}
	return &Pool{
		dbs:      make(map[string]*sql.DB),
		open:     open,
		settings: settings,
	}
}

// DB returns the cached handle for r, opening it on first use.
func (p *Pool) DB(r dbconn.Resolved) (*sql.DB, error) {
	driver, dsn, err := r.DriverDSN()
	if err != nil {
		return nil, err
	}
	key := driver + "\x00" + dsn

	p.mu.RLock()
	db, ok := p.dbs[key]
	p.mu.RUnlock()
	if ok {
		return db, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok := p.dbs[key]; ok {
		return db, nil
	}
	db, err = p.open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if p.settings.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.settings.MaxOpenConns)
	}
	if p.settings.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.settings.MaxIdleConns)
	}
	if p.settings.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.settings.ConnMaxLifetime)
	}
	p.dbs[key] = db
	return db, nil
}

// Len reports how many handles are open.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.dbs)
}

// Close closes every cached handle.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for k, db := range p.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.dbs, k)
	}
	return errors.Join(errs...)
}
