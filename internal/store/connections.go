package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateName is returned when a connection name is already taken.
var ErrDuplicateName = errors.New("connection name already exists")

// ConnectionRepo reads and writes saved_connections.
type ConnectionRepo struct {
	db *sql.DB
}

func NewConnectionRepo(db *sql.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

const connectionColumns = `id, name, dialect, connection_string, version, secret_in_keyring, created_at, updated_at`

func scanConnection(s interface{ Scan(...any) error }) (ConnectionRecord, error) {
	var c ConnectionRecord
	var secret int
	var created, updated string
	if err := s.Scan(&c.ID, &c.Name, &c.Dialect, &c.ConnectionString, &c.Version, &secret, &created, &updated); err != nil {
		return ConnectionRecord{}, err
	}
	c.SecretInKeyring = secret != 0
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

// List returns all saved connections ordered by name.
func (r *ConnectionRepo) List(ctx context.Context) ([]ConnectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+connectionColumns+" FROM saved_connections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []ConnectionRecord{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// Get returns one saved connection.
func (r *ConnectionRepo) Get(ctx context.Context, id int64) (ConnectionRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+connectionColumns+" FROM saved_connections WHERE id = ?", id)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ConnectionRecord{}, ErrNotFound
	}
	return c, err
}

// Create inserts c and returns it with id and timestamps set.
func (r *ConnectionRepo) Create(ctx context.Context, c ConnectionRecord) (ConnectionRecord, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_connections (name, dialect, connection_string, version, secret_in_keyring, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Dialect, c.ConnectionString, versionOrUnknown(c.Version), boolToInt(c.SecretInKeyring),
		formatTime(now), formatTime(now),
	)
	if isUniqueViolation(err) {
		return ConnectionRecord{}, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
	}
	if err != nil {
		return ConnectionRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ConnectionRecord{}, err
	}
	return r.Get(ctx, id)
}

// Update overwrites the mutable fields of connection c.ID.
func (r *ConnectionRepo) Update(ctx context.Context, c ConnectionRecord) (ConnectionRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE saved_connections
		 SET name = ?, dialect = ?, connection_string = ?, version = ?, secret_in_keyring = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Dialect, c.ConnectionString, versionOrUnknown(c.Version), boolToInt(c.SecretInKeyring),
		formatTime(time.Now()), c.ID,
	)
	if isUniqueViolation(err) {
		return ConnectionRecord{}, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
	}
	if err != nil {
		return ConnectionRecord{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ConnectionRecord{}, ErrNotFound
	}
	return r.Get(ctx, c.ID)
}

// Delete removes a saved connection.
func (r *ConnectionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM saved_connections WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func versionOrUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
