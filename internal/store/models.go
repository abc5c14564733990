package store

import "time"

// HistoryRecord is a row of query_history.
type HistoryRecord struct {
	ID              int64
	Owner           string
	QueryText       string
	DatabaseName    string
	Status          string
	ExecutionTimeMs float64
	RowsAffected    int64
	Timestamp       time.Time
}

// ConnectionRecord is a row of saved_connections.
type ConnectionRecord struct {
	ID               int64
	Name             string
	Dialect          string
	ConnectionString string
	Version          string
	SecretInKeyring  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
