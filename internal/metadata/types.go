package metadata

import (
	"fmt"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

// Routine is a stored procedure or function.
type Routine struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Trigger is a table trigger and the events that fire it.
type Trigger struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Event string `json:"event"`
}

// Column describes one table column.
type Column struct {
	Name       string             `json:"name"`
	DataType   string             `json:"type"`
	Nullable   bool               `json:"nullable"`
	Default    *string            `json:"default"`
	Position   int                `json:"position"`
	PrimaryKey bool               `json:"primary_key"`
	Type       dialect.ColumnType `json:"normalized"`
}

// Index groups the columns of one index in key order.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Primary bool     `json:"primary"`
}

// ForeignKey is one foreign-key constraint.
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// Catalog is the object tree of one database. Errors holds the message of
// every category that failed; the others are still filled in.
type Catalog struct {
	Tables     []string          `json:"tables"`
	Views      []string          `json:"views"`
	Procedures []Routine         `json:"procedures"`
	Functions  []Routine         `json:"functions"`
	Triggers   []Trigger         `json:"triggers"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// TableDetail is everything known about one table, with per-category errors.
type TableDetail struct {
	Table       string            `json:"table"`
	Columns     []Column          `json:"columns"`
	ForeignKeys []ForeignKey      `json:"foreign_keys"`
	Indexes     []Index           `json:"indexes"`
	PrimaryKeys []string          `json:"primary_keys"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// ConnectionStatus is the outcome of a connectivity probe.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Dialect string `json:"dialect,omitempty"`
	Version string `json:"version,omitempty"`
	Message string `json:"message"`
}

// FetchError reports a catalog query the engine rejected.
type FetchError struct {
	Operation dialect.Operation
	Dialect   dialect.Dialect
	Message   string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s failed on %s: %s", e.Operation, e.Dialect, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }
