// Package mutation updates and deletes single rows addressed by their full
// primary key.
package mutation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

// KeyValue is one column of a primary-key identity.
type KeyValue struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Identity addresses exactly one row. Order follows the caller; the WHERE
// clause is emitted in primary-key order.
type Identity []KeyValue

// PreconditionError is returned when a mutation is refused before any SQL is
// sent.
type PreconditionError struct {
	Table   string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("mutation on %s refused: %s", e.Table, e.Message)
}

func refuse(table, format string, args ...any) error {
	return &PreconditionError{Table: table, Message: fmt.Sprintf(format, args...)}
}

// matchKey checks that pk names every column of keys exactly once and nothing
// else. It returns the identity values reordered to follow keys.
func matchKey(table string, pk Identity, keys []string) ([]KeyValue, error) {
	if len(pk) == 0 {
		return nil, refuse(table, "primary key identity is empty")
	}
	if len(keys) == 0 {
		return nil, refuse(table, "table has no primary key")
	}
	given := make(map[string]KeyValue, len(pk))
	for _, kv := range pk {
		name := strings.ToLower(kv.Column)
		if _, dup := given[name]; dup {
			return nil, refuse(table, "column %s appears twice in the identity", kv.Column)
		}
		given[name] = kv
	}
	ordered := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		kv, ok := given[strings.ToLower(k)]
		if !ok {
			return nil, refuse(table, "identity is missing primary key column %s", k)
		}
		ordered = append(ordered, KeyValue{Column: k, Value: kv.Value})
		delete(given, strings.ToLower(k))
	}
	for _, kv := range pk {
		if _, extra := given[strings.ToLower(kv.Column)]; extra {
			return nil, refuse(table, "column %s is not part of the primary key", kv.Column)
		}
	}
	return ordered, nil
}

// BuildUpdate renders a single-row UPDATE. Values for primary-key columns are
// dropped; SET columns are emitted in name order.
func BuildUpdate(d dialect.Dialect, table string, pk Identity, keys []string, values map[string]any) (dialect.Statement, error) {
	where, err := matchKey(table, pk, keys)
	if err != nil {
		return dialect.Statement{}, err
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[strings.ToLower(k)] = true
	}
	cols := make([]string, 0, len(values))
	for c := range values {
		if !isKey[strings.ToLower(c)] {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return dialect.Statement{}, refuse(table, "no non-key columns to update")
	}
	sort.Strings(cols)

	var b strings.Builder
	args := make([]any, 0, len(cols)+len(where))
	fmt.Fprintf(&b, "UPDATE %s SET ", d.QuoteIdent(table))
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, values[c])
		fmt.Fprintf(&b, "%s = %s", d.QuoteIdent(c), d.Placeholder(len(args)))
	}
	args = writeWhere(&b, d, where, args)
	return dialect.Statement{SQL: b.String(), Args: args}, nil
}

// BuildDelete renders a single-row DELETE.
func BuildDelete(d dialect.Dialect, table string, pk Identity, keys []string) (dialect.Statement, error) {
	where, err := matchKey(table, pk, keys)
	if err != nil {
		return dialect.Statement{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", d.QuoteIdent(table))
	args := writeWhere(&b, d, where, make([]any, 0, len(where)))
	return dialect.Statement{SQL: b.String(), Args: args}, nil
}

func writeWhere(b *strings.Builder, d dialect.Dialect, where []KeyValue, args []any) []any {
	b.WriteString(" WHERE ")
	for i, kv := range where {
		if i > 0 {
			b.WriteString(" AND ")
		}
		args = append(args, kv.Value)
		fmt.Fprintf(b, "%s = %s", d.QuoteIdent(kv.Column), d.Placeholder(len(args)))
	}
	return args
}
