// Package dialect holds the static per-engine SQL tables used by the console:
// catalog queries, DDL introspection statements and quick-action templates for
// MySQL, PostgreSQL and SQL Server.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect identifies one of the supported SQL engines.
type Dialect string

const (
	MySQL     Dialect = "mysql"
	Postgres  Dialect = "postgres"
	SQLServer Dialect = "sqlserver"
)

// All lists every supported dialect in a stable order.
var All = []Dialect{MySQL, Postgres, SQLServer}

// Parse maps a dialect name (as used in config and API paths) to a Dialect.
// "mssql" and "postgresql" are accepted as aliases.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", name)
	}
}

// Label returns the human readable engine name.
func (d Dialect) Label() string {
	switch d {
	case MySQL:
		return "MySQL"
	case Postgres:
		return "PostgreSQL"
	case SQLServer:
		return "SQL Server"
	default:
		return string(d)
	}
}

// Valid reports whether d is one of the supported dialects.
func (d Dialect) Valid() bool {
	return d == MySQL || d == Postgres || d == SQLServer
}

// Statement is a SQL text plus its positional driver arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Inline renders s as standalone SQL text for the editor by substituting its
// arguments as literals. The template is scanned once, so placeholder-like
// text inside a substituted value is never replaced again.
func (s Statement) Inline(d Dialect) string {
	var b strings.Builder
	sqlText := s.SQL
	for i := 0; i < len(sqlText); {
		n, width := d.placeholderAt(sqlText, i)
		if width == 0 {
			b.WriteByte(sqlText[i])
			i++
			continue
		}
		if n >= 1 && n <= len(s.Args) {
			b.WriteString(literal(s.Args[n-1]))
		} else {
			b.WriteString(sqlText[i : i+width])
		}
		i += width
	}
	return b.String()
}

// placeholderAt reports the 1-based argument index and byte width of the
// placeholder starting at sqlText[i], or a zero width when there is none.
// MySQL placeholders are positional and counted in order of appearance.
func (d Dialect) placeholderAt(sqlText string, i int) (n, width int) {
	var prefix string
	switch d {
	case Postgres:
		prefix = "$"
	case SQLServer:
		prefix = "@p"
	default:
		if sqlText[i] != '?' {
			return 0, 0
		}
		return strings.Count(sqlText[:i], "?") + 1, 1
	}
	if !strings.HasPrefix(sqlText[i:], prefix) {
		return 0, 0
	}
	j := i + len(prefix)
	for j < len(sqlText) && sqlText[j] >= '0' && sqlText[j] <= '9' {
		n = n*10 + int(sqlText[j]-'0')
		j++
	}
	if j == i+len(prefix) {
		return 0, 0
	}
	return n, j - i
}

func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteLiteral(val)
	default:
		return fmt.Sprint(val)
	}
}

// Placeholder returns the n-th (1-based) bind placeholder for the dialect.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("$%d", n)
	case SQLServer:
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// QuoteIdent quotes a single identifier for the dialect, escaping the quote
// character by doubling it.
func (d Dialect) QuoteIdent(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// quoteLiteral quotes a string literal. Only used for display templates the
// console generates itself; values in executed statements go through
// placeholders.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
