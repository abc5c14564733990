package query

import (
	"strings"

	"github.com/luisdotcom/db-hub/internal/dialect"
)

// statementKind selects how a statement is sent to the driver.
type statementKind int

const (
	// kindExec runs through ExecContext and reports rows affected.
	kindExec statementKind = iota
	// kindRows runs through QueryContext and expects a result set.
	kindRows
	// kindMaybeRows runs through QueryContext; the result set may be absent.
	kindMaybeRows
)

// classify decides whether sqlText answers with rows. Writes carrying a
// RETURNING (postgres, MariaDB) or OUTPUT (SQL Server) clause return rows,
// and a WITH statement follows its main statement.
func classify(d dialect.Dialect, sqlText string) statementKind {
	switch firstWord(leadingKeyword(sqlText)) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "VALUES", "PRAGMA", "TABLE":
		return kindRows
	case "EXEC", "EXECUTE", "CALL":
		return kindMaybeRows
	case "WITH":
		return classifyWith(d, topLevelWords(sqlText))
	case "INSERT", "UPDATE", "DELETE", "MERGE", "REPLACE":
		if returnsRows(d, topLevelWords(sqlText)) {
			return kindRows
		}
	}
	return kindExec
}

// classifyWith skips the common table expressions and classifies the main
// statement. A statement whose main keyword cannot be found may still return
// rows.
func classifyWith(d dialect.Dialect, words []string) statementKind {
	for i, w := range words {
		switch w {
		case "SELECT", "VALUES", "TABLE":
			return kindRows
		case "INSERT", "UPDATE", "DELETE", "MERGE":
			if returnsRows(d, words[i+1:]) {
				return kindRows
			}
			return kindExec
		}
	}
	return kindMaybeRows
}

func returnsRows(d dialect.Dialect, words []string) bool {
	clause := "RETURNING"
	if d == dialect.SQLServer {
		clause = "OUTPUT"
	}
	for _, w := range words {
		if w == clause {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return s[:i]
		}
	}
	return s
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// leadingKeyword upper-cases the statement after skipping whitespace,
// comments and opening parentheses.
func leadingKeyword(sqlText string) string {
	q := strings.TrimSpace(sqlText)
	for {
		switch {
		case strings.HasPrefix(q, "--"):
			if i := strings.IndexByte(q, '\n'); i >= 0 {
				q = strings.TrimSpace(q[i+1:])
				continue
			}
			return ""
		case strings.HasPrefix(q, "/*"):
			if i := strings.Index(q, "*/"); i >= 0 {
				q = strings.TrimSpace(q[i+2:])
				continue
			}
			return ""
		case strings.HasPrefix(q, "("):
			q = strings.TrimSpace(q[1:])
			continue
		}
		return strings.ToUpper(q)
	}
}

// topLevelWords returns the upper-cased words of sqlText that sit outside
// parentheses, comments, quoted strings and quoted identifiers.
func topLevelWords(sqlText string) []string {
	var words []string
	depth := 0
	s := sqlText
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '-' && strings.HasPrefix(s[i:], "--"):
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return words
			}
			i += j + 1
		case c == '/' && strings.HasPrefix(s[i:], "/*"):
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return words
			}
			i += j + 4
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(s, i)
		case c == '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return words
			}
			i += j + 1
		case c == '$':
			i = skipDollarQuoted(s, i)
		case c == '(':
			depth++
			i++
		case c == ')':
			if depth > 0 {
				depth--
			}
			i++
		case isIdentChar(c):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if depth == 0 {
				words = append(words, strings.ToUpper(s[i:j]))
			}
			i = j
		default:
			i++
		}
	}
	return words
}

// skipQuoted returns the index just past the literal opened at s[i]. A
// doubled quote character is an escaped one; backslash escapes are honoured
// in single-quoted strings as MySQL does.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch {
		case s[j] == '\\' && q == '\'':
			j++
		case s[j] == q:
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(s)
}

// skipDollarQuoted skips a postgres $tag$...$tag$ string starting at s[i].
// Positional parameters such as $1 are stepped over as a single byte.
func skipDollarQuoted(s string, i int) int {
	j := i + 1
	for j < len(s) && (s[j] == '_' || s[j] >= 'A' && s[j] <= 'Z' || s[j] >= 'a' && s[j] <= 'z' || j > i+1 && s[j] >= '0' && s[j] <= '9') {
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return i + 1
	}
	tag := s[i : j+1]
	end := strings.Index(s[j+1:], tag)
	if end < 0 {
		return len(s)
	}
	return j + 1 + end + len(tag)
}
