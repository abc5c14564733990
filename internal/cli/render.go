package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/luisdotcom/db-hub/internal/history"
	"github.com/luisdotcom/db-hub/internal/query"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	switch f {
	case formatTable, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table or json)", f)
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderResult(w io.Writer, res *query.Result, format string) error {
	if format == formatJSON {
		return renderJSON(w, res)
	}
	if len(res.Columns) == 0 {
		_, _ = fmt.Fprintf(w, "%s (%.2f ms)\n", res.Message, res.ExecutionTimeMs)
		return nil
	}
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		r := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			r[i] = formatCell(row[c])
		}
		t.AppendRow(r)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows, %.2f ms)\n", len(res.Rows), res.ExecutionTimeMs)
	return nil
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

func renderNames(w io.Writer, header string, names []string, format string) error {
	if format == formatJSON {
		return renderJSON(w, names)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{header})
	for _, n := range names {
		t.AppendRow(table.Row{n})
	}
	t.Render()
	return nil
}

func renderHistory(w io.Writer, entries []history.Entry, format string) error {
	if format == formatJSON {
		return renderJSON(w, entries)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(no history)")
		return nil
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "When", "Database", "Status", "ms", "Rows", "Query"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.DatabaseLabel,
			e.Status,
			fmt.Sprintf("%.2f", e.ExecutionTimeMs),
			e.RowsAffected,
			truncate(e.QueryText, 60),
		})
	}
	t.Render()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
