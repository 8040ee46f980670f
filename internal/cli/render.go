package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/zdbsql/zdb"
)

// outputMode resolves the auto output mode: a table on terminals, JSON
// otherwise.
func outputMode(mode string, w io.Writer) string {
	if mode != "auto" {
		return mode
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "table"
	}
	return "json"
}

func renderResult(w io.Writer, mode string, kind zdb.Kind, res *zdb.Result) error {
	if mode == "json" {
		return renderJSON(w, kind, res)
	}
	if !kind.ReturnsRows() && len(res.Rows) == 0 {
		_, _ = fmt.Fprintf(w, "%d rows affected", res.AffectedRows)
		if res.InsertID != 0 {
			_, _ = fmt.Fprintf(w, " (insert id %d)", res.InsertID)
		}
		_, _ = fmt.Fprintln(w)
		return nil
	}
	return renderTable(w, res.Rows)
}

func renderTable(w io.Writer, rows []zdb.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	keys := rows[0].Keys()
	header := make(table.Row, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(keys))
		for i, k := range keys {
			r[i] = formatValue(row.Value(k))
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, kind zdb.Kind, res *zdb.Result) error {
	rows := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		m := row.Map()
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		rows[i] = m
	}
	out := map[string]any{
		"kind":          kind.String(),
		"rows":          rows,
		"affected_rows": res.AffectedRows,
	}
	if res.InsertID != 0 {
		out["insert_id"] = res.InsertID
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return zdb.NewValue(v).String()
}
