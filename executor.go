package zdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zdbsql/zdb/internal/assemble"
	"github.com/zdbsql/zdb/internal/expr"
)

// execute runs a compiled template. Statements other than SELECT, INSERT,
// UPDATE and DELETE are sent as escaped queries, the others are prepared and
// run with bound values. The connection reports every error while the
// query runs.
func (db *DB) execute(ctx context.Context, comp *expr.Compiler) (res *Result, err error) {
	strict := db.conn.Strict()
	db.conn.SetStrict(true)
	defer db.conn.SetStrict(strict)

	start := time.Now()
	kind := comp.Kind()
	var query string
	var binds []any
	defer func() {
		if err != nil {
			db.log.Warn("query failed", "kind", kind, "sql", query, "error", err)
			return
		}
		db.log.Debug("query",
			"kind", kind,
			"sql", query,
			"binds", len(binds),
			"rows", len(res.Rows),
			"affected", res.AffectedRows,
			"duration", time.Since(start))
	}()

	if !kind.IsDML() {
		if query, err = comp.EscapedQuery(); err != nil {
			return nil, err
		}
		rows, err := db.conn.Query(ctx, query)
		if err != nil {
			return nil, db.databaseError(ctx, err, query)
		}
		return db.fetch(ctx, rows, query)
	}

	if query, err = comp.ParamQuery(); err != nil {
		return nil, err
	}
	if binds, err = comp.BindValues(); err != nil {
		return nil, err
	}

	stmt, err := db.conn.Prepare(ctx, query)
	if err != nil {
		return nil, db.databaseError(ctx, err, query)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			res, err = nil, db.databaseError(ctx, cerr, query)
		}
	}()

	if len(binds) > 0 {
		if err := stmt.Bind(bindTypes(binds), binds...); err != nil {
			return nil, db.databaseError(ctx, err, query)
		}
	}

	if kind.ReturnsRows() {
		rows, err := stmt.Query(ctx)
		if err != nil {
			return nil, db.databaseError(ctx, err, query)
		}
		return db.fetch(ctx, rows, query)
	}

	outcome, err := stmt.Exec(ctx)
	if err != nil {
		return nil, db.databaseError(ctx, err, query)
	}
	return &Result{Outcome: outcome}, nil
}

// fetch drains rows into assembled rows and closes them. On error no rows
// are returned.
func (db *DB) fetch(ctx context.Context, rows Rows, query string) (res *Result, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			res, err = nil, db.databaseError(ctx, cerr, query)
		}
	}()

	fields, err := rows.Fields()
	if err != nil {
		return nil, db.databaseError(ctx, err, query)
	}
	asm := assemble.NewAssembler(fields, db.opts.SmartJoins)

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, db.databaseError(ctx, err, query)
		}
		row, err := asm.Assemble(values)
		if err != nil {
			return nil, fmt.Errorf("cannot assemble row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, db.databaseError(ctx, err, query)
	}
	return &Result{Rows: out, Outcome: Outcome{AffectedRows: int64(len(out))}}, nil
}

// bindTypes returns the type tags of bind values: i for integers and
// booleans, d for floats and s for everything else.
func bindTypes(values []any) string {
	var b strings.Builder
	for _, v := range values {
		switch v.(type) {
		case int64, uint64, bool:
			b.WriteByte('i')
		case float64:
			b.WriteByte('d')
		default:
			b.WriteByte('s')
		}
	}
	return b.String()
}
