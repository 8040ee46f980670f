// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package zdb

import (
	"context"

	"github.com/zdbsql/zdb/internal/assemble"
	"github.com/zdbsql/zdb/internal/expr"
)

// Conn is the database connection a [DB] runs queries on. A Conn serves one
// query at a time.
type Conn interface {
	// Prepare prepares query, which may contain ? markers.
	Prepare(ctx context.Context, query string) (Stmt, error)
	// Query runs query, which has no ? markers, and returns its rows.
	Query(ctx context.Context, query string) (Rows, error)
	// Escape escapes s for use inside a single-quoted string literal.
	Escape(s string) string
	// Strict reports whether the connection reports every error, including
	// errors closing statements and rows.
	Strict() bool
	// SetStrict sets the error reporting mode.
	SetStrict(on bool)
}

// Stmt is a prepared statement. Values are bound before execution.
type Stmt interface {
	// Bind binds args to the ? markers of the statement. types holds one
	// tag per argument: 'i' for integers and booleans, 'd' for floats and
	// 's' for strings and nil.
	Bind(types string, args ...any) error
	// Query executes a statement producing rows.
	Query(ctx context.Context) (Rows, error)
	// Exec executes a statement without rows.
	Exec(ctx context.Context) (Outcome, error)
	Close() error
}

// Rows is the result set of a statement.
type Rows interface {
	// Fields describes the columns of the result set.
	Fields() ([]FieldMeta, error)
	Next() bool
	// Values returns the values of the current row in column order.
	Values() ([]any, error)
	Err() error
	Close() error
}

// FieldMeta describes a column of a result set: its name, owning table and
// column, and native type name.
type FieldMeta = assemble.Field

// Row is a result row. Keys are column names in result order, followed by
// table.column keys when smart joins apply.
type Row = assemble.Row

// RawSQL is a value written into queries verbatim. It is never quoted,
// escaped or bound.
type RawSQL = expr.RawSQL

// Raw marks sql to be written into the query as is. Use it for fixed clauses
// such as NOW() or an OFFSET, never for user input.
func Raw(sql string) RawSQL {
	return expr.NewRawSQL(sql)
}

// M holds query arguments by key. Integer keys are positional values and
// string keys are named values, with or without the leading colon.
//
// Example:
//
//	stmt := zdb.MustPrepare("SELECT * FROM :_users WHERE team = :team AND age > ?")
//	rows, err := db.Query(ctx, stmt, zdb.M{1: 30, "team": "core"}).GetAll()
type M = expr.M

// Kind is the kind of statement a template starts with.
type Kind = expr.Kind

const (
	KindOther  = expr.KindOther
	KindSelect = expr.KindSelect
	KindInsert = expr.KindInsert
	KindUpdate = expr.KindUpdate
	KindDelete = expr.KindDelete
)

// Outcome holds metadata about an executed query.
type Outcome struct {
	// AffectedRows is the number of rows changed by INSERT, UPDATE and
	// DELETE, or the number of rows returned by other statements.
	AffectedRows int64
	// InsertID is the last generated auto increment id, if any.
	InsertID int64
}

// Result holds the rows and outcome of a query.
type Result struct {
	Rows []Row
	Outcome
}
