// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package zdb

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/zdbsql/zdb/internal/expr"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Statement represents a parsed zdb template ready to be run on a database.
// A statement can be used with any [DB] and any number of times.
type Statement struct {
	// pt is the parsed template. It is shared with other statements
	// prepared from the same template.
	pt *expr.ParsedTemplate
}

// PrepareOption configures [Prepare].
type PrepareOption func(*parseKey)

// AllowBareNumbers lets numeric literals appear in the template. Quotes,
// backslashes and control bytes are still rejected.
func AllowBareNumbers() PrepareOption {
	return func(k *parseKey) {
		k.allowBareNumbers = true
	}
}

// Prepare checks the template and parses its placeholders into a
// [Statement]. Templates must not contain quotes, backslashes, control bytes
// or bare numbers: values are passed through placeholders.
func Prepare(template string, opts ...PrepareOption) (*Statement, error) {
	key := parseKey{template: template}
	for _, opt := range opts {
		opt(&key)
	}
	pt, err := templateCache.parse(key)
	if err != nil {
		return nil, err
	}
	return &Statement{pt: pt}, nil
}

// MustPrepare is the same as [Prepare] except that it panics on error.
func MustPrepare(template string, opts ...PrepareOption) *Statement {
	s, err := Prepare(template, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the kind of the statement.
func (s *Statement) Kind() Kind {
	return s.pt.Kind()
}

// String returns the template of the statement after its rewrites.
func (s *Statement) String() string {
	return s.pt.Template()
}

// Options configures a [DB].
type Options struct {
	// TablePrefix is inserted by the :_ and :: markers. It may only contain
	// letters, digits and underscores.
	TablePrefix string
	// SmartJoins adds table.column keys to the rows of results spanning
	// more than one table.
	SmartJoins bool
	// Logger receives the queries run and their failures. Nothing is logged
	// when it is nil.
	Logger *slog.Logger
	// TableExists, when set, is used to improve the hint of unknown table
	// errors.
	TableExists func(ctx context.Context, table string) (bool, error)
}

// DB runs statements on a connection.
type DB struct {
	conn Conn
	opts Options
	log  *slog.Logger
}

// NewDB creates a new [DB] running queries on conn.
func NewDB(conn Conn, opts Options) (*DB, error) {
	if conn == nil {
		return nil, fmt.Errorf("cannot create database: nil connection")
	}
	if !prefixPattern.MatchString(opts.TablePrefix) {
		return nil, fmt.Errorf("cannot create database: invalid table prefix %q", opts.TablePrefix)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DB{conn: conn, opts: opts, log: log}, nil
}

// Conn returns the underlying connection.
func (db *DB) Conn() Conn {
	return db.conn
}

// compiler returns an open compiler for s holding args.
func (db *DB) compiler(s *Statement, args ...any) (*expr.Compiler, error) {
	if s == nil {
		return nil, fmt.Errorf("nil statement")
	}
	comp, err := expr.NewCompiler(s.pt, expr.CompilerOptions{
		Prefix: db.opts.TablePrefix,
		Escape: db.conn.Escape,
	})
	if err != nil {
		return nil, err
	}
	if err := comp.Params().AddFromCallArguments(args...); err != nil {
		return nil, err
	}
	return comp, nil
}

// Compiled holds both compiled forms of a statement.
type Compiled struct {
	Kind Kind
	// ParamSQL has ? markers for the BindValues.
	ParamSQL   string
	BindValues []any
	// EscapedSQL has every value written inline.
	EscapedSQL string
	// Params lists the parameter keys in the order they were added.
	Params []string
}

// Compile compiles s with args without running it.
func (db *DB) Compile(s *Statement, args ...any) (c *Compiled, err error) {
	comp, err := db.compiler(s, args...)
	if err != nil {
		return nil, err
	}
	c = &Compiled{Kind: comp.Kind(), Params: comp.Params().Keys()}
	if c.ParamSQL, err = comp.ParamQuery(); err != nil {
		return nil, err
	}
	if c.BindValues, err = comp.BindValues(); err != nil {
		return nil, err
	}
	if c.EscapedSQL, err = comp.EscapedQuery(); err != nil {
		return nil, err
	}
	return c, nil
}

// Query represents a query on a database. It is designed to be run once,
// its result is kept for later calls.
type Query struct {
	ctx  context.Context
	db   *DB
	comp *expr.Compiler
	err  error

	done   bool
	result *Result
}

// Query builds a new query from a context, a [Statement] and its arguments.
// The arguments are at most three positional values or a single [M]. The
// query is run on the database when one of [Query.Result], [Query.GetAll],
// [Query.Get] or [Query.Run] is executed.
func (db *DB) Query(ctx context.Context, s *Statement, args ...any) *Query {
	if ctx == nil {
		ctx = context.Background()
	}
	comp, err := db.compiler(s, args...)
	if err != nil {
		return &Query{ctx: ctx, err: fmt.Errorf("invalid query arguments: %w", err)}
	}
	return &Query{ctx: ctx, db: db, comp: comp}
}

// Result runs the query and returns all its rows and its outcome.
func (q *Query) Result() (*Result, error) {
	if q.err != nil || q.done {
		return q.result, q.err
	}
	q.done = true
	q.result, q.err = q.db.execute(q.ctx, q.comp)
	return q.result, q.err
}

// GetAll runs the query and returns all its rows.
func (q *Query) GetAll() ([]Row, error) {
	res, err := q.Result()
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Get runs the query and returns its first row. It returns [ErrNoRows] if
// the query returns no rows.
func (q *Query) Get() (Row, error) {
	res, err := q.Result()
	if err != nil {
		return Row{}, err
	}
	if len(res.Rows) == 0 {
		return Row{}, ErrNoRows
	}
	return res.Rows[0], nil
}

// Run runs the query, disregards any rows and returns its outcome.
func (q *Query) Run() (Outcome, error) {
	res, err := q.Result()
	if err != nil {
		return Outcome{}, err
	}
	return res.Outcome, nil
}
