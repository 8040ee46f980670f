package zdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/zdbsql/zdb/internal/expr"
)

// Dialect selects the string escaping of a [SQLConn].
type Dialect int

const (
	// DialectMySQL escapes with backslashes.
	DialectMySQL Dialect = iota
	// DialectSQLite doubles single quotes.
	DialectSQLite
)

func (d Dialect) String() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "mysql"
}

// ParseDialect returns the dialect of a database/sql driver name.
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return DialectMySQL, nil
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	}
	return 0, fmt.Errorf("unsupported driver %q", driver)
}

// Substrate is the part of database/sql a [SQLConn] runs on. It is
// implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Substrate interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLConnConfig configures a [SQLConn].
type SQLConnConfig struct {
	Dialect Dialect
	// QualifiedColumns reports that the driver names columns table.column,
	// as the MySQL driver does with ColumnsWithAlias. The owning table of
	// each column is then known.
	QualifiedColumns bool
	// Logger receives close errors dropped in lenient mode.
	Logger *slog.Logger
}

// SQLConn is a [Conn] over database/sql.
type SQLConn struct {
	sub    Substrate
	cfg    SQLConnConfig
	log    *slog.Logger
	strict bool
}

var _ Conn = (*SQLConn)(nil)

// NewSQLConn returns a connection running queries on sub. Use a *sql.Conn
// to keep every query on one database session.
func NewSQLConn(sub Substrate, cfg SQLConnConfig) *SQLConn {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SQLConn{sub: sub, cfg: cfg, log: log}
}

// OpenMySQL opens a MySQL database from a go-sql-driver DSN. Columns are
// reported as table.column so that results can be smart joined, use
// QualifiedColumns with the returned database.
func OpenMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot parse MySQL DSN: %w", err)
	}
	cfg.ColumnsWithAlias = true
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot open MySQL database: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Prepare prepares query on the substrate.
func (c *SQLConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	stmt, err := c.sub.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{conn: c, stmt: stmt}, nil
}

// Query runs query on the substrate without arguments.
func (c *SQLConn) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := c.sub.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlRows{conn: c, rows: rows}, nil
}

// Escape escapes s according to the dialect.
func (c *SQLConn) Escape(s string) string {
	if c.cfg.Dialect == DialectSQLite {
		return expr.EscapeQuotes(s)
	}
	return expr.EscapeMySQL(s)
}

func (c *SQLConn) Strict() bool {
	return c.strict
}

func (c *SQLConn) SetStrict(on bool) {
	c.strict = on
}

// closeError returns err in strict mode. In lenient mode it is logged and
// dropped.
func (c *SQLConn) closeError(what string, err error) error {
	if err == nil || c.strict {
		return err
	}
	c.log.Warn("close failed", "resource", what, "error", err)
	return nil
}

type sqlStmt struct {
	conn *SQLConn
	stmt *sql.Stmt
	args []any
}

// Bind converts args according to their type tags.
func (s *sqlStmt) Bind(types string, args ...any) error {
	if len(types) != len(args) {
		return fmt.Errorf("cannot bind %d values with %d type tags", len(args), len(types))
	}
	bound := make([]any, len(args))
	for i, arg := range args {
		v, err := bindValue(types[i], arg)
		if err != nil {
			return fmt.Errorf("cannot bind value %d: %w", i+1, err)
		}
		bound[i] = v
	}
	s.args = bound
	return nil
}

func bindValue(tag byte, v any) (any, error) {
	switch tag {
	case 'i':
		switch x := v.(type) {
		case int64, uint64:
			return x, nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case 'd':
		if x, ok := v.(float64); ok {
			return x, nil
		}
	case 's':
		switch x := v.(type) {
		case nil, string:
			return x, nil
		}
		return fmt.Sprint(v), nil
	default:
		return nil, fmt.Errorf("unknown type tag %q", tag)
	}
	return nil, fmt.Errorf("%T does not match type tag %q", v, tag)
}

func (s *sqlStmt) Query(ctx context.Context) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, s.args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{conn: s.conn, rows: rows}, nil
}

func (s *sqlStmt) Exec(ctx context.Context) (Outcome, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return Outcome{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Outcome{}, err
	}
	// Not every driver reports insert ids.
	id, _ := res.LastInsertId()
	return Outcome{AffectedRows: affected, InsertID: id}, nil
}

func (s *sqlStmt) Close() error {
	return s.conn.closeError("statement", s.stmt.Close())
}

type sqlRows struct {
	conn   *SQLConn
	rows   *sql.Rows
	fields []FieldMeta
}

// Fields reads the column names and types of the result set.
func (r *sqlRows) Fields() ([]FieldMeta, error) {
	if r.fields != nil {
		return r.fields, nil
	}
	types, err := r.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldMeta, len(types))
	for i, ct := range types {
		f := FieldMeta{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		if r.conn.cfg.QualifiedColumns {
			if dot := strings.LastIndexByte(f.Name, '.'); dot >= 0 {
				f.Table, f.Name = f.Name[:dot], f.Name[dot+1:]
			}
		}
		f.Column = f.Name
		fields[i] = f
	}
	r.fields = fields
	return fields, nil
}

func (r *sqlRows) Next() bool {
	return r.rows.Next()
}

// Values scans the current row. Byte slices are copies owned by the caller.
func (r *sqlRows) Values() ([]any, error) {
	fields, err := r.Fields()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *sqlRows) Err() error {
	return r.rows.Err()
}

func (r *sqlRows) Close() error {
	return r.conn.closeError("rows", r.rows.Close())
}

// TableExistsFunc returns an existence check for [Options.TableExists]
// querying the schema of the database behind sub.
func TableExistsFunc(sub Substrate, d Dialect) func(ctx context.Context, table string) (bool, error) {
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	if d == DialectSQLite {
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	return func(ctx context.Context, table string) (bool, error) {
		rows, err := sub.QueryContext(ctx, query, table)
		if err != nil {
			return false, err
		}
		defer rows.Close()
		var n int
		if rows.Next() {
			if err := rows.Scan(&n); err != nil {
				return false, err
			}
		}
		return n > 0, rows.Err()
	}
}
