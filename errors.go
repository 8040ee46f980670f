package zdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/zdbsql/zdb/internal/expr"
)

var (
	ErrSafetyViolation       = expr.ErrSafetyViolation
	ErrMissingParameter      = expr.ErrMissingParameter
	ErrInvalidIdentifier     = expr.ErrInvalidIdentifier
	ErrDuplicateParameter    = expr.ErrDuplicateParameter
	ErrAlreadyFinalized      = expr.ErrAlreadyFinalized
	ErrInvalidParameterName  = expr.ErrInvalidParameterName
	ErrReservedParameterName = expr.ErrReservedParameterName
	ErrUnencodableValue      = expr.ErrUnencodableValue
	ErrTooManyArguments      = expr.ErrTooManyArguments
)

// ErrNoRows is returned by [Query.Get] when the query returns no rows.
var ErrNoRows = sql.ErrNoRows

// ErrUnknownTable is the MySQL error number for a missing table.
const ErrUnknownTable = 1146

var (
	mysqlUnknownTable  = regexp.MustCompile(`Table '([^']+)' doesn't exist`)
	sqliteUnknownTable = regexp.MustCompile(`no such table: (\S+)`)
)

// DatabaseError is returned for every error reported by the database or the
// driver while running a query.
type DatabaseError struct {
	// Code is the error number of the database, or zero when unknown.
	Code int
	// Message is the error message of the database.
	Message string
	// SQL is the query that failed.
	SQL string
	// Hint suggests a fix for well known errors.
	Hint string
	// Err is the error returned by the driver.
	Err error
}

func (e *DatabaseError) Error() string {
	var b strings.Builder
	b.WriteString("database error")
	if e.Code != 0 {
		fmt.Fprintf(&b, " %d", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}
	return b.String()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// errorCode extracts the database error number and message from err.
func errorCode(err error) (int, string) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return int(myErr.Number), myErr.Message
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code(), err.Error()
	}
	return 0, err.Error()
}

// databaseError wraps a driver error. Errors that are already wrapped are
// returned unchanged.
func (db *DB) databaseError(ctx context.Context, err error, query string) error {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	code, msg := errorCode(err)
	dbErr = &DatabaseError{Code: code, Message: msg, SQL: query, Err: err}
	if table, ok := unknownTable(code, msg); ok {
		dbErr.Hint = db.unknownTableHint(ctx, table)
	}
	return dbErr
}

// unknownTable reports whether the error is about a missing table and
// returns the unqualified table name when the message carries it.
func unknownTable(code int, msg string) (string, bool) {
	if code != ErrUnknownTable && !strings.Contains(msg, "no such table") {
		return "", false
	}
	var table string
	if m := mysqlUnknownTable.FindStringSubmatch(msg); m != nil {
		table = m[1]
	} else if m := sqliteUnknownTable.FindStringSubmatch(msg); m != nil {
		table = m[1]
	}
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		table = table[i+1:]
	}
	return table, true
}

// unknownTableHint explains how the table prefix applies to a missing
// table. The existence check, when configured, confirms the prefixed name.
func (db *DB) unknownTableHint(ctx context.Context, table string) string {
	prefix := db.opts.TablePrefix
	switch {
	case table == "":
		return "check the table names of the template"
	case prefix == "":
		return fmt.Sprintf("table %s does not exist and no table prefix is configured", table)
	case strings.HasPrefix(table, prefix):
		return fmt.Sprintf("table %s does not exist, the prefix %s is already applied", table, prefix)
	}

	prefixed := prefix + table
	hint := fmt.Sprintf("write :_%s in the template to use the prefixed table %s", table, prefixed)
	if db.opts.TableExists == nil {
		return hint
	}
	exists, err := db.opts.TableExists(ctx, prefixed)
	if err != nil {
		db.log.Warn("cannot check table existence", "table", prefixed, "error", err)
		return hint
	}
	if !exists {
		return fmt.Sprintf("neither %s nor %s exists", table, prefixed)
	}
	return hint + ", which exists"
}
