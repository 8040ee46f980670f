/*
zdb runs SQL templates on MySQL-family databases without ever writing a value
into the template by hand.

Templates are plain SQL with placeholders. Values are passed through
placeholders, never written into the template: a template containing a quote,
a backslash, a NUL or SUB byte or a bare number is rejected by [Prepare]
before it reaches the database.

# Basics

A template is prepared once and run with its arguments:

	stmt := zdb.MustPrepare(`SELECT * FROM :_users WHERE team = ? AND age > ?`)
	rows, err := db.Query(ctx, stmt, "core", 30).GetAll()

With the table prefix "app_" this runs

	SELECT * FROM app_users WHERE team = ? AND age > ?

as a prepared statement with the two values bound. SELECT, INSERT, UPDATE and
DELETE statements are always run as prepared statements. Other statements,
such as SHOW, are sent as a single query with the values escaped and written
inline.

# Syntax

	?            the next positional value
	:name        the named value "name"
	`?`          the next positional value, used as an identifier
	`:name`      a named value used as an identifier
	:_  ::       the table prefix, written as is
	`:_?` `::?`  a positional identifier with the table prefix
	`:_:name`    a named identifier with the table prefix, also `:::name`

Identifier values may only contain letters, digits, underscores and dashes.
They are written between backticks.

Up to three positional values are passed directly to [DB.Query]. More values,
and named values, are passed in an [M]:

	db.Query(ctx, stmt, zdb.M{1: "core", 2: 30, "limit": zdb.Raw("LIMIT 10")})

Values made with [Raw] are written into the query as is, even in prepared
statements. A template ending in a literal "LIMIT n" is accepted: the limit
is carried as a raw value.

# Results

Rows map column names to values converted to int64, uint64, float64, bool or
string according to the column type. When smart joins are enabled and a
result spans more than one table, every column also appears under a
table.column key. A column name shared by several tables keeps the value of
the first one under the plain key.
*/
package zdb
