/*
Package expr turns zdb templates into SQL. It covers everything that happens
before the database is involved.

The expr package is split up into three stages: the Parse stage, the
Parameter stage and the Compile stage.

# Parse stage

The parse stage rewrites a trailing "LIMIT n" into an internal raw parameter,
strips the indentation of every line and checks the template with AssertSafe.
It then splits the template into parts: verbatim SQL, values (? and :name),
identifiers (backtick-quoted placeholders) and table prefix markers (:_ and
::). The result, a ParsedTemplate, is immutable and can be shared.

# Parameter stage

A Compiler owns a Params for a single execution of a ParsedTemplate. Values
are added positionally, by name, or from the arguments of a query call.
Values are normalized to nil, string, bool, int64, uint64, float64 or RawSQL.

# Compile stage

The first request for an output freezes the parameters. The template can be
compiled into an escaped query, with every value written as a literal, or
into a parameterized query and its bind values. Raw SQL values and
identifiers are written inline in both forms. Outputs are computed once.
*/
package expr
