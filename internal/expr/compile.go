// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Parse parses template with a new Parser.
func Parse(template string, allowBareNumbers bool) (*ParsedTemplate, error) {
	p := NewParser()
	p.AllowBareNumbers = allowBareNumbers
	return p.Parse(template)
}

// CompilerOptions configures the output of a Compiler.
type CompilerOptions struct {
	// Prefix is the table prefix written for :_ and :: markers and prepended
	// to prefixed identifiers.
	Prefix string
	// Escape escapes string literals in escaped queries. EscapeMySQL is used
	// when nil.
	Escape func(string) string
}

// Compiler owns the parameters of one execution of a parsed template. It is
// open for new parameters until one of its outputs is first requested, after
// which it is compiled and every output is fixed.
type Compiler struct {
	pt     *ParsedTemplate
	opts   CompilerOptions
	params *Params

	escaped *compiled
	bound   *compiled
}

// compiled holds the memoized outcome of one compilation mode.
type compiled struct {
	sql  string
	args []any
	err  error
}

// NewCompiler returns an open compiler for pt with the internal parameters
// of the template already registered.
func NewCompiler(pt *ParsedTemplate, opts CompilerOptions) (*Compiler, error) {
	if opts.Escape == nil {
		opts.Escape = EscapeMySQL
	}
	c := &Compiler{pt: pt, opts: opts, params: NewParams()}
	for _, ip := range pt.internal {
		if err := c.params.AddInternal(ip.name, ip.value); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Params returns the parameters of the compiler. They can be added to until
// the compiler is compiled.
func (c *Compiler) Params() *Params {
	return c.params
}

// Template returns the template text after the pre-scan rewrites.
func (c *Compiler) Template() string {
	return c.pt.template
}

// Kind returns the statement kind of the template.
func (c *Compiler) Kind() Kind {
	return c.pt.kind
}

// EscapedQuery returns the template with every value written inline as an
// escaped literal.
func (c *Compiler) EscapedQuery() (string, error) {
	c.params.freeze()
	if c.escaped == nil {
		sql, _, err := c.compile(false)
		c.escaped = &compiled{sql: sql, err: err}
	}
	return c.escaped.sql, c.escaped.err
}

// ParamQuery returns the template with every value replaced by a bare ?,
// except raw SQL values which are written inline.
func (c *Compiler) ParamQuery() (string, error) {
	b := c.compileBound()
	return b.sql, b.err
}

// BindValues returns the values for the ? markers of ParamQuery, in order.
func (c *Compiler) BindValues() ([]any, error) {
	b := c.compileBound()
	if b.err != nil {
		return nil, b.err
	}
	return append([]any(nil), b.args...), nil
}

func (c *Compiler) compileBound() *compiled {
	c.params.freeze()
	if c.bound == nil {
		sql, args, err := c.compile(true)
		c.bound = &compiled{sql: sql, args: args, err: err}
	}
	return c.bound
}

// compile walks the parts of the template and resolves every placeholder.
// With bind set values are collected as arguments, otherwise they are written
// as literals.
func (c *Compiler) compile(bind bool) (sql string, args []any, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot compile template: %w", err)
		}
	}()

	var b sqlBuilder
	for _, part := range c.pt.parts {
		switch p := part.(type) {
		case *bypassPart:
			b.write(p.chunk)
		case *prefixPart:
			b.write(c.opts.Prefix)
		case *identifierPart:
			v, ok := c.params.Get(p.ph.key())
			if !ok {
				return "", nil, p.ph.missingError()
			}
			id, err := identifierValue(v)
			if err != nil {
				return "", nil, fmt.Errorf("placeholder %s: %w", p.raw, err)
			}
			if p.prefixed {
				id = c.opts.Prefix + id
			}
			b.writeIdentifier(id)
		case *valuePart:
			v, ok := c.params.Get(p.ph.key())
			if !ok {
				return "", nil, p.ph.missingError()
			}
			if raw, ok := v.(RawSQL); ok {
				b.write(raw.String())
				continue
			}
			if bind {
				b.write("?")
				args = append(args, v)
				continue
			}
			lit, err := c.literal(v)
			if err != nil {
				return "", nil, fmt.Errorf("placeholder %s: %w", p.raw, err)
			}
			b.write(lit)
		default:
			return "", nil, fmt.Errorf("internal error: unknown query part type %T", part)
		}
	}
	return b.getSQL(), args, nil
}

// literal renders a normalized parameter value as a SQL literal.
func (c *Compiler) literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + c.opts.Escape(x) + "'", nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnencodableValue, v)
}

// identifierValue returns the identifier text of a parameter value used in
// an identifier placeholder.
func identifierValue(v any) (string, error) {
	var id string
	switch x := v.(type) {
	case string:
		id = x
	case int64:
		id = strconv.FormatInt(x, 10)
	case uint64:
		id = strconv.FormatUint(x, 10)
	default:
		return "", fmt.Errorf("%w: value of type %T", ErrInvalidIdentifier, v)
	}
	if !identifierPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q must match %s", ErrInvalidIdentifier, id, identifierPattern)
	}
	return id, nil
}

// sqlBuilder is used to generate SQL string piece by piece using the struct
// methods.
type sqlBuilder struct {
	buf bytes.Buffer
}

// write writes the SQL to the sqlBuilder.
func (b *sqlBuilder) write(sql string) {
	b.buf.WriteString(sql)
}

// writeIdentifier writes a backtick-quoted identifier. The identifier must
// already be validated.
func (b *sqlBuilder) writeIdentifier(id string) {
	b.buf.WriteByte('`')
	b.buf.WriteString(id)
	b.buf.WriteByte('`')
}

// getSQL returns the generated SQL string
func (b *sqlBuilder) getSQL() string {
	return b.buf.String()
}
