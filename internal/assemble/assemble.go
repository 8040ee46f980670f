// Package assemble turns the raw values of a result set into rows keyed by
// column name.
package assemble

import (
	"fmt"
	"strconv"
	"strings"

	zreflect "github.com/zdbsql/zdb/internal/reflect"
)

// Field describes a column of a result set.
type Field struct {
	// Name is the column name or alias as reported by the driver.
	Name string
	// Table is the table owning the column, empty for expressions.
	Table string
	// Column is the name of the column in its table. Name is used when it
	// is empty.
	Column string
	// Type is the native type name of the column, such as "INT" or
	// "VARCHAR".
	Type string
}

// Row is an ordered mapping of column keys to values.
type Row struct {
	keys   []string
	values map[string]any
}

func newRow(n int) Row {
	return Row{keys: make([]string, 0, n), values: make(map[string]any, n)}
}

// add stores v under key unless key is already present.
func (r *Row) add(key string, v any) {
	if _, ok := r.values[key]; ok {
		return
	}
	r.keys = append(r.keys, key)
	r.values[key] = v
}

// Keys returns the keys of the row in order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (r Row) Value(key string) any {
	return r.values[key]
}

// Len returns the number of keys in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// Map returns a copy of the row as a map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteString("Row[")
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%#v", k, r.values[k])
	}
	b.WriteString("]")
	return b.String()
}

// Decode stores the row into the fields of the struct pointed to by dest,
// matching keys with "db" tags. Tags without a matching key are an error
// unless they are marked omitempty.
func (r Row) Decode(dest any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot decode row: %w", err)
		}
	}()

	info, err := zreflect.Cache().Reflect(dest)
	if err != nil {
		return err
	}
	st, ok := info.(zreflect.Struct)
	if !ok {
		return fmt.Errorf("need a pointer to a struct, got %T", dest)
	}
	for tag, field := range st.Fields {
		v, ok := r.values[tag]
		if !ok {
			if field.OmitEmpty {
				continue
			}
			return fmt.Errorf("no column %q for field %s", tag, field.Name)
		}
		if err := field.Set(v); err != nil {
			return err
		}
	}
	return nil
}

// Assembler builds rows for one result set.
type Assembler struct {
	fields []Field
	joined bool
}

// NewAssembler returns an assembler for a result set with the given
// fields. With smartJoins set, rows of a result set spanning two or more
// tables also get a table.column key for every field with an owning table.
func NewAssembler(fields []Field, smartJoins bool) *Assembler {
	a := &Assembler{fields: fields}
	if smartJoins {
		tables := map[string]bool{}
		for _, f := range fields {
			if f.Table != "" {
				tables[f.Table] = true
			}
		}
		a.joined = len(tables) >= 2
	}
	return a
}

// Joined reports whether rows get table.column keys.
func (a *Assembler) Joined() bool {
	return a.joined
}

// Assemble builds a row from the values of one result row, in field order.
// When two fields share a name the first value is kept under the plain key.
func (a *Assembler) Assemble(values []any) (row Row, err error) {
	if len(values) != len(a.fields) {
		return Row{}, fmt.Errorf("internal error: %d values for %d fields", len(values), len(a.fields))
	}

	coerced := make([]any, len(values))
	for i, f := range a.fields {
		if coerced[i], err = Coerce(f, values[i]); err != nil {
			return Row{}, err
		}
	}

	row = newRow(len(a.fields))
	for i, f := range a.fields {
		row.add(f.Name, coerced[i])
	}
	if a.joined {
		for i, f := range a.fields {
			if f.Table == "" {
				continue
			}
			column := f.Column
			if column == "" {
				column = f.Name
			}
			row.add(f.Table+"."+column, coerced[i])
		}
	}
	return row, nil
}

type family int

const (
	familyOther family = iota
	familyInt
	familyFloat
	familyBit
)

var families = map[string]family{
	"TINYINT":   familyInt,
	"SMALLINT":  familyInt,
	"MEDIUMINT": familyInt,
	"INT":       familyInt,
	"INTEGER":   familyInt,
	"BIGINT":    familyInt,
	"YEAR":      familyInt,
	"FLOAT":     familyFloat,
	"DOUBLE":    familyFloat,
	"DECIMAL":   familyFloat,
	"REAL":      familyFloat,
	"NUMERIC":   familyFloat,
	"BIT":       familyBit,
	"BOOL":      familyBit,
	"BOOLEAN":   familyBit,
}

// typeFamily returns the family of a native type name. Type names are
// matched without case, length and UNSIGNED or ZEROFILL modifiers.
func typeFamily(typ string) family {
	typ = strings.ToUpper(strings.TrimSpace(typ))
	if i := strings.IndexByte(typ, '('); i >= 0 {
		typ = typ[:i]
	}
	for _, fields := range strings.Fields(typ) {
		if fields == "UNSIGNED" || fields == "ZEROFILL" || fields == "SIGNED" {
			continue
		}
		return families[fields]
	}
	return familyOther
}

// Coerce converts a value read for field f to the Go type matching the
// native type of the column. Drivers that return text for every column have
// their integers, floats and bits converted to int64 (or uint64 when out of
// range), float64 and bool. Other byte slices become strings.
func Coerce(f Field, v any) (any, error) {
	fam := typeFamily(f.Type)
	switch x := v.(type) {
	case []byte:
		if fam == familyBit {
			return bitValue(x), nil
		}
		if fam == familyOther {
			return string(x), nil
		}
		return coerceText(f, fam, string(x))
	case string:
		if fam == familyBit {
			return bitValue([]byte(x)), nil
		}
		if fam == familyOther {
			return x, nil
		}
		return coerceText(f, fam, x)
	case int64:
		if fam == familyBit {
			return x != 0, nil
		}
	}
	return v, nil
}

func coerceText(f Field, fam family, s string) (any, error) {
	switch fam {
	case familyInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: cannot read %q as %s", f.Name, s, f.Type)
		}
		return n, nil
	case familyFloat:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: cannot read %q as %s", f.Name, s, f.Type)
		}
		return n, nil
	}
	return s, nil
}

// bitValue reads a BIT or BOOL value, sent either as text digits or as
// binary bytes.
func bitValue(b []byte) bool {
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		return n != 0
	}
	if v, err := strconv.ParseBool(string(b)); err == nil {
		return v
	}
	for _, c := range b {
		if c != 0 {
			return true
		}
	}
	return false
}
