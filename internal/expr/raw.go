package expr

// RawSQL is a SQL fragment written into the compiled query verbatim, without
// quoting or escaping, in both compilation modes. It is never sent as a bound
// parameter.
type RawSQL struct {
	sql string
}

// NewRawSQL wraps sql. The fragment is trusted as is.
func NewRawSQL(sql string) RawSQL {
	return RawSQL{sql: sql}
}

// String returns the wrapped fragment.
func (r RawSQL) String() string {
	return r.sql
}

// RawValuer is implemented by presentation wrappers around parameter values.
// Parameter setters store the result of RawValue instead of the wrapper.
type RawValuer interface {
	RawValue() any
}
