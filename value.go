package zdb

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
)

// Value decorates a fetched cell for presentation. Encodings are explicit:
// a Value is never escaped implicitly. Values can be passed back as query
// arguments, the raw value is used.
type Value struct {
	raw any
}

// NewValue wraps v.
func NewValue(v any) Value {
	return Value{raw: v}
}

// Cell returns the value stored under key in row. Missing keys give a null
// value.
func Cell(row Row, key string) Value {
	return Value{raw: row.Value(key)}
}

// RawValue returns the wrapped value unchanged.
func (v Value) RawValue() any {
	return v.raw
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool {
	return v.raw == nil
}

// String returns the value as plain text. NULL is the empty string and
// booleans are 1 or 0.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v.raw)
}

// HTML returns the value escaped for HTML text and attribute values.
func (v Value) HTML() string {
	return html.EscapeString(v.String())
}

// URL returns the value escaped for a URL query component.
func (v Value) URL() string {
	return url.QueryEscape(v.String())
}

// JSON returns the value encoded as JSON. Byte slices are encoded as
// strings.
func (v Value) JSON() (string, error) {
	raw := v.raw
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("cannot encode value as JSON: %w", err)
	}
	return string(data), nil
}
