package reflect

import (
	"database/sql"
	"reflect"

	"github.com/pkg/errors"
)

// Info describes the ability to return reflection information.
type Info interface {
	Name() string
	Kind() reflect.Kind
}

// Value represents reflection information for a simple type.
// It wraps a reflect.Value in order to implement Info.
type Value struct {
	value reflect.Value
}

// Kind returns the Value's reflect.Kind.
func (r Value) Kind() reflect.Kind {
	return r.value.Kind()
}

// Name returns the name of the Value's type.
func (r Value) Name() string {
	return r.value.Type().Name()
}

// Field represents a single field from a struct value.
type Field struct {
	value reflect.Value

	// Name is the name of the struct field.
	Name string

	// OmitEmpty is true when "omitempty" is
	// a property of the field's "db" tag.
	OmitEmpty bool
}

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Set stores v in the field. Fields implementing sql.Scanner scan v, nil
// sets the zero value, pointer fields are allocated and other values are
// converted when their kinds are compatible.
func (f Field) Set(v any) error {
	if !f.value.CanSet() {
		return errors.Errorf("field %s cannot be set", f.Name)
	}
	if f.value.CanAddr() && f.value.Addr().Type().Implements(scannerType) {
		return f.value.Addr().Interface().(sql.Scanner).Scan(v)
	}
	if v == nil {
		f.value.Set(reflect.Zero(f.value.Type()))
		return nil
	}
	dest := f.value
	if dest.Kind() == reflect.Pointer {
		ptr := reflect.New(dest.Type().Elem())
		if err := setValue(ptr.Elem(), v); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
		dest.Set(ptr)
		return nil
	}
	if err := setValue(dest, v); err != nil {
		return errors.Wrapf(err, "field %s", f.Name)
	}
	return nil
}

func setValue(dest reflect.Value, v any) error {
	src := reflect.ValueOf(v)
	if b, ok := v.([]byte); ok && dest.Kind() == reflect.String {
		dest.SetString(string(b))
		return nil
	}
	if src.Type().AssignableTo(dest.Type()) {
		dest.Set(src)
		return nil
	}
	if compatibleKinds(src.Kind(), dest.Kind()) && src.Type().ConvertibleTo(dest.Type()) {
		dest.Set(src.Convert(dest.Type()))
		return nil
	}
	return errors.Errorf("cannot store %s in %s", src.Type(), dest.Type())
}

// compatibleKinds excludes the conversions reflect allows that change the
// meaning of a value, such as int to string.
func compatibleKinds(src, dest reflect.Kind) bool {
	class := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return 1
		case reflect.String:
			return 2
		case reflect.Bool:
			return 3
		}
		return 0
	}
	return class(src) != 0 && class(src) == class(dest)
}

// Struct represents reflected information about a struct value.
type Struct struct {
	value reflect.Value

	// Fields maps "db" tags to struct fields.
	// zdb does not care about fields without a "db" tag.
	Fields map[string]Field
}

// Kind returns the Struct's reflect.Kind.
func (r Struct) Kind() reflect.Kind {
	return r.value.Kind()
}

// Name returns the name of the Struct's type.
func (r Struct) Name() string {
	return r.value.Type().Name()
}
