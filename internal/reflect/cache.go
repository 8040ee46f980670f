package reflect

import (
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Cache is responsible for generating, caching and retrieving reflection
// information for the structs rows are decoded into.
type cache struct {
	mutex sync.RWMutex
	cache map[reflect.Type][]fieldSpec
}

// fieldSpec is the cached, value independent description of a tagged struct
// field.
type fieldSpec struct {
	tag       string
	name      string
	index     []int
	omitEmpty bool
}

// Reflect will return the Info of a given value, generating and caching the
// field layout of its type as required.
func (r *cache) Reflect(value any) (Info, error) {
	v := reflect.ValueOf(value)
	v = reflect.Indirect(v)
	if !v.IsValid() {
		return nil, errors.New("cannot reflect on a nil value")
	}

	// If this is a not a struct, we can not provide
	// any further reflection information.
	if v.Kind() != reflect.Struct {
		return Value{value: v}, nil
	}

	r.mutex.RLock()
	specs, ok := r.cache[v.Type()]
	r.mutex.RUnlock()

	if !ok {
		var err error
		specs, err = generate(v.Type())
		if err != nil {
			return Struct{}, err
		}
		r.mutex.Lock()
		r.cache[v.Type()] = specs
		r.mutex.Unlock()
	}

	info := Struct{
		Fields: make(map[string]Field, len(specs)),
		value:  v,
	}
	for _, spec := range specs {
		info.Fields[spec.tag] = Field{
			Name:      spec.name,
			OmitEmpty: spec.omitEmpty,
			value:     v.FieldByIndex(spec.index),
		}
	}
	return info, nil
}

// generate produces the tagged fields of the struct type typ, including the
// fields of embedded structs.
func generate(typ reflect.Type) ([]fieldSpec, error) {
	var specs []fieldSpec
	seen := map[string]bool{}
	for _, field := range reflect.VisibleFields(typ) {
		// Fields without a "db" tag are outside of zdb's remit.
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		tag, omitEmpty, err := parseTag(tag)
		if err != nil {
			return nil, err
		}
		if seen[tag] {
			return nil, errors.Errorf("tag %q appears more than once in %s", tag, typ.Name())
		}
		seen[tag] = true

		specs = append(specs, fieldSpec{
			tag:       tag,
			name:      field.Name,
			index:     field.Index,
			omitEmpty: omitEmpty,
		})
	}
	return specs, nil
}

// parseTag parses the input tag string and returns its
// name and whether it contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	if len(options) > 1 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, errors.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	return options[0], omitEmpty, nil
}
