package expr

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// InternalPrefix starts the names of parameters derived by the compiler.
// Callers cannot register or reference them.
const InternalPrefix = ":zdb_"

// maxScalarArgs is the largest number of bare positional values accepted by
// AddFromCallArguments. More values must be passed in an M.
const maxScalarArgs = 3

var namedKeyPattern = regexp.MustCompile(`^:[A-Za-z]\w*$`)

// M holds call arguments by key. Integer keys are positional values, added
// in ascending key order. String keys are named values, with or without the
// leading colon.
type M map[any]any

// Params is the ordered set of values a template is compiled with.
// Positional values are keyed :1, :2, ... in the order they are added.
type Params struct {
	keys     []string
	values   map[string]any
	fromArgs bool
	frozen   bool
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: map[string]any{}}
}

// AddFromCallArguments adds the arguments of a query call. These are either
// at most three positional values, or a single M (or map[string]any of named
// values). It can only be used once per parameter set.
func (p *Params) AddFromCallArguments(args ...any) error {
	if p.fromArgs {
		return fmt.Errorf("%w: call arguments already added", ErrDuplicateParameter)
	}
	p.fromArgs = true

	for _, arg := range args {
		switch arg.(type) {
		case M, map[string]any:
			if len(args) != 1 {
				return fmt.Errorf("%w: cannot mix a parameter map with %d other arguments", ErrTooManyArguments, len(args)-1)
			}
		}
	}

	if len(args) == 1 {
		switch m := args[0].(type) {
		case M:
			return p.addMap(m)
		case map[string]any:
			mm := make(M, len(m))
			for k, v := range m {
				mm[k] = v
			}
			return p.addMap(mm)
		}
	}

	if len(args) > maxScalarArgs {
		return fmt.Errorf("%w: got %d positional values, pass more than %d in a map", ErrTooManyArguments, len(args), maxScalarArgs)
	}
	for _, arg := range args {
		if _, err := p.AddPositional(arg); err != nil {
			return err
		}
	}
	return nil
}

// addMap adds the positional entries of m, then the named ones.
func (p *Params) addMap(m M) error {
	var positions []int64
	byPosition := map[int64]any{}
	var names []string
	byName := map[string]any{}
	for k, v := range m {
		rk := reflect.ValueOf(k)
		switch {
		case k == nil:
			return fmt.Errorf("%w: nil key", ErrInvalidParameterName)
		case rk.Kind() == reflect.String:
			name := rk.String()
			if !strings.HasPrefix(name, ":") {
				name = ":" + name
			}
			if _, ok := byName[name]; ok {
				return fmt.Errorf("%w: %s given twice", ErrDuplicateParameter, name)
			}
			names = append(names, name)
			byName[name] = v
		case rk.CanInt():
			positions = append(positions, rk.Int())
			byPosition[rk.Int()] = v
		case rk.CanUint():
			if rk.Uint() > math.MaxInt64 {
				return fmt.Errorf("%w: positional key %d out of range", ErrInvalidParameterName, rk.Uint())
			}
			positions = append(positions, int64(rk.Uint()))
			byPosition[int64(rk.Uint())] = v
		default:
			return fmt.Errorf("%w: key of type %T", ErrInvalidParameterName, k)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	sort.Strings(names)

	for _, pos := range positions {
		if _, err := p.AddPositional(byPosition[pos]); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := p.AddNamed(name, byName[name]); err != nil {
			return err
		}
	}
	return nil
}

// AddPositional adds v under the next unused positional key and returns that
// key.
func (p *Params) AddPositional(v any) (string, error) {
	n := 1
	for {
		if _, ok := p.values[":"+strconv.Itoa(n)]; !ok {
			break
		}
		n++
	}
	key := ":" + strconv.Itoa(n)
	if err := p.set(key, v); err != nil {
		return "", err
	}
	return key, nil
}

// AddNamed adds v under name, which must look like :name and must not use
// the internal prefix.
func (p *Params) AddNamed(name string, v any) error {
	if !namedKeyPattern.MatchString(name) {
		return fmt.Errorf("%w: %q, expected :name with name starting with a letter", ErrInvalidParameterName, name)
	}
	if strings.HasPrefix(name, InternalPrefix) {
		return fmt.Errorf("%w: %s uses the internal prefix %s", ErrReservedParameterName, name, InternalPrefix)
	}
	return p.set(name, v)
}

// AddInternal adds a parameter derived by the compiler. The name must use
// the internal prefix.
func (p *Params) AddInternal(name string, v any) error {
	if !strings.HasPrefix(name, InternalPrefix) || !namedKeyPattern.MatchString(name) {
		return fmt.Errorf("%w: internal parameter %q must match %s<name>", ErrReservedParameterName, name, InternalPrefix)
	}
	return p.set(name, v)
}

func (p *Params) set(key string, v any) error {
	if p.frozen {
		return alreadyFinalizedError(key)
	}
	if _, ok := p.values[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateParameter, key)
	}
	nv, err := normalizeValue(v)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	p.keys = append(p.keys, key)
	p.values[key] = nv
	return nil
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the parameter keys in the order they were added.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.keys)
}

// Frozen reports whether the set can still be changed.
func (p *Params) Frozen() bool {
	return p.frozen
}

func (p *Params) freeze() {
	p.frozen = true
}

func (p *Params) String() string {
	var b strings.Builder
	b.WriteString("Params[")
	for i, k := range p.keys {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%#v", k, p.values[k])
	}
	b.WriteString("]")
	return b.String()
}

// normalizeValue unwraps presentation wrappers and converts v to one of
// nil, string, bool, int64, uint64, float64 or RawSQL.
func normalizeValue(v any) (any, error) {
	if rv, ok := v.(RawValuer); ok {
		v = rv.RawValue()
	}
	switch x := v.(type) {
	case nil, string, bool, int64, uint64, RawSQL:
		return x, nil
	case []byte:
		return string(x), nil
	case float64:
		return checkFloat(x)
	case float32:
		return checkFloat(float64(x))
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.String:
		return val.String(), nil
	case reflect.Bool:
		return val.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return val.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return checkFloat(val.Float())
	case reflect.Pointer:
		if val.IsNil() {
			return nil, nil
		}
		return normalizeValue(val.Elem().Interface())
	}
	return nil, fmt.Errorf("%w: %T", ErrUnencodableValue, v)
}

func checkFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnencodableValue, f)
	}
	return f, nil
}
