package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrSafetyViolation is returned when a template contains a quote, a
	// backslash, a control byte or a bare number.
	ErrSafetyViolation = errors.New("unsafe template")

	// ErrMissingParameter is returned when a placeholder has no value.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidIdentifier is returned when a value substituted as an
	// identifier contains characters outside [A-Za-z0-9_-].
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrDuplicateParameter is returned when a parameter key is registered
	// twice.
	ErrDuplicateParameter = errors.New("duplicate parameter")

	// ErrAlreadyFinalized is returned when parameters are added after the
	// template has been compiled.
	ErrAlreadyFinalized = errors.New("template already compiled")

	// ErrInvalidParameterName is returned when a named parameter does not
	// match :name.
	ErrInvalidParameterName = errors.New("invalid parameter name")

	// ErrReservedParameterName is returned when a caller uses the internal
	// :zdb_ prefix, or when an internal parameter lacks it.
	ErrReservedParameterName = errors.New("reserved parameter name")

	// ErrUnencodableValue is returned for values that cannot be written into
	// SQL, such as slices, maps, structs and non-finite floats.
	ErrUnencodableValue = errors.New("unencodable value")

	// ErrTooManyArguments is returned when call arguments exceed three
	// positional values or mix a parameter map with other values.
	ErrTooManyArguments = errors.New("too many arguments")
)

func missingPositionalError(n int) error {
	return fmt.Errorf("%w: no value for positional placeholder %d", ErrMissingParameter, n)
}

func missingNamedError(name string) error {
	return fmt.Errorf("%w: no value for placeholder %s", ErrMissingParameter, name)
}

func alreadyFinalizedError(key string) error {
	return fmt.Errorf("%w: cannot add %s", ErrAlreadyFinalized, key)
}
