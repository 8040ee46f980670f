package expr

import (
	"strconv"
)

// A queryPart represents a section of a parsed template. The parsed template
// is represented as a list of queryParts.
type queryPart interface {
	// String returns a string representation of the part for debugging and
	// testing purposes.
	String() string

	// part is a marker method.
	part()
}

// placeholder identifies the parameter a value or identifier part resolves
// to. Positional placeholders carry their 1-based position in the template.
type placeholder struct {
	// position is set for ? placeholders and zero for named ones.
	position int
	// name is the :name key of a named placeholder.
	name string
}

// key returns the parameter key the placeholder resolves to.
func (ph placeholder) key() string {
	if ph.position > 0 {
		return ":" + strconv.Itoa(ph.position)
	}
	return ph.name
}

func (ph placeholder) missingError() error {
	if ph.position > 0 {
		return missingPositionalError(ph.position)
	}
	return missingNamedError(ph.name)
}

func (ph placeholder) String() string {
	return ph.key()
}

// valuePart is a placeholder replaced by a value: a literal, a bound ? or a
// raw fragment.
type valuePart struct {
	ph  placeholder
	raw string
}

func (p *valuePart) String() string {
	return "Value[" + p.ph.String() + "]"
}

// Marker function for queryPart.
func (p *valuePart) part() {}

// identifierPart is a backtick-quoted placeholder replaced by a validated,
// backtick-quoted identifier, optionally preceded by the table prefix.
type identifierPart struct {
	ph       placeholder
	prefixed bool
	raw      string
}

func (p *identifierPart) String() string {
	if p.prefixed {
		return "Identifier[:_" + p.ph.String() + "]"
	}
	return "Identifier[" + p.ph.String() + "]"
}

// Marker function for queryPart.
func (p *identifierPart) part() {}

// prefixPart is a bare :_ or :: marker replaced by the table prefix.
type prefixPart struct {
	raw string
}

func (p *prefixPart) String() string {
	return "Prefix[" + p.raw + "]"
}

// Marker function for queryPart.
func (p *prefixPart) part() {}

// bypassPart represents a part of the template passed to the database
// verbatim.
type bypassPart struct {
	chunk string
}

func (p *bypassPart) String() string {
	return "Bypass[" + p.chunk + "]"
}

// Marker function for queryPart.
func (p *bypassPart) part() {}
