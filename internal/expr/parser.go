// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// limitParam is the internal parameter carrying a trailing LIMIT.
const limitParam = InternalPrefix + "limit"

var (
	// trailingLimitPattern matches a literal LIMIT clause ending the
	// template.
	trailingLimitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+([0-9]+)\s*$`)
	lineIndentPattern    = regexp.MustCompile(`(?m)^[ \t]+`)
)

func NewParser() *Parser {
	return &Parser{}
}

type Parser struct {
	// AllowBareNumbers disables the bare number check of AssertSafe.
	AllowBareNumbers bool

	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
	// prevPartEnd is the value of pos when we last finished parsing a
	// placeholder.
	prevPartEnd int
	// currentPartStart is the value of pos just before we started parsing
	// the placeholder under pos. We maintain currentPartStart >= prevPartEnd.
	currentPartStart int
	// parts are the output of the parser. Parts are added as they are
	// parsed.
	parts []queryPart
	// positional counts the positional placeholders parsed so far.
	positional int
	// internalAt is the offset of the placeholder inserted by the LIMIT
	// rewrite, or -1. Internal names found anywhere else are rejected.
	internalAt int
}

// ParsedTemplate is a template that passed the safety checks, split into
// the parts the compiler substitutes. It is immutable and may be shared by
// any number of compilers.
type ParsedTemplate struct {
	template string
	parts    []queryPart
	internal []internalParam
	kind     Kind
}

// internalParam is a parameter the parser derived from the template itself.
type internalParam struct {
	name  string
	value RawSQL
}

// Template returns the template text after the pre-scan rewrites.
func (pt *ParsedTemplate) Template() string {
	return pt.template
}

// Kind returns the kind of statement the template starts with.
func (pt *ParsedTemplate) Kind() Kind {
	return pt.kind
}

// String returns a textual representation of the parts for debugging and
// testing.
func (pt *ParsedTemplate) String() string {
	var b strings.Builder
	b.WriteString("ParsedTemplate[")
	for i, part := range pt.parts {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(part.String())
	}
	b.WriteString("]")
	return b.String()
}

// Parse rewrites the template, checks it with AssertSafe and splits it into
// placeholders and verbatim SQL.
func (p *Parser) Parse(input string) (pt *ParsedTemplate, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot parse template: %w", err)
		}
	}()

	text := lineIndentPattern.ReplaceAllString(input, "")
	var internal []internalParam
	text, internal, p.internalAt = rewriteTrailingLimit(text)

	if err := AssertSafe(text, p.AllowBareNumbers); err != nil {
		return nil, err
	}

	p.init(text)
	for p.pos < len(p.input) {
		p.currentPartStart = p.pos

		if part, ok, err := p.parsePlaceholder(); err != nil {
			return nil, err
		} else if ok {
			p.add(part)
			continue
		}

		// No placeholder found, advance the parser.
		p.advanceChar()
	}

	// Add any remaining unparsed input.
	p.currentPartStart = p.pos
	p.add(nil)
	return &ParsedTemplate{
		template: text,
		parts:    p.parts,
		internal: internal,
		kind:     statementKind(text),
	}, nil
}

// rewriteTrailingLimit replaces the number of a trailing "LIMIT n" with the
// internal limit placeholder so that it is not scanned as a bare number.
// Templates with a statement separator are left alone.
func rewriteTrailingLimit(text string) (string, []internalParam, int) {
	if strings.Contains(text, ";") {
		return text, nil, -1
	}
	m := trailingLimitPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return text, nil, -1
	}
	from, to := m[2], m[3]
	limit := internalParam{name: limitParam, value: NewRawSQL(text[from:to])}
	return text[:from] + limitParam + text[to:], []internalParam{limit}, from
}

// init resets the state of the parser and sets the input string.
func (p *Parser) init(input string) {
	p.input = input
	p.pos = 0
	p.nextPos = 0
	p.char = 0
	p.prevPartEnd = 0
	p.currentPartStart = 0
	p.parts = []queryPart{}
	p.positional = 0
	p.advanceChar()
}

// advanceChar moves the parser to the next character in the input.
func (p *Parser) advanceChar() bool {
	if p.nextPos >= len(p.input) {
		p.char = 0
		p.pos = p.nextPos
		return false
	}
	var size int
	p.char, size = utf8.DecodeRuneInString(p.input[p.nextPos:])
	p.pos = p.nextPos
	p.nextPos += size
	return true
}

// A checkpoint struct for saving parser state to restore later. We only use a
// checkpoint within an attempted parsing of a placeholder.
type checkpoint struct {
	parser  *Parser
	pos     int
	nextPos int
	char    rune
}

// save takes a snapshot of the state of the parser and returns a pointer to a
// checkpoint that represents it.
func (p *Parser) save() *checkpoint {
	return &checkpoint{
		parser:  p,
		pos:     p.pos,
		nextPos: p.nextPos,
		char:    p.char,
	}
}

// restore sets the internal state of the parser to the values stored in the
// checkpoint.
func (cp *checkpoint) restore() {
	cp.parser.pos = cp.pos
	cp.parser.nextPos = cp.nextPos
	cp.parser.char = cp.char
}

// add pushes the parsed placeholder to the list of parts along with the
// bypass chunk that stretches from the end of the previous placeholder to the
// beginning of this one.
func (p *Parser) add(part queryPart) {
	if p.prevPartEnd != p.currentPartStart {
		p.parts = append(p.parts,
			&bypassPart{p.input[p.prevPartEnd:p.currentPartStart]})
	}

	if part != nil {
		p.parts = append(p.parts, part)
	}

	p.prevPartEnd = p.pos
	p.currentPartStart = p.pos
}

// skipChar jumps over the current char if it matches the char passed as a
// parameter. Returns true in that case, false otherwise.
func (p *Parser) skipChar(c rune) bool {
	if p.pos < len(p.input) && p.char == c {
		p.advanceChar()
		return true
	}
	return false
}

// skipString advances the parser and jumps over the string passed as
// parameter. In that case returns true, false otherwise.
func (p *Parser) skipString(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		var size int
		p.char, size = utf8.DecodeRuneInString(p.input[p.pos:])
		p.nextPos = p.pos + size
		return true
	}
	return false
}

// isNameChar returns true if the given char can be part of a parameter name.
func isNameChar(c rune) bool {
	return isInitialNameChar(c) || ('0' <= c && c <= '9') || c == '_'
}

// isInitialNameChar returns true if the given char can start a parameter
// name.
func isInitialNameChar(c rune) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Functions with the prefix parse attempt to parse some construct. They return
// the construct, and an error and/or a bool that indicates if the construct
// was successfully parsed.
//
// Return cases:
//  - bool == true, err == nil
//		The construct was successfully parsed
//  - bool == false, err != nil
//		The construct was recognised but is not allowed
//  - bool == false, err == nil
//		The construct was not the one we are looking for

// parsePlaceholder tries every placeholder form, by precedence, at the
// current position.
func (p *Parser) parsePlaceholder() (queryPart, bool, error) {
	switch p.char {
	case '?':
		p.advanceChar()
		return &valuePart{ph: p.nextPositional(), raw: "?"}, true, nil
	case '`':
		return p.parseIdentifierPlaceholder()
	case ':':
		start := p.pos
		if name, ok, err := p.parseName(); err != nil {
			return nil, false, err
		} else if ok {
			return &valuePart{ph: placeholder{name: name}, raw: p.input[start:p.pos]}, true, nil
		}
		if p.skipString(":_") || p.skipString("::") {
			return &prefixPart{raw: p.input[start:p.pos]}, true, nil
		}
	}
	return nil, false, nil
}

// parseIdentifierPlaceholder parses the backtick-quoted forms `?`, `:_?`,
// `::?`, `:name`, `:_:name` and `:::name`.
func (p *Parser) parseIdentifierPlaceholder() (queryPart, bool, error) {
	cp := p.save()
	start := p.pos
	if !p.skipChar('`') {
		return nil, false, nil
	}

	prefixed := p.skipString(":_") || p.skipString("::")

	var ph placeholder
	positional := false
	if p.skipChar('?') {
		positional = true
	} else if name, ok, err := p.parseName(); err != nil {
		cp.restore()
		return nil, false, err
	} else if ok {
		ph.name = name
	} else {
		cp.restore()
		return nil, false, nil
	}

	if !p.skipChar('`') {
		cp.restore()
		return nil, false, nil
	}
	if positional {
		ph = p.nextPositional()
	}
	return &identifierPart{ph: ph, prefixed: prefixed, raw: p.input[start:p.pos]}, true, nil
}

// parseName parses a named placeholder of the form :name, where name starts
// with a letter, and returns it with its colon.
func (p *Parser) parseName() (string, bool, error) {
	cp := p.save()
	start := p.pos
	if !p.skipChar(':') {
		return "", false, nil
	}
	if !isInitialNameChar(p.char) {
		cp.restore()
		return "", false, nil
	}
	for p.pos < len(p.input) && isNameChar(p.char) {
		p.advanceChar()
	}
	name := p.input[start:p.pos]
	if strings.HasPrefix(name, InternalPrefix) && start != p.internalAt {
		cp.restore()
		return "", false, fmt.Errorf("%w: placeholder %s uses the internal prefix %s", ErrReservedParameterName, name, InternalPrefix)
	}
	return name, true, nil
}

// nextPositional returns the placeholder for the next ? in the template.
func (p *Parser) nextPositional() placeholder {
	p.positional++
	return placeholder{position: p.positional}
}
