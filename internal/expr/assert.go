package expr

import (
	"fmt"
	"regexp"
)

// fragmentRadius is the number of bytes shown either side of an offending
// character in safety errors.
const fragmentRadius = 16

// bareNumberPattern matches a run of word characters that SQL reads as a
// numeric literal rather than as part of an identifier.
var bareNumberPattern = regexp.MustCompile(`^(?:[0-9]+(?:[eE][0-9]*)?|0[xX][0-9a-fA-F]+|0[bB][01]+)$`)

// AssertSafe checks a template before any value is substituted into it. It
// rejects quote characters, backslashes, NUL and SUB bytes and, unless
// allowBareNumbers is set, numeric literals that are not part of an
// identifier. Values belong in placeholders, never in the template text.
func AssertSafe(text string, allowBareNumbers bool) error {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\'', '"':
			return safetyError(text, i, "quote character",
				"pass string values through a ? or :name placeholder")
		case '\\':
			return safetyError(text, i, "backslash",
				"pass the value through a ? or :name placeholder")
		case 0x00:
			return safetyError(text, i, "NUL byte", "remove it from the template")
		case 0x1a:
			return safetyError(text, i, "SUB byte", "remove it from the template")
		}
	}
	if allowBareNumbers {
		return nil
	}

	start := -1
	for i := 0; i <= len(text); i++ {
		if i < len(text) && isWordByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if word := text[start:i]; bareNumberPattern.MatchString(word) {
				return safetyError(text, start, fmt.Sprintf("bare number %s", word),
					"pass numbers through a ? or :name placeholder, or a raw value for fixed clauses")
			}
			start = -1
		}
	}
	return nil
}

// isWordByte reports whether c can be part of an unquoted identifier. Bytes
// of multi-byte UTF-8 sequences count as word bytes.
func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// safetyError reports what was found at pos, the text around it and how to
// fix the template.
func safetyError(text string, pos int, what string, remedy string) error {
	from := pos - fragmentRadius
	if from < 0 {
		from = 0
	}
	to := pos + fragmentRadius
	if to > len(text) {
		to = len(text)
	}
	return fmt.Errorf("%w: %s at offset %d near %q: %s", ErrSafetyViolation, what, pos, text[from:to], remedy)
}
