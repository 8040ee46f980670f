package expr

import (
	"strings"
)

// Kind is the kind of statement a template starts with.
type Kind int

const (
	KindOther Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
)

// IsDML reports whether statements of this kind are run as prepared
// statements with bound values.
func (k Kind) IsDML() bool {
	return k != KindOther
}

// ReturnsRows reports whether a prepared statement of this kind produces a
// result set.
func (k Kind) ReturnsRows() bool {
	return k == KindSelect
}

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	}
	return "OTHER"
}

// statementKind classifies text by its first keyword. Leading whitespace and
// opening parentheses are skipped so that "(SELECT ...) UNION ..." is a
// select.
func statementKind(text string) Kind {
	text = strings.TrimLeft(text, " \t\r\n(")
	end := 0
	for end < len(text) && isInitialNameChar(rune(text[end])) {
		end++
	}
	switch strings.ToUpper(text[:end]) {
	case "SELECT":
		return KindSelect
	case "INSERT", "REPLACE":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	}
	return KindOther
}
