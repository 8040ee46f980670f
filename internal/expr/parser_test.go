// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"errors"

	. "gopkg.in/check.v1"
)

type ParserSuite struct{}

var _ = Suite(&ParserSuite{})

var parserTests = []struct {
	summary          string
	input            string
	expectedParsed   string
	expectedTemplate string
}{{
	summary:        "no placeholders",
	input:          "SELECT a, b FROM t",
	expectedParsed: "ParsedTemplate[Bypass[SELECT a, b FROM t]]",
}, {
	summary:        "prefix and positional value",
	input:          "SELECT * FROM :_users WHERE num = ?",
	expectedParsed: "ParsedTemplate[Bypass[SELECT * FROM ] Prefix[:_] Bypass[users WHERE num = ] Value[:1]]",
}, {
	summary:        "double colon prefix and named values",
	input:          "SELECT * FROM ::users WHERE id = :id AND name = :name",
	expectedParsed: "ParsedTemplate[Bypass[SELECT * FROM ] Prefix[::] Bypass[users WHERE id = ] Value[:id] Bypass[ AND name = ] Value[:name]]",
}, {
	summary:        "positional counter shared by values and identifiers",
	input:          "SELECT `?`, `:_?` FROM `:::tbl` WHERE a = ? AND b = `::?`",
	expectedParsed: "ParsedTemplate[Bypass[SELECT ] Identifier[:1] Bypass[, ] Identifier[:_:2] Bypass[ FROM ] Identifier[:_:tbl] Bypass[ WHERE a = ] Value[:3] Bypass[ AND b = ] Identifier[:_:4]]",
}, {
	summary:        "named identifiers",
	input:          "SELECT `:col` FROM `:_:tbl`",
	expectedParsed: "ParsedTemplate[Bypass[SELECT ] Identifier[:col] Bypass[ FROM ] Identifier[:_:tbl]]",
}, {
	summary:        "quoted identifier with literal name and prefix",
	input:          "SELECT * FROM `:_log`",
	expectedParsed: "ParsedTemplate[Bypass[SELECT * FROM `] Prefix[:_] Bypass[log`]]",
}, {
	summary:        "unterminated identifier placeholder",
	input:          "SELECT `:col FROM t",
	expectedParsed: "ParsedTemplate[Bypass[SELECT `] Value[:col] Bypass[ FROM t]]",
}, {
	summary:        "assignment operator is not a placeholder",
	input:          "SET @x := :v",
	expectedParsed: "ParsedTemplate[Bypass[SET @x := ] Value[:v]]",
}, {
	summary:        "digits inside identifiers and names",
	input:          "SELECT col_2 FROM t1 WHERE x = :x2",
	expectedParsed: "ParsedTemplate[Bypass[SELECT col_2 FROM t1 WHERE x = ] Value[:x2]]",
}, {
	summary:          "trailing limit",
	input:            "SELECT a FROM t LIMIT 10",
	expectedParsed:   "ParsedTemplate[Bypass[SELECT a FROM t LIMIT ] Value[:zdb_limit]]",
	expectedTemplate: "SELECT a FROM t LIMIT :zdb_limit",
}, {
	summary:          "trailing limit in lower case with trailing space",
	input:            "select a from t limit\n  25  ",
	expectedParsed:   "ParsedTemplate[Bypass[select a from t limit\n] Value[:zdb_limit] Bypass[  ]]",
	expectedTemplate: "select a from t limit\n:zdb_limit  ",
}, {
	summary:          "leading whitespace stripped from every line",
	input:            "SELECT a\n    FROM t\n\tWHERE b = ?",
	expectedParsed:   "ParsedTemplate[Bypass[SELECT a\nFROM t\nWHERE b = ] Value[:1]]",
	expectedTemplate: "SELECT a\nFROM t\nWHERE b = ?",
}}

func (s *ParserSuite) TestRound(c *C) {
	parser := NewParser()
	for i, t := range parserTests {
		pt, err := parser.Parse(t.input)
		c.Assert(err, IsNil, Commentf("test %d failed (%s):\ninput: %s", i, t.summary, t.input))
		c.Check(pt.String(), Equals, t.expectedParsed, Commentf("test %d failed (%s)", i, t.summary))
		if t.expectedTemplate != "" {
			c.Check(pt.Template(), Equals, t.expectedTemplate, Commentf("test %d failed (%s)", i, t.summary))
		}
	}
}

func (s *ParserSuite) TestTrailingLimitInternalParameter(c *C) {
	pt, err := Parse("SELECT a FROM t WHERE b = ? LIMIT 10", false)
	c.Assert(err, IsNil)
	c.Assert(pt.internal, HasLen, 1)
	c.Check(pt.internal[0].name, Equals, ":zdb_limit")
	c.Check(pt.internal[0].value, Equals, NewRawSQL("10"))

	pt, err = Parse("SELECT a FROM t WHERE b = ?", false)
	c.Assert(err, IsNil)
	c.Check(pt.internal, HasLen, 0)
}

func (s *ParserSuite) TestParseErrors(c *C) {
	tests := []struct {
		summary string
		input   string
		err     error
		msg     string
	}{{
		summary: "single quote",
		input:   "SELECT * FROM t WHERE a = 'x'",
		err:     ErrSafetyViolation,
		msg:     `cannot parse template: unsafe template: quote character at offset 26 near .*`,
	}, {
		summary: "bare number",
		input:   "SELECT * FROM t WHERE a = 1",
		err:     ErrSafetyViolation,
		msg:     `cannot parse template: unsafe template: bare number 1 at offset 26 near .*`,
	}, {
		summary: "limit with a separator is not rewritten",
		input:   "SELECT a FROM t; SELECT b FROM u LIMIT 10",
		err:     ErrSafetyViolation,
		msg:     `cannot parse template: unsafe template: bare number 10 at offset .*`,
	}, {
		summary: "limit with offset is not rewritten",
		input:   "SELECT a FROM t LIMIT 10, 20",
		err:     ErrSafetyViolation,
		msg:     `cannot parse template: unsafe template: bare number 10 at offset 22 near .*`,
	}, {
		summary: "reserved name",
		input:   "SELECT * FROM t WHERE a = :zdb_x",
		err:     ErrReservedParameterName,
		msg:     `cannot parse template: reserved parameter name: placeholder :zdb_x uses the internal prefix :zdb_`,
	}, {
		summary: "reserved name used next to a rewritten limit",
		input:   "SELECT * FROM t WHERE a = :zdb_limit LIMIT 5",
		err:     ErrReservedParameterName,
		msg:     `cannot parse template: reserved parameter name: placeholder :zdb_limit uses the internal prefix :zdb_`,
	}, {
		summary: "reserved name as identifier",
		input:   "SELECT * FROM `:zdb_t`",
		err:     ErrReservedParameterName,
		msg:     `cannot parse template: reserved parameter name: placeholder :zdb_t uses the internal prefix :zdb_`,
	}}
	for i, t := range tests {
		_, err := Parse(t.input, false)
		c.Assert(err, NotNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(errors.Is(err, t.err), Equals, true, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(err, ErrorMatches, t.msg, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *ParserSuite) TestAllowBareNumbers(c *C) {
	pt, err := Parse("SELECT a FROM t WHERE b > 3 AND c = ?", true)
	c.Assert(err, IsNil)
	c.Check(pt.String(), Equals, "ParsedTemplate[Bypass[SELECT a FROM t WHERE b > 3 AND c = ] Value[:1]]")

	_, err = Parse("SELECT a FROM t WHERE b = 'x'", true)
	c.Check(errors.Is(err, ErrSafetyViolation), Equals, true)
}

func (s *ParserSuite) TestStatementKind(c *C) {
	tests := []struct {
		input string
		kind  Kind
		dml   bool
	}{
		{"SELECT a FROM t", KindSelect, true},
		{"  \n(SELECT a FROM t) UNION (SELECT b FROM u)", KindSelect, true},
		{"insert into t (a) values (?)", KindInsert, true},
		{"REPLACE INTO t (a) VALUES (?)", KindInsert, true},
		{"Update t SET a = ?", KindUpdate, true},
		{"DELETE FROM t WHERE a = ?", KindDelete, true},
		{"SHOW TABLES", KindOther, false},
		{"DESCRIBE t", KindOther, false},
		{"SELECTED", KindOther, false},
		{"", KindOther, false},
	}
	for _, t := range tests {
		pt, err := Parse(t.input, false)
		c.Assert(err, IsNil)
		c.Check(pt.Kind(), Equals, t.kind, Commentf("input: %q", t.input))
		c.Check(pt.Kind().IsDML(), Equals, t.dml, Commentf("input: %q", t.input))
	}
}
