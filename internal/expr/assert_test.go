package expr_test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/zdbsql/zdb/internal/expr"
)

type AssertSuite struct{}

var _ = Suite(&AssertSuite{})

func (s *AssertSuite) TestSafeTemplates(c *C) {
	safe := []string{
		"SELECT t1.col_2 FROM t1 WHERE a = ?",
		"SELECT * FROM :_2019_log WHERE x = :v1",
		"SELECT `?` FROM `:_:tbl`",
		"SELECT a$1, é2 FROM t",
		"UPDATE t SET a = a + ? WHERE id = :id",
		"",
	}
	for _, text := range safe {
		c.Check(expr.AssertSafe(text, false), IsNil, Commentf("template %q", text))
	}
}

func (s *AssertSuite) TestUnsafeTemplates(c *C) {
	tests := []struct {
		text string
		msg  string
	}{
		{"SELECT 1 FROM t", `unsafe template: bare number 1 at offset 7 near "SELECT 1 FROM t": pass numbers through a \? or :name placeholder, or a raw value for fixed clauses`},
		{"SELECT a FROM t LIMIT 0x1F", `unsafe template: bare number 0x1F at offset 22 .*`},
		{"SELECT a FROM t WHERE b = 0b101", `unsafe template: bare number 0b101 at offset 26 .*`},
		{"SELECT a FROM t WHERE b = 1e5", `unsafe template: bare number 1e5 at offset 26 .*`},
		{"SELECT a FROM t WHERE b = .5", `unsafe template: bare number 5 at offset 27 .*`},
		{"SELECT a FROM t WHERE b = -3", `unsafe template: bare number 3 at offset 27 .*`},
		{`SELECT a FROM t WHERE b = "x"`, `unsafe template: quote character at offset 26 near .*: pass string values through a \? or :name placeholder`},
		{"SELECT a FROM t WHERE b = ?'", `unsafe template: quote character at offset 27 .*`},
		{`SELECT a\ FROM t`, `unsafe template: backslash at offset 8 .*`},
		{"SELECT a FROM t\x00", `unsafe template: NUL byte at offset 15 .*`},
		{"SELECT a FROM t\x1a", `unsafe template: SUB byte at offset 15 .*`},
	}
	for _, t := range tests {
		err := expr.AssertSafe(t.text, false)
		c.Check(errors.Is(err, expr.ErrSafetyViolation), Equals, true, Commentf("template %q", t.text))
		c.Check(err, ErrorMatches, t.msg, Commentf("template %q", t.text))
	}
}

func (s *AssertSuite) TestAllowBareNumbers(c *C) {
	c.Check(expr.AssertSafe("SELECT 1 FROM t LIMIT 10", true), IsNil)
	err := expr.AssertSafe("SELECT 1 FROM t WHERE a = 'b'", true)
	c.Check(errors.Is(err, expr.ErrSafetyViolation), Equals, true)
}

func (s *AssertSuite) TestFragmentIsBounded(c *C) {
	text := "SELECT aaaaaaaaaaaaaaaaaaaaaaaaaaaa, bbbbbbbbbbbbbbbbbbbbbbbbbbbbb, 7, cccccccccccccccccccccccccc FROM t"
	err := expr.AssertSafe(text, false)
	c.Check(err, ErrorMatches, `unsafe template: bare number 7 at offset 68 near "bbbbbbbbbbbbbb, 7, ccccccccccccc": .*`)
}
