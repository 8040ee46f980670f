package expr

import (
	. "gopkg.in/check.v1"
)

type parseHelperTest struct {
	charf   func(rune) bool
	stringf func(string) bool
	result  []bool
	input   string
	data    []string
}

func (s *ParserSuite) TestRunTable(c *C) {
	var p = NewParser()
	var parseTests = []parseHelperTest{

		{charf: p.skipChar, result: []bool{false}, input: "", data: []string{"a"}},
		{charf: p.skipChar, result: []bool{false}, input: "abc", data: []string{"b"}},
		{charf: p.skipChar, result: []bool{true, true}, input: "abc", data: []string{"a", "b"}},
		{charf: p.skipChar, result: []bool{true, false}, input: "`?", data: []string{"`", "`"}},

		{stringf: p.skipString, result: []bool{false}, input: "", data: []string{"a"}},
		{stringf: p.skipString, result: []bool{false}, input: "helloworld", data: []string{"hElLo"}},
		{stringf: p.skipString, result: []bool{true, true}, input: "helloworld", data: []string{"hello", "w"}},
		{stringf: p.skipString, result: []bool{true, true}, input: ":_:name", data: []string{":_", ":"}},
		{stringf: p.skipString, result: []bool{true, false}, input: "::", data: []string{"::", ":"}},
	}
	for _, v := range parseTests {
		// Reset the input.
		p.init(v.input)
		for i := range v.result {
			var result bool
			if v.charf != nil {
				result = v.charf(rune(v.data[i][0]))
			}
			if v.stringf != nil {
				result = v.stringf(v.data[i])
			}
			if v.result[i] != result {
				c.Errorf("Test %#v failed. Expected: '%t', got '%t'\n", v, v.result[i], result)
			}
		}
	}
}

func (s *ParserSuite) TestCheckpointRestore(c *C) {
	var p = NewParser()
	p.init("`:_:bad name`")

	cp := p.save()
	c.Assert(p.skipChar('`'), Equals, true)
	c.Assert(p.skipString(":_"), Equals, true)
	c.Check(p.pos, Equals, 3)
	c.Check(p.char, Equals, ':')

	cp.restore()
	c.Check(p.pos, Equals, 0)
	c.Check(p.char, Equals, '`')

	// A failed identifier placeholder leaves the parser where it was.
	part, ok, err := p.parseIdentifierPlaceholder()
	c.Check(part, IsNil)
	c.Check(ok, Equals, false)
	c.Check(err, IsNil)
	c.Check(p.pos, Equals, 0)
	c.Check(p.positional, Equals, 0)
}

func (s *ParserSuite) TestParseName(c *C) {
	tests := []struct {
		input string
		name  string
		ok    bool
	}{
		{input: ":name rest", name: ":name", ok: true},
		{input: ":a_1+", name: ":a_1", ok: true},
		{input: ":1", ok: false},
		{input: ":_x", ok: false},
		{input: "::x", ok: false},
		{input: "name", ok: false},
	}
	var p = NewParser()
	for _, t := range tests {
		p.init(t.input)
		p.internalAt = -1
		name, ok, err := p.parseName()
		c.Assert(err, IsNil)
		c.Check(ok, Equals, t.ok, Commentf("input %q", t.input))
		c.Check(name, Equals, t.name, Commentf("input %q", t.input))
		if !ok {
			c.Check(p.pos, Equals, 0, Commentf("input %q", t.input))
		}
	}
}
