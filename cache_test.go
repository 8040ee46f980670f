package zdb

import (
	"errors"

	"gopkg.in/check.v1"
)

type CacheSuite struct{}

var _ = check.Suite(&CacheSuite{})

func (s *CacheSuite) TearDownTest(c *check.C) {
	templateCache.purge()
	SetCacheSize(DefaultCacheSize)
}

func (s *CacheSuite) TestParseShared(c *check.C) {
	pc := newParseCache(4)
	key := parseKey{template: "SELECT * FROM :_t WHERE a = ?"}

	pt1, err := pc.parse(key)
	c.Assert(err, check.IsNil)
	pt2, err := pc.parse(key)
	c.Assert(err, check.IsNil)
	c.Check(pt1, check.Equals, pt2)
	c.Check(pc.len(), check.Equals, 1)
}

func (s *CacheSuite) TestParseErrorsNotCached(c *check.C) {
	pc := newParseCache(4)

	_, err := pc.parse(parseKey{template: "SELECT * FROM t LIMIT 10 OFFSET 5"})
	c.Check(errors.Is(err, ErrSafetyViolation), check.Equals, true)
	c.Check(pc.len(), check.Equals, 0)

	// The same text is another entry when bare numbers are allowed.
	_, err = pc.parse(parseKey{template: "SELECT * FROM t LIMIT 10 OFFSET 5", allowBareNumbers: true})
	c.Check(err, check.IsNil)
	c.Check(pc.len(), check.Equals, 1)
}

func (s *CacheSuite) TestEviction(c *check.C) {
	pc := newParseCache(2)
	for _, t := range []string{"SELECT a FROM t", "SELECT b FROM t", "SELECT c FROM t"} {
		_, err := pc.parse(parseKey{template: t})
		c.Assert(err, check.IsNil)
	}
	c.Check(pc.len(), check.Equals, 2)

	pc.resize(1)
	c.Check(pc.len(), check.Equals, 1)

	pc.purge()
	c.Check(pc.len(), check.Equals, 0)
}

func (s *CacheSuite) TestPrepareUsesCache(c *check.C) {
	templateCache.purge()

	s1 := MustPrepare("SELECT name FROM :_person WHERE id = ?")
	s2 := MustPrepare("SELECT name FROM :_person WHERE id = ?")
	c.Check(s1, check.Not(check.Equals), s2)
	c.Check(s1.pt, check.Equals, s2.pt)

	s3 := MustPrepare("SELECT name FROM :_person WHERE id = ?", AllowBareNumbers())
	c.Check(s3.pt, check.Not(check.Equals), s1.pt)
	c.Check(templateCache.len(), check.Equals, 2)
}

func (s *CacheSuite) TestSetCacheSize(c *check.C) {
	templateCache.purge()

	SetCacheSize(1)
	MustPrepare("SELECT a FROM t")
	MustPrepare("SELECT b FROM t")
	c.Check(templateCache.len(), check.Equals, 1)

	// Sizes below one are ignored.
	SetCacheSize(0)
	MustPrepare("SELECT c FROM t")
	c.Check(templateCache.len(), check.Equals, 1)
}
