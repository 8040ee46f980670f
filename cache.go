package zdb

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zdbsql/zdb/internal/expr"
)

// DefaultCacheSize is the number of parsed templates kept by default.
const DefaultCacheSize = 512

// parseKey identifies a parse of a template.
type parseKey struct {
	template         string
	allowBareNumbers bool
}

// parseCache keeps the parsed templates of recently prepared statements.
// Parsed templates are immutable, so one parse is shared by every statement
// prepared from the same template. It is safe for concurrent use.
type parseCache struct {
	lru *lru.Cache[parseKey, *expr.ParsedTemplate]
}

var templateCache = newParseCache(DefaultCacheSize)

func newParseCache(size int) *parseCache {
	c, err := lru.New[parseKey, *expr.ParsedTemplate](size)
	if err != nil {
		panic("internal error: " + err.Error())
	}
	return &parseCache{lru: c}
}

// parse returns the parsed template for key, parsing it on a miss.
// Templates that fail to parse are not cached.
func (pc *parseCache) parse(key parseKey) (*expr.ParsedTemplate, error) {
	if pt, ok := pc.lru.Get(key); ok {
		return pt, nil
	}

	pt, err := expr.Parse(key.template, key.allowBareNumbers)
	if err != nil {
		return nil, err
	}
	pc.lru.Add(key, pt)
	return pt, nil
}

// resize changes the number of parsed templates kept.
func (pc *parseCache) resize(size int) {
	pc.lru.Resize(size)
}

// len returns the number of cached templates.
func (pc *parseCache) len() int {
	return pc.lru.Len()
}

// purge empties the cache.
func (pc *parseCache) purge() {
	pc.lru.Purge()
}

// SetCacheSize sets the number of parsed templates kept by [Prepare]. Sizes
// below one are ignored.
func SetCacheSize(size int) {
	if size < 1 {
		return
	}
	templateCache.resize(size)
}
