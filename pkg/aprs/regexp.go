package aprs

import (
	"sync"

	regexp "github.com/wasilibs/go-re2"
)

// regexpCache holds compiled patterns so hot parse paths never recompile.
// go-re2 gives RE2 semantics, so no input can backtrack pathologically.
type regexpCache struct {
	mu sync.RWMutex
	re map[string]*regexp.Regexp
}

var patterns = &regexpCache{re: make(map[string]*regexp.Regexp)}

func (c *regexpCache) get(expr string) *regexp.Regexp {
	c.mu.RLock()
	re, ok := c.re[expr]
	c.mu.RUnlock()
	if ok {
		return re
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.re[expr]; ok {
		return re
	}
	re = regexp.MustCompile(expr)
	c.re[expr] = re
	return re
}
