package layout

import "github.com/llir/llvm/ir/types"

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

// cache is keyed by type identity: named structs are unique pointers, so two
// structurally equal but distinct named structs get separate entries.
type cache struct {
	byType map[types.Type]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.Type]cacheEntry, 64)}
}

func (c *cache) get(t types.Type) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	e, ok := c.byType[t]
	return e, ok
}

func (c *cache) put(t types.Type, e *cacheEntry) {
	if c == nil {
		return
	}
	if e == nil {
		delete(c.byType, t)
		return
	}
	c.byType[t] = *e
}

// forget drops the entry for t.
func (c *cache) forget(t types.Type) {
	if c == nil {
		return
	}
	delete(c.byType, t)
}
