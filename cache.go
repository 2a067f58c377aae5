package refetch

import "sync"

// Cache maps request signatures to the futures of in-flight or completed
// operations. Entries are never evicted: they live until the Cache value
// itself is discarded, which is the embedding application's invalidation
// mechanism.
//
// A single Cache may be shared by several orchestrators. Concurrent inserts
// for the same signature resolve first-writer-wins via Add, so at most one
// transport call is in flight per signature across all sharers.
type Cache struct {
	entries sync.Map // Signature -> *Future
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the future registered for sig, if any.
func (c *Cache) Get(sig Signature) (*Future, bool) {
	v, ok := c.entries.Load(sig)
	if !ok {
		return nil, false
	}
	return v.(*Future), true
}

// Add registers fut for sig unless an entry already exists. It returns the
// winning future and whether an existing entry was kept. Losers must adopt
// the returned future and discard their own.
func (c *Cache) Add(sig Signature, fut *Future) (*Future, bool) {
	v, loaded := c.entries.LoadOrStore(sig, fut)
	return v.(*Future), loaded
}

// Len reports the number of cached signatures.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
