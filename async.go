package duocache

// Async variants of Get, Set, Remove, Clear and Contains: they return
// immediately, do their work on the facade's background worker, and
// invoke cb from that worker, never from the caller's goroutine (§4.F, §5).
// A missing key delivers ErrNotFound to the callback's error argument,
// matching the "sentinel not-found value" called for in §4.F.

// GetAsync looks up key in the background.
func (c *Cache) GetAsync(key string, cb func(value any, err error)) {
	c.pool.submit(func() {
		v, ok := c.Get(key)
		if !ok {
			cb(nil, ErrNotFound)
			return
		}
		cb(v, nil)
	})
}

// SetAsync writes key through to both tiers in the background.
func (c *Cache) SetAsync(key string, value any, cost int64, cb func(err error)) {
	c.pool.submit(func() {
		err := c.Set(key, value, cost)
		if cb != nil {
			cb(err)
		}
	})
}

// RemoveAsync removes key from both tiers in the background.
func (c *Cache) RemoveAsync(key string, cb func()) {
	c.pool.submit(func() {
		c.Remove(key)
		if cb != nil {
			cb()
		}
	})
}

// ClearAsync empties both tiers in the background.
func (c *Cache) ClearAsync(cb func()) {
	c.pool.submit(func() {
		c.Clear()
		if cb != nil {
			cb()
		}
	})
}

// ContainsAsync checks both tiers in the background.
func (c *Cache) ContainsAsync(key string, cb func(found bool)) {
	c.pool.submit(func() {
		cb(c.Contains(key))
	})
}
