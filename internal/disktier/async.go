package disktier

// Async variants dispatch onto the tier's single background worker and
// invoke cb there, never on the caller's goroutine, per §4.F / §5.

// GetAsync looks up key in the background and invokes cb with the result.
func (t *Tier) GetAsync(key string, cb func(data []byte, ok bool)) {
	t.submit(func() {
		data, ok := t.Get(key)
		cb(data, ok)
	})
}

// SetAsync stores key in the background and invokes cb with any error.
func (t *Tier) SetAsync(key string, data, extended []byte, cb func(error)) {
	t.submit(func() {
		err := t.Set(key, data, extended)
		if cb != nil {
			cb(err)
		}
	})
}

// RemoveAsync removes key in the background and invokes cb on completion.
func (t *Tier) RemoveAsync(key string, cb func()) {
	t.submit(func() {
		t.Remove(key)
		if cb != nil {
			cb()
		}
	})
}

// ClearAsync empties the tier in the background and invokes cb on completion.
func (t *Tier) ClearAsync(cb func()) {
	t.submit(func() {
		t.Clear()
		if cb != nil {
			cb()
		}
	})
}
