package state

// Memo caches the last result of a derivation keyed by a comparable key.
type Memo[K comparable, V any] struct {
	key   K
	value V
	ok    bool
}

// Get returns the cached value when key matches the previous call, otherwise
// it calls compute and caches the result.
func (m *Memo[K, V]) Get(key K, compute func() V) V {
	if m.ok && m.key == key {
		return m.value
	}
	m.key = key
	m.value = compute()
	m.ok = true
	return m.value
}

// Reset drops the cached value.
func (m *Memo[K, V]) Reset() {
	var zero V
	m.value = zero
	m.ok = false
}
