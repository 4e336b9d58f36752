package cache

import (
	"sync"
	"time"
)

// Memo is a typed, process-local memo table.
//
// Lookups that miss run the compute function without holding the lock, so
// concurrent callers for the same cold key may each compute. The first
// stored value wins and later results for that key are discarded, which
// keeps every caller observing one value per key once it exists.
type Memo[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]memoEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type memoEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewMemo creates a memo table. A zero ttl keeps entries for the life of
// the process.
func NewMemo[K comparable, V any](ttl time.Duration) *Memo[K, V] {
	return &Memo[K, V]{
		entries: make(map[K]memoEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored value for key if present and unexpired.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores v unless an unexpired value already exists, and returns the
// value that is now stored.
func (m *Memo[K, V]) Put(key K, v V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && !m.expired(e) {
		return e.value
	}
	e := memoEntry[V]{value: v}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	return v
}

// GetOrCompute returns the memoized value or computes and stores it.
// Errors are not memoized. The boolean reports whether the value was
// already present.
func (m *Memo[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, bool, error) {
	if v, ok := m.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	return m.Put(key, v), false, nil
}

// Delete drops key.
func (m *Memo[K, V]) Delete(key K) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len reports the number of stored entries.
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memo[K, V]) expired(e memoEntry[V]) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}
