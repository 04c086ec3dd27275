package cmap

// Range iterates over all key-value pairs.
// The callback returns false to stop iteration. It must not call back into
// the map for a key in the same shard.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Update atomically replaces the value for key with fn's result.
func (m *Map[K, V]) Update(key K, fn func(value V, exists bool) V) V {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[key]
	newValue := fn(existing, exists)
	s.items[key] = newValue
	return newValue
}

// Compute is Update with removal: when fn returns keep=false the key is
// deleted instead of stored. It reports whether the key is present afterwards.
func (m *Map[K, V]) Compute(key K, fn func(value V, exists bool) (newValue V, keep bool)) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[key]
	newValue, keep := fn(existing, exists)
	if !keep {
		delete(s.items, key)
		var zero V
		return zero, false
	}
	s.items[key] = newValue
	return newValue, true
}

// Pop removes a key and returns its value.
// Returns the value and true if the key existed, zero value and false otherwise.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return val, ok
}
