package memory

import (
	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/pkg/cmap"
)

// Store maps (namespace, key) to an opaque value.
//
// Callers pass components that have already been validated; the store
// itself never fails.
type Store struct {
	entries *cmap.Map[domain.Key, []byte]

	// namespace -> live entry count, for stats only. An entry is removed
	// when its count returns to zero.
	namespaces *cmap.Map[string, int64]
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shardCount int
}

// WithShardCount sets the number of shards backing the store.
func WithShardCount(n int) Option {
	return func(o *storeOptions) {
		o.shardCount = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shardCount: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		entries:    cmap.New[domain.Key, []byte](hashKey, cmap.WithShardCount(o.shardCount)),
		namespaces: cmap.NewString[int64](),
	}
}

func hashKey(k domain.Key) uint64 {
	return cmap.HashString(k.String())
}

// Set inserts or replaces the value for (ns, key).
func (s *Store) Set(ns, key string, value []byte) {
	stored := clone(value)
	existed := false
	s.entries.Update(domain.Key{Namespace: ns, Name: key}, func(_ []byte, exists bool) []byte {
		existed = exists
		return stored
	})
	if !existed {
		s.adjustNamespace(ns, 1)
	}
}

// Get returns a copy of the value for (ns, key).
func (s *Store) Get(ns, key string) ([]byte, bool) {
	v, ok := s.entries.Get(domain.Key{Namespace: ns, Name: key})
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Delete removes (ns, key) and reports whether it existed.
func (s *Store) Delete(ns, key string) bool {
	_, existed := s.entries.Pop(domain.Key{Namespace: ns, Name: key})
	if existed {
		s.adjustNamespace(ns, -1)
	}
	return existed
}

// Exists reports whether (ns, key) is present.
func (s *Store) Exists(ns, key string) bool {
	return s.entries.Has(domain.Key{Namespace: ns, Name: key})
}

// Len returns the number of entries across all namespaces.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Namespaces returns the number of namespaces holding at least one entry.
func (s *Store) Namespaces() int {
	n := 0
	s.namespaces.Range(func(_ string, count int64) bool {
		if count > 0 {
			n++
		}
		return true
	})
	return n
}

// adjustNamespace may briefly see a negative count when a Delete's
// decrement overtakes the matching Set's increment; the entry is kept
// until the pair balances out.
func (s *Store) adjustNamespace(ns string, delta int64) {
	s.namespaces.Compute(ns, func(count int64, _ bool) (int64, bool) {
		count += delta
		return count, count != 0
	})
}

// clone returns a non-nil copy so an empty value stays distinguishable
// from absence.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
