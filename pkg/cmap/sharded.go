package cmap

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Hasher maps a key to a 64-bit hash used for shard selection.
type Hasher[K comparable] func(K) uint64

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	hash      Hasher[K]
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

type options struct {
	shardCount int
}

// Option configures a Map.
type Option func(*options)

// WithShardCount sets the number of shards. Values that are not a positive
// power of two fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// HashString hashes a string key with MurmurHash3.
func HashString(s string) uint64 {
	return murmur3.Sum64([]byte(s))
}

// NewString creates a map keyed by strings.
func NewString[V any](opts ...Option) *Map[string, V] {
	return New[string, V](HashString, opts...)
}

// New creates a sharded map that selects shards with hash.
func New[K comparable, V any](hash Hasher[K], opts ...Option) *Map[K, V] {
	o := options{shardCount: DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	shardCount := o.shardCount
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
		hash:      hash,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	return m.shards[m.hash(key)&m.shardMask]
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.items[key]
	return val, ok
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		count += len(s.items)
		s.mu.RUnlock()
	}
	return count
}
