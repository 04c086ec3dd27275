package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func put[K comparable, V any](m *Map[K, V], key K, value V) {
	m.Update(key, func(V, bool) V { return value })
}

func TestNewString(t *testing.T) {
	m := NewString[int]()
	if m == nil {
		t.Fatal("NewString() returned nil")
	}
	if len(m.shards) != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", len(m.shards), DefaultShardCount)
	}
}

func TestWithShardCount(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{64, 64},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewString[int](WithShardCount(tt.input))
			if len(m.shards) != tt.expected {
				t.Errorf("WithShardCount(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestGet(t *testing.T) {
	m := NewString[int]()

	put(m, "key1", 100)
	put(m, "key2", 200)

	if val, ok := m.Get("key1"); !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}
	if val, ok := m.Get("key2"); !ok || val != 200 {
		t.Errorf("Get(key2) = (%d, %v), want (200, true)", val, ok)
	}
	if val, ok := m.Get("nonexistent"); ok {
		t.Errorf("Get(nonexistent) = (%d, %v), want (0, false)", val, ok)
	}
	if !m.Has("key1") || m.Has("nonexistent") {
		t.Error("Has() disagrees with Get()")
	}
}

func TestCount(t *testing.T) {
	m := NewString[int]()

	put(m, "key1", 1)
	put(m, "key2", 2)
	put(m, "key3", 3)
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}

	m.Pop("key2")
	if m.Count() != 2 {
		t.Errorf("Count() after Pop() = %d, want 2", m.Count())
	}
}

func TestCustomHasher(t *testing.T) {
	type pair struct{ a, b string }
	m := New[pair, int](func(p pair) uint64 { return HashString(p.a + "\x00" + p.b) })

	put(m, pair{"x", "y"}, 1)
	put(m, pair{"xy", ""}, 2)

	if v, _ := m.Get(pair{"x", "y"}); v != 1 {
		t.Errorf("Get(x,y) = %d, want 1", v)
	}
	if v, _ := m.Get(pair{"xy", ""}); v != 2 {
		t.Errorf("Get(xy,) = %d, want 2", v)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int, int](func(k int) uint64 { return uint64(k) * 0x9E3779B97F4A7C15 })
	var wg sync.WaitGroup
	numGoroutines := 100
	numOps := 1000

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := base*numOps + j
				put(m, key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}
