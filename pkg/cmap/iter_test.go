package cmap

import (
	"sync"
	"testing"
)

func TestRange(t *testing.T) {
	m := NewString[int]()
	put(m, "a", 1)
	put(m, "b", 2)
	put(m, "c", 3)

	collected := make(map[string]int)
	m.Range(func(key string, value int) bool {
		collected[key] = value
		return true
	})

	for k, v := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if collected[k] != v {
			t.Errorf("collected[%s] = %d, want %d", k, collected[k], v)
		}
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := NewString[int]()
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		put(m, k, 0)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 5
	})

	if count != 5 {
		t.Errorf("Range stopped at %d, want 5", count)
	}
}

func TestUpdate_Atomic(t *testing.T) {
	m := NewString[int]()
	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update("counter", func(v int, _ bool) int { return v + 1 })
		}()
	}
	wg.Wait()

	if v, _ := m.Get("counter"); v != 1000 {
		t.Errorf("counter = %d, want 1000", v)
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		initial     *int
		fn          func(int, bool) (int, bool)
		wantValue   int
		wantPresent bool
	}{
		{
			name:        "insert",
			fn:          func(v int, _ bool) (int, bool) { return v + 1, true },
			wantValue:   1,
			wantPresent: true,
		},
		{
			name:        "replace",
			initial:     intPtr(4),
			fn:          func(v int, _ bool) (int, bool) { return v * 2, true },
			wantValue:   8,
			wantPresent: true,
		},
		{
			name:    "remove existing",
			initial: intPtr(1),
			fn:      func(v int, _ bool) (int, bool) { return v - 1, v-1 != 0 },
		},
		{
			name: "skip absent",
			fn:   func(int, bool) (int, bool) { return 0, false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewString[int]()
			if tt.initial != nil {
				put(m, "k", *tt.initial)
			}

			v, present := m.Compute("k", tt.fn)
			if v != tt.wantValue || present != tt.wantPresent {
				t.Errorf("Compute() = (%d, %v), want (%d, %v)", v, present, tt.wantValue, tt.wantPresent)
			}
			if m.Has("k") != tt.wantPresent {
				t.Errorf("Has() = %v, want %v", m.Has("k"), tt.wantPresent)
			}
		})
	}
}

func TestCompute_ConcurrentCounterDrains(t *testing.T) {
	m := NewString[int]()
	adjust := func(delta int) {
		m.Compute("counter", func(v int, _ bool) (int, bool) {
			v += delta
			return v, v != 0
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); adjust(1) }()
		go func() { defer wg.Done(); adjust(-1) }()
	}
	wg.Wait()

	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after balanced adjustments", m.Count())
	}
}

func TestPop(t *testing.T) {
	m := NewString[int]()
	put(m, "k", 7)

	v, ok := m.Pop("k")
	if !ok || v != 7 {
		t.Errorf("Pop() = (%d, %v), want (7, true)", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop() should report absence")
	}
}

func intPtr(v int) *int { return &v }
