// Package cmap provides a concurrent map sharded by MurmurHash3.
//
// Each shard owns a plain Go map behind its own RWMutex, so operations on
// keys that land in different shards never contend. Every single-key
// operation (Get, Pop, Update, Compute, ...) runs entirely under one shard
// lock and is therefore atomic with respect to every other operation on
// the same key.
//
// Usage:
//
//	m := cmap.NewString[[]byte](cmap.WithShardCount(32))
//	m.Update("key", func([]byte, bool) []byte { return []byte("v") })
//	val, ok := m.Get("key")
//
// Keys that are not strings need a hash function:
//
//	m := cmap.New[Pair, int](func(p Pair) uint64 { return cmap.HashString(p.A + "/" + p.B) })
//
// Range and Count lock shard by shard, so they observe each shard
// consistently but not the whole map at a single instant.
package cmap
