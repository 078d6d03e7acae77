package insertsize

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"blainsmith.com/go/seahash"
)

const numCountTableShards = 256

type countShard struct {
	mu     sync.RWMutex
	counts map[Observation]*int64
}

// CountTable is a sharded, thread-safe map from Observation to count.
// Entries are created at zero on first use and are only ever incremented.
type CountTable struct {
	shards [numCountTableShards]countShard
}

// NewCountTable creates an empty CountTable.
func NewCountTable() *CountTable {
	t := &CountTable{}
	for i := range t.shards {
		t.shards[i].counts = make(map[Observation]*int64)
	}
	return t
}

func (t *CountTable) shard(o Observation) *countShard {
	var key [9]byte
	binary.LittleEndian.PutUint64(key[:8], uint64(o.InsertSize))
	key[8] = byte(o.Orientation)
	h := seahash.Sum64(key[:])
	return &t.shards[int(h%uint64(numCountTableShards))]
}

// Increment adds one to the count of o. Thread safe.
func (t *CountTable) Increment(o Observation) {
	shard := t.shard(o)

	shard.mu.RLock()
	c, ok := shard.counts[o]
	shard.mu.RUnlock()
	if !ok {
		// Another goroutine may have inserted o after we released the read
		// lock, so check again under the write lock.
		shard.mu.Lock()
		if c, ok = shard.counts[o]; !ok {
			c = new(int64)
			shard.counts[o] = c
		}
		shard.mu.Unlock()
	}
	atomic.AddInt64(c, 1)
}

// Get returns the count of o.
func (t *CountTable) Get(o Observation) int64 {
	shard := t.shard(o)
	shard.mu.RLock()
	c, ok := shard.counts[o]
	shard.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(c)
}

// Range calls fn for every entry, in no particular order. The counts are
// exact only if no Increment runs concurrently.
func (t *CountTable) Range(fn func(o Observation, count int64)) {
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for o, c := range s.counts {
			fn(o, atomic.LoadInt64(c))
		}
		s.mu.RUnlock()
	}
}

// Len returns the number of distinct observations in the table.
func (t *CountTable) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.counts)
		s.mu.RUnlock()
	}
	return n
}

// Total returns the sum of all counts.
func (t *CountTable) Total() int64 {
	var n int64
	t.Range(func(_ Observation, count int64) { n += count })
	return n
}
