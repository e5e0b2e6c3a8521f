package throttle

import (
	"hash/fnv"
	"sync"
)

const shardCount = 16

// Counters is a sharded per-key failure counter. Sharding keeps
// simultaneous logins for unrelated usernames off a single lock; entries
// live in memory only and are lost on restart, which is acceptable for a
// throttle.
type Counters struct {
	shards [shardCount]counterShard
}

type counterShard struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounters creates an empty counter store. Each test should inject a
// fresh instance rather than sharing process-wide state.
func NewCounters() *Counters {
	c := &Counters{}
	for i := range c.shards {
		c.shards[i].counts = make(map[string]int)
	}

	return c
}

func (c *Counters) shard(key string) *counterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return &c.shards[h.Sum32()%shardCount]
}

// Increment adds one to the key's counter and returns the new value.
func (c *Counters) Increment(key string) int {
	s := c.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key]++

	return s.counts[key]
}

// Reset zeroes the key's counter and returns the previous value.
func (c *Counters) Reset(key string) int {
	s := c.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.counts[key]
	delete(s.counts, key)

	return prev
}

// Get returns the key's current counter value.
func (c *Counters) Get(key string) int {
	s := c.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[key]
}
