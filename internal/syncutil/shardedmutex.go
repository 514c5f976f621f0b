// Package syncutil provides small concurrency helpers.
package syncutil

import "sync"

const shardCount = 64

// ShardedMutex is a fixed pool of mutexes keyed by string, used to serialize
// work per key (here: per country code) with bounded memory no matter how
// many distinct keys appear. Keys that hash to the same shard contend with
// each other, which is harmless for short critical sections.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (s *ShardedMutex) Lock(key string) func() {
	mu := s.shard(key)
	mu.Lock()
	return mu.Unlock
}

// shard picks a mutex via inline FNV-1a, avoiding a hasher allocation on
// every scoring run.
func (s *ShardedMutex) shard(key string) *sync.Mutex {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return &s.shards[h%shardCount]
}
