// Package sync provides per-key locking for check-then-act sequences
// within one process.
package sync

import (
	"hash/fnv"
	"strings"
	"sync"
)

const shardCount = 32

// ShardedMutex serializes work per key. Keys hash onto a fixed set of
// mutexes, so unrelated keys may occasionally share a shard.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the shard for key. Empty keys use shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[shardFor(key)].Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shards[shardFor(key)].Unlock()
}

// WithLock runs fn while holding the shard for key.
func (m *ShardedMutex) WithLock(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

// Key joins parts into a lock key, for composite identities such as
// student, certificate type and item.
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
