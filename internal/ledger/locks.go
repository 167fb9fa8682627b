package ledger

import (
	"sync"

	"github.com/google/uuid"
)

const userLockShards = 256

// userLockTable serializes ledger mutations per user. Locks are sharded by a
// hash of the user ID so the table stays fixed-size no matter how many users
// transact; two users landing on the same shard contend harmlessly.
type userLockTable struct {
	shards [userLockShards]sync.Mutex
}

// lock acquires the shard covering a user and returns its release func.
func (t *userLockTable) lock(id uuid.UUID) func() {
	m := &t.shards[lockShard(id)]
	m.Lock()
	return m.Unlock
}

// lockShard is FNV-1a over the raw ID bytes, reduced to a shard index.
func lockShard(id uuid.UUID) uint32 {
	const offset, prime = 2166136261, 16777619
	h := uint32(offset)
	for _, b := range id {
		h ^= uint32(b)
		h *= prime
	}
	return h % userLockShards
}
