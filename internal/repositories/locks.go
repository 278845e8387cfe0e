package repositories

import (
	"hash/fnv"
	"strconv"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userLocks serializes balance-affecting operations per user inside this
// process. Shards are keyed by userID hash so unrelated users never contend
// on a single mutex. The database row lock remains the cross-process
// guarantee; this layer also covers the sqlite test dialect, which has no
// SELECT ... FOR UPDATE.
type userLocks struct {
	shards [64]sync.Mutex
}

// accountLocks is shared by every repository touching per-user balance
// state, so the ledger and referral paths serialize against each other.
var accountLocks userLocks

func (l *userLocks) lock(userID uint) func() {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	shard := &l.shards[h.Sum32()%uint32(len(l.shards))]
	shard.Lock()
	return shard.Unlock
}

// forUpdate applies a row-level pessimistic lock on dialects that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
