package circulation

import (
	"hash/fnv"
	"sync"
)

const itemLockStripes = 256

// itemLocks serializes operations per item without a global lock.
// Items hashing to the same stripe share a mutex, which only costs an occasional extra retry.
type itemLocks struct {
	stripes [itemLockStripes]sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{}
}

// tryLock never blocks. The caller retries with backoff when it returns false.
func (l *itemLocks) tryLock(itemID string) (unlock func(), ok bool) {
	stripe := &l.stripes[stripeOf(itemID)]

	if !stripe.TryLock() {
		return nil, false
	}

	return stripe.Unlock, true
}

func stripeOf(itemID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(itemID))

	return h.Sum32() % itemLockStripes
}
