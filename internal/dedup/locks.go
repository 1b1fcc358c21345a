package dedup

import (
	"hash/fnv"
	"sync"
)

// bucketLocks serializes ingest decisions per content bucket so that two
// concurrent deliveries of the same review cannot both pass the existence
// checks and insert. Striping keeps unrelated buckets independent.
type bucketLocks struct {
	mus [64]sync.Mutex
}

func (b *bucketLocks) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &b.mus[h.Sum32()%uint32(len(b.mus))]
}
