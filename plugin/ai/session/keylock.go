package session

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLock serializes work per key using a fixed set of striped mutexes,
// so memory stays bounded no matter how many distinct users are seen.
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for key and returns its unlock function.
func (k *keyLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
