package dailyplan

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLocks serialises work on a key without keeping a mutex per key alive forever.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
