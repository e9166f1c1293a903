package session

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 256

// stripedLocks maps any number of session ids onto a fixed set of mutexes.
// Two ids may share a stripe; a request only ever holds one.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) forID(id string) *sync.Mutex {
	return &l.stripes[xxhash.Sum64String(id)%lockStripes]
}
