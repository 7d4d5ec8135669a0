package store

import (
	"path/filepath"
	"sync"
)

var (
	locksLock sync.Mutex
	locks     = make(map[string]*sync.Mutex)
)

// Lock serializes runs against the same cache file within the process.
func (s *Store) Lock() (unlock func()) {
	lock := pathLock(s.path)
	lock.Lock()
	return lock.Unlock
}

func pathLock(path string) *sync.Mutex {
	if absPath, err := filepath.Abs(path); err == nil {
		path = absPath
	}
	path = filepath.Clean(path)

	locksLock.Lock()
	defer locksLock.Unlock()

	lock, ok := locks[path]
	if !ok {
		lock = &sync.Mutex{}
		locks[path] = lock
	}
	return lock
}
