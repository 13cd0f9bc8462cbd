package service

import "sync"

// repoLocks serializes pipeline runs per repository URL. Two jobs
// against the same remote must never race clone/fetch/checkout on the
// shared working copy; jobs on different remotes proceed in parallel.
type repoLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRepoLocks() *repoLocks {
	return &repoLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the lock for key is held and returns it for the
// caller to unlock. Entries are never removed; the map is bounded by
// the number of distinct repository URLs seen.
func (l *repoLocks) acquire(key string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
