package sorter

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	// A partition must be at least this big to be worth the cost of
	// scheduling it on another goroutine.
	minParallel = 10000
	// And at least 1/parallelDiv of the partition it was split from.
	parallelDiv = 16
)

// pool is a fixed-capacity set of worker slots for partition sorts.
// Slot accounting goes through a single weighted semaphore, so there
// is no lock ordering to get wrong.  Workers never share data: each
// one sees only the disjoint sub-slice it was handed.
type pool struct {
	slots *semaphore.Weighted
	wg    sync.WaitGroup
}

func newPool(capacity int) *pool {
	if capacity < 0 {
		capacity = 0
	}
	return &pool{slots: semaphore.NewWeighted(int64(capacity))}
}

// tryRun runs f on a worker goroutine if a slot is free, returning
// false if all slots are busy (the caller then sorts inline).  A
// capacity of zero never admits work.
func (p *pool) tryRun(f func()) bool {
	if !p.slots.TryAcquire(1) {
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.slots.Release(1)
		f()
	}()
	return true
}

// wait blocks until every admitted worker has finished.  Workers may
// admit more workers while we wait; sync.WaitGroup handles that as
// long as each Add happens before the corresponding slot is released,
// which tryRun guarantees.
func (p *pool) wait() {
	p.wg.Wait()
}
