package renderer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// budget caps the number of command buffers between acquire and completion.
// release runs on the completion goroutine.
type budget struct {
	size     int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	peak     atomic.Int64
}

func newBudget(size int) *budget {
	return &budget{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// acquire blocks until a slot is free or ctx is done.
func (b *budget) acquire(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := b.inFlight.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			return nil
		}
	}
}

func (b *budget) release() {
	b.inFlight.Add(-1)
	b.sem.Release(1)
}

// drain waits until every slot is free and returns them.
func (b *budget) drain(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, b.size); err != nil {
		return err
	}
	b.sem.Release(b.size)
	return nil
}
