package scheduler

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of units holding an active slot.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
	peak     atomic.Int64
}

// NewLimiter creates a limiter with the given capacity (at least 1).
func NewLimiter(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(capacity)), capacity: capacity}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) (*Token, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	n := l.inUse.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return &Token{limiter: l}, nil
}

// Capacity returns the ceiling.
func (l *Limiter) Capacity() int { return l.capacity }

// InUse returns the number of tokens currently held.
func (l *Limiter) InUse() int { return int(l.inUse.Load()) }

// Peak returns the highest number of tokens held at once.
func (l *Limiter) Peak() int { return int(l.peak.Load()) }

// Token is one acquired slot.
type Token struct {
	limiter  *Limiter
	released atomic.Bool
}

// Release returns the slot to the limiter. A second call returns ErrDoubleRelease
// and leaves the limiter untouched.
func (t *Token) Release() error {
	if !t.released.CompareAndSwap(false, true) {
		return &SchedulingError{Op: "release", Err: ErrDoubleRelease}
	}
	t.limiter.inUse.Add(-1)
	t.limiter.sem.Release(1)
	return nil
}
