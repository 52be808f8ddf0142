package cloudsync

import (
	"time"

	"go.uber.org/atomic"
)

// Lock marks a bulk push in progress. While held, realtime changes are not
// mirrored locally, so the push does not echo back through the feed.
type Lock struct {
	held    *atomic.Bool
	since   *atomic.Time
	skipped *atomic.Int64
}

func NewLock() *Lock {
	return &Lock{
		held:    atomic.NewBool(false),
		since:   atomic.NewTime(time.Time{}),
		skipped: atomic.NewInt64(0),
	}
}

// TryAcquire reports whether the caller now owns the lock.
func (l *Lock) TryAcquire() bool {
	if !l.held.CompareAndSwap(false, true) {
		return false
	}
	l.since.Store(time.Now())
	return true
}

func (l *Lock) Release() {
	l.since.Store(time.Time{})
	l.held.Store(false)
}

func (l *Lock) Held() bool {
	return l.held.Load()
}

// HeldSince is zero when the lock is free.
func (l *Lock) HeldSince() time.Time {
	return l.since.Load()
}

func (l *Lock) noteSkipped() {
	l.skipped.Inc()
}

// Skipped counts realtime changes dropped while the lock was held.
func (l *Lock) Skipped() int64 {
	return l.skipped.Load()
}
