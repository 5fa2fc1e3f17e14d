// Package latency implements the single-threaded nanosecond sample
// accumulator from spec §4.8: min/max/sum/count with saturating updates, and
// a scoped, idempotent-stop timer.
package latency

import (
	"sync/atomic"
	"time"

	"github.com/kstaniek/tradec/internal/satcount"
)

// Tracker accumulates latency samples. It is intended for single-threaded
// use within one scenario run; callers needing concurrent recording should
// give each goroutine its own Tracker and merge results afterward.
type Tracker struct {
	min   atomic.Uint64
	max   atomic.Uint64
	sum   atomic.Uint64
	count atomic.Uint64
}

// New returns an empty Tracker.
func New() *Tracker {
	t := &Tracker{}
	t.min.Store(^uint64(0)) // start at max so the first sample always lowers it
	return t
}

// Record adds one sample (in nanoseconds) to the accumulator.
func (t *Tracker) Record(ns uint64) {
	for {
		old := t.min.Load()
		if ns >= old {
			break
		}
		if t.min.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := t.max.Load()
		if ns <= old {
			break
		}
		if t.max.CompareAndSwap(old, ns) {
			break
		}
	}
	satcount.Add(&t.sum, ns)
	satcount.Inc(&t.count)
}

// MinNS returns the smallest recorded sample, or 0 if none has been recorded.
func (t *Tracker) MinNS() uint64 {
	if t.count.Load() == 0 {
		return 0
	}
	return t.min.Load()
}

// MaxNS returns the largest recorded sample, or 0 if none has been recorded.
func (t *Tracker) MaxNS() uint64 { return t.max.Load() }

// Count returns the number of samples recorded.
func (t *Tracker) Count() uint64 { return t.count.Load() }

// AvgNS returns sum/count, or 0 if no samples have been recorded.
func (t *Tracker) AvgNS() uint64 {
	n := t.count.Load()
	if n == 0 {
		return 0
	}
	return t.sum.Load() / n
}

// Now returns a timestamp carrying Go's monotonic clock reading, the source
// Elapsed measures against (spec §4.8: "a monotonic nanosecond timestamp").
func Now() time.Time { return time.Now() }

// Elapsed returns the nanoseconds between start and now, or 0 if now is not
// strictly after start (defensive against clock adjustments).
func Elapsed(start time.Time) uint64 {
	d := time.Since(start)
	if d <= 0 {
		return 0
	}
	return uint64(d.Nanoseconds())
}

// Timer is a scoped latency measurement that records exactly once on Stop,
// even if Stop is called more than once.
type Timer struct {
	tr      *Tracker
	start   time.Time
	stopped atomic.Bool
}

// StartTimer begins timing against tr.
func (t *Tracker) StartTimer() *Timer {
	return &Timer{tr: t, start: Now()}
}

// Stop records the elapsed time since the timer started. It is idempotent:
// only the first call records a sample.
func (tm *Timer) Stop() {
	if tm.stopped.Swap(true) {
		return
	}
	tm.tr.Record(Elapsed(tm.start))
}
