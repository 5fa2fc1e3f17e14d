// Package satcount provides a saturating add over sync/atomic.Uint64,
// shared by the engine client's stats, the scenario engine's response
// counters, and the latency tracker (spec §4.7, §4.8: counters saturate at
// u64::MAX rather than wrapping).
package satcount

import (
	"math"
	"sync/atomic"
)

// Add adds delta to a, clamping at math.MaxUint64 instead of wrapping.
func Add(a *atomic.Uint64, delta uint64) {
	for {
		old := a.Load()
		if old == math.MaxUint64 {
			return
		}
		sum := old + delta
		if sum < old { // overflow
			sum = math.MaxUint64
		}
		if a.CompareAndSwap(old, sum) {
			return
		}
	}
}

// Inc is a convenience wrapper for Add(a, 1).
func Inc(a *atomic.Uint64) { Add(a, 1) }
