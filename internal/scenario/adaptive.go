package scenario

import (
	"fmt"
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/wire"
)

// Adaptive matching-stress parameters (spec §4.7).
const (
	MaxDeficit         = 5000
	CatchupTarget      = 1000
	FinalDrainStallMs  = 60000
	adaptiveCatchupMs  = 5000
)

// AdaptiveResult reports the outcome of an AdaptiveMatchingStress run.
type AdaptiveResult struct {
	PairsSent int
	Elapsed   time.Duration
	Validate  ValidationReport
}

// AdaptiveMatchingStress submits `trades` buy/sell pairs on IBM, pacing the
// send loop against the server's response path: once the deficit between
// pairs sent and trades observed exceeds MaxDeficit, it drains until the
// deficit is back down to CatchupTarget or no trade has arrived for
// adaptiveCatchupMs, then resumes sending. A pure send loop outruns the
// kernel socket buffers at scale (spec §4.7 rationale).
func AdaptiveMatchingStress(c *client.Client, trades int) (AdaptiveResult, error) {
	if err := c.SendFlush(); err != nil {
		return AdaptiveResult{}, fmt.Errorf("adaptive stress: flush: %w", err)
	}
	stats := NewResponseStats()
	stats.Merge(QuickDrain(c)) // drain any residual from a prior run

	start := time.Now()
	pairsSent := 0
	for i := 0; i < trades; i++ {
		price := uint32(100 + i%50)

		if err := c.SendNewOrder(1, "IBM", price, 10, wire.Buy, uint32(2*i+1)); err != nil {
			return AdaptiveResult{}, fmt.Errorf("adaptive stress: send buy %d: %w", i, err)
		}
		stats.Merge(QuickDrain(c))

		if err := c.SendNewOrder(2, "IBM", price, 10, wire.Sell, uint32(2*i+2)); err != nil {
			return AdaptiveResult{}, fmt.Errorf("adaptive stress: send sell %d: %w", i, err)
		}
		stats.Merge(QuickDrain(c))

		pairsSent++
		deficit := int64(pairsSent) - int64(stats.Trades.Load())
		metrics.SetAdaptiveDeficit(int(deficit))
		if deficit > MaxDeficit {
			target := uint64(pairsSent - CatchupTarget)
			DrainUntilTrades(c, stats, target, adaptiveCatchupMs)
		}
	}

	DrainUntilTrades(c, stats, uint64(pairsSent), FinalDrainStallMs)
	metrics.SetAdaptiveDeficit(0)

	return AdaptiveResult{
		PairsSent: pairsSent,
		Elapsed:   time.Since(start),
		Validate:  stats.ValidationReport(uint64(2*pairsSent), uint64(pairsSent)),
	}, nil
}
