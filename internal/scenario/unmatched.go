package scenario

import (
	"fmt"
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/wire"
)

// UnmatchedDrainInterval is how many sends pass between quick-drain sweeps
// during the send loop (spec §4.7 "Unmatched stress").
const UnmatchedDrainInterval = 1000

// UnmatchedResult reports the outcome of an UnmatchedStress run.
type UnmatchedResult struct {
	Sent     int
	Elapsed  time.Duration
	Validate ValidationReport
}

// UnmatchedStress submits n buy orders at rotating, non-crossing prices (no
// sell side, so nothing trades), drains for the expected 2n responses (one
// Ack and one TopOfBook per order), and reports the send count, elapsed time
// and a validation of n Acks and zero Trades.
func UnmatchedStress(c *client.Client, n int) (UnmatchedResult, error) {
	stats := NewResponseStats()
	start := time.Now()

	for i := 0; i < n; i++ {
		price := uint32(100 + i%50)
		orderID := uint32(i + 1)
		if err := c.SendNewOrder(1, "IBM", price, 10, wire.Buy, orderID); err != nil {
			return UnmatchedResult{}, fmt.Errorf("unmatched stress: send %d: %w", i, err)
		}
		if (i+1)%UnmatchedDrainInterval == 0 {
			stats.Merge(QuickDrain(c))
		}
	}

	stats.Merge(PatientDrain(c, uint64(2*n), 15000))

	return UnmatchedResult{
		Sent:     n,
		Elapsed:  time.Since(start),
		Validate: stats.ValidationReport(uint64(n), 0),
	}, nil
}
