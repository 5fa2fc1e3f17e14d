package scenario

import (
	"fmt"
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/wire"
)

// dualSymbols are the two symbols routed to distinct server shards by their
// first character (spec §4.7 "Dual-processor matching stress").
var dualSymbols = [2]string{"IBM", "NVDA"}

// DualProcessorResult reports the outcome of a DualProcessorMatchingStress run.
type DualProcessorResult struct {
	PairsSent int // pairs sent per symbol; total trades expected is 2x this
	Elapsed   time.Duration
	Validate  ValidationReport
}

// DualProcessorMatchingStress interleaves buy/sell pairs on two symbols that
// route to different shards in the same send loop, doubling the expected
// trade count per input unit relative to the single-symbol variants.
func DualProcessorMatchingStress(c *client.Client, pairsPerSymbol int) (DualProcessorResult, error) {
	if err := c.SendFlush(); err != nil {
		return DualProcessorResult{}, fmt.Errorf("dual-processor stress: flush: %w", err)
	}
	stats := NewResponseStats()
	stats.Merge(QuickDrain(c))

	start := time.Now()
	for i := 0; i < pairsPerSymbol; i++ {
		price := uint32(100 + i%50)
		for si, symbol := range dualSymbols {
			buyID := uint32(4*i + 2*si + 1)
			sellID := uint32(4*i + 2*si + 2)
			if err := c.SendNewOrder(1, symbol, price, 10, wire.Buy, buyID); err != nil {
				return DualProcessorResult{}, fmt.Errorf("dual-processor stress: send buy %s %d: %w", symbol, i, err)
			}
			stats.Merge(QuickDrain(c))
			if err := c.SendNewOrder(2, symbol, price, 10, wire.Sell, sellID); err != nil {
				return DualProcessorResult{}, fmt.Errorf("dual-processor stress: send sell %s %d: %w", symbol, i, err)
			}
			stats.Merge(QuickDrain(c))
		}
	}

	expectedTrades := uint64(2 * pairsPerSymbol)
	DrainUntilTrades(c, stats, expectedTrades, FinalDrainStallMs)

	return DualProcessorResult{
		PairsSent: pairsPerSymbol,
		Elapsed:   time.Since(start),
		Validate:  stats.ValidationReport(4*uint64(pairsPerSymbol), expectedTrades),
	}, nil
}
