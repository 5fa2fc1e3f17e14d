package scenario

import (
	"fmt"
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/wire"
)

// DefaultBatchSize is the pacing gate for BatchedMatchingStress (spec §4.7).
const DefaultBatchSize = 100

// responsesPerPair is how many output messages one buy/sell pair produces:
// two Acks, one Trade, two TopOfBook updates.
const responsesPerPair = 5

// BatchedResult reports the outcome of a BatchedMatchingStress run.
type BatchedResult struct {
	PairsSent int
	Elapsed   time.Duration
	Validate  ValidationReport
}

// BatchedMatchingStress is the alternative to AdaptiveMatchingStress that
// paces on a fixed batch size rather than a dynamically measured deficit:
// after each batchSize pairs it waits (via BatchDrain) for that batch's
// expected response count before sending the next one.
func BatchedMatchingStress(c *client.Client, trades, batchSize int) (BatchedResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	stats := NewResponseStats()
	start := time.Now()
	pairsSent := 0
	inBatch := 0

	for i := 0; i < trades; i++ {
		price := uint32(100 + i%50)
		if err := c.SendNewOrder(1, "IBM", price, 10, wire.Buy, uint32(2*i+1)); err != nil {
			return BatchedResult{}, fmt.Errorf("batched stress: send buy %d: %w", i, err)
		}
		if err := c.SendNewOrder(2, "IBM", price, 10, wire.Sell, uint32(2*i+2)); err != nil {
			return BatchedResult{}, fmt.Errorf("batched stress: send sell %d: %w", i, err)
		}
		pairsSent++
		inBatch++

		if inBatch == batchSize {
			stats.Merge(BatchDrain(c, batchSize*responsesPerPair, MaxConsecutiveEmpty, 10))
			inBatch = 0
		}
	}
	if inBatch > 0 {
		stats.Merge(BatchDrain(c, inBatch*responsesPerPair, MaxConsecutiveEmpty, 10))
	}

	stats.Merge(PatientDrain(c, uint64(pairsSent*responsesPerPair), 15000))

	return BatchedResult{
		PairsSent: pairsSent,
		Elapsed:   time.Since(start),
		Validate:  stats.ValidationReport(uint64(2*pairsSent), uint64(pairsSent)),
	}, nil
}
