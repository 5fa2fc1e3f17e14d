// Package scenario implements the stress-load scenario engine of spec §4.7:
// response-stats accounting, the shared drain primitives, and the five
// scenario families (unmatched, adaptive, batched, dual-processor, threaded).
package scenario

import (
	"sync/atomic"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/satcount"
	"github.com/kstaniek/tradec/internal/wire"
)

// ResponseStats accumulates counts of every output message kind seen by a
// drain loop (spec §4.7 "Response statistics"). All fields are atomics, so
// Add and Merge are safe from multiple goroutines. The threaded scenario
// keeps its own counters in ThreadedState rather than a ResponseStats.
type ResponseStats struct {
	Acks        atomic.Uint64
	CancelAcks  atomic.Uint64
	Trades      atomic.Uint64
	TopOfBook   atomic.Uint64
	Rejects     atomic.Uint64
	ParseErrors atomic.Uint64
}

// NewResponseStats returns a zeroed ResponseStats.
func NewResponseStats() *ResponseStats { return &ResponseStats{} }

// Add classifies msg and increments the matching counter.
func (s *ResponseStats) Add(msg wire.OutputMessage) {
	switch msg.(type) {
	case wire.Ack:
		satcount.Inc(&s.Acks)
	case wire.CancelAck:
		satcount.Inc(&s.CancelAcks)
	case wire.Trade:
		satcount.Inc(&s.Trades)
	case wire.TopOfBook:
		satcount.Inc(&s.TopOfBook)
	case wire.Reject:
		satcount.Inc(&s.Rejects)
	}
}

// AddParseError records a message that failed to decode.
func (s *ResponseStats) AddParseError() {
	satcount.Inc(&s.ParseErrors)
	metrics.IncParseError()
}

// Total returns the sum of every successfully classified message kind
// (parse errors are not counted as messages).
func (s *ResponseStats) Total() uint64 {
	return s.Acks.Load() + s.CancelAcks.Load() + s.Trades.Load() + s.TopOfBook.Load() + s.Rejects.Load()
}

// Merge folds other's counts into s, the Go spelling of the spec
// pseudocode's `stats += quick_drain()`.
func (s *ResponseStats) Merge(other *ResponseStats) {
	if other == nil {
		return
	}
	satcount.Add(&s.Acks, other.Acks.Load())
	satcount.Add(&s.CancelAcks, other.CancelAcks.Load())
	satcount.Add(&s.Trades, other.Trades.Load())
	satcount.Add(&s.TopOfBook, other.TopOfBook.Load())
	satcount.Add(&s.Rejects, other.Rejects.Load())
	satcount.Add(&s.ParseErrors, other.ParseErrors.Load())
}

// Snapshot is a plain-value copy of ResponseStats, safe to log or compare.
type Snapshot struct {
	Acks        uint64
	CancelAcks  uint64
	Trades      uint64
	TopOfBook   uint64
	Rejects     uint64
	ParseErrors uint64
}

func (s *ResponseStats) Snapshot() Snapshot {
	return Snapshot{
		Acks:        s.Acks.Load(),
		CancelAcks:  s.CancelAcks.Load(),
		Trades:      s.Trades.Load(),
		TopOfBook:   s.TopOfBook.Load(),
		Rejects:     s.Rejects.Load(),
		ParseErrors: s.ParseErrors.Load(),
	}
}

// ValidationReport is the outcome of checking observed counts against what a
// scenario expected to see.
type ValidationReport struct {
	Pass          bool
	ExpectedAcks  uint64
	ObservedAcks  uint64
	MissingAcks   uint64
	ExpectedTrade uint64
	ObservedTrade uint64
	MissingTrades uint64
}

// ValidationReport compares observed Acks/Trades against expected counts.
func (s *ResponseStats) ValidationReport(expectedAcks, expectedTrades uint64) ValidationReport {
	acks, trades := s.Acks.Load(), s.Trades.Load()
	r := ValidationReport{
		ExpectedAcks:  expectedAcks,
		ObservedAcks:  acks,
		ExpectedTrade: expectedTrades,
		ObservedTrade: trades,
	}
	if acks < expectedAcks {
		r.MissingAcks = expectedAcks - acks
	}
	if trades < expectedTrades {
		r.MissingTrades = expectedTrades - trades
	}
	r.Pass = r.MissingAcks == 0 && r.MissingTrades == 0
	return r
}

// classifyAndAdd decodes raw via c and folds the result into s, recording a
// parse error instead of aborting when decoding fails (spec §4.7: "on parse
// failure increment parse_errors but do not abort").
func classifyAndAdd(c *client.Client, s *ResponseStats, raw []byte) {
	msg, err := c.DecodeMessage(raw)
	if err != nil {
		s.AddParseError()
		return
	}
	s.Add(msg)
}
