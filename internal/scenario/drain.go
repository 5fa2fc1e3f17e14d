package scenario

import (
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/wire"
)

// Safety/pacing constants shared by the drain primitives (spec §4.7).
const (
	QuickDrainLimit    = 10000
	MaxConsecutiveEmpty = 500
	patientPollInterval = 10 * time.Millisecond
)

// QuickDrain is a non-blocking sweep: it keeps calling TryRecv(0) until the
// first empty result or until QuickDrainLimit iterations have run, whichever
// comes first.
func QuickDrain(c *client.Client) *ResponseStats {
	s := NewResponseStats()
	for i := 0; i < QuickDrainLimit; i++ {
		raw, err := c.TryRecvRaw(0)
		if err != nil || raw == nil {
			break
		}
		classifyAndAdd(c, s, raw)
	}
	return s
}

// QuickDrainMessages is QuickDrain's sibling for callers that need the
// decoded messages themselves rather than just their counts — the
// interactive REPL prints each one as it arrives (spec §7).
func QuickDrainMessages(c *client.Client) []wire.OutputMessage {
	var out []wire.OutputMessage
	for i := 0; i < QuickDrainLimit; i++ {
		raw, err := c.TryRecvRaw(0)
		if err != nil || raw == nil {
			break
		}
		msg, err := c.DecodeMessage(raw)
		if err != nil {
			metrics.IncParseError()
			continue
		}
		out = append(out, msg)
	}
	return out
}

// PatientDrain polls TryRecv at ~10ms intervals until stats.Total() reaches
// expected, wall-clock exceeds timeoutMs, or MaxConsecutiveEmpty empty polls
// accumulate in a row. A non-empty receive resets the empty-poll counter.
func PatientDrain(c *client.Client, expected uint64, timeoutMs int) *ResponseStats {
	s := NewResponseStats()
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	emptyPolls := 0
	for s.Total() < expected && time.Now().Before(deadline) && emptyPolls < MaxConsecutiveEmpty {
		raw, err := c.TryRecvRaw(patientPollInterval)
		if err != nil {
			emptyPolls++
			continue
		}
		if raw == nil {
			emptyPolls++
			continue
		}
		emptyPolls = 0
		classifyAndAdd(c, s, raw)
	}
	return s
}

// BatchDrain is like PatientDrain but its stopping condition counts only
// messages actually received (not the classified Total()), which is what a
// caller pacing against a send batch of known size wants.
func BatchDrain(c *client.Client, expected, maxEmpty int, pollMs int) *ResponseStats {
	s := NewResponseStats()
	received := 0
	emptyPolls := 0
	poll := time.Duration(pollMs) * time.Millisecond
	for received < expected && emptyPolls < maxEmpty {
		raw, err := c.TryRecvRaw(poll)
		if err != nil || raw == nil {
			emptyPolls++
			continue
		}
		emptyPolls = 0
		received++
		classifyAndAdd(c, s, raw)
	}
	return s
}

// DrainUntilTrades mutates stats in place, looping until stats.Trades
// reaches targetTrades or no new trade has arrived for maxStallMs. The stall
// timer is keyed on the Trades counter changing, not on raw receive activity.
func DrainUntilTrades(c *client.Client, stats *ResponseStats, targetTrades uint64, maxStallMs int) {
	stall := time.Duration(maxStallMs) * time.Millisecond
	lastTrades := stats.Trades.Load()
	lastProgress := time.Now()
	for stats.Trades.Load() < targetTrades {
		if time.Since(lastProgress) >= stall {
			return
		}
		raw, err := c.TryRecvRaw(patientPollInterval)
		if err != nil || raw == nil {
			continue
		}
		classifyAndAdd(c, stats, raw)
		if t := stats.Trades.Load(); t != lastTrades {
			lastTrades = t
			lastProgress = time.Now()
		}
	}
}
