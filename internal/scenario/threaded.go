package scenario

import (
	"sync/atomic"
	"time"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/logging"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/satcount"
	"github.com/kstaniek/tradec/internal/wire"
)

// Threaded matching-stress parameters (spec §4.7 "Threaded matching stress").
const (
	threadedReceiverPoll     = time.Millisecond
	threadedTailPoll         = 10 * time.Millisecond
	threadedTailMaxEmpty     = 100
	threadedTailIdleCap      = 5 * time.Second
	threadedJoinWaitCap      = 10 * time.Second
	threadedProgressInterval = 50 * time.Millisecond
)

// ThreadedState is the atomic counter block shared by the sender and
// receiver goroutines. Only SenderDone and ReceiverShouldStop are boolean
// signals; every counter is a monotonic fetch-add (spec §4.7). StartTime is
// set before either goroutine starts and SendEndTime is written once by the
// sender; the main goroutine reads them only after it has joined the
// sender, so they need no atomic wrapper.
type ThreadedState struct {
	PairsSent        atomic.Uint64
	MessagesReceived atomic.Uint64
	Acks             atomic.Uint64
	Trades           atomic.Uint64
	TopOfBook        atomic.Uint64
	SendErrors       atomic.Uint64
	RecvErrors       atomic.Uint64

	SenderDone         atomic.Bool
	ReceiverShouldStop atomic.Bool

	TargetTrades uint64
	StartTime    time.Time
	SendEndTime  time.Time
}

// ThreadedResult reports the outcome of a ThreadedMatchingStress run.
type ThreadedResult struct {
	PairsSent        uint64
	MessagesReceived uint64
	SendErrors       uint64
	RecvErrors       uint64
	Elapsed          time.Duration
	Validate         ValidationReport
}

// ThreadedMatchingStress runs the sender and receiver as two goroutines
// cooperating solely through ThreadedState's atomics, the one concurrency
// pattern this engine uses beyond a single goroutine per scenario (spec §5).
// c is shared between both goroutines: one calls only the Send* methods,
// the other calls only TryRecvRaw/DecodeMessage, matching the split-handle
// send/receive discipline the underlying net.Conn and Client's atomics allow.
func ThreadedMatchingStress(c *client.Client, targetTrades int) (ThreadedResult, error) {
	state := &ThreadedState{TargetTrades: uint64(targetTrades), StartTime: time.Now()}

	senderDone := make(chan struct{})
	receiverDone := make(chan struct{})

	go func() {
		defer close(senderDone)
		threadedSenderLoop(c, state)
	}()
	go func() {
		defer close(receiverDone)
		threadedReceiverLoop(c, state)
	}()

	reportProgress(state, targetTrades, senderDone)
	<-senderDone

	finalPairs := state.PairsSent.Load()
	deadline := time.Now().Add(threadedJoinWaitCap)
	for state.MessagesReceived.Load() < 5*finalPairs && time.Now().Before(deadline) {
		time.Sleep(threadedTailPoll)
	}
	state.ReceiverShouldStop.Store(true)
	<-receiverDone

	return ThreadedResult{
		PairsSent:        finalPairs,
		MessagesReceived: state.MessagesReceived.Load(),
		SendErrors:       state.SendErrors.Load(),
		RecvErrors:       state.RecvErrors.Load(),
		Elapsed:          state.SendEndTime.Sub(state.StartTime),
		Validate:         threadedValidationReport(state, finalPairs),
	}, nil
}

func threadedValidationReport(state *ThreadedState, finalPairs uint64) ValidationReport {
	acks, trades := state.Acks.Load(), state.Trades.Load()
	expectedAcks, expectedTrades := 2*finalPairs, finalPairs
	r := ValidationReport{ExpectedAcks: expectedAcks, ObservedAcks: acks, ExpectedTrade: expectedTrades, ObservedTrade: trades}
	if acks < expectedAcks {
		r.MissingAcks = expectedAcks - acks
	}
	if trades < expectedTrades {
		r.MissingTrades = expectedTrades - trades
	}
	r.Pass = r.MissingAcks == 0 && r.MissingTrades == 0
	return r
}

func reportProgress(state *ThreadedState, targetTrades int, senderDone <-chan struct{}) {
	if targetTrades <= 0 {
		return
	}
	reported := map[int]bool{25: false, 50: false, 75: false}
	ticker := time.NewTicker(threadedProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-senderDone:
			return
		case <-ticker.C:
			if want, got := 5*state.PairsSent.Load(), state.MessagesReceived.Load(); want > got {
				metrics.SetThreadedQueueDepth(int(want - got))
			} else {
				metrics.SetThreadedQueueDepth(0)
			}
			pct := int(state.PairsSent.Load() * 100 / uint64(targetTrades))
			for _, mark := range [3]int{25, 50, 75} {
				if pct >= mark && !reported[mark] {
					reported[mark] = true
					logging.L().Info("threaded_progress", "percent", mark, "pairs_sent", state.PairsSent.Load())
				}
			}
		}
	}
}

func threadedSenderLoop(c *client.Client, state *ThreadedState) {
	for i := 0; i < int(state.TargetTrades); i++ {
		price := uint32(100 + i%50)
		buyErr := c.SendNewOrder(1, "IBM", price, 10, wire.Buy, uint32(2*i+1))
		sellErr := c.SendNewOrder(2, "IBM", price, 10, wire.Sell, uint32(2*i+2))
		if buyErr != nil || sellErr != nil {
			satcount.Inc(&state.SendErrors)
			metrics.IncError(metrics.ErrSend)
			continue
		}
		satcount.Inc(&state.PairsSent)
	}
	state.SendEndTime = time.Now()
	state.SenderDone.Store(true)
}

func threadedReceiverLoop(c *client.Client, state *ThreadedState) {
	for !state.SenderDone.Load() && !state.ReceiverShouldStop.Load() {
		threadedPollOnce(c, state, threadedReceiverPoll)
		if threadedThresholdReached(state) {
			return
		}
	}
	if state.ReceiverShouldStop.Load() {
		return
	}
	threadedTailDrain(c, state)
}

// threadedTailDrain is the patient tail phase entered once the sender has
// finished: poll more slowly, give up after enough consecutive empties or
// too much total idle time.
func threadedTailDrain(c *client.Client, state *ThreadedState) {
	emptyPolls := 0
	deadline := time.Now().Add(threadedTailIdleCap)
	for emptyPolls < threadedTailMaxEmpty && time.Now().Before(deadline) {
		if state.ReceiverShouldStop.Load() || threadedThresholdReached(state) {
			return
		}
		if threadedPollOnce(c, state, threadedTailPoll) {
			emptyPolls = 0
		} else {
			emptyPolls++
		}
	}
}

// threadedPollOnce performs one TryRecvRaw and folds the result into state.
// It returns true if a message was actually received (used to reset the
// tail-drain empty-poll counter).
func threadedPollOnce(c *client.Client, state *ThreadedState, timeout time.Duration) bool {
	raw, err := c.TryRecvRaw(timeout)
	if err != nil {
		satcount.Inc(&state.RecvErrors)
		return false
	}
	if raw == nil {
		return false
	}
	satcount.Inc(&state.MessagesReceived)
	msg, err := c.DecodeMessage(raw)
	if err != nil {
		return true
	}
	switch msg.(type) {
	case wire.Ack:
		satcount.Inc(&state.Acks)
	case wire.Trade:
		satcount.Inc(&state.Trades)
	case wire.TopOfBook:
		satcount.Inc(&state.TopOfBook)
	}
	return true
}

func threadedThresholdReached(state *ThreadedState) bool {
	return state.MessagesReceived.Load() >= 5*state.TargetTrades && state.SenderDone.Load()
}
