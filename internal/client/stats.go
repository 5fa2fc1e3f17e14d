package client

import "sync/atomic"

// Stats holds saturating send/receive counters (spec §4.6 stats()).
type Stats struct {
	SentNewOrder atomic.Uint64
	SentCancel   atomic.Uint64
	SentFlush    atomic.Uint64
	Received     atomic.Uint64
	SendErrors   atomic.Uint64
	RecvErrors   atomic.Uint64
}

// Snapshot is a point-in-time plain-value copy of Stats, safe to log or compare.
type Snapshot struct {
	SentNewOrder uint64
	SentCancel   uint64
	SentFlush    uint64
	Received     uint64
	SendErrors   uint64
	RecvErrors   uint64
}

func (s *Stats) snapshot() Snapshot {
	return Snapshot{
		SentNewOrder: s.SentNewOrder.Load(),
		SentCancel:   s.SentCancel.Load(),
		SentFlush:    s.SentFlush.Load(),
		Received:     s.Received.Load(),
		SendErrors:   s.SendErrors.Load(),
		RecvErrors:   s.RecvErrors.Load(),
	}
}
