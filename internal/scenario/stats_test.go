package scenario

import (
	"testing"

	"github.com/kstaniek/tradec/internal/wire"
)

func TestResponseStatsAddClassifiesByKind(t *testing.T) {
	s := NewResponseStats()
	s.Add(wire.Ack{})
	s.Add(wire.Trade{})
	s.Add(wire.Trade{})
	s.Add(wire.TopOfBook{})
	s.AddParseError()

	snap := s.Snapshot()
	if snap.Acks != 1 || snap.Trades != 2 || snap.TopOfBook != 1 || snap.ParseErrors != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if got, want := s.Total(), uint64(4); got != want {
		t.Fatalf("got total %d, want %d (parse errors excluded)", got, want)
	}
}

func TestResponseStatsMerge(t *testing.T) {
	a := NewResponseStats()
	a.Add(wire.Ack{})
	b := NewResponseStats()
	b.Add(wire.Ack{})
	b.Add(wire.Trade{})

	a.Merge(b)
	if got, want := a.Total(), uint64(3); got != want {
		t.Fatalf("got total %d, want %d", got, want)
	}

	// Merge(nil) must be a safe no-op.
	a.Merge(nil)
	if got, want := a.Total(), uint64(3); got != want {
		t.Fatalf("merge(nil) changed total: got %d, want %d", got, want)
	}
}

func TestValidationReportDetectsShortfall(t *testing.T) {
	s := NewResponseStats()
	s.Add(wire.Ack{})

	r := s.ValidationReport(2, 1)
	if r.Pass {
		t.Fatalf("expected validation failure, got pass")
	}
	if r.MissingAcks != 1 || r.MissingTrades != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestValidationReportPassesWhenSatisfied(t *testing.T) {
	s := NewResponseStats()
	s.Add(wire.Ack{})
	s.Add(wire.Ack{})
	s.Add(wire.Trade{})

	r := s.ValidationReport(2, 1)
	if !r.Pass {
		t.Fatalf("expected validation pass, got %+v", r)
	}
}
