package latency

import (
	"testing"
	"time"
)

func TestTrackerRecordMinMaxAvg(t *testing.T) {
	tr := New()
	if tr.MinNS() != 0 || tr.MaxNS() != 0 || tr.AvgNS() != 0 {
		t.Fatalf("expected zero values on empty tracker")
	}
	tr.Record(100)
	tr.Record(50)
	tr.Record(150)
	if tr.MinNS() != 50 {
		t.Fatalf("got min %d, want 50", tr.MinNS())
	}
	if tr.MaxNS() != 150 {
		t.Fatalf("got max %d, want 150", tr.MaxNS())
	}
	if tr.Count() != 3 {
		t.Fatalf("got count %d, want 3", tr.Count())
	}
	if got, want := tr.AvgNS(), uint64(100); got != want {
		t.Fatalf("got avg %d, want %d", got, want)
	}
}

func TestTimerStopIsIdempotent(t *testing.T) {
	tr := New()
	timer := tr.StartTimer()
	time.Sleep(time.Millisecond)
	timer.Stop()
	timer.Stop() // must not record a second sample
	if tr.Count() != 1 {
		t.Fatalf("got count %d, want 1", tr.Count())
	}
}

func TestElapsedNonPositiveReturnsZero(t *testing.T) {
	future := time.Now().Add(time.Hour)
	if got := Elapsed(future); got != 0 {
		t.Fatalf("got %d, want 0 for a start time in the future", got)
	}
}
