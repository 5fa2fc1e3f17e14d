package scenario

import "testing"

func TestUnmatchedStressNoTrades(t *testing.T) {
	addr := startFakeMatchingEngine(t)
	c := newTestClient(t, addr)

	result, err := UnmatchedStress(c, 20)
	if err != nil {
		t.Fatalf("unmatched stress: %v", err)
	}
	if result.Sent != 20 {
		t.Fatalf("got sent %d, want 20", result.Sent)
	}
	if !result.Validate.Pass {
		t.Fatalf("validation failed: %+v", result.Validate)
	}
	if result.Validate.ObservedTrade != 0 {
		t.Fatalf("expected no trades, got %d", result.Validate.ObservedTrade)
	}
}
