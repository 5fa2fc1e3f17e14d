package scenario

import "testing"

func TestAdaptiveMatchingStressAllTradesFill(t *testing.T) {
	addr := startFakeMatchingEngine(t)
	c := newTestClient(t, addr)

	result, err := AdaptiveMatchingStress(c, 25)
	if err != nil {
		t.Fatalf("adaptive stress: %v", err)
	}
	if result.PairsSent != 25 {
		t.Fatalf("got pairs sent %d, want 25", result.PairsSent)
	}
	if !result.Validate.Pass {
		t.Fatalf("validation failed: %+v", result.Validate)
	}
	if result.Validate.ObservedTrade != 25 {
		t.Fatalf("got trades %d, want 25", result.Validate.ObservedTrade)
	}
}
