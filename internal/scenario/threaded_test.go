package scenario

import "testing"

func TestThreadedMatchingStressAllTradesFill(t *testing.T) {
	addr := startFakeMatchingEngine(t)
	c := newTestClient(t, addr)

	result, err := ThreadedMatchingStress(c, 20)
	if err != nil {
		t.Fatalf("threaded stress: %v", err)
	}
	if result.PairsSent != 20 {
		t.Fatalf("got pairs sent %d, want 20", result.PairsSent)
	}
	if result.SendErrors != 0 {
		t.Fatalf("unexpected send errors: %d", result.SendErrors)
	}
	if !result.Validate.Pass {
		t.Fatalf("validation failed: %+v", result.Validate)
	}
}
