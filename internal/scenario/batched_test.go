package scenario

import "testing"

func TestBatchedMatchingStressAllTradesFill(t *testing.T) {
	addr := startFakeMatchingEngine(t)
	c := newTestClient(t, addr)

	result, err := BatchedMatchingStress(c, 30, 10)
	if err != nil {
		t.Fatalf("batched stress: %v", err)
	}
	if result.PairsSent != 30 {
		t.Fatalf("got pairs sent %d, want 30", result.PairsSent)
	}
	if !result.Validate.Pass {
		t.Fatalf("validation failed: %+v", result.Validate)
	}
}

func TestBatchedMatchingStressDefaultsBatchSize(t *testing.T) {
	addr := startFakeMatchingEngine(t)
	c := newTestClient(t, addr)

	result, err := BatchedMatchingStress(c, 5, 0)
	if err != nil {
		t.Fatalf("batched stress: %v", err)
	}
	if result.PairsSent != 5 {
		t.Fatalf("got pairs sent %d, want 5", result.PairsSent)
	}
}
