package ratelimit

import (
	"testing"
	"time"
)

func TestCounterThrottlesWithinInterval(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewCounter(time.Minute)
	c.now = func() time.Time { return now }

	if ok, n := c.Allow(); !ok || n != 0 {
		t.Fatalf("expected first event through, got ok=%t suppressed=%d", ok, n)
	}
	for i := 0; i < 3; i++ {
		if ok, _ := c.Allow(); ok {
			t.Fatalf("expected event %d to be held back", i)
		}
	}
	now = now.Add(time.Minute)
	if ok, n := c.Allow(); !ok || n != 3 {
		t.Fatalf("expected event after interval with 3 suppressed, got ok=%t suppressed=%d", ok, n)
	}
}

func TestCounterReset(t *testing.T) {
	c := NewCounter(time.Hour)
	c.Allow()
	c.Allow()
	if n := c.Reset(); n != 1 {
		t.Fatalf("expected 1 suppressed, got %d", n)
	}
	if ok, _ := c.Allow(); !ok {
		t.Fatalf("expected reset to re-arm the counter")
	}
}

func TestCounterZeroIntervalAndNil(t *testing.T) {
	c := NewCounter(0)
	for i := 0; i < 3; i++ {
		if ok, _ := c.Allow(); !ok {
			t.Fatalf("expected zero interval to allow every event")
		}
	}
	var nilCounter *Counter
	if ok, _ := nilCounter.Allow(); !ok || nilCounter.Reset() != 0 {
		t.Fatalf("expected nil counter to allow")
	}
}
