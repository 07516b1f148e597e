package ratelimit

import (
	"testing"
	"time"
)

func TestAllowsWithinBurst(t *testing.T) {
	l := New(3, 0)
	for i := 0; i < 3; i++ {
		if !l.TryAcquire() {
			t.Fatalf("call %d should have been allowed", i)
		}
	}
	if l.TryAcquire() {
		t.Fatal("fourth call should be blocked with no refill")
	}
}

func TestRefillsOverTime(t *testing.T) {
	l := New(1, 1000) // fast refill so the test doesn't sleep long
	if !l.TryAcquire() {
		t.Fatal("first call should be allowed")
	}
	if l.TryAcquire() {
		t.Fatal("immediate second call should be blocked")
	}
	time.Sleep(5 * time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("call after refill should be allowed")
	}
}

func TestCapsAtMaxBurst(t *testing.T) {
	l := New(2, 1000)
	time.Sleep(10 * time.Millisecond)
	if !l.WouldAllow() {
		t.Fatal("expected tokens available")
	}
	l.TryAcquire()
	l.TryAcquire()
	if l.TryAcquire() {
		t.Fatal("tokens should be capped at max burst, not accumulate unbounded")
	}
}

func TestWouldAllowDoesNotConsume(t *testing.T) {
	l := New(1, 0)
	if !l.WouldAllow() {
		t.Fatal("expected token available")
	}
	if !l.WouldAllow() {
		t.Fatal("WouldAllow should not consume the token")
	}
	if !l.TryAcquire() {
		t.Fatal("token should still be available to consume")
	}
}

func TestTimeUntilAvailable(t *testing.T) {
	l := New(1, 1)
	l.TryAcquire()
	d := l.TimeUntilAvailable()
	if d <= 0 {
		t.Fatalf("expected a positive wait, got %v", d)
	}
}

func TestStats(t *testing.T) {
	l := New(1, 0)
	l.TryAcquire()
	l.TryAcquire()
	s := l.Stats()
	if s.TotalAllowed != 1 || s.TotalBlocked != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestReset(t *testing.T) {
	l := New(1, 0)
	l.TryAcquire()
	l.TryAcquire()
	l.Reset()
	s := l.Stats()
	if s.TotalAllowed != 0 || s.TotalBlocked != 0 {
		t.Fatalf("expected counters reset: %+v", s)
	}
	if !l.TryAcquire() {
		t.Fatal("expected full capacity after reset")
	}
}

func TestUnlimited(t *testing.T) {
	l := Unlimited()
	for i := 0; i < 1000; i++ {
		if !l.TryAcquire() {
			t.Fatalf("unlimited limiter blocked at call %d", i)
		}
	}
}

func TestDefaultForAI(t *testing.T) {
	l := DefaultForAI()
	for i := 0; i < 20; i++ {
		if !l.TryAcquire() {
			t.Fatalf("expected burst of 20 to be allowed, blocked at %d", i)
		}
	}
	if l.TryAcquire() {
		t.Fatal("21st immediate call should be blocked")
	}
}

func TestBlockRateWithNoOperations(t *testing.T) {
	var s Stats
	if s.BlockRate() != 0 {
		t.Fatalf("expected 0 block rate with no calls, got %v", s.BlockRate())
	}
}
