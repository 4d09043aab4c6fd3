package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("RealClock.Now() = %v, expected >= %v", now, before)
	}
}

func TestRealClock_Ticker(t *testing.T) {
	c := RealClock{}
	ticker := c.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Advance(20 * time.Millisecond)
	if got := c.Now(); !got.Equal(start.Add(20 * time.Millisecond)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(20*time.Millisecond))
	}
}

func TestMockTicker_FiresOnInterval(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	ticker := c.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	if c.TickerCount() != 1 {
		t.Fatalf("TickerCount() = %d, want 1", c.TickerCount())
	}

	c.Advance(10 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(10 * time.Millisecond)
	select {
	case got := <-ticker.C():
		if !got.Equal(start.Add(20 * time.Millisecond)) {
			t.Errorf("tick time = %v, want %v", got, start.Add(20*time.Millisecond))
		}
	default:
		t.Fatal("ticker did not fire at its interval")
	}
}

func TestMockTicker_Stop(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(time.Millisecond)
	ticker.Stop()

	c.Advance(10 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker should not fire")
	default:
	}
}
