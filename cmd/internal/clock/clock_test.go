package clock

import (
	"testing"
	"time"
)

func TestManual_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	c := NewManual(start)

	if got := c.Now(); !got.Equal(start) || got.Location() != time.UTC {
		t.Fatalf("Now = %v, want %v in UTC", got, start)
	}

	if got := c.Advance(10 * time.Minute); !got.Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("Advance = %v", got)
	}

	later := start.Add(48 * time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Fatalf("Set did not apply")
	}
}

func TestOrSystem(t *testing.T) {
	if _, ok := OrSystem(nil).(System); !ok {
		t.Fatalf("expected System fallback")
	}
	m := NewManual(time.Unix(0, 0))
	if OrSystem(m) != Clock(m) {
		t.Fatalf("expected passthrough")
	}
	if loc := (System{}).Now().Location(); loc != time.UTC {
		t.Fatalf("system clock not UTC: %v", loc)
	}
}
