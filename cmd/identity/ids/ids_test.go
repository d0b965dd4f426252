package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULID_SortsByTime(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	a, err := NewULID(t0)
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	b, err := NewULID(t0.Add(time.Second))
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}

	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if a >= b {
		t.Fatalf("expected %s < %s", a, b)
	}
	parsed, err := ulid.Parse(a)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := ulid.Time(parsed.Time()); !got.Equal(t0) {
		t.Fatalf("timestamp = %v, want %v", got, t0)
	}
}

func TestNewStamp_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s, err := NewStamp()
		if err != nil {
			t.Fatalf("stamp: %v", err)
		}
		if seen[s] {
			t.Fatalf("duplicate stamp %s", s)
		}
		seen[s] = true
	}
}
