package ids

import (
	"testing"
	"time"
)

func TestNewAt_SortsByTime(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	a := NewAt(t0)
	b := NewAt(t0.Add(time.Second))

	if len(a) != 26 {
		t.Fatalf("expected 26-char ulid, got %q", a)
	}
	if !(a < b) {
		t.Fatalf("expected %s < %s", a, b)
	}
}

func TestNew_Monotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("expected monotonic ids, %s <= %s", next, prev)
		}
		prev = next
	}
}
