package aggregates

import (
	"testing"
	"time"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestWatermarkTimeDropsSubMicrosecond(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	in := time.Date(2026, 10, 14, 12, 0, 0, 123456789, loc)
	got := watermarkTime(in)
	if got.Location() != time.UTC {
		t.Fatalf("location: want=UTC got=%v", got.Location())
	}
	if got.Nanosecond() != 123456000 {
		t.Fatalf("nanoseconds: want=123456000 got=%d", got.Nanosecond())
	}
	if !got.Equal(in.Truncate(time.Microsecond)) {
		t.Fatalf("instant changed: %v vs %v", got, in)
	}
}
