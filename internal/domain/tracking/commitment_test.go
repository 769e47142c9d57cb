package tracking

import "testing"

func TestProgressPercentage(t *testing.T) {
	if got := ProgressPercentage(50, 0); got != 0 {
		t.Fatalf("target 0: want=0 got=%v", got)
	}
	if got := ProgressPercentage(50, -3); got != 0 {
		t.Fatalf("negative target: want=0 got=%v", got)
	}
	if got := ProgressPercentage(1, 3); got != 33.3 {
		t.Fatalf("rounding: want=33.3 got=%v", got)
	}
	if got := ProgressPercentage(500, 60); got != 100 {
		t.Fatalf("cap: want=100 got=%v", got)
	}

	prev := -1.0
	for actual := 0.0; actual <= 200; actual += 0.7 {
		pct := ProgressPercentage(actual, 90)
		if pct < prev {
			t.Fatalf("percentage decreased at actual=%v: %v < %v", actual, pct, prev)
		}
		prev = pct
	}
}

func TestProgressStatus(t *testing.T) {
	cases := map[float64]string{
		100:  ProgressComplete,
		75:   ProgressApproaching,
		74.9: ProgressOnTrack,
		50:   ProgressOnTrack,
		25:   ProgressWarning,
		24.9: ProgressBehind,
		0:    ProgressBehind,
	}
	for pct, want := range cases {
		if got := ProgressStatus(pct); got != want {
			t.Fatalf("status(%v): want=%s got=%s", pct, want, got)
		}
	}
}

func TestClampBalance(t *testing.T) {
	if got := ClampBalance(500, -100, 100); got != 100 {
		t.Fatalf("upper clamp: got=%d", got)
	}
	if got := ClampBalance(-500, -100, 100); got != -100 {
		t.Fatalf("lower clamp: got=%d", got)
	}
	if got := ClampBalance(7, -100, 100); got != 7 {
		t.Fatalf("passthrough: got=%d", got)
	}
	lo, hi := DefaultBalanceBounds(30)
	if lo != -120 || hi != 120 {
		t.Fatalf("default bounds: got=[%d,%d]", lo, hi)
	}
}
