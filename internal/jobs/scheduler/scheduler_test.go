package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldRun(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	grace := time.Minute
	cases := []struct {
		now  time.Time
		want bool
	}{
		{base, true},
		{base.Add(59 * time.Second), true},
		{base.Add(time.Minute), true},
		{base.Add(61 * time.Second), false},
		{base.Add(-time.Second), true},
	}
	for _, tc := range cases {
		if got := shouldRun(base, tc.now, grace); got != tc.want {
			t.Fatalf("shouldRun(late=%s): want=%v got=%v", tc.now.Sub(base), tc.want, got)
		}
	}
}

func TestNextAfterDropsMissedSlots(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{base, base.Add(time.Hour)},
		{base.Add(30 * time.Minute), base.Add(time.Hour)},
		{base.Add(time.Hour), base.Add(2 * time.Hour)},
		{base.Add(3*time.Hour + time.Minute), base.Add(4 * time.Hour)},
	}
	for _, tc := range cases {
		if got := nextAfter(base, tc.now, time.Hour); !got.Equal(tc.want) {
			t.Fatalf("nextAfter(now=%s): want=%s got=%s", tc.now, tc.want, got)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Interval != DefaultInterval || cfg.MisfireGrace != DefaultMisfireGrace || cfg.LockTTL != DefaultLockTTL || cfg.Name == "" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	var skips []string
	var mu sync.Mutex

	s := New(Config{Name: "sweep"}, func(ctx context.Context) error {
		close(started)
		<-unblock
		return nil
	}, nil, WithSkipHook(func(reason string) {
		mu.Lock()
		skips = append(skips, reason)
		mu.Unlock()
	}))

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-started

	if err := s.RunOnce(context.Background()); !errors.Is(err, ErrOverlap) {
		t.Fatalf("second RunOnce: want=ErrOverlap got=%v", err)
	}
	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	if s.Running() {
		t.Fatalf("guard should be released after the run")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(skips) != 1 || skips[0] != SkipOverlap {
		t.Fatalf("skips: want=[overlap] got=%v", skips)
	}
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	return func(context.Context) error { l.released++; return nil }, true, nil
}

func TestRunOnceHonorsLocker(t *testing.T) {
	var runs int
	job := func(ctx context.Context) error { runs++; return nil }

	held := &fakeLocker{held: true}
	if err := New(Config{}, job, nil, WithLocker(held)).RunOnce(context.Background()); !errors.Is(err, ErrLocked) {
		t.Fatalf("held lock: want=ErrLocked got=%v", err)
	}
	if runs != 0 {
		t.Fatalf("job ran while lock held")
	}

	broken := &fakeLocker{err: errors.New("redis down")}
	if err := New(Config{}, job, nil, WithLocker(broken)).RunOnce(context.Background()); err == nil || errors.Is(err, ErrLocked) {
		t.Fatalf("lock error: want wrapped error got=%v", err)
	}

	free := &fakeLocker{}
	if err := New(Config{}, job, nil, WithLocker(free)).RunOnce(context.Background()); err != nil {
		t.Fatalf("free lock: %v", err)
	}
	if runs != 1 || free.released != 1 {
		t.Fatalf("runs=%d released=%d", runs, free.released)
	}
}

func TestRunOnceRecoversPanics(t *testing.T) {
	s := New(Config{}, func(ctx context.Context) error { panic("boom") }, nil)
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if s.Running() {
		t.Fatalf("guard should be released after a panic")
	}
}

func TestRunStartsImmediatelyAndSurvivesFailures(t *testing.T) {
	var calls atomic.Int32
	ran := make(chan struct{}, 8)
	s := New(Config{Interval: 20 * time.Millisecond, MisfireGrace: time.Second}, func(ctx context.Context) error {
		calls.Add(1)
		ran <- struct{}{}
		return errors.New("always fails")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d did not happen", i+1)
		}
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
	if calls.Load() < 2 {
		t.Fatalf("calls: want>=2 got=%d", calls.Load())
	}
}
