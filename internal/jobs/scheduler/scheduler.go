package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

const (
	DefaultInterval     = time.Hour
	DefaultMisfireGrace = 60 * time.Second
	DefaultLockTTL      = 30 * time.Minute
)

// Skip reasons reported to the skip hook.
const (
	SkipOverlap = "overlap"
	SkipMisfire = "misfire"
	SkipLocked  = "locked"
)

var (
	ErrOverlap = errors.New("scheduler: previous run still in progress")
	ErrLocked  = errors.New("scheduler: lock held by another instance")
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Locker is an optional cross-process mutex; a run only starts while holding it.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Config struct {
	Name         string
	Interval     time.Duration
	MisfireGrace time.Duration
	LockTTL      time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = "job"
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MisfireGrace < 0 {
		c.MisfireGrace = 0
	} else if c.MisfireGrace == 0 {
		c.MisfireGrace = DefaultMisfireGrace
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
	return c
}

type Option func(*Scheduler)

func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithSkipHook is called with a Skip* reason whenever a slot does not run.
func WithSkipHook(fn func(reason string)) Option {
	return func(s *Scheduler) { s.onSkip = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs a Job on a fixed interval, starting immediately. At most one run is in
// flight per process (and per Locker, when one is set); a slot whose start is later than
// the misfire grace is dropped rather than queued.
type Scheduler struct {
	cfg    Config
	job    Job
	log    *logger.Logger
	locker Locker
	onSkip func(reason string)
	now    func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
}

func New(cfg Config, job Job, baseLog *logger.Logger, opts ...Option) *Scheduler {
	cfg = cfg.withDefaults()
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	s := &Scheduler{
		cfg: cfg,
		job: job,
		log: baseLog.With("component", "Scheduler", "job", cfg.Name),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks until ctx is done, then waits for an in-flight run to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", "interval", s.cfg.Interval.String(), "misfire_grace", s.cfg.MisfireGrace.String())
	next := s.now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info("scheduler stopped")
			return
		case <-timer.C:
		}
		now := s.now()
		if shouldRun(next, now, s.cfg.MisfireGrace) {
			s.dispatch(ctx)
		} else {
			s.log.Warn("run skipped: missed its slot by more than the misfire grace",
				"scheduled", next, "late_by", now.Sub(next).String())
			s.skip(SkipMisfire)
		}
		next = nextAfter(next, now, s.cfg.Interval)
		timer.Reset(next.Sub(s.now()))
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		switch err := s.RunOnce(ctx); {
		case err == nil:
		case errors.Is(err, ErrOverlap):
			s.log.Warn("run skipped: previous run still in progress")
		case errors.Is(err, ErrLocked):
			s.log.Info("run skipped: another instance holds the lock")
		default:
			s.log.Error("scheduled run failed", "error", err)
		}
	}()
}

// RunOnce executes the job now under the same single-instance guards the loop uses.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	if !s.running.CompareAndSwap(false, true) {
		s.skip(SkipOverlap)
		return ErrOverlap
	}
	defer s.running.Store(false)

	if s.locker != nil {
		release, ok, lerr := s.locker.TryLock(ctx, s.cfg.Name, s.cfg.LockTTL)
		if lerr != nil {
			return fmt.Errorf("acquire lock: %w", lerr)
		}
		if !ok {
			s.skip(SkipLocked)
			return ErrLocked
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				s.log.Warn("lock release failed", "error", rerr)
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panic", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	start := time.Now()
	err = s.job(ctx)
	s.log.Info("scheduled run finished", "duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	return err
}

// Running reports whether a run is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) skip(reason string) {
	if s.onSkip != nil {
		s.onSkip(reason)
	}
}

// shouldRun reports whether a slot scheduled for scheduled may still start at now.
func shouldRun(scheduled, now time.Time, grace time.Duration) bool {
	return now.Sub(scheduled) <= grace
}

// nextAfter returns the first slot on the scheduled+k*interval grid strictly after now.
func nextAfter(scheduled, now time.Time, interval time.Duration) time.Time {
	next := scheduled.Add(interval)
	if next.After(now) {
		return next
	}
	missed := now.Sub(next)/interval + 1
	return next.Add(missed * interval)
}
