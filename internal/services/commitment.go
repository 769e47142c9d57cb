package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

const (
	defaultStreakPeriods = 8
	// MaxStreakPeriods caps how far back a streak request may look.
	MaxStreakPeriods = 520
	recentDays           = 14
	// daily streak history is loaded in windows of this many days
	streakWindowDays = 60
)

type CommitmentProgress struct {
	CommitmentID   uuid.UUID `json:"commitment_id"`
	Actual         float64   `json:"actual"`
	Target         int       `json:"target"`
	Percentage     float64   `json:"percentage"`
	Balance        int       `json:"balance"`
	CurrentSurplus float64   `json:"current_surplus"`
	Status         string    `json:"status"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

type DayActivity struct {
	Date   string `json:"date"`
	Active bool   `json:"active"`
}

type DailyStreak struct {
	CurrentStreak int           `json:"current_streak"`
	RecentDays    []DayActivity `json:"recent_days"`
}

type StreakPeriod struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Actual     float64   `json:"actual"`
	Target     int       `json:"target"`
	Met        bool      `json:"met"`
	InProgress bool      `json:"in_progress"`
}

type CommitmentStreak struct {
	CommitmentID  uuid.UUID      `json:"commitment_id"`
	CurrentStreak int            `json:"current_streak"`
	Periods       []StreakPeriod `json:"periods"`
}

// CommitmentService is the read side of the commitment engine plus thin wrappers over the
// commitment aggregate. A uuid.Nil owner skips the ownership check (admin callers).
type CommitmentService interface {
	Create(ctx context.Context, in domainagg.CreateCommitmentInput) (*types.Commitment, error)
	Get(ctx context.Context, ownerUserID, commitmentID uuid.UUID) (*types.Commitment, error)
	List(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error)

	// Progress measures the period containing now (zero means the service clock).
	Progress(ctx context.Context, ownerUserID, commitmentID uuid.UUID, now time.Time) (*CommitmentProgress, error)
	// DailyStreak reads ref as a calendar date in the owner's zone; zero means today.
	DailyStreak(ctx context.Context, ownerUserID uuid.UUID, ref time.Time) (*DailyStreak, error)
	CommitmentStreak(ctx context.Context, ownerUserID, commitmentID uuid.UUID, numPeriods int) (*CommitmentStreak, error)

	Reconcile(ctx context.Context, ownerUserID, commitmentID uuid.UUID, force bool) (domainagg.ReconcileResult, error)
	// ReconcileActive reconciles every active commitment of an owner and returns how many banked.
	ReconcileActive(ctx context.Context, ownerUserID uuid.UUID) (int, error)
}

type CommitmentServiceDeps struct {
	Aggregate   domainagg.CommitmentAggregate
	Commitments repos.CommitmentRepo
	Sessions    repos.SessionRepo
	Users       repos.UserRepo
	Metrics     *observability.Metrics

	DefaultLocation *time.Location
	Now             func() time.Time
}

type commitmentService struct {
	log  *logger.Logger
	deps CommitmentServiceDeps
}

func NewCommitmentService(log *logger.Logger, deps CommitmentServiceDeps) CommitmentService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DefaultLocation == nil {
		deps.DefaultLocation = time.UTC
	}
	return &commitmentService{
		log:  log.With("service", "CommitmentService"),
		deps: deps,
	}
}

func (s *commitmentService) Create(ctx context.Context, in domainagg.CreateCommitmentInput) (*types.Commitment, error) {
	res, err := s.deps.Aggregate.CreateCommitment(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, in.OwnerUserID, res.CommitmentID)
}

func (s *commitmentService) Get(ctx context.Context, ownerUserID, commitmentID uuid.UUID) (*types.Commitment, error) {
	const op = "Commitment.Get"
	c, err := s.deps.Commitments.GetByID(dbctx.Context{Ctx: ctx}, commitmentID)
	if err != nil {
		return nil, err
	}
	if c == nil || (ownerUserID != uuid.Nil && c.OwnerUserID != ownerUserID) {
		return nil, domainagg.NotFoundf(op, "commitment not found: %s", commitmentID)
	}
	return c, nil
}

func (s *commitmentService) List(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error) {
	return s.deps.Commitments.ListByOwner(dbctx.Context{Ctx: ctx}, ownerUserID)
}

func (s *commitmentService) Progress(ctx context.Context, ownerUserID, commitmentID uuid.UUID, now time.Time) (*CommitmentProgress, error) {
	c, err := s.Get(ctx, ownerUserID, commitmentID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	loc, err := s.location(dbc, c.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = s.deps.Now()
	}
	start, end, err := tracking.Bounds(c.Period, now.In(loc))
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, "Commitment.Progress", err.Error(), err)
	}
	actual, err := s.actual(dbc, c, start, end)
	if err != nil {
		return nil, err
	}
	pct := tracking.ProgressPercentage(actual, c.Target)
	return &CommitmentProgress{
		CommitmentID:   c.ID,
		Actual:         actual,
		Target:         c.Target,
		Percentage:     pct,
		Balance:        c.Balance,
		CurrentSurplus: actual - float64(c.Target),
		Status:         tracking.ProgressStatus(pct),
		PeriodStart:    start,
		PeriodEnd:      end,
	}, nil
}

func (s *commitmentService) DailyStreak(ctx context.Context, ownerUserID uuid.UUID, ref time.Time) (*DailyStreak, error) {
	const op = "Commitment.DailyStreak"
	if ownerUserID == uuid.Nil {
		return nil, domainagg.Validationf(op, "missing owner")
	}
	dbc := dbctx.Context{Ctx: ctx}
	loc, err := s.location(dbc, ownerUserID)
	if err != nil {
		return nil, err
	}
	var refDate time.Time
	if ref.IsZero() {
		refDate = tracking.LocalDate(s.deps.Now(), loc)
	} else {
		y, m, d := ref.Date()
		refDate = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	days := &activeDays{
		dbc:   dbc,
		repo:  s.deps.Sessions,
		owner: ownerUserID,
		loc:   loc,
		set:   map[string]bool{},
		lower: refDate.AddDate(0, 0, 1),
	}

	out := &DailyStreak{RecentDays: make([]DayActivity, 0, recentDays)}
	for i := recentDays - 1; i >= 0; i-- {
		day := refDate.AddDate(0, 0, -i)
		ok, err := days.active(day)
		if err != nil {
			return nil, err
		}
		out.RecentDays = append(out.RecentDays, DayActivity{Date: day.Format("2006-01-02"), Active: ok})
	}

	day := refDate
	ok, err := days.active(day)
	if err != nil {
		return nil, err
	}
	if !ok {
		day = day.AddDate(0, 0, -1)
	}
	for {
		ok, err := days.active(day)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}
	return out, nil
}

func (s *commitmentService) CommitmentStreak(ctx context.Context, ownerUserID, commitmentID uuid.UUID, numPeriods int) (*CommitmentStreak, error) {
	const op = "Commitment.CommitmentStreak"
	c, err := s.Get(ctx, ownerUserID, commitmentID)
	if err != nil {
		return nil, err
	}
	if numPeriods <= 0 {
		numPeriods = defaultStreakPeriods
	}
	if numPeriods > MaxStreakPeriods {
		return nil, domainagg.Validationf(op, "periods must be at most %d", MaxStreakPeriods)
	}
	dbc := dbctx.Context{Ctx: ctx}
	loc, err := s.location(dbc, c.OwnerUserID)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now().In(loc)
	created := c.CreatedAt.In(loc)

	start, end, err := tracking.Bounds(c.Period, now)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	// Walk newest to oldest one period at a time, then flip to chronological order.
	newestFirst := make([]StreakPeriod, 0, numPeriods)
	for i := 0; i < numPeriods; i++ {
		if i > 0 {
			if start, end, err = tracking.Bounds(c.Period, start.Add(-time.Nanosecond)); err != nil {
				return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
			}
		}
		if end.Before(created) {
			break
		}
		actual, err := s.actual(dbc, c, start, end)
		if err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, StreakPeriod{
			Start:      start,
			End:        end,
			Actual:     actual,
			Target:     c.Target,
			Met:        actual >= float64(c.Target),
			InProgress: i == 0,
		})
	}
	out := &CommitmentStreak{CommitmentID: c.ID, Periods: make([]StreakPeriod, 0, len(newestFirst))}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		out.Periods = append(out.Periods, newestFirst[i])
	}
	for i := len(out.Periods) - 1; i >= 0; i-- {
		p := out.Periods[i]
		if p.InProgress {
			continue
		}
		if !p.Met {
			break
		}
		out.CurrentStreak++
	}
	return out, nil
}

func (s *commitmentService) Reconcile(ctx context.Context, ownerUserID, commitmentID uuid.UUID, force bool) (domainagg.ReconcileResult, error) {
	if _, err := s.Get(ctx, ownerUserID, commitmentID); err != nil {
		s.deps.Metrics.IncReconcile("failed")
		return domainagg.ReconcileResult{}, err
	}
	res, err := s.deps.Aggregate.Reconcile(ctx, domainagg.ReconcileInput{
		CommitmentID: commitmentID,
		Force:        force,
		Now:          s.deps.Now(),
	})
	switch {
	case err != nil:
		s.deps.Metrics.IncReconcile("failed")
	case res.Reconciled:
		s.deps.Metrics.IncReconcile("reconciled")
	default:
		s.deps.Metrics.IncReconcile("noop")
	}
	return res, err
}

func (s *commitmentService) ReconcileActive(ctx context.Context, ownerUserID uuid.UUID) (int, error) {
	rows, err := s.deps.Commitments.ListActive(dbctx.Context{Ctx: ctx}, ownerUserID)
	if err != nil {
		return 0, err
	}
	banked := 0
	for _, c := range rows {
		res, err := s.Reconcile(ctx, ownerUserID, c.ID, false)
		if err != nil {
			s.log.Warn("reconcile failed", "commitment_id", c.ID, "error", err)
			continue
		}
		if res.Reconciled {
			banked++
		}
	}
	return banked, nil
}

func (s *commitmentService) actual(dbc dbctx.Context, c *types.Commitment, start, end time.Time) (float64, error) {
	stats, err := s.deps.Sessions.CompletedStatsInRange(dbc, c.ProjectID, start, end)
	if err != nil {
		return 0, err
	}
	return c.Actual(stats.Minutes, stats.Count), nil
}

func (s *commitmentService) location(dbc dbctx.Context, ownerUserID uuid.UUID) (*time.Location, error) {
	if s.deps.Users == nil {
		return s.deps.DefaultLocation, nil
	}
	u, err := s.deps.Users.GetByID(dbc, ownerUserID)
	if err != nil {
		return nil, err
	}
	return u.Location(s.deps.DefaultLocation), nil
}

// activeDays lazily loads owner-local dates that have at least one completed session,
// extending the loaded window backwards as the walk needs it.
type activeDays struct {
	dbc   dbctx.Context
	repo  repos.SessionRepo
	owner uuid.UUID
	loc   *time.Location
	set   map[string]bool
	lower time.Time
}

func (a *activeDays) active(day time.Time) (bool, error) {
	for day.Before(a.lower) {
		from := a.lower.AddDate(0, 0, -streakWindowDays)
		ends, err := a.repo.ListCompletedEndTimes(a.dbc, a.owner, from, a.lower)
		if err != nil {
			return false, err
		}
		for _, t := range ends {
			a.set[tracking.LocalDate(t, a.loc).Format("2006-01-02")] = true
		}
		a.lower = from
		if len(ends) == 0 && day.Before(from) {
			// nothing older in this window; the walk stops at the first inactive day anyway
			return false, nil
		}
	}
	return a.set[day.Format("2006-01-02")], nil
}
