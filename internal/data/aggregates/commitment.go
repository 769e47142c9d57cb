package aggregates

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type CommitmentAggregateDeps struct {
	Base BaseDeps

	Commitments repos.CommitmentRepo
	Projects    repos.ProjectRepo
	Sessions    repos.SessionRepo
	Users       repos.UserRepo

	// DefaultLocation applies to owners without a time zone.
	DefaultLocation *time.Location
	Now             func() time.Time
}

type commitmentAggregate struct {
	deps CommitmentAggregateDeps
}

func NewCommitmentAggregate(deps CommitmentAggregateDeps) domainagg.CommitmentAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DefaultLocation == nil {
		deps.DefaultLocation = time.UTC
	}
	return &commitmentAggregate{deps: deps}
}

func (a *commitmentAggregate) Contract() domainagg.Contract {
	return domainagg.CommitmentAggregateContract
}

func (a *commitmentAggregate) configured() bool {
	return a.deps.Commitments != nil && a.deps.Projects != nil && a.deps.Sessions != nil
}

func (a *commitmentAggregate) CreateCommitment(ctx context.Context, in domainagg.CreateCommitmentInput) (domainagg.CommitmentResult, error) {
	const op = "Tracking.Commitment.CreateCommitment"
	var out domainagg.CommitmentResult
	if in.OwnerUserID == uuid.Nil || in.ProjectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id or project_id")
	}
	kind, err := tracking.ParsePeriodKind(in.Period)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	if in.CommitmentType != "" && !tracking.IsValidCommitmentType(in.CommitmentType) {
		return out, domainagg.Validationf(op, "unknown commitment type %q", in.CommitmentType)
	}
	if in.Target <= 0 {
		return out, domainagg.Validationf(op, "target must be positive")
	}
	lo, hi := tracking.DefaultBalanceBounds(in.Target)
	if in.MinBalance != nil {
		lo = *in.MinBalance
	}
	if in.MaxBalance != nil {
		hi = *in.MaxBalance
	}
	if lo > 0 || hi < 0 || lo > hi {
		return out, domainagg.Validationf(op, "balance bounds must satisfy min <= 0 <= max (got %d, %d)", lo, hi)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "commitment aggregate repos not configured", nil)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Projects.GetByID(dbc, in.ProjectID)
		if err != nil {
			return err
		}
		if !ownedProject(p, in.OwnerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", in.ProjectID)
		}
		c := &types.Commitment{
			OwnerUserID:    in.OwnerUserID,
			ProjectID:      p.ID,
			Period:         kind,
			CommitmentType: normalizeCommitmentType(in.CommitmentType),
			Target:         in.Target,
			Active:         true,
			BankingEnabled: in.BankingEnabled,
			MinBalance:     lo,
			MaxBalance:     hi,
		}
		if _, err := a.deps.Commitments.Create(dbc, []*types.Commitment{c}); err != nil {
			return err
		}
		out = domainagg.CommitmentResult{CommitmentID: c.ID, MinBalance: lo, MaxBalance: hi}
		return nil
	})
	return out, err
}

func (a *commitmentAggregate) Reconcile(ctx context.Context, in domainagg.ReconcileInput) (domainagg.ReconcileResult, error) {
	const op = "Tracking.Commitment.Reconcile"
	var out domainagg.ReconcileResult
	if in.CommitmentID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing commitment_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "commitment aggregate repos not configured", nil)
	}
	now := in.Now
	if now.IsZero() {
		now = a.deps.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Commitments.LockByID(dbc, in.CommitmentID)
		if err != nil {
			return err
		}
		if c == nil {
			return domainagg.NotFoundf(op, "commitment not found: %s", in.CommitmentID)
		}
		loc, err := a.location(dbc, c.OwnerUserID, in.Location)
		if err != nil {
			return err
		}
		localNow := now.In(loc)
		created := c.CreatedAt.In(loc)
		watermark := created
		if c.LastReconciled != nil {
			watermark = c.LastReconciled.In(loc)
		}

		periods, err := tracking.EndedPeriodsAfter(c.Period, watermark, localNow)
		if err != nil {
			return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
		}
		if len(periods) == 0 && in.Force {
			s, e, err := tracking.PreviousBounds(c.Period, localNow, 1)
			if err != nil {
				return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
			}
			if e.After(created) {
				periods = []tracking.Period{{Start: s, End: e}}
			}
		}

		balance := c.Balance
		out.Periods = out.Periods[:0]
		for _, p := range periods {
			// A period the commitment only partly covers is measured from creation.
			effStart := p.Start
			if created.After(effStart) {
				effStart = created
			}
			stats, err := a.deps.Sessions.CompletedStatsInRange(dbc, c.ProjectID, effStart, p.End)
			if err != nil {
				return err
			}
			actual := c.Actual(stats.Minutes, stats.Count)
			surplus := actual - float64(c.Target)
			if c.BankingEnabled {
				balance = tracking.ClampBalance(balance+int(math.Round(surplus)), c.MinBalance, c.MaxBalance)
			}
			out.Periods = append(out.Periods, domainagg.ReconciledPeriod{
				Start:   p.Start,
				End:     p.End,
				Actual:  actual,
				Surplus: surplus,
			})
		}

		next := watermarkTime(now)
		if c.LastReconciled != nil && c.LastReconciled.After(next) {
			next = watermarkTime(*c.LastReconciled)
		}
		ok, err := a.deps.Base.CASGuard.UpdateByWatermark(dbc, "commitment", "last_reconciled", c.ID, c.LastReconciled, map[string]any{
			"balance":         balance,
			"last_reconciled": next,
			"updated_at":      a.deps.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "commitment was reconciled concurrently"); err != nil {
			return err
		}

		out.Reconciled = len(out.Periods) > 0
		out.Balance = balance
		out.LastReconciled = next
		return nil
	})
	return out, err
}

func (a *commitmentAggregate) location(dbc dbctx.Context, owner uuid.UUID, override *time.Location) (*time.Location, error) {
	if override != nil {
		return override, nil
	}
	if a.deps.Users == nil {
		return a.deps.DefaultLocation, nil
	}
	u, err := a.deps.Users.GetByID(dbc, owner)
	if err != nil {
		return nil, err
	}
	return u.Location(a.deps.DefaultLocation), nil
}

func normalizeCommitmentType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return tracking.CommitmentTypeTime
	}
	return t
}
