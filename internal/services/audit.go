package services

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

const (
	DefaultSweepConcurrency = 4
	driftTolerance          = 1e-6
)

const (
	SweepSuccess = "success"
	SweepPartial = "partial"
	SweepFailed  = "failed"
)

type SweepReport struct {
	Status            string        `json:"status"`
	Projects          int           `json:"projects"`
	ProjectsFailed    int           `json:"projects_failed"`
	Corrections       int           `json:"corrections"`
	CommitmentsBanked int           `json:"commitments_banked"`
	Duration          time.Duration `json:"duration_ns"`
}

type AuditService interface {
	// AuditProject audits the project and every subproject of it.
	AuditProject(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]domainagg.AuditResult, error)
	AuditSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) (domainagg.AuditResult, error)

	// Sweep audits every project of one owner, or of everyone when ownerUserID is uuid.Nil.
	// Per-project failures are logged and counted; they never abort the sweep.
	Sweep(ctx context.Context, ownerUserID uuid.UUID) (SweepReport, error)

	// ResolveOwner maps a username to its owner id.
	ResolveOwner(ctx context.Context, username string) (uuid.UUID, error)
}

type AuditServiceDeps struct {
	Aggregate   domainagg.AuditAggregate
	Projects    repos.ProjectRepo
	SubProjects repos.SubProjectRepo
	Users       repos.UserRepo
	// Commitments is optional; when set the sweep also reconciles active commitments.
	Commitments CommitmentService
	Metrics     *observability.Metrics

	Concurrency int
}

type auditService struct {
	log  *logger.Logger
	deps AuditServiceDeps
}

func NewAuditService(log *logger.Logger, deps AuditServiceDeps) AuditService {
	if deps.Concurrency <= 0 {
		deps.Concurrency = DefaultSweepConcurrency
	}
	return &auditService{
		log:  log.With("service", "AuditService"),
		deps: deps,
	}
}

func (s *auditService) AuditProject(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]domainagg.AuditResult, error) {
	const op = "Audit.AuditProject"
	p, err := s.deps.Projects.GetByID(dbctx.Context{Ctx: ctx}, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || (ownerUserID != uuid.Nil && p.OwnerUserID != ownerUserID) {
		return nil, domainagg.NotFoundf(op, "project not found: %s", projectID)
	}
	results, err := s.deps.Aggregate.AuditProjectTree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.observe(results)
	return results, nil
}

func (s *auditService) AuditSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) (domainagg.AuditResult, error) {
	const op = "Audit.AuditSubProject"
	sp, err := s.deps.SubProjects.GetByID(dbctx.Context{Ctx: ctx}, subProjectID)
	if err != nil {
		return domainagg.AuditResult{}, err
	}
	if sp == nil || (ownerUserID != uuid.Nil && sp.OwnerUserID != ownerUserID) {
		return domainagg.AuditResult{}, domainagg.NotFoundf(op, "subproject not found: %s", subProjectID)
	}
	res, err := s.deps.Aggregate.AuditSubProject(ctx, subProjectID)
	if err != nil {
		return res, err
	}
	s.observe([]domainagg.AuditResult{res})
	return res, nil
}

func (s *auditService) Sweep(ctx context.Context, ownerUserID uuid.UUID) (SweepReport, error) {
	start := time.Now()
	report := SweepReport{Status: SweepFailed}

	ids, err := s.deps.Projects.ListIDs(dbctx.Context{Ctx: ctx}, ownerUserID)
	if err != nil {
		s.deps.Metrics.ObserveSweep(SweepFailed, time.Since(start))
		return report, err
	}
	report.Projects = len(ids)

	var failed, corrections atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.deps.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failed.Add(1)
				return nil
			}
			results, err := s.deps.Aggregate.AuditProjectTree(ctx, id)
			if err != nil {
				failed.Add(1)
				s.deps.Metrics.IncSweepProject(SweepFailed)
				s.log.Warn("sweep: project audit failed", "project_id", id, "error", err)
				return nil
			}
			s.deps.Metrics.IncSweepProject(SweepSuccess)
			corrections.Add(int64(s.observe(results)))
			return nil
		})
	}
	_ = g.Wait()

	report.ProjectsFailed = int(failed.Load())
	report.Corrections = int(corrections.Load())

	if s.deps.Commitments != nil && ctx.Err() == nil {
		banked, err := s.deps.Commitments.ReconcileActive(ctx, ownerUserID)
		if err != nil {
			s.log.Warn("sweep: commitment reconcile failed", "error", err)
		}
		report.CommitmentsBanked = banked
	}

	switch {
	case report.ProjectsFailed == 0:
		report.Status = SweepSuccess
	case report.ProjectsFailed < report.Projects:
		report.Status = SweepPartial
	default:
		report.Status = SweepFailed
	}
	report.Duration = time.Since(start)
	s.deps.Metrics.ObserveSweep(report.Status, report.Duration)
	s.log.Info("audit sweep finished",
		"owner_user_id", ownerUserID,
		"status", report.Status,
		"projects", report.Projects,
		"failed", report.ProjectsFailed,
		"corrections", report.Corrections,
		"commitments_banked", report.CommitmentsBanked,
		"duration", report.Duration,
	)
	return report, ctx.Err()
}

func (s *auditService) ResolveOwner(ctx context.Context, username string) (uuid.UUID, error) {
	const op = "Audit.ResolveOwner"
	username = strings.TrimSpace(username)
	if username == "" {
		return uuid.Nil, domainagg.Validationf(op, "missing username")
	}
	u, err := s.deps.Users.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return uuid.Nil, err
	}
	if u == nil {
		return uuid.Nil, domainagg.NotFoundf(op, "user not found: %s", username)
	}
	return u.ID, nil
}

// observe records drift metrics and returns how many results actually corrected a total.
func (s *auditService) observe(results []domainagg.AuditResult) int {
	n := 0
	for _, r := range results {
		d := r.Drift()
		s.deps.Metrics.ObserveAuditDrift(string(r.Entity), d)
		if math.Abs(d) > driftTolerance {
			n++
		}
	}
	return n
}
