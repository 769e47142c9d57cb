package aggregates

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type AuditAggregateDeps struct {
	Base BaseDeps

	Sessions    repos.SessionRepo
	Projects    repos.ProjectRepo
	SubProjects repos.SubProjectRepo
}

type auditAggregate struct {
	deps    AuditAggregateDeps
	auditor ledgerAuditor
}

func NewAuditAggregate(deps AuditAggregateDeps) domainagg.AuditAggregate {
	deps.Base = deps.Base.withDefaults()
	return &auditAggregate{
		deps:    deps,
		auditor: ledgerAuditor{sessions: deps.Sessions, projects: deps.Projects, subProjects: deps.SubProjects},
	}
}

func (a *auditAggregate) Contract() domainagg.Contract {
	return domainagg.AuditAggregateContract
}

func (a *auditAggregate) configured() bool {
	return a.deps.Sessions != nil && a.deps.Projects != nil && a.deps.SubProjects != nil
}

func (a *auditAggregate) AuditProject(ctx context.Context, projectID uuid.UUID) (domainagg.AuditResult, error) {
	const op = "Tracking.Audit.AuditProject"
	var out domainagg.AuditResult
	if projectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing project_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "audit aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res, err := a.auditor.project(dbc, op, projectID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err == nil {
		observeDrift(a.deps.Base.Hooks, out)
	}
	return out, err
}

func (a *auditAggregate) AuditSubProject(ctx context.Context, subProjectID uuid.UUID) (domainagg.AuditResult, error) {
	const op = "Tracking.Audit.AuditSubProject"
	var out domainagg.AuditResult
	if subProjectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing subproject_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "audit aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res, err := a.auditor.subProject(dbc, op, subProjectID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err == nil {
		observeDrift(a.deps.Base.Hooks, out)
	}
	return out, err
}

func (a *auditAggregate) AuditProjectTree(ctx context.Context, projectID uuid.UUID) ([]domainagg.AuditResult, error) {
	const op = "Tracking.Audit.AuditProjectTree"
	var out []domainagg.AuditResult
	if projectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing project_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "audit aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res, err := a.auditor.tree(dbc, op, projectID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err == nil {
		observeDrift(a.deps.Base.Hooks, out...)
	}
	return out, err
}

// ledgerAuditor recomputes totals from completed sessions inside a caller's transaction.
type ledgerAuditor struct {
	sessions    repos.SessionRepo
	projects    repos.ProjectRepo
	subProjects repos.SubProjectRepo
}

func (l ledgerAuditor) project(dbc dbctx.Context, op string, projectID uuid.UUID) (domainagg.AuditResult, error) {
	rows, err := l.projects.LockByIDs(dbc, []uuid.UUID{projectID})
	if err != nil {
		return domainagg.AuditResult{}, err
	}
	if len(rows) == 0 {
		return domainagg.AuditResult{}, domainagg.NotFoundf(op, "project not found: %s", projectID)
	}
	sum, err := l.sessions.SumCompletedByProject(dbc, projectID)
	if err != nil {
		return domainagg.AuditResult{}, err
	}
	sum = floorTotal(sum)
	if err := l.projects.UpdateFields(dbc, projectID, map[string]interface{}{"total_time": sum}); err != nil {
		return domainagg.AuditResult{}, err
	}
	return domainagg.AuditResult{
		Entity:   domainagg.AuditEntityProject,
		ID:       projectID,
		Previous: rows[0].TotalTime,
		Total:    sum,
	}, nil
}

func (l ledgerAuditor) subProject(dbc dbctx.Context, op string, subProjectID uuid.UUID) (domainagg.AuditResult, error) {
	rows, err := l.subProjects.LockByIDs(dbc, []uuid.UUID{subProjectID})
	if err != nil {
		return domainagg.AuditResult{}, err
	}
	if len(rows) == 0 {
		return domainagg.AuditResult{}, domainagg.NotFoundf(op, "subproject not found: %s", subProjectID)
	}
	sum, err := l.sessions.SumCompletedBySubProject(dbc, subProjectID)
	if err != nil {
		return domainagg.AuditResult{}, err
	}
	sum = floorTotal(sum)
	if err := l.subProjects.UpdateFields(dbc, subProjectID, map[string]interface{}{"total_time": sum}); err != nil {
		return domainagg.AuditResult{}, err
	}
	return domainagg.AuditResult{
		Entity:   domainagg.AuditEntitySubProject,
		ID:       subProjectID,
		Previous: rows[0].TotalTime,
		Total:    sum,
	}, nil
}

func (l ledgerAuditor) tree(dbc dbctx.Context, op string, projectID uuid.UUID) ([]domainagg.AuditResult, error) {
	root, err := l.project(dbc, op, projectID)
	if err != nil {
		return nil, err
	}
	out := []domainagg.AuditResult{root}
	subs, err := l.subProjects.ListByProject(dbc, projectID)
	if err != nil {
		return nil, err
	}
	for _, sp := range subs {
		res, err := l.subProject(dbc, op, sp.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func observeDrift(h Hooks, results ...domainagg.AuditResult) {
	if h == nil {
		return
	}
	for _, r := range results {
		h.ObserveDrift(string(r.Entity), math.Abs(r.Drift()))
	}
}
