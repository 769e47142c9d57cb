package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/autumn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
	"github.com/yungbote/autumn-backend/internal/services"
)

func TestSweepCorrectsDriftForOneOwner(t *testing.T) {
	f := newFixture(t)
	ada := f.seedUser(t, "ada", "")
	bob := f.seedUser(t, "bob", "")

	p := repotest.SeedProject(t, f.ctx, f.tx, ada.ID, "Writing")
	sp := repotest.SeedSubProject(t, f.ctx, f.tx, p, "Drafts")
	f.session(t, p, day(13, 10), 40, sp.ID)
	f.session(t, p, day(13, 12), 20)
	clean := repotest.SeedProject(t, f.ctx, f.tx, ada.ID, "Clean")

	other := repotest.SeedProject(t, f.ctx, f.tx, bob.ID, "Other")
	f.session(t, other, day(13, 10), 15)

	rep, err := f.audit.Sweep(f.ctx, ada.ID)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.Status != services.SweepSuccess || rep.Projects != 2 || rep.ProjectsFailed != 0 {
		t.Fatalf("report: got=%+v", rep)
	}
	if rep.Corrections != 2 {
		t.Fatalf("corrections: want=2 got=%d", rep.Corrections)
	}
	for id, want := range map[uuid.UUID]float64{p.ID: 60, clean.ID: 0, other.ID: 0} {
		got, err := f.repos.Projects.GetByID(f.dbc(), id)
		if err != nil || got == nil {
			t.Fatalf("load project: %v", err)
		}
		if !near(got.TotalTime, want) {
			t.Fatalf("project %s total: want=%v got=%v", got.Name, want, got.TotalTime)
		}
	}
	gotSP, _ := f.repos.SubProjects.GetByID(f.dbc(), sp.ID)
	if !near(gotSP.TotalTime, 40) {
		t.Fatalf("subproject total: want=40 got=%v", gotSP.TotalTime)
	}

	text := f.exposition(t)
	wantMetric(t, text, `autumn_audit_sweep_runs_total{status="success"} 1`)
	wantMetric(t, text, `autumn_audit_sweep_projects_total{status="success"} 2`)
	wantMetric(t, text, `autumn_audit_corrections_total{entity="project"} 1`)
	wantMetric(t, text, `autumn_audit_corrections_total{entity="subproject"} 1`)
}

func TestSweepAllOwnersIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ada := f.seedUser(t, "ada", "")
	bob := f.seedUser(t, "bob", "")
	a := repotest.SeedProject(t, f.ctx, f.tx, ada.ID, "A")
	b := repotest.SeedProject(t, f.ctx, f.tx, bob.ID, "B")
	f.session(t, a, day(13, 10), 25)
	f.session(t, b, day(13, 10), 35)

	first, err := f.audit.Sweep(f.ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if first.Projects != 2 || first.Corrections != 2 {
		t.Fatalf("first sweep: got=%+v", first)
	}
	second, err := f.audit.Sweep(f.ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if second.Corrections != 0 || second.Status != services.SweepSuccess {
		t.Fatalf("second sweep: want no corrections got=%+v", second)
	}
}

func TestSweepReconcilesActiveCommitments(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "ada", "")
	p := repotest.SeedProject(t, f.ctx, f.tx, u.ID, "Writing")
	c := repotest.SeedCommitment(t, f.ctx, f.tx, p, types.Commitment{
		Period: tracking.PeriodWeekly, CommitmentType: tracking.CommitmentTypeTime, Target: 60, Active: true,
		BankingEnabled: true, CreatedAt: day(5, 0),
	})
	repotest.SeedCommitment(t, f.ctx, f.tx, p, types.Commitment{
		Period: tracking.PeriodWeekly, CommitmentType: tracking.CommitmentTypeTime, Target: 60, Active: false,
		BankingEnabled: true, CreatedAt: day(5, 0),
	})
	f.session(t, p, day(8, 10), 30)

	rep, err := f.audit.Sweep(f.ctx, u.ID)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.CommitmentsBanked != 1 {
		t.Fatalf("commitments banked: want=1 got=%d", rep.CommitmentsBanked)
	}
	got, _ := f.repos.Commitments.GetByID(f.dbc(), c.ID)
	if got.Balance != -30 || got.LastReconciled == nil {
		t.Fatalf("reconciled commitment: want balance=-30 got=%d last=%v", got.Balance, got.LastReconciled)
	}
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "ada", "")
	repotest.SeedProject(t, f.ctx, f.tx, u.ID, "A")
	repotest.SeedProject(t, f.ctx, f.tx, u.ID, "B")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	rep, err := f.audit.Sweep(ctx, u.ID)
	if err == nil {
		t.Fatalf("Sweep on cancelled context: want error")
	}
	if rep.Status != services.SweepFailed {
		t.Fatalf("status: want=%s got=%s", services.SweepFailed, rep.Status)
	}
	wantMetric(t, f.exposition(t), `autumn_audit_sweep_runs_total{status="failed"} 1`)
}

func TestAuditProjectScopedToOwner(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "ada", "")
	p := repotest.SeedProject(t, f.ctx, f.tx, u.ID, "Writing")
	sp := repotest.SeedSubProject(t, f.ctx, f.tx, p, "Drafts")
	f.session(t, p, day(13, 10), 12, sp.ID)

	_, err := f.audit.AuditProject(f.ctx, uuid.New(), p.ID)
	wantCode(t, err, domainagg.CodeNotFound)
	_, err = f.audit.AuditSubProject(f.ctx, uuid.New(), sp.ID)
	wantCode(t, err, domainagg.CodeNotFound)

	results, err := f.audit.AuditProject(f.ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("AuditProject: %v", err)
	}
	if len(results) != 2 || !near(results[0].Total, 12) {
		t.Fatalf("results: got=%+v", results)
	}
	res, err := f.audit.AuditSubProject(f.ctx, u.ID, sp.ID)
	if err != nil {
		t.Fatalf("AuditSubProject: %v", err)
	}
	if !near(res.Total, 12) || !near(res.Drift(), 0) {
		t.Fatalf("subproject audit after tree audit: got=%+v", res)
	}
}

func TestResolveOwner(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "ada", "")

	got, err := f.audit.ResolveOwner(f.ctx, " ada ")
	if err != nil || got != u.ID {
		t.Fatalf("ResolveOwner: want=%s got=%s err=%v", u.ID, got, err)
	}
	_, err = f.audit.ResolveOwner(f.ctx, "nobody")
	wantCode(t, err, domainagg.CodeNotFound)
	_, err = f.audit.ResolveOwner(f.ctx, "")
	wantCode(t, err, domainagg.CodeValidation)
}
