package aggregates_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/autumn-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/autumn-backend/internal/data/repos"
	repotest "github.com/yungbote/autumn-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

const eps = 1e-6

// harness wires every aggregate over one rolled-back test transaction.
type harness struct {
	ctx   context.Context
	tx    *gorm.DB
	repos repos.Set
	hooks *aggtest.HooksRecorder
	now   time.Time

	sessions    domainagg.SessionAggregate
	audit       domainagg.AuditAggregate
	merge       domainagg.MergeAggregate
	projects    domainagg.ProjectAggregate
	commitments domainagg.CommitmentAggregate
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := &harness{
		ctx:   context.Background(),
		tx:    tx,
		repos: repos.NewSet(tx, repotest.Logger(t)),
		hooks: &aggtest.HooksRecorder{},
		now:   time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
	}
	h.build(t, aggregates.NewGormTxRunner(tx))
	return h
}

func (h *harness) build(t *testing.T, runner aggregates.TxRunner) {
	t.Helper()
	base := aggregates.BaseDeps{
		DB:       h.tx,
		Log:      repotest.Logger(t),
		Runner:   runner,
		Hooks:    h.hooks,
		CASGuard: aggregates.NewCASGuard(h.tx),
	}
	clock := func() time.Time { return h.now }
	r := h.repos
	h.sessions = aggregates.NewSessionAggregate(aggregates.SessionAggregateDeps{
		Base: base, Sessions: r.Sessions, Links: r.SessionSubProjects, Projects: r.Projects, SubProjects: r.SubProjects, Now: clock,
	})
	h.audit = aggregates.NewAuditAggregate(aggregates.AuditAggregateDeps{
		Base: base, Sessions: r.Sessions, Projects: r.Projects, SubProjects: r.SubProjects,
	})
	h.merge = aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{
		Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
		Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Now: clock,
	})
	h.projects = aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
		Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Contexts: r.Contexts, Now: clock,
	})
	h.commitments = aggregates.NewCommitmentAggregate(aggregates.CommitmentAggregateDeps{
		Base: base, Commitments: r.Commitments, Projects: r.Projects, Sessions: r.Sessions, Users: r.Users, Now: clock,
	})
}

func (h *harness) dbc() dbctx.Context {
	return dbctx.Context{Ctx: h.ctx, Tx: h.tx}
}

func (h *harness) projectTotal(t *testing.T, id uuid.UUID) float64 {
	t.Helper()
	p, err := h.repos.Projects.GetByID(h.dbc(), id)
	if err != nil || p == nil {
		t.Fatalf("load project %s: err=%v", id, err)
	}
	return p.TotalTime
}

func (h *harness) subProjectTotal(t *testing.T, id uuid.UUID) float64 {
	t.Helper()
	sp, err := h.repos.SubProjects.GetByID(h.dbc(), id)
	if err != nil || sp == nil {
		t.Fatalf("load subproject %s: err=%v", id, err)
	}
	return sp.TotalTime
}

func (h *harness) track(t *testing.T, owner, project uuid.UUID, start time.Time, minutes int, subs ...uuid.UUID) domainagg.SessionResult {
	t.Helper()
	res, err := h.sessions.TrackSession(h.ctx, domainagg.TrackSessionInput{
		OwnerUserID:   owner,
		ProjectID:     project,
		SubProjectIDs: subs,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute),
	})
	if err != nil {
		t.Fatalf("TrackSession: %v", err)
	}
	return res
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func wantCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("error code: want=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}
