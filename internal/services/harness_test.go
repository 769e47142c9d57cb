package services_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/autumn-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/autumn-backend/internal/data/repos"
	repotest "github.com/yungbote/autumn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/services"
)

type fixture struct {
	ctx     context.Context
	tx      *gorm.DB
	repos   repos.Set
	now     time.Time
	metrics *observability.Metrics

	tracking    services.TrackingService
	commitments services.CommitmentService
	audit       services.AuditService

	auditAgg domainagg.AuditAggregate
}

// newFixture wires the services over one rolled-back transaction with a fixed clock
// (Wednesday 2026-10-14 12:00 UTC).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	f := &fixture{
		ctx:     context.Background(),
		tx:      tx,
		repos:   repos.NewSet(tx, log),
		now:     time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
		metrics: observability.New(),
	}
	clock := func() time.Time { return f.now }
	base := aggregates.BaseDeps{
		DB:       tx,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(tx),
		Hooks:    &aggtest.HooksRecorder{},
		CASGuard: aggregates.NewCASGuard(tx),
	}
	r := f.repos
	sessions := aggregates.NewSessionAggregate(aggregates.SessionAggregateDeps{
		Base: base, Sessions: r.Sessions, Links: r.SessionSubProjects, Projects: r.Projects, SubProjects: r.SubProjects, Now: clock,
	})
	f.auditAgg = aggregates.NewAuditAggregate(aggregates.AuditAggregateDeps{
		Base: base, Sessions: r.Sessions, Projects: r.Projects, SubProjects: r.SubProjects,
	})
	merge := aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{
		Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
		Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Now: clock,
	})
	projects := aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
		Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Contexts: r.Contexts, Now: clock,
	})
	commitAgg := aggregates.NewCommitmentAggregate(aggregates.CommitmentAggregateDeps{
		Base: base, Commitments: r.Commitments, Projects: r.Projects, Sessions: r.Sessions, Users: r.Users, Now: clock,
	})

	f.tracking = services.NewTrackingService(log, services.TrackingServiceDeps{
		Repos: r, Sessions: sessions, Projects: projects, Merge: merge,
	})
	f.commitments = services.NewCommitmentService(log, services.CommitmentServiceDeps{
		Aggregate:   commitAgg,
		Commitments: r.Commitments,
		Sessions:    r.Sessions,
		Users:       r.Users,
		Metrics:     f.metrics,
		Now:         clock,
	})
	f.audit = services.NewAuditService(log, services.AuditServiceDeps{
		Aggregate:   f.auditAgg,
		Projects:    r.Projects,
		SubProjects: r.SubProjects,
		Users:       r.Users,
		Commitments: f.commitments,
		Metrics:     f.metrics,
		// the sqlite test handle is a single connection
		Concurrency: 1,
	})
	return f
}

func (f *fixture) dbc() dbctx.Context {
	return dbctx.Context{Ctx: f.ctx, Tx: f.tx}
}

func (f *fixture) seedUser(t *testing.T, username, tz string) *types.User {
	t.Helper()
	u := &types.User{ID: uuid.New(), Username: username, Timezone: tz}
	if err := f.tx.WithContext(f.ctx).Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// session seeds a completed session of the given length ending at end.
func (f *fixture) session(t *testing.T, p *types.Project, end time.Time, minutes int, subs ...uuid.UUID) *types.Session {
	t.Helper()
	start := end.Add(-time.Duration(minutes) * time.Minute)
	return repotest.SeedSession(t, f.ctx, f.tx, p, start, repotest.PtrTime(end), subs...)
}

func (f *fixture) exposition(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	return buf.String()
}

func wantMetric(t *testing.T, text, line string) {
	t.Helper()
	if !strings.Contains(text, line+"\n") {
		t.Fatalf("metric line %q missing from exposition:\n%s", line, text)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func wantCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("error code: want=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}

func day(d, hour int) time.Time {
	return time.Date(2026, time.October, d, hour, 0, 0, 0, time.UTC)
}
