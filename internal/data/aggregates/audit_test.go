package aggregates_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	repotest "github.com/yungbote/autumn-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
)

func TestAuditProjectTreeCorrectsDrift(t *testing.T) {
	h := newHarness(t)
	u := repotest.SeedUser(t, h.ctx, h.tx, "audittree")
	p := repotest.SeedProject(t, h.ctx, h.tx, u.ID, "P")
	s1 := repotest.SeedSubProject(t, h.ctx, h.tx, p, "one")
	s2 := repotest.SeedSubProject(t, h.ctx, h.tx, p, "two")

	// Seeded rows bypass the maintainer, so every stored total starts wrong.
	base := h.now.Add(-6 * time.Hour)
	repotest.SeedSession(t, h.ctx, h.tx, p, base, repotest.PtrTime(base.Add(20*time.Minute)), s1.ID, s2.ID)
	repotest.SeedSession(t, h.ctx, h.tx, p, base.Add(time.Hour), repotest.PtrTime(base.Add(70*time.Minute)), s2.ID)
	repotest.SeedSession(t, h.ctx, h.tx, p, h.now, nil, s1.ID)

	results, err := h.audit.AuditProjectTree(h.ctx, p.ID)
	if err != nil {
		t.Fatalf("AuditProjectTree: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: want=3 got=%d", len(results))
	}
	want := map[uuid.UUID]float64{p.ID: 30, s1.ID: 20, s2.ID: 30}
	for _, r := range results {
		if !near(r.Total, want[r.ID]) {
			t.Fatalf("%s %s total: want=%v got=%v", r.Entity, r.ID, want[r.ID], r.Total)
		}
		if !near(r.Previous, 0) {
			t.Fatalf("%s previous: want=0 got=%v", r.Entity, r.Previous)
		}
	}
	if got := h.subProjectTotal(t, s2.ID); !near(got, 30) {
		t.Fatalf("stored s2 total: want=30 got=%v", got)
	}
	if len(h.hooks.Drifts) != 3 {
		t.Fatalf("drift events: want=3 got=%d", len(h.hooks.Drifts))
	}
	if d := h.hooks.Drifts[0]; d.Entity != string(domainagg.AuditEntityProject) || !near(d.Drift, 30) {
		t.Fatalf("project drift: %+v", d)
	}

	// A second pass finds nothing to fix.
	again, err := h.audit.AuditProject(h.ctx, p.ID)
	if err != nil {
		t.Fatalf("AuditProject: %v", err)
	}
	if !near(again.Drift(), 0) {
		t.Fatalf("second audit drift: want=0 got=%v", again.Drift())
	}
}

func TestAuditSubProjectAndMissing(t *testing.T) {
	h := newHarness(t)
	u := repotest.SeedUser(t, h.ctx, h.tx, "auditsub")
	p := repotest.SeedProject(t, h.ctx, h.tx, u.ID, "P")
	sp := repotest.SeedSubProject(t, h.ctx, h.tx, p, "S")
	h.track(t, u.ID, p.ID, h.now.Add(-time.Hour), 12, sp.ID)

	if err := h.repos.SubProjects.UpdateFields(h.dbc(), sp.ID, map[string]interface{}{"total_time": 99.0}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	res, err := h.audit.AuditSubProject(h.ctx, sp.ID)
	if err != nil {
		t.Fatalf("AuditSubProject: %v", err)
	}
	if !near(res.Previous, 99) || !near(res.Total, 12) || !near(res.Drift(), -87) {
		t.Fatalf("audit result: %+v", res)
	}

	_, err = h.audit.AuditProject(h.ctx, uuid.New())
	wantCode(t, err, domainagg.CodeNotFound)
	_, err = h.audit.AuditSubProject(h.ctx, uuid.Nil)
	wantCode(t, err, domainagg.CodeValidation)
}
