package tracking

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

func TestSessionRepoSums(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	sessions := NewSessionRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "sessionsums")
	p := testutil.SeedProject(t, ctx, tx, u.ID, "P")
	sp := testutil.SeedSubProject(t, ctx, tx, p, "S")

	base := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	testutil.SeedSession(t, ctx, tx, p, base, testutil.PtrTime(base.Add(25*time.Minute)), sp.ID)
	testutil.SeedSession(t, ctx, tx, p, base.Add(time.Hour), testutil.PtrTime(base.Add(time.Hour+30*time.Minute)))
	testutil.SeedSession(t, ctx, tx, p, base.Add(2*time.Hour), nil, sp.ID)

	total, err := sessions.SumCompletedByProject(dbc, p.ID)
	if err != nil {
		t.Fatalf("SumCompletedByProject: %v", err)
	}
	if math.Abs(total-55) > 1e-9 {
		t.Fatalf("SumCompletedByProject: want=55 got=%v", total)
	}

	subTotal, err := sessions.SumCompletedBySubProject(dbc, sp.ID)
	if err != nil {
		t.Fatalf("SumCompletedBySubProject: %v", err)
	}
	if math.Abs(subTotal-25) > 1e-9 {
		t.Fatalf("SumCompletedBySubProject: want=25 got=%v", subTotal)
	}

	stats, err := sessions.CompletedStatsInRange(dbc, p.ID, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("CompletedStatsInRange: %v", err)
	}
	if stats.Count != 1 || math.Abs(stats.Minutes-25) > 1e-9 {
		t.Fatalf("CompletedStatsInRange: got=%+v", stats)
	}

	ends, err := sessions.ListCompletedEndTimes(dbc, u.ID, base, base.Add(24*time.Hour))
	if err != nil || len(ends) != 2 {
		t.Fatalf("ListCompletedEndTimes: err=%v len=%d", err, len(ends))
	}
	if !ends[0].After(ends[1]) {
		t.Fatalf("ListCompletedEndTimes: want descending got=%v", ends)
	}

	empty := testutil.SeedProject(t, ctx, tx, u.ID, "Empty")
	if v, err := sessions.SumCompletedByProject(dbc, empty.ID); err != nil || v != 0 {
		t.Fatalf("SumCompletedByProject empty: err=%v got=%v", err, v)
	}
}

func TestSessionRepoReassignAndLinks(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	sessions := NewSessionRepo(db, log)
	links := NewSessionSubProjectRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "sessionreassign")
	a := testutil.SeedProject(t, ctx, tx, u.ID, "A")
	b := testutil.SeedProject(t, ctx, tx, u.ID, "B")
	spA := testutil.SeedSubProject(t, ctx, tx, a, "x")
	spB := testutil.SeedSubProject(t, ctx, tx, b, "y")

	start := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	s1 := testutil.SeedSession(t, ctx, tx, a, start, testutil.PtrTime(start.Add(10*time.Minute)), spA.ID)
	testutil.SeedSession(t, ctx, tx, b, start, testutil.PtrTime(start.Add(20*time.Minute)), spB.ID)

	moved, err := sessions.ReassignProject(dbc, []uuid.UUID{a.ID, b.ID}, a.ID)
	if err != nil || moved != 2 {
		t.Fatalf("ReassignProject: err=%v moved=%d", err, moved)
	}
	if n, err := sessions.CountByProjects(dbc, []uuid.UUID{a.ID}); err != nil || n != 2 {
		t.Fatalf("CountByProjects: err=%v n=%d", err, n)
	}

	if err := links.Add(dbc, s1.ID, []uuid.UUID{spA.ID, spB.ID}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ids, err := links.ListSubProjectIDs(dbc, s1.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListSubProjectIDs: err=%v ids=%v", err, ids)
	}
	sessionIDs, err := links.ListSessionIDsBySubProjects(dbc, []uuid.UUID{spA.ID, spB.ID})
	if err != nil || len(sessionIDs) != 2 {
		t.Fatalf("ListSessionIDsBySubProjects: err=%v ids=%v", err, sessionIDs)
	}
	if err := links.Remove(dbc, s1.ID, []uuid.UUID{spB.ID}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ids, _ := links.ListSubProjectIDs(dbc, s1.ID); len(ids) != 1 || ids[0] != spA.ID {
		t.Fatalf("after Remove: ids=%v", ids)
	}
}

func TestSessionSubProjectColumnName(t *testing.T) {
	db := testutil.DB(t)
	m := db.Migrator()
	if !m.HasColumn(&types.SessionSubProject{}, "subproject_id") {
		t.Fatalf("session_subproject.subproject_id: want=true got=false")
	}
	if m.HasColumn(&types.SessionSubProject{}, "sub_project_id") {
		t.Fatalf("session_subproject.sub_project_id: want=false got=true")
	}

	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	sessions := NewSessionRepo(db, log)
	links := NewSessionSubProjectRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "linkcolumn")
	p := testutil.SeedProject(t, ctx, tx, u.ID, "P")
	sp := testutil.SeedSubProject(t, ctx, tx, p, "S")
	start := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	s := testutil.SeedSession(t, ctx, tx, p, start, testutil.PtrTime(start.Add(40*time.Minute)), sp.ID)

	if total, err := sessions.SumCompletedBySubProject(dbc, sp.ID); err != nil || math.Abs(total-40) > 1e-9 {
		t.Fatalf("SumCompletedBySubProject: want=40 got=%v err=%v", total, err)
	}
	if err := links.DeleteBySubProjects(dbc, []uuid.UUID{sp.ID}); err != nil {
		t.Fatalf("DeleteBySubProjects: %v", err)
	}
	if ids, err := links.ListSubProjectIDs(dbc, s.ID); err != nil || len(ids) != 0 {
		t.Fatalf("ListSubProjectIDs after delete: want=0 got=%v err=%v", ids, err)
	}
}

func TestSessionRepoTallies(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	sessions := NewSessionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "tally")
	other := testutil.SeedUser(t, ctx, tx, "tallyother")
	a := testutil.SeedProject(t, ctx, tx, u.ID, "A")
	b := testutil.SeedProject(t, ctx, tx, u.ID, "B")
	foreign := testutil.SeedProject(t, ctx, tx, other.ID, "A")
	x := testutil.SeedSubProject(t, ctx, tx, a, "x")
	y := testutil.SeedSubProject(t, ctx, tx, a, "y")

	base := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	testutil.SeedSession(t, ctx, tx, a, base, testutil.PtrTime(base.Add(30*time.Minute)), x.ID, y.ID)
	testutil.SeedSession(t, ctx, tx, a, base.Add(time.Hour), testutil.PtrTime(base.Add(time.Hour+10*time.Minute)))
	testutil.SeedSession(t, ctx, tx, b, base, testutil.PtrTime(base.Add(45*time.Minute)))
	// Active, outside the window and foreign sessions never count.
	testutil.SeedSession(t, ctx, tx, a, base, nil, x.ID)
	testutil.SeedSession(t, ctx, tx, a, base.AddDate(0, 0, 3), testutil.PtrTime(base.AddDate(0, 0, 3).Add(time.Hour)), x.ID)
	testutil.SeedSession(t, ctx, tx, foreign, base, testutil.PtrTime(base.Add(time.Hour)))

	from := base.Add(-time.Hour)
	to := base.AddDate(0, 0, 1)
	f := TallyFilter{From: &from, To: &to}

	projects, err := sessions.TallyByProject(dbc, u.ID, f)
	if err != nil {
		t.Fatalf("TallyByProject: %v", err)
	}
	got := map[uuid.UUID]ProjectTally{}
	for _, row := range projects {
		got[row.ProjectID] = row
	}
	if len(got) != 2 || math.Abs(got[a.ID].Minutes-40) > 1e-9 || got[a.ID].Count != 2 || math.Abs(got[b.ID].Minutes-45) > 1e-9 {
		t.Fatalf("TallyByProject: got=%+v", projects)
	}

	subs, err := sessions.TallyBySubProject(dbc, u.ID, TallyFilter{ProjectID: a.ID, From: &from, To: &to})
	if err != nil {
		t.Fatalf("TallyBySubProject: %v", err)
	}
	var none float64
	bySub := map[uuid.UUID]float64{}
	for _, row := range subs {
		if row.ProjectID != a.ID {
			t.Fatalf("TallyBySubProject project filter: got=%v", row.ProjectID)
		}
		if !row.SubProjectID.Valid {
			none += row.Minutes
			continue
		}
		bySub[row.SubProjectID.UUID] += row.Minutes
	}
	if math.Abs(bySub[x.ID]-30) > 1e-9 || math.Abs(bySub[y.ID]-30) > 1e-9 || math.Abs(none-10) > 1e-9 {
		t.Fatalf("TallyBySubProject: want x=30 y=30 none=10 got=%v none=%v", bySub, none)
	}

	all, err := sessions.TallyByProject(dbc, u.ID, TallyFilter{})
	if err != nil {
		t.Fatalf("TallyByProject unbounded: %v", err)
	}
	var sum float64
	for _, row := range all {
		sum += row.Minutes
	}
	if math.Abs(sum-145) > 1e-9 {
		t.Fatalf("TallyByProject unbounded: want=145 got=%v", sum)
	}
}
