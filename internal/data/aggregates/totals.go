package aggregates

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

// totalsWriter moves project and subproject total_time under row locks. Totals are floored
// at zero; last_updated only ever moves forward.
type totalsWriter struct {
	projects    repos.ProjectRepo
	subProjects repos.SubProjectRepo
}

func (w totalsWriter) applyProject(dbc dbctx.Context, projectID uuid.UUID, delta float64, touched *time.Time) (float64, error) {
	rows, err := w.projects.LockByIDs(dbc, []uuid.UUID{projectID})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, InvariantError("project vanished while applying session total")
	}
	p := rows[0]
	next := floorTotal(p.TotalTime + delta)
	updates := map[string]interface{}{"total_time": next}
	if touched != nil && touched.After(p.LastUpdated) {
		updates["last_updated"] = touched.UTC()
	}
	if err := w.projects.UpdateFields(dbc, p.ID, updates); err != nil {
		return 0, err
	}
	return next, nil
}

func (w totalsWriter) applySubProjects(dbc dbctx.Context, ids []uuid.UUID, delta float64, touched *time.Time, out map[uuid.UUID]float64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := w.subProjects.LockByIDs(dbc, ids)
	if err != nil {
		return err
	}
	if len(rows) != len(ids) {
		return InvariantError("subproject vanished while applying session total")
	}
	for _, sp := range rows {
		next := floorTotal(sp.TotalTime + delta)
		updates := map[string]interface{}{"total_time": next}
		if touched != nil && touched.After(sp.LastUpdated) {
			updates["last_updated"] = touched.UTC()
		}
		if err := w.subProjects.UpdateFields(dbc, sp.ID, updates); err != nil {
			return err
		}
		out[sp.ID] = next
	}
	return nil
}

// currentSubProjectTotals reports stored totals without writing.
func (w totalsWriter) currentSubProjectTotals(dbc dbctx.Context, ids []uuid.UUID, out map[uuid.UUID]float64) error {
	rows, err := w.subProjects.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	for _, sp := range rows {
		out[sp.ID] = sp.TotalTime
	}
	return nil
}

func floorTotal(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs returns the ids in a that are not in b.
func diffIDs(a, b []uuid.UUID) []uuid.UUID {
	inB := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func ownedProject(p *types.Project, owner uuid.UUID) bool {
	return p != nil && p.ID != uuid.Nil && p.OwnerUserID == owner
}
