package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

// NoSubProjectName labels the bucket of sessions linked to no subproject.
const NoSubProjectName = "no subproject"

// TallyQuery bounds a tally by session end_time in [Start, End). Nil bounds are open.
type TallyQuery struct {
	ProjectID uuid.UUID
	Start     *time.Time
	End       *time.Time
}

type SubProjectBucket struct {
	// SubProjectID is nil for the no-subproject bucket.
	SubProjectID *uuid.UUID `json:"subproject_id"`
	Name         string     `json:"name"`
	TotalMinutes float64    `json:"total_minutes"`
}

type ProjectTotals struct {
	ProjectID    uuid.UUID          `json:"project_id"`
	Name         string             `json:"name"`
	TotalMinutes float64            `json:"total_minutes"`
	Sessions     int64              `json:"sessions"`
	SubProjects  []SubProjectBucket `json:"subprojects"`
}

type Totals struct {
	Start        *time.Time      `json:"start,omitempty"`
	End          *time.Time      `json:"end,omitempty"`
	TotalMinutes float64         `json:"total_minutes"`
	Projects     []ProjectTotals `json:"projects"`
}

func (s *trackingService) Tally(ctx context.Context, ownerUserID uuid.UUID, q TallyQuery) (*Totals, error) {
	const op = "Tracking.Tally"
	if ownerUserID == uuid.Nil {
		return nil, domainagg.Validationf(op, "missing owner_user_id")
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return nil, domainagg.Validationf(op, "end precedes start")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if q.ProjectID != uuid.Nil {
		if _, err := s.loadProject(ctx, ownerUserID, q.ProjectID); err != nil {
			return nil, err
		}
	}
	f := repos.TallyFilter{ProjectID: q.ProjectID, From: q.Start, To: q.End}
	byProject, err := s.deps.Repos.Sessions.TallyByProject(dbc, ownerUserID, f)
	if err != nil {
		return nil, err
	}
	bySub, err := s.deps.Repos.Sessions.TallyBySubProject(dbc, ownerUserID, f)
	if err != nil {
		return nil, err
	}

	projectIDs := make([]uuid.UUID, 0, len(byProject))
	for _, row := range byProject {
		projectIDs = append(projectIDs, row.ProjectID)
	}
	projects, err := s.deps.Repos.Projects.GetByIDs(dbc, projectIDs)
	if err != nil {
		return nil, err
	}
	projectNames := make(map[uuid.UUID]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}
	subIDs := make([]uuid.UUID, 0, len(bySub))
	for _, row := range bySub {
		if row.SubProjectID.Valid {
			subIDs = append(subIDs, row.SubProjectID.UUID)
		}
	}
	subs, err := s.deps.Repos.SubProjects.GetByIDs(dbc, subIDs)
	if err != nil {
		return nil, err
	}
	subNames := make(map[uuid.UUID]string, len(subs))
	for _, sp := range subs {
		subNames[sp.ID] = sp.Name
	}

	buckets := map[uuid.UUID][]SubProjectBucket{}
	for _, row := range bySub {
		b := SubProjectBucket{Name: NoSubProjectName, TotalMinutes: row.Minutes}
		if row.SubProjectID.Valid {
			id := row.SubProjectID.UUID
			b.SubProjectID = &id
			b.Name = subNames[id]
		}
		buckets[row.ProjectID] = append(buckets[row.ProjectID], b)
	}

	out := &Totals{Start: q.Start, End: q.End, Projects: make([]ProjectTotals, 0, len(byProject))}
	for _, row := range byProject {
		pb := buckets[row.ProjectID]
		if pb == nil {
			pb = []SubProjectBucket{}
		}
		sort.SliceStable(pb, func(i, j int) bool { return pb[i].TotalMinutes > pb[j].TotalMinutes })
		out.Projects = append(out.Projects, ProjectTotals{
			ProjectID:    row.ProjectID,
			Name:         projectNames[row.ProjectID],
			TotalMinutes: row.Minutes,
			Sessions:     row.Count,
			SubProjects:  pb,
		})
		out.TotalMinutes += row.Minutes
	}
	return out, nil
}
