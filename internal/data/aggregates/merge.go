package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type MergeAggregateDeps struct {
	Base BaseDeps

	Projects    repos.ProjectRepo
	SubProjects repos.SubProjectRepo
	Sessions    repos.SessionRepo
	Links       repos.SessionSubProjectRepo
	Commitments repos.CommitmentRepo
	Tags        repos.TagRepo

	Now func() time.Time
}

type mergeAggregate struct {
	deps    MergeAggregateDeps
	auditor ledgerAuditor
}

func NewMergeAggregate(deps MergeAggregateDeps) domainagg.MergeAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &mergeAggregate{
		deps:    deps,
		auditor: ledgerAuditor{sessions: deps.Sessions, projects: deps.Projects, subProjects: deps.SubProjects},
	}
}

func (a *mergeAggregate) Contract() domainagg.Contract {
	return domainagg.MergeAggregateContract
}

func (a *mergeAggregate) configured() bool {
	return a.deps.Projects != nil && a.deps.SubProjects != nil && a.deps.Sessions != nil &&
		a.deps.Links != nil && a.deps.Commitments != nil && a.deps.Tags != nil
}

func (a *mergeAggregate) MergeProjects(ctx context.Context, in domainagg.MergeProjectsInput) (domainagg.MergeProjectsResult, error) {
	const op = "Tracking.Merge.MergeProjects"
	var out domainagg.MergeProjectsResult
	name := strings.TrimSpace(in.NewName)
	switch {
	case in.OwnerUserID == uuid.Nil:
		return out, domainagg.Validationf(op, "missing owner_user_id")
	case in.ProjectAID == uuid.Nil || in.ProjectBID == uuid.Nil:
		return out, domainagg.Validationf(op, "both project ids are required")
	case in.ProjectAID == in.ProjectBID:
		return out, domainagg.Validationf(op, "cannot merge a project with itself")
	case name == "":
		return out, domainagg.Validationf(op, "missing new project name")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "merge aggregate repos not configured", nil)
	}

	var drift []domainagg.AuditResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		locked, err := a.deps.Projects.LockByIDs(dbc, []uuid.UUID{in.ProjectAID, in.ProjectBID})
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.Project, len(locked))
		for _, p := range locked {
			if ownedProject(p, in.OwnerUserID) {
				byID[p.ID] = p
			}
		}
		pa, pb := byID[in.ProjectAID], byID[in.ProjectBID]
		if pa == nil {
			return domainagg.NotFoundf(op, "project not found: %s", in.ProjectAID)
		}
		if pb == nil {
			return domainagg.NotFoundf(op, "project not found: %s", in.ProjectBID)
		}
		existing, err := a.deps.Projects.GetByOwnerAndName(dbc, in.OwnerUserID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.Validationf(op, "a project named %q already exists", name)
		}

		merged := &types.Project{
			OwnerUserID: in.OwnerUserID,
			Name:        name,
			Status:      tracking.ProjectStatusActive,
			StartDate:   minDate(pa.StartDate, pb.StartDate),
			LastUpdated: maxTime(pa.LastUpdated, pb.LastUpdated),
			Description: mergeDescriptions([2]string{pa.Name, pa.Description}, [2]string{pb.Name, pb.Description}),
			ContextID:   pa.ContextID,
		}
		if merged.ContextID == nil {
			merged.ContextID = pb.ContextID
		}
		if _, err := a.deps.Projects.Create(dbc, []*types.Project{merged}); err != nil {
			return err
		}
		sources := []uuid.UUID{pa.ID, pb.ID}

		tagIDs, err := a.deps.Tags.ListProjectTagIDs(dbc, sources)
		if err != nil {
			return err
		}
		if err := a.deps.Tags.LinkProject(dbc, merged.ID, uniqueIDs(append(tagIDs[pa.ID], tagIDs[pb.ID]...))); err != nil {
			return err
		}

		moved, err := a.deps.Sessions.ReassignProject(dbc, sources, merged.ID)
		if err != nil {
			return err
		}

		subs, err := a.deps.SubProjects.ListByProjects(dbc, sources)
		if err != nil {
			return err
		}
		sourceName := map[uuid.UUID]string{pa.ID: pa.Name, pb.ID: pb.Name}
		taken := map[string]bool{}
		names := make(map[uuid.UUID]string, len(subs))
		for _, sp := range subs {
			final := resolveSubProjectName(sp.Name, sourceName[sp.ParentProjectID], taken)
			taken[final] = true
			names[sp.ID] = final
			if err := a.deps.SubProjects.UpdateFields(dbc, sp.ID, map[string]interface{}{
				"parent_project_id": merged.ID,
				"name":              final,
			}); err != nil {
				return err
			}
		}

		if _, err := a.deps.Commitments.ReassignProject(dbc, sources, merged.ID); err != nil {
			return err
		}
		if err := a.deps.Tags.DeleteProjectLinks(dbc, sources); err != nil {
			return err
		}
		if err := a.deps.Projects.Delete(dbc, sources); err != nil {
			return err
		}

		// Reassignment bypassed the incremental path, so totals come from the ledger.
		results, err := a.auditor.tree(dbc, op, merged.ID)
		if err != nil {
			return err
		}
		drift = results
		out = domainagg.MergeProjectsResult{
			ProjectID:       merged.ID,
			TotalTime:       results[0].Total,
			SessionsMoved:   moved,
			SubProjectNames: names,
		}
		return nil
	})
	if err == nil {
		observeDrift(a.deps.Base.Hooks, drift...)
	}
	return out, err
}

func (a *mergeAggregate) MergeSubProjects(ctx context.Context, in domainagg.MergeSubProjectsInput) (domainagg.MergeSubProjectsResult, error) {
	const op = "Tracking.Merge.MergeSubProjects"
	var out domainagg.MergeSubProjectsResult
	name := strings.TrimSpace(in.NewName)
	switch {
	case in.OwnerUserID == uuid.Nil:
		return out, domainagg.Validationf(op, "missing owner_user_id")
	case in.ParentProjectID == uuid.Nil:
		return out, domainagg.Validationf(op, "missing parent project id")
	case in.SubProjectXID == uuid.Nil || in.SubProjectYID == uuid.Nil:
		return out, domainagg.Validationf(op, "both subproject ids are required")
	case in.SubProjectXID == in.SubProjectYID:
		return out, domainagg.Validationf(op, "cannot merge a subproject with itself")
	case name == "":
		return out, domainagg.Validationf(op, "missing new subproject name")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "merge aggregate repos not configured", nil)
	}

	var drift domainagg.AuditResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		parent, err := a.deps.Projects.GetByID(dbc, in.ParentProjectID)
		if err != nil {
			return err
		}
		if !ownedProject(parent, in.OwnerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", in.ParentProjectID)
		}
		sources := []uuid.UUID{in.SubProjectXID, in.SubProjectYID}
		locked, err := a.deps.SubProjects.LockByIDs(dbc, sources)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.SubProject, len(locked))
		for _, sp := range locked {
			if sp.ParentProjectID == parent.ID {
				byID[sp.ID] = sp
			}
		}
		sx, sy := byID[in.SubProjectXID], byID[in.SubProjectYID]
		if sx == nil {
			return domainagg.NotFoundf(op, "subproject not found: %s", in.SubProjectXID)
		}
		if sy == nil {
			return domainagg.NotFoundf(op, "subproject not found: %s", in.SubProjectYID)
		}
		exists, err := a.deps.SubProjects.NameExists(dbc, parent.ID, name)
		if err != nil {
			return err
		}
		if exists {
			return domainagg.Validationf(op, "a subproject named %q already exists in %q", name, parent.Name)
		}

		merged := &types.SubProject{
			OwnerUserID:     parent.OwnerUserID,
			ParentProjectID: parent.ID,
			Name:            name,
			StartDate:       minDate(sx.StartDate, sy.StartDate),
			LastUpdated:     maxTime(sx.LastUpdated, sy.LastUpdated),
			Description:     mergeDescriptions([2]string{sx.Name, sx.Description}, [2]string{sy.Name, sy.Description}),
		}
		if _, err := a.deps.SubProjects.Create(dbc, []*types.SubProject{merged}); err != nil {
			return err
		}

		sessionIDs, err := a.deps.Links.ListSessionIDsBySubProjects(dbc, sources)
		if err != nil {
			return err
		}
		if err := a.deps.Links.DeleteBySubProjects(dbc, sources); err != nil {
			return err
		}
		for _, sid := range sessionIDs {
			if err := a.deps.Links.Add(dbc, sid, []uuid.UUID{merged.ID}); err != nil {
				return err
			}
		}
		if err := a.deps.SubProjects.Delete(dbc, sources); err != nil {
			return err
		}

		res, err := a.auditor.subProject(dbc, op, merged.ID)
		if err != nil {
			return err
		}
		drift = res
		out = domainagg.MergeSubProjectsResult{
			SubProjectID:  merged.ID,
			TotalTime:     res.Total,
			SessionsMoved: int64(len(sessionIDs)),
		}
		return nil
	})
	if err == nil {
		observeDrift(a.deps.Base.Hooks, drift)
	}
	return out, err
}

// resolveSubProjectName keeps name when free, else tries "name (source)", then
// "name (source 2)", "name (source 3)", ...
func resolveSubProjectName(name, source string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	candidate := fmt.Sprintf("%s (%s)", name, source)
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%s %d)", name, source, n)
	}
	return candidate
}

// mergeDescriptions joins non-empty descriptions under a header naming their source.
func mergeDescriptions(parts ...[2]string) string {
	var blocks []string
	for _, p := range parts {
		desc := strings.TrimSpace(p[1])
		if desc == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("From %s:\n%s", strings.TrimSpace(p[0]), desc))
	}
	return strings.Join(blocks, "\n\n")
}

func minDate(a, b datatypes.Date) datatypes.Date {
	ta, tb := time.Time(a), time.Time(b)
	switch {
	case ta.IsZero():
		return b
	case tb.IsZero():
		return a
	case tb.Before(ta):
		return b
	default:
		return a
	}
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b.UTC()
	}
	return a.UTC()
}
