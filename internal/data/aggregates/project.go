package aggregates

import (
	"context"
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

type ProjectAggregateDeps struct {
	Base BaseDeps

	Projects    repos.ProjectRepo
	SubProjects repos.SubProjectRepo
	Sessions    repos.SessionRepo
	Links       repos.SessionSubProjectRepo
	Commitments repos.CommitmentRepo
	Tags        repos.TagRepo
	Contexts    repos.ContextRepo

	Now func() time.Time
}

type projectAggregate struct {
	deps ProjectAggregateDeps
}

func NewProjectAggregate(deps ProjectAggregateDeps) domainagg.ProjectAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &projectAggregate{deps: deps}
}

func (a *projectAggregate) Contract() domainagg.Contract {
	return domainagg.ProjectAggregateContract
}

func (a *projectAggregate) configured() bool {
	return a.deps.Projects != nil && a.deps.SubProjects != nil && a.deps.Sessions != nil &&
		a.deps.Links != nil && a.deps.Commitments != nil && a.deps.Tags != nil && a.deps.Contexts != nil
}

func (a *projectAggregate) CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.ProjectResult, error) {
	const op = "Tracking.Project.CreateProject"
	var out domainagg.ProjectResult
	name := strings.TrimSpace(in.Name)
	status := normalizeProjectStatus(in.Status)
	switch {
	case in.OwnerUserID == uuid.Nil:
		return out, domainagg.Validationf(op, "missing owner_user_id")
	case name == "":
		return out, domainagg.Validationf(op, "missing project name")
	case !tracking.IsValidProjectStatus(status):
		return out, domainagg.Validationf(op, "unknown project status %q", in.Status)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	tagIDs := uniqueIDs(in.TagIDs)
	now := a.deps.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Projects.GetByOwnerAndName(dbc, in.OwnerUserID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.Validationf(op, "a project named %q already exists", name)
		}
		if err := a.requireContext(dbc, op, in.OwnerUserID, in.ContextID); err != nil {
			return err
		}
		if err := a.requireTags(dbc, op, in.OwnerUserID, tagIDs); err != nil {
			return err
		}
		p := &types.Project{
			OwnerUserID: in.OwnerUserID,
			Name:        name,
			Status:      status,
			StartDate:   datatypes.Date(now),
			LastUpdated: now,
			Description: strings.TrimSpace(in.Description),
			ContextID:   in.ContextID,
		}
		if _, err := a.deps.Projects.Create(dbc, []*types.Project{p}); err != nil {
			return err
		}
		if err := a.deps.Tags.LinkProject(dbc, p.ID, tagIDs); err != nil {
			return err
		}
		out = domainagg.ProjectResult{ProjectID: p.ID, Name: p.Name, Status: p.Status}
		return nil
	})
	return out, err
}

func (a *projectAggregate) UpdateProject(ctx context.Context, in domainagg.UpdateProjectInput) (domainagg.ProjectResult, error) {
	const op = "Tracking.Project.UpdateProject"
	var out domainagg.ProjectResult
	if in.OwnerUserID == uuid.Nil || in.ProjectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id or project_id")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return out, domainagg.Validationf(op, "project name cannot be empty")
	}
	if in.Status != nil && !tracking.IsValidProjectStatus(*in.Status) {
		return out, domainagg.Validationf(op, "unknown project status %q", *in.Status)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := a.deps.Projects.LockByIDs(dbc, []uuid.UUID{in.ProjectID})
		if err != nil {
			return err
		}
		if len(rows) == 0 || !ownedProject(rows[0], in.OwnerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", in.ProjectID)
		}
		p := rows[0]
		updates := map[string]any{"updated_at": a.deps.Now().UTC()}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name != p.Name {
				existing, err := a.deps.Projects.GetByOwnerAndName(dbc, in.OwnerUserID, name)
				if err != nil {
					return err
				}
				if existing != nil {
					return domainagg.Validationf(op, "a project named %q already exists", name)
				}
			}
			updates["name"] = name
			p.Name = name
		}
		if in.Status != nil {
			p.Status = normalizeProjectStatus(*in.Status)
			updates["status"] = p.Status
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		switch {
		case in.ClearContext:
			updates["context_id"] = nil
		case in.ContextID != nil:
			if err := a.requireContext(dbc, op, in.OwnerUserID, in.ContextID); err != nil {
				return err
			}
			updates["context_id"] = *in.ContextID
		}
		ok, err := a.deps.Base.CASGuard.UpdateIfOwned(dbc, "project", p.ID, in.OwnerUserID, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "project changed owner while updating"); err != nil {
			return err
		}
		out = domainagg.ProjectResult{ProjectID: p.ID, Name: p.Name, Status: p.Status}
		return nil
	})
	return out, err
}

func (a *projectAggregate) DeleteProject(ctx context.Context, ownerUserID, projectID uuid.UUID) error {
	const op = "Tracking.Project.DeleteProject"
	if ownerUserID == uuid.Nil || projectID == uuid.Nil {
		return domainagg.Validationf(op, "missing owner_user_id or project_id")
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := a.deps.Projects.LockByIDs(dbc, []uuid.UUID{projectID})
		if err != nil {
			return err
		}
		if len(rows) == 0 || !ownedProject(rows[0], ownerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", projectID)
		}
		ids := []uuid.UUID{projectID}

		sessionIDs, err := a.deps.Sessions.ListIDsByProjects(dbc, ids)
		if err != nil {
			return err
		}
		if err := a.deps.Links.DeleteBySessions(dbc, sessionIDs); err != nil {
			return err
		}
		if err := a.deps.Sessions.DeleteByProjects(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.SubProjects.DeleteByProjects(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.Commitments.DeleteByProjects(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.Tags.DeleteProjectLinks(dbc, ids); err != nil {
			return err
		}
		return a.deps.Projects.Delete(dbc, ids)
	})
}

func (a *projectAggregate) SetProjectTags(ctx context.Context, ownerUserID, projectID uuid.UUID, tagIDs []uuid.UUID) (domainagg.ProjectResult, error) {
	const op = "Tracking.Project.SetProjectTags"
	var out domainagg.ProjectResult
	if ownerUserID == uuid.Nil || projectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id or project_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	want := uniqueIDs(tagIDs)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := a.deps.Projects.LockByIDs(dbc, []uuid.UUID{projectID})
		if err != nil {
			return err
		}
		if len(rows) == 0 || !ownedProject(rows[0], ownerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", projectID)
		}
		if err := a.requireTags(dbc, op, ownerUserID, want); err != nil {
			return err
		}
		current, err := a.deps.Tags.ListProjectTagIDs(dbc, []uuid.UUID{projectID})
		if err != nil {
			return err
		}
		if err := a.deps.Tags.UnlinkProject(dbc, projectID, diffIDs(current[projectID], want)); err != nil {
			return err
		}
		if err := a.deps.Tags.LinkProject(dbc, projectID, diffIDs(want, current[projectID])); err != nil {
			return err
		}
		out = domainagg.ProjectResult{ProjectID: rows[0].ID, Name: rows[0].Name, Status: rows[0].Status}
		return nil
	})
	return out, err
}

func (a *projectAggregate) CreateSubProject(ctx context.Context, in domainagg.CreateSubProjectInput) (domainagg.SubProjectResult, error) {
	const op = "Tracking.Project.CreateSubProject"
	var out domainagg.SubProjectResult
	name := strings.TrimSpace(in.Name)
	switch {
	case in.OwnerUserID == uuid.Nil || in.ParentProjectID == uuid.Nil:
		return out, domainagg.Validationf(op, "missing owner_user_id or parent project id")
	case name == "":
		return out, domainagg.Validationf(op, "missing subproject name")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	now := a.deps.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		parent, err := a.deps.Projects.GetByID(dbc, in.ParentProjectID)
		if err != nil {
			return err
		}
		if !ownedProject(parent, in.OwnerUserID) {
			return domainagg.NotFoundf(op, "project not found: %s", in.ParentProjectID)
		}
		exists, err := a.deps.SubProjects.NameExists(dbc, parent.ID, name)
		if err != nil {
			return err
		}
		if exists {
			return domainagg.Validationf(op, "a subproject named %q already exists in %q", name, parent.Name)
		}
		sp := &types.SubProject{
			OwnerUserID:     in.OwnerUserID,
			ParentProjectID: parent.ID,
			Name:            name,
			Description:     strings.TrimSpace(in.Description),
			StartDate:       datatypes.Date(now),
			LastUpdated:     now,
		}
		if _, err := a.deps.SubProjects.Create(dbc, []*types.SubProject{sp}); err != nil {
			return err
		}
		out = domainagg.SubProjectResult{SubProjectID: sp.ID, ParentProjectID: parent.ID, Name: sp.Name}
		return nil
	})
	return out, err
}

func (a *projectAggregate) UpdateSubProject(ctx context.Context, in domainagg.UpdateSubProjectInput) (domainagg.SubProjectResult, error) {
	const op = "Tracking.Project.UpdateSubProject"
	var out domainagg.SubProjectResult
	if in.OwnerUserID == uuid.Nil || in.SubProjectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id or subproject_id")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return out, domainagg.Validationf(op, "subproject name cannot be empty")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sp, err := a.lockSubProject(dbc, op, in.OwnerUserID, in.SubProjectID)
		if err != nil {
			return err
		}
		updates := map[string]any{"updated_at": a.deps.Now().UTC()}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			exists, err := a.deps.SubProjects.NameExists(dbc, sp.ParentProjectID, name, sp.ID)
			if err != nil {
				return err
			}
			if exists {
				return domainagg.Validationf(op, "a subproject named %q already exists", name)
			}
			updates["name"] = name
			sp.Name = name
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		ok, err := a.deps.Base.CASGuard.UpdateIfOwned(dbc, "subproject", sp.ID, in.OwnerUserID, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "subproject changed owner while updating"); err != nil {
			return err
		}
		out = domainagg.SubProjectResult{SubProjectID: sp.ID, ParentProjectID: sp.ParentProjectID, Name: sp.Name}
		return nil
	})
	return out, err
}

func (a *projectAggregate) DeleteSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) error {
	const op = "Tracking.Project.DeleteSubProject"
	if ownerUserID == uuid.Nil || subProjectID == uuid.Nil {
		return domainagg.Validationf(op, "missing owner_user_id or subproject_id")
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sp, err := a.lockSubProject(dbc, op, ownerUserID, subProjectID)
		if err != nil {
			return err
		}
		// Sessions stay on the project, so the project total does not move.
		if err := a.deps.Links.DeleteBySubProjects(dbc, []uuid.UUID{sp.ID}); err != nil {
			return err
		}
		return a.deps.SubProjects.Delete(dbc, []uuid.UUID{sp.ID})
	})
}

func (a *projectAggregate) lockSubProject(dbc dbctx.Context, op string, owner, id uuid.UUID) (*types.SubProject, error) {
	rows, err := a.deps.SubProjects.LockByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OwnerUserID != owner {
		return nil, domainagg.NotFoundf(op, "subproject not found: %s", id)
	}
	return rows[0], nil
}

func (a *projectAggregate) requireContext(dbc dbctx.Context, op string, owner uuid.UUID, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	c, err := a.deps.Contexts.GetByID(dbc, *id)
	if err != nil {
		return err
	}
	if c == nil || c.OwnerUserID != owner {
		return domainagg.NotFoundf(op, "context not found: %s", *id)
	}
	return nil
}

func (a *projectAggregate) requireTags(dbc dbctx.Context, op string, owner uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := a.deps.Tags.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	found := map[uuid.UUID]bool{}
	for _, t := range rows {
		if t.OwnerUserID == owner {
			found[t.ID] = true
		}
	}
	for _, id := range ids {
		if !found[id] {
			return domainagg.NotFoundf(op, "tag not found: %s", id)
		}
	}
	return nil
}

func normalizeProjectStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return tracking.ProjectStatusActive
	}
	return s
}
