package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type ProjectDetail struct {
	*types.Project
	SubProjects []*types.SubProject `json:"subprojects"`
}

// SessionOutcome is a session write together with the totals it left behind.
type SessionOutcome struct {
	Session    *types.Session              `json:"session,omitempty"`
	Aggregates domainagg.UpdatedAggregates `json:"aggregates"`
}

// TrackingService is the CRUD surface over the ledger. Writes go through the aggregates; reads
// go straight to the table repos.
type TrackingService interface {
	CreateUser(ctx context.Context, username, timezone string) (*types.User, error)
	CreateTag(ctx context.Context, ownerUserID uuid.UUID, name, color string) (*types.Tag, error)
	ListTags(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Tag, error)
	CreateContext(ctx context.Context, ownerUserID uuid.UUID, name, description string) (*types.Context, error)
	ListContexts(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Context, error)

	CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (*types.Project, error)
	UpdateProject(ctx context.Context, in domainagg.UpdateProjectInput) (*types.Project, error)
	DeleteProject(ctx context.Context, ownerUserID, projectID uuid.UUID) error
	GetProject(ctx context.Context, ownerUserID, projectID uuid.UUID) (*ProjectDetail, error)
	ListProjects(ctx context.Context, ownerUserID uuid.UUID, status string) ([]*types.Project, error)
	SetProjectTags(ctx context.Context, ownerUserID, projectID uuid.UUID, tagIDs []uuid.UUID) (*types.Project, error)
	MergeProjects(ctx context.Context, in domainagg.MergeProjectsInput) (*ProjectDetail, error)

	CreateSubProject(ctx context.Context, in domainagg.CreateSubProjectInput) (*types.SubProject, error)
	UpdateSubProject(ctx context.Context, in domainagg.UpdateSubProjectInput) (*types.SubProject, error)
	DeleteSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) error
	ListSubProjects(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]*types.SubProject, error)
	MergeSubProjects(ctx context.Context, in domainagg.MergeSubProjectsInput) (*types.SubProject, error)

	StartSession(ctx context.Context, in domainagg.StartSessionInput) (*SessionOutcome, error)
	TrackSession(ctx context.Context, in domainagg.TrackSessionInput) (*SessionOutcome, error)
	FinalizeSession(ctx context.Context, in domainagg.FinalizeSessionInput) (*SessionOutcome, error)
	ReplaceSession(ctx context.Context, in domainagg.ReplaceSessionInput) (*SessionOutcome, error)
	SetSessionSubProjects(ctx context.Context, in domainagg.SetSessionSubProjectsInput) (*SessionOutcome, error)
	DeleteSession(ctx context.Context, in domainagg.DeleteSessionInput) (*SessionOutcome, error)
	RestartSession(ctx context.Context, in domainagg.RestartSessionInput) (*SessionOutcome, error)
	ListSessions(ctx context.Context, ownerUserID uuid.UUID, f repos.SessionFilter) ([]*types.Session, error)
	ActiveSessions(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]*types.Session, error)

	// Tally sums completed sessions per project and per subproject over an end_time window.
	Tally(ctx context.Context, ownerUserID uuid.UUID, q TallyQuery) (*Totals, error)
}

type TrackingServiceDeps struct {
	Repos    repos.Set
	Sessions domainagg.SessionAggregate
	Projects domainagg.ProjectAggregate
	Merge    domainagg.MergeAggregate
}

type trackingService struct {
	log  *logger.Logger
	deps TrackingServiceDeps
}

func NewTrackingService(log *logger.Logger, deps TrackingServiceDeps) TrackingService {
	return &trackingService{
		log:  log.With("service", "TrackingService"),
		deps: deps,
	}
}

func (s *trackingService) CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (*types.Project, error) {
	res, err := s.deps.Projects.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, in.OwnerUserID, res.ProjectID)
}

func (s *trackingService) UpdateProject(ctx context.Context, in domainagg.UpdateProjectInput) (*types.Project, error) {
	res, err := s.deps.Projects.UpdateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loadProject(ctx, in.OwnerUserID, res.ProjectID)
}

func (s *trackingService) DeleteProject(ctx context.Context, ownerUserID, projectID uuid.UUID) error {
	return s.deps.Projects.DeleteProject(ctx, ownerUserID, projectID)
}

func (s *trackingService) GetProject(ctx context.Context, ownerUserID, projectID uuid.UUID) (*ProjectDetail, error) {
	p, err := s.loadProject(ctx, ownerUserID, projectID)
	if err != nil {
		return nil, err
	}
	subs, err := s.deps.Repos.SubProjects.ListByProject(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: p, SubProjects: subs}, nil
}

func (s *trackingService) ListProjects(ctx context.Context, ownerUserID uuid.UUID, status string) ([]*types.Project, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.deps.Repos.Projects.ListByOwner(dbc, ownerUserID, strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	tags, err := s.deps.Repos.Tags.ListProjectTagIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		p.TagIDs = tags[p.ID]
	}
	return rows, nil
}

func (s *trackingService) SetProjectTags(ctx context.Context, ownerUserID, projectID uuid.UUID, tagIDs []uuid.UUID) (*types.Project, error) {
	if _, err := s.deps.Projects.SetProjectTags(ctx, ownerUserID, projectID, tagIDs); err != nil {
		return nil, err
	}
	return s.loadProject(ctx, ownerUserID, projectID)
}

func (s *trackingService) MergeProjects(ctx context.Context, in domainagg.MergeProjectsInput) (*ProjectDetail, error) {
	res, err := s.deps.Merge.MergeProjects(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("projects merged",
		"owner_user_id", in.OwnerUserID,
		"project_id", res.ProjectID,
		"sessions_moved", res.SessionsMoved,
	)
	return s.GetProject(ctx, in.OwnerUserID, res.ProjectID)
}

func (s *trackingService) CreateSubProject(ctx context.Context, in domainagg.CreateSubProjectInput) (*types.SubProject, error) {
	res, err := s.deps.Projects.CreateSubProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loadSubProject(ctx, in.OwnerUserID, res.SubProjectID)
}

func (s *trackingService) UpdateSubProject(ctx context.Context, in domainagg.UpdateSubProjectInput) (*types.SubProject, error) {
	res, err := s.deps.Projects.UpdateSubProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loadSubProject(ctx, in.OwnerUserID, res.SubProjectID)
}

func (s *trackingService) DeleteSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) error {
	return s.deps.Projects.DeleteSubProject(ctx, ownerUserID, subProjectID)
}

func (s *trackingService) ListSubProjects(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]*types.SubProject, error) {
	p, err := s.loadProject(ctx, ownerUserID, projectID)
	if err != nil {
		return nil, err
	}
	return s.deps.Repos.SubProjects.ListByProject(dbctx.Context{Ctx: ctx}, p.ID)
}

func (s *trackingService) MergeSubProjects(ctx context.Context, in domainagg.MergeSubProjectsInput) (*types.SubProject, error) {
	res, err := s.deps.Merge.MergeSubProjects(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loadSubProject(ctx, in.OwnerUserID, res.SubProjectID)
}

func (s *trackingService) loadProject(ctx context.Context, ownerUserID, projectID uuid.UUID) (*types.Project, error) {
	const op = "Tracking.LoadProject"
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.deps.Repos.Projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OwnerUserID != ownerUserID {
		return nil, domainagg.NotFoundf(op, "project not found: %s", projectID)
	}
	tags, err := s.deps.Repos.Tags.ListProjectTagIDs(dbc, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.TagIDs = tags[p.ID]
	return p, nil
}

func (s *trackingService) loadSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) (*types.SubProject, error) {
	const op = "Tracking.LoadSubProject"
	sp, err := s.deps.Repos.SubProjects.GetByID(dbctx.Context{Ctx: ctx}, subProjectID)
	if err != nil {
		return nil, err
	}
	if sp == nil || sp.OwnerUserID != ownerUserID {
		return nil, domainagg.NotFoundf(op, "subproject not found: %s", subProjectID)
	}
	return sp, nil
}
