package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

func (s *trackingService) StartSession(ctx context.Context, in domainagg.StartSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.StartSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) TrackSession(ctx context.Context, in domainagg.TrackSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.TrackSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) FinalizeSession(ctx context.Context, in domainagg.FinalizeSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.FinalizeSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) ReplaceSession(ctx context.Context, in domainagg.ReplaceSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.ReplaceSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) SetSessionSubProjects(ctx context.Context, in domainagg.SetSessionSubProjectsInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.SetSessionSubProjects(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) DeleteSession(ctx context.Context, in domainagg.DeleteSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.DeleteSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return &SessionOutcome{Aggregates: res.Aggregates}, nil
}

func (s *trackingService) RestartSession(ctx context.Context, in domainagg.RestartSessionInput) (*SessionOutcome, error) {
	res, err := s.deps.Sessions.RestartSession(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, res)
}

func (s *trackingService) ActiveSessions(ctx context.Context, ownerUserID, projectID uuid.UUID) ([]*types.Session, error) {
	active := true
	return s.ListSessions(ctx, ownerUserID, repos.SessionFilter{ProjectID: projectID, Active: &active})
}

func (s *trackingService) ListSessions(ctx context.Context, ownerUserID uuid.UUID, f repos.SessionFilter) ([]*types.Session, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.deps.Repos.Sessions.ListByOwner(dbc, ownerUserID, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	links, err := s.deps.Repos.SessionSubProjects.ListBySessions(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r.SubProjectIDs = links[r.ID]
		if r.SubProjectIDs == nil {
			r.SubProjectIDs = []uuid.UUID{}
		}
	}
	return rows, nil
}

func (s *trackingService) outcome(ctx context.Context, res domainagg.SessionResult) (*SessionOutcome, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.deps.Repos.Sessions.GetByID(dbc, res.SessionID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domainagg.NotFoundf("Tracking.Session", "session not found: %s", res.SessionID)
	}
	subs, err := s.deps.Repos.SessionSubProjects.ListSubProjectIDs(dbc, row.ID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []uuid.UUID{}
	}
	row.SubProjectIDs = subs
	return &SessionOutcome{Session: row, Aggregates: res.Aggregates}, nil
}
