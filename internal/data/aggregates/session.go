package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type SessionAggregateDeps struct {
	Base BaseDeps

	Sessions    repos.SessionRepo
	Links       repos.SessionSubProjectRepo
	Projects    repos.ProjectRepo
	SubProjects repos.SubProjectRepo

	// Now is the clock used when an input leaves a time unset.
	Now func() time.Time
}

type sessionAggregate struct {
	deps   SessionAggregateDeps
	totals totalsWriter
}

func NewSessionAggregate(deps SessionAggregateDeps) domainagg.SessionAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &sessionAggregate{
		deps:   deps,
		totals: totalsWriter{projects: deps.Projects, subProjects: deps.SubProjects},
	}
}

func (a *sessionAggregate) Contract() domainagg.Contract {
	return domainagg.SessionAggregateContract
}

func (a *sessionAggregate) configured() bool {
	return a.deps.Sessions != nil && a.deps.Links != nil && a.deps.Projects != nil && a.deps.SubProjects != nil
}

func (a *sessionAggregate) StartSession(ctx context.Context, in domainagg.StartSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.StartSession"
	var out domainagg.SessionResult
	if in.OwnerUserID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.ProjectID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing project_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	start := in.StartTime.UTC()
	if in.StartTime.IsZero() {
		start = a.deps.Now().UTC()
	}
	subIDs := uniqueIDs(in.SubProjectIDs)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.requireProject(dbc, op, in.OwnerUserID, in.ProjectID)
		if err != nil {
			return err
		}
		if err := a.requireSubProjects(dbc, op, p.ID, subIDs); err != nil {
			return err
		}
		s := &types.Session{
			OwnerUserID: in.OwnerUserID,
			ProjectID:   p.ID,
			StartTime:   start,
			Note:        strings.TrimSpace(in.Note),
		}
		if _, err := a.deps.Sessions.Create(dbc, []*types.Session{s}); err != nil {
			return err
		}
		if err := a.deps.Links.Add(dbc, s.ID, subIDs); err != nil {
			return err
		}
		subTotals := map[uuid.UUID]float64{}
		if err := a.totals.currentSubProjectTotals(dbc, subIDs, subTotals); err != nil {
			return err
		}
		out = domainagg.SessionResult{
			SessionID: s.ID,
			Aggregates: domainagg.UpdatedAggregates{
				ProjectID:        p.ID,
				ProjectTotal:     p.TotalTime,
				SubProjectTotals: subTotals,
			},
			AppliedAt: start,
		}
		return nil
	})
	return out, err
}

func (a *sessionAggregate) RestartSession(ctx context.Context, in domainagg.RestartSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.RestartSession"
	var out domainagg.SessionResult
	if in.OwnerUserID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing session_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	start := in.StartTime.UTC()
	if in.StartTime.IsZero() {
		start = a.deps.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.lockSession(dbc, op, in.OwnerUserID, in.SessionID)
		if err != nil {
			return err
		}
		if s.Completed() {
			return domainagg.Conflictf(op, "session %s is not active", s.ID)
		}
		if err := a.deps.Sessions.UpdateFields(dbc, s.ID, map[string]interface{}{"start_time": start}); err != nil {
			return err
		}
		p, err := a.deps.Projects.GetByID(dbc, s.ProjectID)
		if err != nil {
			return err
		}
		if p == nil {
			return InvariantError("session project is missing")
		}
		links, err := a.deps.Links.ListSubProjectIDs(dbc, s.ID)
		if err != nil {
			return err
		}
		subTotals := map[uuid.UUID]float64{}
		if err := a.totals.currentSubProjectTotals(dbc, links, subTotals); err != nil {
			return err
		}
		out = domainagg.SessionResult{
			SessionID: s.ID,
			Aggregates: domainagg.UpdatedAggregates{
				ProjectID:        p.ID,
				ProjectTotal:     p.TotalTime,
				SubProjectTotals: subTotals,
			},
			AppliedAt: start,
		}
		return nil
	})
	return out, err
}

func (a *sessionAggregate) FinalizeSession(ctx context.Context, in domainagg.FinalizeSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.FinalizeSession"
	var out domainagg.SessionResult
	if in.OwnerUserID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing session_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	end := in.EndTime.UTC()
	if in.EndTime.IsZero() {
		end = a.deps.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.lockSession(dbc, op, in.OwnerUserID, in.SessionID)
		if err != nil {
			return err
		}
		if s.Completed() {
			return domainagg.Conflictf(op, "session %s is already finalized", s.ID)
		}
		if end.Before(s.StartTime) {
			return domainagg.Validationf(op, "end_time precedes start_time")
		}
		dur := tracking.DurationMinutes(s.StartTime, end)
		updates := map[string]interface{}{
			"end_time":         end,
			"is_active":        false,
			"duration_minutes": dur,
		}
		if in.Note != nil {
			updates["note"] = strings.TrimSpace(*in.Note)
		}
		if err := a.deps.Sessions.UpdateFields(dbc, s.ID, updates); err != nil {
			return err
		}
		links, err := a.deps.Links.ListSubProjectIDs(dbc, s.ID)
		if err != nil {
			return err
		}
		aggs, err := a.applyFinalized(dbc, s.ProjectID, links, dur, end)
		if err != nil {
			return err
		}
		out = domainagg.SessionResult{SessionID: s.ID, Completed: true, Duration: dur, Aggregates: aggs, AppliedAt: end}
		return nil
	})
	return out, err
}

func (a *sessionAggregate) TrackSession(ctx context.Context, in domainagg.TrackSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.TrackSession"
	var out domainagg.SessionResult
	if err := validateTrack(op, in); err != nil {
		return out, err
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res, err := a.track(dbc, op, in)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *sessionAggregate) SetSessionSubProjects(ctx context.Context, in domainagg.SetSessionSubProjectsInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.SetSessionSubProjects"
	var out domainagg.SessionResult
	if in.OwnerUserID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing session_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	add := uniqueIDs(in.Add)
	remove := uniqueIDs(in.Remove)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		// The session row lock serializes concurrent membership edits.
		s, err := a.lockSession(dbc, op, in.OwnerUserID, in.SessionID)
		if err != nil {
			return err
		}
		if err := a.requireSubProjects(dbc, op, s.ProjectID, add); err != nil {
			return err
		}
		current, err := a.deps.Links.ListSubProjectIDs(dbc, s.ID)
		if err != nil {
			return err
		}

		var target []uuid.UUID
		if !in.Clear {
			target = diffIDs(current, remove)
		}
		target = uniqueIDs(append(target, add...))
		joined := diffIDs(target, current)
		left := diffIDs(current, target)

		if err := a.deps.Links.Remove(dbc, s.ID, left); err != nil {
			return err
		}
		if err := a.deps.Links.Add(dbc, s.ID, joined); err != nil {
			return err
		}

		p, err := a.deps.Projects.GetByID(dbc, s.ProjectID)
		if err != nil {
			return err
		}
		if p == nil {
			return InvariantError("session project is missing")
		}
		subTotals := map[uuid.UUID]float64{}
		dur := s.Duration()
		if s.Completed() {
			if err := a.totals.applySubProjects(dbc, joined, dur, nil, subTotals); err != nil {
				return err
			}
			if err := a.totals.applySubProjects(dbc, left, -dur, nil, subTotals); err != nil {
				return err
			}
		} else if err := a.totals.currentSubProjectTotals(dbc, append(joined, left...), subTotals); err != nil {
			return err
		}

		out = domainagg.SessionResult{
			SessionID: s.ID,
			Completed: s.Completed(),
			Duration:  dur,
			Aggregates: domainagg.UpdatedAggregates{
				ProjectID:        s.ProjectID,
				ProjectTotal:     p.TotalTime,
				SubProjectTotals: subTotals,
			},
			AppliedAt: a.deps.Now().UTC(),
		}
		return nil
	})
	return out, err
}

func (a *sessionAggregate) DeleteSession(ctx context.Context, in domainagg.DeleteSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.DeleteSession"
	var out domainagg.SessionResult
	if in.OwnerUserID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing session_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res, err := a.retract(dbc, op, in.OwnerUserID, in.SessionID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *sessionAggregate) ReplaceSession(ctx context.Context, in domainagg.ReplaceSessionInput) (domainagg.SessionResult, error) {
	const op = "Tracking.Session.ReplaceSession"
	var out domainagg.SessionResult
	if in.SessionID == uuid.Nil {
		return out, domainagg.Validationf(op, "missing session_id")
	}
	repl := in.Replacement
	repl.OwnerUserID = in.OwnerUserID
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		old, err := a.retract(dbc, op, in.OwnerUserID, in.SessionID)
		if err != nil {
			return err
		}
		if !old.Completed {
			return domainagg.Conflictf(op, "session %s is still active; stop it instead", in.SessionID)
		}
		if repl.ProjectID == uuid.Nil {
			repl.ProjectID = old.Aggregates.ProjectID
		}
		if err := validateTrack(op, repl); err != nil {
			return err
		}
		res, err := a.track(dbc, op, repl)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *sessionAggregate) track(dbc dbctx.Context, op string, in domainagg.TrackSessionInput) (domainagg.SessionResult, error) {
	var out domainagg.SessionResult
	p, err := a.requireProject(dbc, op, in.OwnerUserID, in.ProjectID)
	if err != nil {
		return out, err
	}
	subIDs := uniqueIDs(in.SubProjectIDs)
	if err := a.requireSubProjects(dbc, op, p.ID, subIDs); err != nil {
		return out, err
	}
	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	dur := tracking.DurationMinutes(start, end)
	s := &types.Session{
		OwnerUserID:     in.OwnerUserID,
		ProjectID:       p.ID,
		StartTime:       start,
		EndTime:         &end,
		Note:            strings.TrimSpace(in.Note),
		DurationMinutes: &dur,
	}
	if _, err := a.deps.Sessions.Create(dbc, []*types.Session{s}); err != nil {
		return out, err
	}
	if err := a.deps.Links.Add(dbc, s.ID, subIDs); err != nil {
		return out, err
	}
	aggs, err := a.applyFinalized(dbc, p.ID, subIDs, dur, end)
	if err != nil {
		return out, err
	}
	return domainagg.SessionResult{SessionID: s.ID, Completed: true, Duration: dur, Aggregates: aggs, AppliedAt: end}, nil
}

// retract deletes a session and, when it was completed, takes its duration back out of
// every total it contributed to.
func (a *sessionAggregate) retract(dbc dbctx.Context, op string, owner, sessionID uuid.UUID) (domainagg.SessionResult, error) {
	var out domainagg.SessionResult
	s, err := a.lockSession(dbc, op, owner, sessionID)
	if err != nil {
		return out, err
	}
	links, err := a.deps.Links.ListSubProjectIDs(dbc, s.ID)
	if err != nil {
		return out, err
	}
	if err := a.deps.Links.DeleteBySessions(dbc, []uuid.UUID{s.ID}); err != nil {
		return out, err
	}
	if err := a.deps.Sessions.Delete(dbc, []uuid.UUID{s.ID}); err != nil {
		return out, err
	}

	subTotals := map[uuid.UUID]float64{}
	dur := s.Duration()
	var projectTotal float64
	if s.Completed() {
		if projectTotal, err = a.totals.applyProject(dbc, s.ProjectID, -dur, nil); err != nil {
			return out, err
		}
		if err := a.totals.applySubProjects(dbc, links, -dur, nil, subTotals); err != nil {
			return out, err
		}
	} else {
		p, err := a.deps.Projects.GetByID(dbc, s.ProjectID)
		if err != nil {
			return out, err
		}
		if p != nil {
			projectTotal = p.TotalTime
		}
	}
	return domainagg.SessionResult{
		SessionID: s.ID,
		Completed: s.Completed(),
		Duration:  dur,
		Aggregates: domainagg.UpdatedAggregates{
			ProjectID:        s.ProjectID,
			ProjectTotal:     projectTotal,
			SubProjectTotals: subTotals,
		},
		AppliedAt: a.deps.Now().UTC(),
	}, nil
}

func (a *sessionAggregate) applyFinalized(dbc dbctx.Context, projectID uuid.UUID, subIDs []uuid.UUID, dur float64, end time.Time) (domainagg.UpdatedAggregates, error) {
	total, err := a.totals.applyProject(dbc, projectID, dur, &end)
	if err != nil {
		return domainagg.UpdatedAggregates{}, err
	}
	subTotals := map[uuid.UUID]float64{}
	if err := a.totals.applySubProjects(dbc, subIDs, dur, &end, subTotals); err != nil {
		return domainagg.UpdatedAggregates{}, err
	}
	return domainagg.UpdatedAggregates{ProjectID: projectID, ProjectTotal: total, SubProjectTotals: subTotals}, nil
}

func (a *sessionAggregate) lockSession(dbc dbctx.Context, op string, owner, id uuid.UUID) (*types.Session, error) {
	s, err := a.deps.Sessions.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if s == nil || s.OwnerUserID != owner {
		return nil, domainagg.NotFoundf(op, "session not found: %s", id)
	}
	return s, nil
}

func (a *sessionAggregate) requireProject(dbc dbctx.Context, op string, owner, id uuid.UUID) (*types.Project, error) {
	p, err := a.deps.Projects.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if !ownedProject(p, owner) {
		return nil, domainagg.NotFoundf(op, "project not found: %s", id)
	}
	return p, nil
}

func (a *sessionAggregate) requireSubProjects(dbc dbctx.Context, op string, projectID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := a.deps.SubProjects.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, sp := range rows {
		if sp.ParentProjectID != projectID {
			return domainagg.Validationf(op, "subproject %s does not belong to project %s", sp.ID, projectID)
		}
		found[sp.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return domainagg.NotFoundf(op, "subproject not found: %s", id)
		}
	}
	return nil
}

func validateTrack(op string, in domainagg.TrackSessionInput) error {
	if in.OwnerUserID == uuid.Nil {
		return domainagg.Validationf(op, "missing owner_user_id")
	}
	if in.ProjectID == uuid.Nil {
		return domainagg.Validationf(op, "missing project_id")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return domainagg.Validationf(op, "start_time and end_time are required")
	}
	if in.EndTime.Before(in.StartTime) {
		return domainagg.Validationf(op, "end_time precedes start_time")
	}
	return nil
}
