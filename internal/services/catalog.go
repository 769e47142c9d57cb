package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

func (s *trackingService) CreateUser(ctx context.Context, username, timezone string) (*types.User, error) {
	const op = "Tracking.CreateUser"
	username = strings.TrimSpace(username)
	timezone = strings.TrimSpace(timezone)
	if username == "" {
		return nil, domainagg.Validationf(op, "missing username")
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, domainagg.Validationf(op, "unknown time zone %q", timezone)
		}
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.deps.Repos.Users.GetByUsername(dbc, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainagg.Validationf(op, "username already exists: %s", username)
	}
	created, err := s.deps.Repos.Users.Create(dbc, []*types.User{{Username: username, Timezone: timezone}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *trackingService) CreateTag(ctx context.Context, ownerUserID uuid.UUID, name, color string) (*types.Tag, error) {
	const op = "Tracking.CreateTag"
	name = strings.TrimSpace(name)
	if ownerUserID == uuid.Nil || name == "" {
		return nil, domainagg.Validationf(op, "missing owner or name")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.deps.Repos.Tags.ListByOwner(dbc, ownerUserID)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if t.Name == name {
			return nil, domainagg.Validationf(op, "tag already exists: %s", name)
		}
	}
	created, err := s.deps.Repos.Tags.Create(dbc, []*types.Tag{{
		OwnerUserID: ownerUserID,
		Name:        name,
		Color:       strings.TrimSpace(color),
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *trackingService) ListTags(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Tag, error) {
	return s.deps.Repos.Tags.ListByOwner(dbctx.Context{Ctx: ctx}, ownerUserID)
}

func (s *trackingService) CreateContext(ctx context.Context, ownerUserID uuid.UUID, name, description string) (*types.Context, error) {
	const op = "Tracking.CreateContext"
	name = strings.TrimSpace(name)
	if ownerUserID == uuid.Nil || name == "" {
		return nil, domainagg.Validationf(op, "missing owner or name")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.deps.Repos.Contexts.ListByOwner(dbc, ownerUserID)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.Name == name {
			return nil, domainagg.Validationf(op, "context already exists: %s", name)
		}
	}
	created, err := s.deps.Repos.Contexts.Create(dbc, []*types.Context{{
		OwnerUserID: ownerUserID,
		Name:        name,
		Description: description,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *trackingService) ListContexts(ctx context.Context, ownerUserID uuid.UUID) ([]*types.Context, error) {
	return s.deps.Repos.Contexts.ListByOwner(dbctx.Context{Ctx: ctx}, ownerUserID)
}
