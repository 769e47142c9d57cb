package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/domain/tracking"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: username,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.Project {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Project{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Name:        name,
		Status:      "active",
		StartDate:   datatypes.Date(now),
		LastUpdated: now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedSubProject(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Project, name string) *types.SubProject {
	tb.Helper()
	now := time.Now().UTC()
	sp := &types.SubProject{
		ID:              uuid.New(),
		OwnerUserID:     p.OwnerUserID,
		ParentProjectID: p.ID,
		Name:            name,
		StartDate:       datatypes.Date(now),
		LastUpdated:     now,
	}
	if err := tx.WithContext(ctx).Create(sp).Error; err != nil {
		tb.Fatalf("seed subproject: %v", err)
	}
	return sp
}

// SeedSession writes a session row directly, bypassing aggregate maintenance.
// A nil end leaves the session active.
func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Project, start time.Time, end *time.Time, subProjectIDs ...uuid.UUID) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:          uuid.New(),
		OwnerUserID: p.OwnerUserID,
		ProjectID:   p.ID,
		StartTime:   start.UTC(),
	}
	if end != nil {
		e := end.UTC()
		d := tracking.DurationMinutes(start, e)
		s.EndTime = &e
		s.DurationMinutes = &d
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	for _, id := range subProjectIDs {
		link := &types.SessionSubProject{SessionID: s.ID, SubProjectID: id}
		if err := tx.WithContext(ctx).Create(link).Error; err != nil {
			tb.Fatalf("seed session subproject: %v", err)
		}
	}
	return s
}

func SeedCommitment(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Project, c types.Commitment) *types.Commitment {
	tb.Helper()
	row := c
	row.ID = uuid.New()
	row.OwnerUserID = p.OwnerUserID
	row.ProjectID = p.ID
	if row.MinBalance == 0 && row.MaxBalance == 0 {
		row.MinBalance, row.MaxBalance = tracking.DefaultBalanceBounds(row.Target)
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		tb.Fatalf("seed commitment: %v", err)
	}
	return &row
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
