package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type SessionSubProjectRepo interface {
	ListSubProjectIDs(dbc dbctx.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
	ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	ListSessionIDsBySubProjects(dbc dbctx.Context, subProjectIDs []uuid.UUID) ([]uuid.UUID, error)

	Add(dbc dbctx.Context, sessionID uuid.UUID, subProjectIDs []uuid.UUID) error
	Remove(dbc dbctx.Context, sessionID uuid.UUID, subProjectIDs []uuid.UUID) error
	DeleteBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) error
	DeleteBySubProjects(dbc dbctx.Context, subProjectIDs []uuid.UUID) error
}

type sessionSubProjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionSubProjectRepo(db *gorm.DB, baseLog *logger.Logger) SessionSubProjectRepo {
	return &sessionSubProjectRepo{db: db, log: baseLog.With("repo", "SessionSubProjectRepo")}
}

func (r *sessionSubProjectRepo) ListSubProjectIDs(dbc dbctx.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if sessionID == uuid.Nil {
		return ids, nil
	}
	err := conn(dbc, r.db).
		Model(&types.SessionSubProject{}).
		Where("session_id = ?", sessionID).
		Order("subproject_id ASC").
		Pluck("subproject_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sessionSubProjectRepo) ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := map[uuid.UUID][]uuid.UUID{}
	if len(sessionIDs) == 0 {
		return out, nil
	}
	var rows []types.SessionSubProject
	if err := conn(dbc, r.db).Where("session_id IN ?", sessionIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SessionID] = append(out[row.SessionID], row.SubProjectID)
	}
	return out, nil
}

func (r *sessionSubProjectRepo) ListSessionIDsBySubProjects(dbc dbctx.Context, subProjectIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(subProjectIDs) == 0 {
		return ids, nil
	}
	err := conn(dbc, r.db).
		Model(&types.SessionSubProject{}).
		Distinct("session_id").
		Where("subproject_id IN ?", subProjectIDs).
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Add is idempotent: existing links are left untouched.
func (r *sessionSubProjectRepo) Add(dbc dbctx.Context, sessionID uuid.UUID, subProjectIDs []uuid.UUID) error {
	if sessionID == uuid.Nil || len(subProjectIDs) == 0 {
		return nil
	}
	rows := make([]types.SessionSubProject, 0, len(subProjectIDs))
	for _, id := range subProjectIDs {
		rows = append(rows, types.SessionSubProject{SessionID: sessionID, SubProjectID: id})
	}
	return conn(dbc, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *sessionSubProjectRepo) Remove(dbc dbctx.Context, sessionID uuid.UUID, subProjectIDs []uuid.UUID) error {
	if sessionID == uuid.Nil || len(subProjectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).
		Where("session_id = ? AND subproject_id IN ?", sessionID, subProjectIDs).
		Delete(&types.SessionSubProject{}).Error
}

func (r *sessionSubProjectRepo) DeleteBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("session_id IN ?", sessionIDs).Delete(&types.SessionSubProject{}).Error
}

func (r *sessionSubProjectRepo) DeleteBySubProjects(dbc dbctx.Context, subProjectIDs []uuid.UUID) error {
	if len(subProjectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("subproject_id IN ?", subProjectIDs).Delete(&types.SessionSubProject{}).Error
}
