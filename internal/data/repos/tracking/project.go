package tracking

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, rows []*types.Project) ([]*types.Project, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	GetByOwnerAndName(dbc dbctx.Context, ownerUserID uuid.UUID, name string) (*types.Project, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, status string) ([]*types.Project, error)
	ListIDs(dbc dbctx.Context, ownerUserID uuid.UUID) ([]uuid.UUID, error)

	// LockByIDs takes row locks in id order so concurrent writers cannot deadlock on each other.
	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Project, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, ids []uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, rows []*types.Project) ([]*types.Project, error) {
	if len(rows) == 0 {
		return []*types.Project{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *projectRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Project, error) {
	var out []*types.Project
	if len(ids) == 0 {
		return out, nil
	}
	if err := conn(dbc, r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *projectRepo) GetByOwnerAndName(dbc dbctx.Context, ownerUserID uuid.UUID, name string) (*types.Project, error) {
	name = strings.TrimSpace(name)
	if ownerUserID == uuid.Nil || name == "" {
		return nil, nil
	}
	var row types.Project
	if err := conn(dbc, r.db).
		Where("owner_user_id = ? AND name = ?", ownerUserID, name).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *projectRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, status string) ([]*types.Project, error) {
	var out []*types.Project
	q := conn(dbc, r.db).Where("owner_user_id = ?", ownerUserID)
	if status = strings.TrimSpace(strings.ToLower(status)); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) ListIDs(dbc dbctx.Context, ownerUserID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := conn(dbc, r.db).Model(&types.Project{})
	if ownerUserID != uuid.Nil {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	if err := q.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *projectRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Project, error) {
	var out []*types.Project
	if len(ids) == 0 {
		return out, nil
	}
	err := conn(dbc, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return conn(dbc, r.db).Model(&types.Project{}).Where("id = ?", id).Updates(updates).Error
}

func (r *projectRepo) Delete(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("id IN ?", ids).Delete(&types.Project{}).Error
}
