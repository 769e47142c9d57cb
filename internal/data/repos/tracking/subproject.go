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

type SubProjectRepo interface {
	Create(dbc dbctx.Context, rows []*types.SubProject) ([]*types.SubProject, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubProject, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SubProject, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SubProject, error)
	ListByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.SubProject, error)
	NameExists(dbc dbctx.Context, parentProjectID uuid.UUID, name string, excludeIDs ...uuid.UUID) (bool, error)

	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubProject, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error
}

type subProjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubProjectRepo(db *gorm.DB, baseLog *logger.Logger) SubProjectRepo {
	return &subProjectRepo{db: db, log: baseLog.With("repo", "SubProjectRepo")}
}

func (r *subProjectRepo) Create(dbc dbctx.Context, rows []*types.SubProject) ([]*types.SubProject, error) {
	if len(rows) == 0 {
		return []*types.SubProject{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *subProjectRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubProject, error) {
	var out []*types.SubProject
	if len(ids) == 0 {
		return out, nil
	}
	if err := conn(dbc, r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subProjectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SubProject, error) {
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

func (r *subProjectRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SubProject, error) {
	return r.ListByProjects(dbc, []uuid.UUID{projectID})
}

// ListByProjects orders by the position of the parent in projectIDs, then by name.
func (r *subProjectRepo) ListByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.SubProject, error) {
	var out []*types.SubProject
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []*types.SubProject
	if err := conn(dbc, r.db).
		Where("parent_project_id IN ?", projectIDs).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, pid := range projectIDs {
		for _, row := range rows {
			if row.ParentProjectID == pid {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (r *subProjectRepo) NameExists(dbc dbctx.Context, parentProjectID uuid.UUID, name string, excludeIDs ...uuid.UUID) (bool, error) {
	var count int64
	q := conn(dbc, r.db).
		Model(&types.SubProject{}).
		Where("parent_project_id = ? AND name = ?", parentProjectID, strings.TrimSpace(name))
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subProjectRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubProject, error) {
	var out []*types.SubProject
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

func (r *subProjectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return conn(dbc, r.db).Model(&types.SubProject{}).Where("id = ?", id).Updates(updates).Error
}

func (r *subProjectRepo) Delete(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("id IN ?", ids).Delete(&types.SubProject{}).Error
}

func (r *subProjectRepo) DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("parent_project_id IN ?", projectIDs).Delete(&types.SubProject{}).Error
}
