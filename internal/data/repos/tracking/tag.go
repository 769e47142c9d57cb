package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, rows []*types.Tag) ([]*types.Tag, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Tag, error)

	// Project links.
	ListProjectTagIDs(dbc dbctx.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	LinkProject(dbc dbctx.Context, projectID uuid.UUID, tagIDs []uuid.UUID) error
	UnlinkProject(dbc dbctx.Context, projectID uuid.UUID, tagIDs []uuid.UUID) error
	DeleteProjectLinks(dbc dbctx.Context, projectIDs []uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) Create(dbc dbctx.Context, rows []*types.Tag) ([]*types.Tag, error) {
	if len(rows) == 0 {
		return []*types.Tag{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *tagRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error) {
	var out []*types.Tag
	if len(ids) == 0 {
		return out, nil
	}
	if err := conn(dbc, r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Tag, error) {
	var out []*types.Tag
	if err := conn(dbc, r.db).Where("owner_user_id = ?", ownerUserID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) ListProjectTagIDs(dbc dbctx.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := map[uuid.UUID][]uuid.UUID{}
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []types.ProjectTag
	if err := conn(dbc, r.db).Where("project_id IN ?", projectIDs).Order("tag_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProjectID] = append(out[row.ProjectID], row.TagID)
	}
	return out, nil
}

func (r *tagRepo) LinkProject(dbc dbctx.Context, projectID uuid.UUID, tagIDs []uuid.UUID) error {
	if projectID == uuid.Nil || len(tagIDs) == 0 {
		return nil
	}
	rows := make([]types.ProjectTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, types.ProjectTag{ProjectID: projectID, TagID: id})
	}
	return conn(dbc, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *tagRepo) UnlinkProject(dbc dbctx.Context, projectID uuid.UUID, tagIDs []uuid.UUID) error {
	if projectID == uuid.Nil || len(tagIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("project_id = ? AND tag_id IN ?", projectID, tagIDs).Delete(&types.ProjectTag{}).Error
}

func (r *tagRepo) DeleteProjectLinks(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("project_id IN ?", projectIDs).Delete(&types.ProjectTag{}).Error
}
