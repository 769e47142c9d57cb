package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type ContextRepo interface {
	Create(dbc dbctx.Context, rows []*types.Context) ([]*types.Context, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Context, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Context, error)
}

type contextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	return &contextRepo{db: db, log: baseLog.With("repo", "ContextRepo")}
}

func (r *contextRepo) Create(dbc dbctx.Context, rows []*types.Context) ([]*types.Context, error) {
	if len(rows) == 0 {
		return []*types.Context{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contextRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Context, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Context
	if err := conn(dbc, r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *contextRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Context, error) {
	var out []*types.Context
	if err := conn(dbc, r.db).Where("owner_user_id = ?", ownerUserID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
