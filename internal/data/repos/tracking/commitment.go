package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type CommitmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Commitment) ([]*types.Commitment, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error)
	// ListActive returns active commitments; uuid.Nil means every owner.
	ListActive(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ReassignProject(dbc dbctx.Context, fromProjectIDs []uuid.UUID, toProjectID uuid.UUID) (int64, error)
	DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error
}

type commitmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitmentRepo(db *gorm.DB, baseLog *logger.Logger) CommitmentRepo {
	return &commitmentRepo{db: db, log: baseLog.With("repo", "CommitmentRepo")}
}

func (r *commitmentRepo) Create(dbc dbctx.Context, rows []*types.Commitment) ([]*types.Commitment, error) {
	if len(rows) == 0 {
		return []*types.Commitment{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *commitmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error) {
	return r.get(conn(dbc, r.db), id)
}

func (r *commitmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error) {
	return r.get(conn(dbc, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *commitmentRepo) get(q *gorm.DB, id uuid.UUID) (*types.Commitment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Commitment
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *commitmentRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error) {
	var out []*types.Commitment
	if err := conn(dbc, r.db).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commitmentRepo) ListActive(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Commitment, error) {
	var out []*types.Commitment
	q := conn(dbc, r.db).Where("active = ?", true)
	if ownerUserID != uuid.Nil {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commitmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return conn(dbc, r.db).Model(&types.Commitment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *commitmentRepo) ReassignProject(dbc dbctx.Context, fromProjectIDs []uuid.UUID, toProjectID uuid.UUID) (int64, error) {
	if len(fromProjectIDs) == 0 {
		return 0, nil
	}
	res := conn(dbc, r.db).
		Model(&types.Commitment{}).
		Where("project_id IN ?", fromProjectIDs).
		Update("project_id", toProjectID)
	return res.RowsAffected, res.Error
}

func (r *commitmentRepo) DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("project_id IN ?", projectIDs).Delete(&types.Commitment{}).Error
}
