package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/autumn-backend/internal/domain"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

// SessionFilter narrows ListByOwner. Zero values are ignored.
type SessionFilter struct {
	ProjectID uuid.UUID
	Active    *bool
	EndAfter  *time.Time
	EndBefore *time.Time
	Limit     int
}

// CompletedStats aggregates completed sessions in a window.
type CompletedStats struct {
	Minutes float64
	Count   int64
}

// TallyFilter scopes the completed-session tallies. Nil bounds leave that side open.
type TallyFilter struct {
	ProjectID uuid.UUID
	From      *time.Time
	To        *time.Time
}

// ProjectTally is one project's completed minutes in a tally window.
type ProjectTally struct {
	ProjectID uuid.UUID
	Minutes   float64
	Count     int64
}

// SubProjectTally is one subproject bucket of a project. A null SubProjectID is the bucket of
// sessions with no subproject links.
type SubProjectTally struct {
	ProjectID    uuid.UUID
	SubProjectID uuid.NullUUID
	Minutes      float64
}

type SessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Session) ([]*types.Session, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, f SessionFilter) ([]*types.Session, error)
	CountByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) (int64, error)

	// SumCompletedByProject is the audit source for a project total.
	SumCompletedByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error)
	// SumCompletedBySubProject is the audit source for a subproject total.
	SumCompletedBySubProject(dbc dbctx.Context, subProjectID uuid.UUID) (float64, error)
	// CompletedStatsInRange covers completed sessions of a project whose end_time is in [from, to).
	CompletedStatsInRange(dbc dbctx.Context, projectID uuid.UUID, from, to time.Time) (CompletedStats, error)
	// ListCompletedEndTimes returns end times of an owner's completed sessions in [from, to).
	ListCompletedEndTimes(dbc dbctx.Context, ownerUserID uuid.UUID, from, to time.Time) ([]time.Time, error)
	TallyByProject(dbc dbctx.Context, ownerUserID uuid.UUID, f TallyFilter) ([]ProjectTally, error)
	// TallyBySubProject counts a session once in every subproject it is linked to.
	TallyBySubProject(dbc dbctx.Context, ownerUserID uuid.UUID, f TallyFilter) ([]SubProjectTally, error)

	ReassignProject(dbc dbctx.Context, fromProjectIDs []uuid.UUID, toProjectID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, ids []uuid.UUID) error
	ListIDsByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) ([]uuid.UUID, error)
	DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, rows []*types.Session) ([]*types.Session, error) {
	if len(rows) == 0 {
		return []*types.Session{}, nil
	}
	if err := conn(dbc, r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Session
	if err := conn(dbc, r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sessionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Session
	err := conn(dbc, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sessionRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, f SessionFilter) ([]*types.Session, error) {
	var out []*types.Session
	q := conn(dbc, r.db).Where("owner_user_id = ?", ownerUserID)
	if f.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if f.EndAfter != nil {
		q = q.Where("end_time >= ?", f.EndAfter.UTC())
	}
	if f.EndBefore != nil {
		q = q.Where("end_time < ?", f.EndBefore.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Order("start_time DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) CountByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) (int64, error) {
	var count int64
	if len(projectIDs) == 0 {
		return 0, nil
	}
	if err := conn(dbc, r.db).Model(&types.Session{}).Where("project_id IN ?", projectIDs).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sessionRepo) SumCompletedByProject(dbc dbctx.Context, projectID uuid.UUID) (float64, error) {
	var total float64
	err := conn(dbc, r.db).
		Model(&types.Session{}).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Where("project_id = ? AND end_time IS NOT NULL", projectID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *sessionRepo) SumCompletedBySubProject(dbc dbctx.Context, subProjectID uuid.UUID) (float64, error) {
	var total float64
	err := conn(dbc, r.db).
		Table("session AS s").
		Joins("JOIN session_subproject ss ON ss.session_id = s.id").
		Select("COALESCE(SUM(s.duration_minutes), 0)").
		Where("ss.subproject_id = ? AND s.end_time IS NOT NULL", subProjectID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *sessionRepo) CompletedStatsInRange(dbc dbctx.Context, projectID uuid.UUID, from, to time.Time) (CompletedStats, error) {
	var row struct {
		Minutes float64
		Count   int64
	}
	err := conn(dbc, r.db).
		Model(&types.Session{}).
		Select("COALESCE(SUM(duration_minutes), 0) AS minutes, COUNT(*) AS count").
		Where("project_id = ? AND end_time IS NOT NULL AND end_time >= ? AND end_time < ?", projectID, from.UTC(), to.UTC()).
		Scan(&row).Error
	if err != nil {
		return CompletedStats{}, err
	}
	return CompletedStats{Minutes: row.Minutes, Count: row.Count}, nil
}

func (r *sessionRepo) ListCompletedEndTimes(dbc dbctx.Context, ownerUserID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	err := conn(dbc, r.db).
		Model(&types.Session{}).
		Where("owner_user_id = ? AND end_time IS NOT NULL AND end_time >= ? AND end_time < ?", ownerUserID, from.UTC(), to.UTC()).
		Order("end_time DESC").
		Pluck("end_time", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) TallyByProject(dbc dbctx.Context, ownerUserID uuid.UUID, f TallyFilter) ([]ProjectTally, error) {
	var out []ProjectTally
	q := tallyScope(conn(dbc, r.db).Table("session AS s"), ownerUserID, f)
	err := q.
		Select("s.project_id AS project_id, COALESCE(SUM(s.duration_minutes), 0) AS minutes, COUNT(*) AS count").
		Group("s.project_id").
		Order("minutes DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) TallyBySubProject(dbc dbctx.Context, ownerUserID uuid.UUID, f TallyFilter) ([]SubProjectTally, error) {
	var out []SubProjectTally
	q := tallyScope(conn(dbc, r.db).Table("session AS s"), ownerUserID, f)
	err := q.
		Joins("LEFT JOIN session_subproject ss ON ss.session_id = s.id").
		Select("s.project_id AS project_id, ss.subproject_id AS sub_project_id, COALESCE(SUM(s.duration_minutes), 0) AS minutes").
		Group("s.project_id, ss.subproject_id").
		Order("minutes DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func tallyScope(q *gorm.DB, ownerUserID uuid.UUID, f TallyFilter) *gorm.DB {
	q = q.Where("s.owner_user_id = ? AND s.end_time IS NOT NULL", ownerUserID)
	if f.ProjectID != uuid.Nil {
		q = q.Where("s.project_id = ?", f.ProjectID)
	}
	if f.From != nil {
		q = q.Where("s.end_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("s.end_time < ?", f.To.UTC())
	}
	return q
}

func (r *sessionRepo) ReassignProject(dbc dbctx.Context, fromProjectIDs []uuid.UUID, toProjectID uuid.UUID) (int64, error) {
	if len(fromProjectIDs) == 0 {
		return 0, nil
	}
	res := conn(dbc, r.db).
		Model(&types.Session{}).
		Where("project_id IN ?", fromProjectIDs).
		Update("project_id", toProjectID)
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) Delete(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("id IN ?", ids).Delete(&types.Session{}).Error
}

func (r *sessionRepo) ListIDsByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(projectIDs) == 0 {
		return ids, nil
	}
	if err := conn(dbc, r.db).Model(&types.Session{}).Where("project_id IN ?", projectIDs).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sessionRepo) DeleteByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return conn(dbc, r.db).Where("project_id IN ?", projectIDs).Delete(&types.Session{}).Error
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return conn(dbc, r.db).Model(&types.Session{}).Where("id = ?", id).Updates(updates).Error
}
