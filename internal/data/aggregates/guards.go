package aggregates

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

// CASGuard provides compare-and-set helpers for aggregate writes. Row locks cover Postgres;
// the guards also hold on sqlite, where FOR UPDATE is a no-op.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if db := dbc.Conn(g.db); db != nil {
		return db, nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByWatermark updates a row only while its watermark column still holds expected
// (nil matches NULL).
func (g CASGuard) UpdateByWatermark(dbc dbctx.Context, table, column string, id uuid.UUID, expected *time.Time, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	column = strings.TrimSpace(column)
	if table == "" || column == "" || id == uuid.Nil {
		return false, ValidationError("table, column and id are required for UpdateByWatermark")
	}
	q := db.Table(table).Where("id = ?", id)
	if expected == nil {
		q = q.Where(column + " IS NULL")
	} else {
		q = q.Where(column+" = ?", expected.UTC())
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateIfOwned updates a row only when it belongs to ownerUserID.
func (g CASGuard) UpdateIfOwned(dbc dbctx.Context, table string, id, ownerUserID uuid.UUID, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil || ownerUserID == uuid.Nil {
		return false, ValidationError("table, id and owner are required for UpdateIfOwned")
	}
	res := db.Table(table).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// watermarkTime normalizes an instant to the precision both backends round-trip.
func watermarkTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
