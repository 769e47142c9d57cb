// Package tracking holds the table-level repos for the time-tracking ledger.
//
// Repos never open transactions themselves; callers pass one through dbctx.Context when a
// read or write must be part of a larger atomic unit.
package tracking

import (
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

func conn(dbc dbctx.Context, db *gorm.DB) *gorm.DB {
	return dbc.Conn(db)
}
