// Package dbctx threads a context and an optional open transaction through repo calls.
package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context is passed by value. A zero Tx means "not inside a transaction".
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Conn returns the transaction when there is one, otherwise fallback, bound to Ctx.
// It returns nil when both are nil.
func (c Context) Conn(fallback *gorm.DB) *gorm.DB {
	db := c.Tx
	if db == nil {
		db = fallback
	}
	if db == nil {
		return nil
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return db.WithContext(ctx)
}
