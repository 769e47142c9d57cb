package aggregates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

var errNoDB = errors.New("transaction runner has no database")

// TxRunner owns the transaction boundary of an aggregate write.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// GormTxRunner runs fn in a gorm transaction. On a handle that is already inside a
// transaction gorm nests through a savepoint, which is how tests isolate each case.
type GormTxRunner struct {
	DB *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return GormTxRunner{DB: db}
}

func (r GormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.DB == nil {
		return errNoDB
	}
	if fn == nil {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
