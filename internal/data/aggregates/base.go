package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

const (
	tracerName = "autumn/aggregates"

	defaultWriteAttempts = 3
	statusSuccess        = "success"
)

// BaseDeps is shared by every aggregate. Zero fields get working defaults.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// MaxAttempts bounds how often a write that failed with a retryable code is run again.
	MaxAttempts int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultWriteAttempts
	}
	return d
}

// executeWrite runs fn in one transaction, re-running it from scratch while it fails with a
// retryable code. fn must not keep state across attempts.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	start := time.Now()

	var err error
	attempts := 0
	for {
		attempts++
		err = MapError(op, deps.Runner.InTx(ctx, fn))
		if !domainagg.Retryable(err) {
			break
		}
		deps.Hooks.IncRetry(op)
		if attempts >= deps.MaxAttempts || ctx.Err() != nil {
			break
		}
		deps.Log.Warn("retrying aggregate write", "op", op, "attempt", attempts, "error", err)
	}

	status := aggregateErrorStatus(err)
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeInternal:
		deps.Log.Error("aggregate write failed", "op", op, "error", err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	span.SetAttributes(
		attribute.String("aggregate.status", status),
		attribute.Int("aggregate.attempts", attempts),
	)
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

// aggregateErrorStatus is the metric label for a write outcome: "success" or an error code.
func aggregateErrorStatus(err error) string {
	if err == nil {
		return statusSuccess
	}
	if code := domainagg.CodeOf(MapError("aggregate.status", err)); code != "" {
		return string(code)
	}
	return string(domainagg.CodeInternal)
}
