package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/jobs/scheduler"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
	"github.com/yungbote/autumn-backend/internal/services"
)

const auditSweepJob = "audit-sweep"

// wireAuditSweep schedules the global audit sweep. The redis lock keeps replicas from sweeping
// the same ledger at once.
func wireAuditSweep(log *logger.Logger, cfg Config, audit services.AuditService, clients Clients, metrics *observability.Metrics) *scheduler.Scheduler {
	if !cfg.AuditEnabled {
		log.Info("audit sweep disabled")
		return nil
	}
	opts := []scheduler.Option{scheduler.WithSkipHook(metrics.IncSweepSkipped)}
	if clients.Locker != nil {
		opts = append(opts, scheduler.WithLocker(clients.Locker))
	}
	job := func(ctx context.Context) error {
		rep, err := audit.Sweep(ctx, uuid.Nil)
		log.Info("audit sweep report",
			"status", rep.Status,
			"projects", rep.Projects,
			"projects_failed", rep.ProjectsFailed,
			"corrections", rep.Corrections,
			"commitments_banked", rep.CommitmentsBanked,
		)
		return err
	}
	return scheduler.New(scheduler.Config{
		Name:         auditSweepJob,
		Interval:     cfg.AuditInterval,
		MisfireGrace: cfg.AuditMisfireGrace,
		LockTTL:      cfg.AuditLockTTL,
	}, job, log, opts...)
}
