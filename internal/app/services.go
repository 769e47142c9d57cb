package app

import (
	"github.com/yungbote/autumn-backend/internal/data/repos"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
	"github.com/yungbote/autumn-backend/internal/services"
)

type Services struct {
	Tracking    services.TrackingService
	Commitments services.CommitmentService
	Audit       services.AuditService
}

func wireServices(log *logger.Logger, cfg Config, r repos.Set, aggs Aggregates, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	commitments := services.NewCommitmentService(log, services.CommitmentServiceDeps{
		Aggregate:       aggs.Commitments,
		Commitments:     r.Commitments,
		Sessions:        r.Sessions,
		Users:           r.Users,
		Metrics:         metrics,
		DefaultLocation: cfg.Location,
	})
	return Services{
		Tracking: services.NewTrackingService(log, services.TrackingServiceDeps{
			Repos:    r,
			Sessions: aggs.Sessions,
			Projects: aggs.Projects,
			Merge:    aggs.Merge,
		}),
		Commitments: commitments,
		Audit: services.NewAuditService(log, services.AuditServiceDeps{
			Aggregate:   aggs.Audit,
			Projects:    r.Projects,
			SubProjects: r.SubProjects,
			Users:       r.Users,
			Commitments: commitments,
			Metrics:     metrics,
			Concurrency: cfg.AuditConcurrency,
		}),
	}
}
