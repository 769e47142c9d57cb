package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/data/aggregates"
	"github.com/yungbote/autumn-backend/internal/data/repos"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type Aggregates struct {
	Sessions    domainagg.SessionAggregate
	Audit       domainagg.AuditAggregate
	Merge       domainagg.MergeAggregate
	Projects    domainagg.ProjectAggregate
	Commitments domainagg.CommitmentAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Set, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(db),
		Hooks:    aggregates.NewObservabilityHooks(metrics),
		CASGuard: aggregates.NewCASGuard(db),
	}
	now := time.Now
	return Aggregates{
		Sessions: aggregates.NewSessionAggregate(aggregates.SessionAggregateDeps{
			Base: base, Sessions: r.Sessions, Links: r.SessionSubProjects, Projects: r.Projects, SubProjects: r.SubProjects, Now: now,
		}),
		Audit: aggregates.NewAuditAggregate(aggregates.AuditAggregateDeps{
			Base: base, Sessions: r.Sessions, Projects: r.Projects, SubProjects: r.SubProjects,
		}),
		Merge: aggregates.NewMergeAggregate(aggregates.MergeAggregateDeps{
			Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
			Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Now: now,
		}),
		Projects: aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
			Base: base, Projects: r.Projects, SubProjects: r.SubProjects, Sessions: r.Sessions,
			Links: r.SessionSubProjects, Commitments: r.Commitments, Tags: r.Tags, Contexts: r.Contexts, Now: now,
		}),
		Commitments: aggregates.NewCommitmentAggregate(aggregates.CommitmentAggregateDeps{
			Base: base, Commitments: r.Commitments, Projects: r.Projects, Sessions: r.Sessions, Users: r.Users,
			Now: now, DefaultLocation: cfg.Location,
		}),
	}
}
