package app

import (
	"github.com/yungbote/autumn-backend/internal/data/db"
	apphttp "github.com/yungbote/autumn-backend/internal/http"
	httpH "github.com/yungbote/autumn-backend/internal/http/handlers"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Catalog    *httpH.CatalogHandler
	Project    *httpH.ProjectHandler
	SubProject *httpH.SubProjectHandler
	Session    *httpH.SessionHandler
	Commitment *httpH.CommitmentHandler
	Audit      *httpH.AuditHandler
}

func wireHandlers(log *logger.Logger, database *db.Service, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(database.Ping),
		Catalog:    httpH.NewCatalogHandler(services.Tracking),
		Project:    httpH.NewProjectHandler(services.Tracking, services.Audit),
		SubProject: httpH.NewSubProjectHandler(services.Tracking, services.Audit),
		Session:    httpH.NewSessionHandler(services.Tracking),
		Commitment: httpH.NewCommitmentHandler(services.Commitments),
		Audit:      httpH.NewAuditHandler(services.Audit),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = cfg.OtelServiceName
	}
	return apphttp.NewServer(":"+cfg.Port, apphttp.RouterConfig{
		HealthHandler:     handlers.Health,
		CatalogHandler:    handlers.Catalog,
		ProjectHandler:    handlers.Project,
		SubProjectHandler: handlers.SubProject,
		SessionHandler:    handlers.Session,
		CommitmentHandler: handlers.Commitment,
		AuditHandler:      handlers.Audit,
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
	})
}
