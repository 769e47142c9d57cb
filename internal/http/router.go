package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/autumn-backend/internal/http/handlers"
	httpMW "github.com/yungbote/autumn-backend/internal/http/middleware"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type RouterConfig struct {
	HealthHandler     *httpH.HealthHandler
	CatalogHandler    *httpH.CatalogHandler
	ProjectHandler    *httpH.ProjectHandler
	SubProjectHandler *httpH.SubProjectHandler
	SessionHandler    *httpH.SessionHandler
	CommitmentHandler *httpH.CommitmentHandler
	AuditHandler      *httpH.AuditHandler

	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	// Users (no owner yet)
	if cfg.CatalogHandler != nil {
		r.POST("/users", cfg.CatalogHandler.CreateUser)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireOwner())
	{
		if cfg.CatalogHandler != nil {
			api.POST("/tags", cfg.CatalogHandler.CreateTag)
			api.GET("/tags", cfg.CatalogHandler.ListTags)
			api.POST("/contexts", cfg.CatalogHandler.CreateContext)
			api.GET("/contexts", cfg.CatalogHandler.ListContexts)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects", cfg.ProjectHandler.List)
			api.POST("/projects/merge", cfg.ProjectHandler.Merge)
			api.GET("/projects/:id", cfg.ProjectHandler.Get)
			api.PATCH("/projects/:id", cfg.ProjectHandler.Update)
			api.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
			api.POST("/projects/:id/audit", cfg.ProjectHandler.Audit)
			api.PUT("/projects/:id/tags", cfg.ProjectHandler.SetTags)
			api.POST("/projects/:id/subprojects", cfg.ProjectHandler.CreateSubProject)
			api.GET("/projects/:id/subprojects", cfg.ProjectHandler.ListSubProjects)
			api.POST("/projects/:id/subprojects/merge", cfg.ProjectHandler.MergeSubProjects)
		}

		// SubProjects
		if cfg.SubProjectHandler != nil {
			api.PATCH("/subprojects/:id", cfg.SubProjectHandler.Update)
			api.DELETE("/subprojects/:id", cfg.SubProjectHandler.Delete)
			api.POST("/subprojects/:id/audit", cfg.SubProjectHandler.Audit)
		}

		// Sessions
		if cfg.SessionHandler != nil {
			api.POST("/sessions", cfg.SessionHandler.Start)
			api.GET("/sessions", cfg.SessionHandler.List)
			api.GET("/sessions/active", cfg.SessionHandler.Active)
			api.POST("/sessions/track", cfg.SessionHandler.Track)
			api.POST("/sessions/:id/stop", cfg.SessionHandler.Stop)
			api.POST("/sessions/:id/restart", cfg.SessionHandler.Restart)
			api.PUT("/sessions/:id", cfg.SessionHandler.Replace)
			api.PUT("/sessions/:id/subprojects", cfg.SessionHandler.SetSubProjects)
			api.DELETE("/sessions/:id", cfg.SessionHandler.Delete)
			api.GET("/totals", cfg.SessionHandler.Totals)
		}

		// Commitments
		if cfg.CommitmentHandler != nil {
			api.POST("/commitments", cfg.CommitmentHandler.Create)
			api.GET("/commitments", cfg.CommitmentHandler.List)
			api.GET("/commitments/:id", cfg.CommitmentHandler.Get)
			api.GET("/commitments/:id/progress", cfg.CommitmentHandler.Progress)
			api.GET("/commitments/:id/streak", cfg.CommitmentHandler.Streak)
			api.POST("/commitments/:id/reconcile", cfg.CommitmentHandler.Reconcile)
			api.GET("/streak", cfg.CommitmentHandler.DailyStreak)
		}

		// Audit
		if cfg.AuditHandler != nil {
			api.POST("/audit", cfg.AuditHandler.Sweep)
		}
	}

	return r
}
