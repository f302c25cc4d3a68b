package router

import (
	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	auth_handler "github.com/probelab/probelab-app/pkg/handler/auth"
	export_handler "github.com/probelab/probelab-app/pkg/handler/export"
	probe_handler "github.com/probelab/probelab-app/pkg/handler/probe"
	series_handler "github.com/probelab/probelab-app/pkg/handler/series"
	snapshot_handler "github.com/probelab/probelab-app/pkg/handler/snapshot"
	status_handler "github.com/probelab/probelab-app/pkg/handler/status"
	"github.com/probelab/probelab-app/pkg/response"
)

// Router wires every handler into the API route tree.
type Router struct {
	authHandler     *auth_handler.Handler
	probeHandler    *probe_handler.Handler
	seriesHandler   *series_handler.Handler
	statusHandler   *status_handler.Handler
	snapshotHandler *snapshot_handler.Handler
	exportHandler   *export_handler.Handler
	middleware      *middleware.Middleware
}

func NewRouter(
	authHandler *auth_handler.Handler,
	probeHandler *probe_handler.Handler,
	seriesHandler *series_handler.Handler,
	statusHandler *status_handler.Handler,
	snapshotHandler *snapshot_handler.Handler,
	exportHandler *export_handler.Handler,
	mw *middleware.Middleware,
) *Router {
	return &Router{
		authHandler:     authHandler,
		probeHandler:    probeHandler,
		seriesHandler:   seriesHandler,
		statusHandler:   statusHandler,
		snapshotHandler: snapshotHandler,
		exportHandler:   exportHandler,
		middleware:      mw,
	}
}

// Setup registers all routes on the engine.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Cors())

	api := engine.Group("/api")
	api.Use(middleware.NoCache())

	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"}, "OK")
	})

	r.registerAuthRoutes(api)
	r.registerProbeRoutes(api)
	r.registerSeriesRoutes(api)
	r.registerStatusRoutes(api)
	r.registerSnapshotRoutes(api)
	r.registerExportRoutes(api)
}

func (r *Router) registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	// Brute-force protection on the credential endpoints.
	auth.Use(middleware.RateLimit(10, 20))
	{
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.Refresh)
	}
}

func (r *Router) registerProbeRoutes(api *gin.RouterGroup) {
	probes := api.Group("/probes")
	{
		// Reads are public so the dashboard works without a session.
		probes.GET("", r.probeHandler.List)
		probes.GET("/statistics", r.probeHandler.Statistics)
		probes.GET("/:id", r.probeHandler.Get)
		probes.POST("/search", r.probeHandler.Search)
		probes.POST("/filter-by-tags", r.probeHandler.FilterByTags)

		authed := probes.Group("")
		authed.Use(r.middleware.JWTAuth())
		{
			authed.POST("", r.probeHandler.Create)
			authed.PUT("/:id", r.probeHandler.Update)
			authed.DELETE("/:id", r.probeHandler.Delete)
			authed.POST("/update-status", r.probeHandler.UpdateStatus)
			authed.POST("/update-priority", r.probeHandler.UpdatePriority)
			authed.POST("/tags", r.probeHandler.ManageTags)
			authed.POST("/batch-tags", r.probeHandler.BatchTags)
			authed.POST("/state-tags", r.probeHandler.StateTags)
			authed.POST("/add-field", r.probeHandler.AddField)
			authed.POST("/group", r.probeHandler.Group)
			authed.POST("/recalculate", r.probeHandler.Recalculate)
		}
	}
}

func (r *Router) registerSeriesRoutes(api *gin.RouterGroup) {
	series := api.Group("/series")
	{
		series.POST("/validate", r.seriesHandler.Validate)

		create := series.Group("")
		create.Use(r.middleware.JWTAuth(), middleware.RateLimit(6, 12))
		{
			create.POST("/create", r.seriesHandler.Create)
		}
	}
}

func (r *Router) registerStatusRoutes(api *gin.RouterGroup) {
	statuses := api.Group("/statuses")
	{
		statuses.GET("", r.statusHandler.ListStatuses)
		statuses.POST("", r.middleware.JWTAuth(), r.middleware.AdminAuth(), r.statusHandler.CreateStatus)
	}

	priorities := api.Group("/priorities")
	{
		priorities.GET("", r.statusHandler.ListPriorities)
		priorities.POST("", r.middleware.JWTAuth(), r.middleware.AdminAuth(), r.statusHandler.CreatePriority)
	}
}

func (r *Router) registerSnapshotRoutes(api *gin.RouterGroup) {
	snapshots := api.Group("/snapshots")
	{
		snapshots.GET("", r.snapshotHandler.List)
		snapshots.GET("/compare", r.snapshotHandler.Compare)
		snapshots.GET("/:id", r.snapshotHandler.Get)
		snapshots.GET("/:id/payload", r.snapshotHandler.Payload)

		authed := snapshots.Group("")
		authed.Use(r.middleware.JWTAuth())
		{
			authed.POST("", r.snapshotHandler.Create)

			admin := authed.Group("")
			admin.Use(r.middleware.AdminAuth())
			{
				admin.POST("/:id/restore", r.snapshotHandler.Restore)
				admin.DELETE("/:id", r.snapshotHandler.Delete)
			}
		}
	}
}

func (r *Router) registerExportRoutes(api *gin.RouterGroup) {
	authed := api.Group("")
	authed.Use(r.middleware.JWTAuth())
	{
		authed.GET("/export", r.exportHandler.Export)
		authed.POST("/import", r.middleware.AdminAuth(), r.exportHandler.Import)
	}
}
