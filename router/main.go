package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/handlers"
	catalog_handlers "github.com/sahilchouksey/campus-timeline/handlers/catalog"
	timeline_handlers "github.com/sahilchouksey/campus-timeline/handlers/timeline"
	"github.com/sahilchouksey/campus-timeline/services/timeline"
	"github.com/sahilchouksey/campus-timeline/utils/auth"
	"github.com/sahilchouksey/campus-timeline/utils/middleware"
)

// Dependencies are the wired components the routes are served from.
type Dependencies struct {
	Store       database.DocumentStore
	Timeline    *timeline.Service
	JWTManager  *auth.JWTManager
	Linker      catalog_handlers.FileLinker
	DownloadTTL time.Duration

	AllowedOrigins    string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	// Security middleware
	origins := deps.AllowedOrigins
	if strings.TrimSpace(origins) == "" {
		origins = "http://localhost:3000"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    origins,
		RateLimitRequests: deps.RateLimitRequests,
		RateLimitWindow:   deps.RateLimitWindow,
	})

	app.Get("/ping", handlers.HandleCheckHealth(deps.Store))

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager)
	timelineHandler := timeline_handlers.NewTimelineHandler(deps.Timeline)
	catalogHandler := catalog_handlers.NewCatalogHandler(deps.Timeline, deps.Linker, deps.DownloadTTL)

	api := app.Group("/api/v1", authMiddleware.Required())

	// Student views
	me := api.Group("/me")
	me.Get("/today", timelineHandler.GetToday)
	me.Get("/schedule", timelineHandler.GetSchedule)
	me.Get("/courses", timelineHandler.GetCourses)
	me.Get("/materials", timelineHandler.GetMaterials)

	// Catalog browsing
	api.Get("/courses/:course_id/modules", catalogHandler.ListModules)
	api.Get("/modules/:module_id/materials", catalogHandler.ListMaterials)
	api.Get("/materials/:id/download", catalogHandler.GetDownloadURL)
}
