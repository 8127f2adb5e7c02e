package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketera/helpdesk-service/internal/api/http/handlers"
	"github.com/ticketera/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Reference      *handlers.ReferenceHandler
	Tickets        *handlers.TicketsHandler
	Collaboration  *handlers.CollaborationHandler
	Kanban         *handlers.KanbanHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/refresh", cfg.Auth.Refresh)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Get("/categories", cfg.Reference.ListCategories)
	protected.Post("/categories", auth.RequireSuperuser(), cfg.Reference.CreateCategory)
	protected.Put("/categories/:id", auth.RequireSuperuser(), cfg.Reference.UpdateCategory)

	protected.Get("/roles", auth.RequireSuperuser(), cfg.Reference.ListRoles)
	protected.Post("/roles", auth.RequireSuperuser(), cfg.Reference.CreateRole)
	protected.Put("/roles/:id", auth.RequireSuperuser(), cfg.Reference.UpdateRole)

	protected.Post("/employees", auth.RequireSuperuser(), cfg.Reference.CreateEmployee)
	protected.Get("/employees/me", auth.RequireEmployee(), cfg.Reference.Me)

	tickets := protected.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", auth.RequireEmployee(), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/meeting", cfg.Tickets.ScheduleMeeting)
	tickets.Get("/:id/meeting", cfg.Tickets.GetMeeting)
	tickets.Get("/:id/duration", cfg.Tickets.Duration)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Get("/:id/comments", cfg.Collaboration.ListComments)
	tickets.Post("/:id/comments", auth.RequireEmployee(), cfg.Collaboration.AddComment)
	tickets.Get("/:id/attachments", cfg.Collaboration.ListAttachments)
	tickets.Post("/:id/attachments", auth.RequireEmployee(), cfg.Collaboration.AddAttachment)
	tickets.Get("/:id/evaluation", cfg.Collaboration.GetEvaluation)
	tickets.Post("/:id/evaluation", cfg.Collaboration.Evaluate)

	protected.Get("/kanban", cfg.Kanban.Board)
	protected.Put("/kanban/:ticketId", cfg.Kanban.Move)

	protected.Get("/reports/tickets.xlsx", auth.RequirePrivileged(), cfg.Reports.ExportTickets)
}
