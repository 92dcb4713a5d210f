package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	RefData        *handlers.RefDataHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	refData := app.Group("/refdata", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	refData.Get("/categories", cfg.RefData.ListCategories)
	refData.Get("/priorities", cfg.RefData.ListPriorities)
	refData.Get("/statuses", cfg.RefData.ListStatuses)
	refData.Get("/departments", cfg.RefData.ListDepartments)
	refData.Get("/departments/:id/teams", cfg.RefData.ListTeams)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/stats/status", cfg.Tickets.StatsByStatus)
	tickets.Get("/stats/priority", cfg.Tickets.StatsByPriority)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/unassign", cfg.Tickets.UnassignTicket)
	tickets.Post("/:id/reassign", cfg.Tickets.ReassignTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/cancel", cfg.Tickets.CancelTicket)
	tickets.Post("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users/:id/grants", cfg.Admin.AssignGrant)
	admin.Delete("/users/:id/grants", cfg.Admin.RevokeGrant)
	admin.Get("/users/:id/grants", cfg.Admin.ListGrants)
	admin.Patch("/users/:id/active", cfg.Admin.SetUserActive)
	admin.Post("/categories", cfg.RefData.CreateCategory)
	admin.Post("/departments", cfg.RefData.CreateDepartment)
	admin.Patch("/departments/:id/active", cfg.RefData.SetDepartmentActive)
	admin.Post("/departments/:id/teams", cfg.RefData.CreateTeam)
	admin.Patch("/teams/:id/active", cfg.RefData.SetTeamActive)
}
