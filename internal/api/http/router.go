package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cityworks/incident-service/internal/api/http/handlers"
	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Agents         *handlers.AgentsHandler
	Incidents      *handlers.IncidentsHandler
	AgentIncidents *handlers.AgentIncidentsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/agents/login", cfg.Agents.Login)
	authGroup.Post("/password/reset/request", cfg.Agents.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Agents.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Agents.ChangePassword)

	app.Get("/categories", cfg.Incidents.ListCategories)

	citizen := app.Group("/incidents", cfg.AuthMiddleware.Handle, auth.RequireUser())
	citizen.Post("/", cfg.Incidents.CreateIncident)
	citizen.Get("/", cfg.Incidents.ListIncidents)
	citizen.Get("/:id", cfg.Incidents.GetIncident)
	citizen.Post("/:id/comments", cfg.Incidents.AddComment)
	citizen.Post("/:id/reopen", cfg.Incidents.Reopen)

	agent := app.Group("/agent", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	agent.Get("/incidents", cfg.AgentIncidents.ListQueue)
	agent.Get("/incidents/:id", cfg.AgentIncidents.GetIncident)
	agent.Post("/incidents/:id/status", cfg.AgentIncidents.ChangeStatus)
	agent.Post("/incidents/:id/comments", cfg.AgentIncidents.AddComment)
	agent.Post("/incidents/:id/evidence", cfg.AgentIncidents.AddEvidencePhoto)

	supervisory := agent.Group("", auth.RequireAgentRole(workflow.RoleSupervisor, workflow.RoleAdmin))
	supervisory.Post("/incidents/:id/assign", cfg.AgentIncidents.AssignAgent)
	supervisory.Get("/stats", cfg.AgentIncidents.Stats)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAgentRole(workflow.RoleAdmin))
	admin.Post("/agents", cfg.Admin.CreateAgent)
	admin.Get("/agents", cfg.Admin.ListAgents)
	admin.Patch("/agents/:id/active", cfg.Admin.SetAgentActive)
	admin.Post("/categories", cfg.Admin.CreateCategory)
	admin.Get("/categories", cfg.Admin.ListCategories)
	admin.Patch("/categories/:id", cfg.Admin.UpdateCategory)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/status", cfg.Admin.SetUserStatus)
}
