package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cityworks/incident-service/internal/api/dto"
	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/internal/service"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// AdminHandler exposes administration endpoints for agents, categories,
// and citizen accounts.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

func (h *AdminHandler) requireAgentPrincipal(c *fiber.Ctx) (*domain.Agent, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	return principal.Agent, nil
}

// CreateAgent handles POST /admin/agents.
func (h *AdminHandler) CreateAgent(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	agent, err := h.admin.CreateAgent(c.Context(), actor, service.AgentCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromAgent(*agent)})
}

// ListAgents handles GET /admin/agents.
func (h *AdminHandler) ListAgents(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	filters := service.AgentListFilters{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := workflow.Role(roleStr)
		filters.Role = &role
	}
	if c.Query("active") != "" {
		active := c.QueryBool("active")
		filters.Active = &active
	}
	agents, err := h.admin.ListAgents(c.Context(), actor, filters)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		items = append(items, dto.FromAgent(agent))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetAgentActive handles PATCH /admin/agents/:id/active.
func (h *AdminHandler) SetAgentActive(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.admin.SetAgentActive(c.Context(), actor, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAgent(*agent)})
}

// CreateCategory handles POST /admin/categories.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.admin.CreateCategory(c.Context(), actor, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
	}})
}

// ListCategories handles GET /admin/categories.
func (h *AdminHandler) ListCategories(c *fiber.Ctx) error {
	if _, err := h.requireAgentPrincipal(c); err != nil {
		return err
	}
	categories, err := h.admin.ListCategories(c.Context(), true)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.CategoryResponse{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
			IsActive:    category.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateCategory handles PATCH /admin/categories/:id.
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.admin.GetCategory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	updated, err := h.admin.UpdateCategory(c.Context(), actor, category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CategoryResponse{
		ID:          updated.ID,
		Name:        updated.Name,
		Description: updated.Description,
		IsActive:    updated.IsActive,
	}})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	pageSize := parseInt(c.Query("page_size"), 50)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize
	users, err := h.admin.ListUsers(c.Context(), actor, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.FromUser(user))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserStatus handles PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	actor, err := h.requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req struct {
		Status domain.UserStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status != domain.UserStatusActive && req.Status != domain.UserStatusSuspended {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": string(req.Status)})
	}
	user, err := h.admin.SetUserStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(*user)})
}
