package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cityworks/incident-service/internal/api/dto"
	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/internal/service"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// IncidentsHandler manages citizen-facing incident endpoints.
type IncidentsHandler struct {
	incidents *service.IncidentService
	admin     *service.AdminService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidentService *service.IncidentService, adminService *service.AdminService) *IncidentsHandler {
	return &IncidentsHandler{incidents: incidentService, admin: adminService}
}

// CreateIncident POST /incidents.
func (h *IncidentsHandler) CreateIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("category_id, title, description required", nil)
	}

	input := service.IncidentCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Photos:      photoInputs(req.Photos),
	}
	incident, err := h.incidents.CreateIncident(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromIncident(*incident)})
}

// ListIncidents GET /incidents.
func (h *IncidentsHandler) ListIncidents(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	filter := parseUserIncidentQuery(c)
	incidents, err := h.incidents.ListUserIncidents(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncidentList(incidents)})
}

// GetIncident GET /incidents/:id.
func (h *IncidentsHandler) GetIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	detail, err := h.incidents.GetIncidentForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncidentDetail(detail.Incident, detail.History, detail.Comments, detail.Photos)})
}

// AddComment POST /incidents/:id/comments.
func (h *IncidentsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.incidents.AddComment(c.Context(), principal.Actor(), c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromComment(*comment)})
}

// Reopen POST /incidents/:id/reopen. Reporters contest a validated or
// closed resolution through the same workflow as staff transitions.
func (h *IncidentsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.incidents.ChangeStatus(c.Context(), principal.Actor(), c.Params("id"), workflow.StatusReopened, req.Body, nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(*incident)})
}

// ListCategories GET /categories. Public catalogue of active categories.
func (h *IncidentsHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.admin.ListCategories(c.Context(), false)
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

func parseUserIncidentQuery(c *fiber.Ctx) service.IncidentUserFilter {
	filter := service.IncidentUserFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, workflow.Status(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func photoInputs(reqs []dto.PhotoRequest) []service.PhotoInput {
	photos := make([]service.PhotoInput, 0, len(reqs))
	for _, req := range reqs {
		photos = append(photos, service.PhotoInput{
			StorageKey: req.StorageKey,
			FileName:   req.FileName,
			MimeType:   req.MimeType,
			SizeBytes:  req.SizeBytes,
		})
	}
	return photos
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
