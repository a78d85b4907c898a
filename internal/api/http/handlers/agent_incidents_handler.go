package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cityworks/incident-service/internal/api/dto"
	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/internal/service"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// AgentIncidentsHandler manages the staff incident queue.
type AgentIncidentsHandler struct {
	incidents   *service.IncidentService
	assignments *service.AssignmentService
	stats       *service.StatsService
}

// NewAgentIncidentsHandler constructs handler.
func NewAgentIncidentsHandler(incidentService *service.IncidentService, assignmentService *service.AssignmentService, statsService *service.StatsService) *AgentIncidentsHandler {
	return &AgentIncidentsHandler{incidents: incidentService, assignments: assignmentService, stats: statsService}
}

// ListQueue GET /agent/incidents.
func (h *AgentIncidentsHandler) ListQueue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	filter := parseQueueQuery(c)
	incidents, err := h.incidents.ListQueue(c.Context(), principal.Agent, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncidentList(incidents)})
}

// GetIncident GET /agent/incidents/:id.
func (h *AgentIncidentsHandler) GetIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	detail, err := h.incidents.GetIncidentForAgent(c.Context(), principal.Agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncidentDetail(detail.Incident, detail.History, detail.Comments, detail.Photos)})
}

// ChangeStatus POST /agent/incidents/:id/status.
func (h *AgentIncidentsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	incident, err := h.incidents.ChangeStatus(c.Context(), principal.Actor(), c.Params("id"), req.Status, req.Comment, req.EvidencePhotoIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(*incident)})
}

// AssignAgent POST /agent/incidents/:id/assign.
func (h *AgentIncidentsHandler) AssignAgent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.AssignAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	incident, err := h.assignments.AssignAgent(c.Context(), principal.Actor(), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(*incident)})
}

// AddComment POST /agent/incidents/:id/comments.
func (h *AgentIncidentsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
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

// AddEvidencePhoto POST /agent/incidents/:id/evidence.
func (h *AgentIncidentsHandler) AddEvidencePhoto(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.PhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StorageKey == "" || req.FileName == "" {
		return apperrors.NewValidationError("storage_key and file_name required", nil)
	}
	photo, err := h.incidents.AddEvidencePhoto(c.Context(), principal.Agent, c.Params("id"), service.PhotoInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromPhoto(*photo)})
}

// Stats GET /agent/stats.
func (h *AgentIncidentsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	stats, err := h.stats.Overview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		ByStatus:          stats.ByStatus,
		ByCategory:        stats.ByCategory,
		ByPriority:        stats.ByPriority,
		AvgResolutionSecs: stats.AvgResolutionSecs,
		GeneratedAt:       stats.GeneratedAt,
	}})
}

func parseQueueQuery(c *fiber.Ctx) service.IncidentQueueFilter {
	filter := service.IncidentQueueFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, workflow.Status(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, workflow.Priority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if c.QueryBool("unassigned") {
		filter.Unassigned = true
	}
	if term := c.Query("q"); term != "" {
		filter.SearchTerm = &term
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
