package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/internal/config"
	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/internal/repository"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// AdminService manages agent accounts, categories, and citizen accounts.
type AdminService struct {
	agents     repository.AgentRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	bcryptCost int
}

// AdminDependencies encapsulates repositories for administration.
type AdminDependencies struct {
	AgentRepo    repository.AgentRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
}

// AgentCreateInput describes a new operator account.
type AgentCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     workflow.Role
}

// AgentListFilters define listing parameters.
type AgentListFilters struct {
	Role   *workflow.Role
	Active *bool
	Limit  int
	Offset int
}

// NewAdminService constructs the service.
func NewAdminService(cfg config.Config, deps AdminDependencies) *AdminService {
	return &AdminService{
		agents:     deps.AgentRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.Agent) error {
	if actor == nil || actor.Role != workflow.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateAgent provisions an operator account.
func (s *AdminService) CreateAgent(ctx context.Context, actor *domain.Agent, input AgentCreateInput) (*domain.Agent, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !domain.IsStaffRole(input.Role) {
		return nil, apperrors.NewValidationError("invalid agent role", map[string]any{"role": string(input.Role)})
	}
	if _, err := s.agents.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	agent := &domain.Agent{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// ListAgents returns operator accounts matching the filter.
func (s *AdminService) ListAgents(ctx context.Context, actor *domain.Agent, filters AgentListFilters) ([]domain.Agent, error) {
	if actor == nil || !domain.IsStaffRole(actor.Role) {
		return nil, apperrors.NewForbidden("staff role required")
	}
	return s.agents.List(ctx, repository.AgentFilter{
		Role:   filters.Role,
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// SetAgentActive toggles an operator account.
func (s *AdminService) SetAgentActive(ctx context.Context, actor *domain.Agent, agentID string, active bool) (*domain.Agent, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	agent.Active = active
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// CreateCategory adds an incident category.
func (s *AdminService) CreateCategory(ctx context.Context, actor *domain.Agent, name, description string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category := &domain.Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if category.Name == "" {
		return nil, apperrors.NewValidationError("category name required", nil)
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory modifies category metadata or toggles availability.
func (s *AdminService) UpdateCategory(ctx context.Context, actor *domain.Agent, category *domain.Category) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// GetCategory fetches one category.
func (s *AdminService) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories. Inactive ones are admin-only.
func (s *AdminService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	return s.categories.List(ctx, includeInactive)
}

// ListUsers returns citizen accounts for administration.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.Agent, limit, offset int) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, limit, offset)
}

// SetUserStatus suspends or reinstates a citizen account.
func (s *AdminService) SetUserStatus(ctx context.Context, actor *domain.Agent, userID string, status domain.UserStatus) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
