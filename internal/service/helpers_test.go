package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/internal/events"
	"github.com/cityworks/incident-service/internal/repository"
	"github.com/cityworks/incident-service/pkg/workflow"
)

type fakeIncidentRepo struct {
	incidents map[string]*domain.Incident
	seq       int
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: map[string]*domain.Incident{}}
}

func (r *fakeIncidentRepo) Create(_ context.Context, incident *domain.Incident) error {
	r.seq++
	incident.ID = fmt.Sprintf("inc-%d", r.seq)
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = incident.CreatedAt
	copied := *incident
	r.incidents[incident.ID] = &copied
	return nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, incident *domain.Incident) error {
	if _, ok := r.incidents[incident.ID]; !ok {
		return pgx.ErrNoRows
	}
	incident.UpdatedAt = time.Now()
	copied := *incident
	r.incidents[incident.ID] = &copied
	return nil
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	incident, ok := r.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *incident
	return &copied, nil
}

func (r *fakeIncidentRepo) GetByExternalKey(_ context.Context, key string) (*domain.Incident, error) {
	for _, incident := range r.incidents {
		if incident.ExternalKey == key {
			copied := *incident
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeIncidentRepo) ListWithFilter(_ context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	out := []domain.Incident{}
	for _, incident := range r.incidents {
		if filter.ReporterID != nil && incident.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.AssignedAgentID != nil {
			if incident.AssignedAgentID == nil || *incident.AssignedAgentID != *filter.AssignedAgentID {
				continue
			}
		}
		if filter.Unassigned && incident.AssignedAgentID != nil {
			continue
		}
		out = append(out, *incident)
	}
	return out, nil
}

func (r *fakeIncidentRepo) CountByStatus(_ context.Context) (map[workflow.Status]int64, error) {
	out := map[workflow.Status]int64{}
	for _, incident := range r.incidents {
		out[incident.Status]++
	}
	return out, nil
}

func (r *fakeIncidentRepo) CountByCategory(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, incident := range r.incidents {
		out[incident.CategoryID]++
	}
	return out, nil
}

func (r *fakeIncidentRepo) CountByPriority(_ context.Context) (map[workflow.Priority]int64, error) {
	out := map[workflow.Priority]int64{}
	for _, incident := range r.incidents {
		out[incident.Priority]++
	}
	return out, nil
}

func (r *fakeIncidentRepo) AverageResolutionSeconds(_ context.Context) (float64, error) {
	return 0, nil
}

type fakeStatusChangeRepo struct {
	rows map[string][]domain.StatusChange
	seq  int
}

func newFakeStatusChangeRepo() *fakeStatusChangeRepo {
	return &fakeStatusChangeRepo{rows: map[string][]domain.StatusChange{}}
}

func (r *fakeStatusChangeRepo) Create(_ context.Context, change *domain.StatusChange) error {
	r.seq++
	change.ID = fmt.Sprintf("chg-%d", r.seq)
	r.rows[change.IncidentID] = append(r.rows[change.IncidentID], *change)
	return nil
}

func (r *fakeStatusChangeRepo) ListByIncident(_ context.Context, incidentID string) ([]domain.StatusChange, error) {
	return append([]domain.StatusChange{}, r.rows[incidentID]...), nil
}

type fakeCommentRepo struct {
	rows map[string][]domain.IncidentComment
	seq  int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{rows: map[string][]domain.IncidentComment{}}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.IncidentComment) error {
	r.seq++
	comment.ID = fmt.Sprintf("cmt-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.rows[comment.IncidentID] = append(r.rows[comment.IncidentID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByIncident(_ context.Context, incidentID string) ([]domain.IncidentComment, error) {
	return append([]domain.IncidentComment{}, r.rows[incidentID]...), nil
}

type fakePhotoRepo struct {
	rows map[string][]domain.IncidentPhoto
	seq  int
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{rows: map[string][]domain.IncidentPhoto{}}
}

func (r *fakePhotoRepo) Create(_ context.Context, photo *domain.IncidentPhoto) error {
	r.seq++
	photo.ID = fmt.Sprintf("pho-%d", r.seq)
	photo.CreatedAt = time.Now()
	r.rows[photo.IncidentID] = append(r.rows[photo.IncidentID], *photo)
	return nil
}

func (r *fakePhotoRepo) ListByIncident(_ context.Context, incidentID string) ([]domain.IncidentPhoto, error) {
	return append([]domain.IncidentPhoto{}, r.rows[incidentID]...), nil
}

func (r *fakePhotoRepo) ListByIncidentAndKind(_ context.Context, incidentID string, kind domain.PhotoKind) ([]domain.IncidentPhoto, error) {
	out := []domain.IncidentPhoto{}
	for _, photo := range r.rows[incidentID] {
		if photo.Kind == kind {
			out = append(out, photo)
		}
	}
	return out, nil
}

type fakeCategoryRepo struct {
	rows map[string]*domain.Category
	seq  int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{rows: map[string]*domain.Category{}}
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.seq++
	category.ID = fmt.Sprintf("cat-%d", r.seq)
	copied := *category
	r.rows[category.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.rows[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *category
	r.rows[category.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCategoryRepo) List(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, category := range r.rows {
		if !includeInactive && !category.IsActive {
			continue
		}
		out = append(out, *category)
	}
	return out, nil
}

type fakeAgentRepo struct {
	rows map[string]*domain.Agent
	seq  int
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{rows: map[string]*domain.Agent{}}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.seq++
	agent.ID = fmt.Sprintf("agt-%d", r.seq)
	copied := *agent
	r.rows[agent.ID] = &copied
	return nil
}

func (r *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	if _, ok := r.rows[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *agent
	r.rows[agent.ID] = &copied
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *agent
	return &copied, nil
}

func (r *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	for _, agent := range r.rows {
		if agent.Email == email {
			copied := *agent
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAgentRepo) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	out := []domain.Agent{}
	for _, agent := range r.rows {
		if filter.Role != nil && agent.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && agent.Active != *filter.Active {
			continue
		}
		out = append(out, *agent)
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type fixture struct {
	incidents  *fakeIncidentRepo
	changes    *fakeStatusChangeRepo
	comments   *fakeCommentRepo
	photos     *fakePhotoRepo
	categories *fakeCategoryRepo
	agents     *fakeAgentRepo
	dispatcher *recordingDispatcher
	service    *IncidentService
	assignment *AssignmentService
}

func newFixture() *fixture {
	f := &fixture{
		incidents:  newFakeIncidentRepo(),
		changes:    newFakeStatusChangeRepo(),
		comments:   newFakeCommentRepo(),
		photos:     newFakePhotoRepo(),
		categories: newFakeCategoryRepo(),
		agents:     newFakeAgentRepo(),
		dispatcher: &recordingDispatcher{},
	}
	f.service = NewIncidentService(IncidentDependencies{
		IncidentRepo:     f.incidents,
		StatusChangeRepo: f.changes,
		CommentRepo:      f.comments,
		PhotoRepo:        f.photos,
		CategoryRepo:     f.categories,
		AgentRepo:        f.agents,
		Dispatcher:       f.dispatcher,
	})
	f.assignment = NewAssignmentService(AssignmentDependencies{
		IncidentRepo:     f.incidents,
		StatusChangeRepo: f.changes,
		AgentRepo:        f.agents,
		Dispatcher:       f.dispatcher,
	})
	return f
}

func (f *fixture) seedCategory() *domain.Category {
	category := &domain.Category{Name: "Potholes", IsActive: true}
	_ = f.categories.Create(context.Background(), category)
	return category
}

func (f *fixture) seedAgent(role workflow.Role) *domain.Agent {
	agent := &domain.Agent{Name: "Agent", Email: fmt.Sprintf("agent%d@city.test", f.agents.seq+1), Role: role, Active: true}
	_ = f.agents.Create(context.Background(), agent)
	return agent
}

func (f *fixture) seedIncident(reporterID string, status workflow.Status, assignedTo *string) *domain.Incident {
	category := f.seedCategory()
	incident := &domain.Incident{
		ExternalKey: fmt.Sprintf("INC-%d", f.incidents.seq+1),
		ReporterID:  reporterID,
		CategoryID:  category.ID,
		Title:       "Streetlight out",
		Description: "The light on Oak St is dark.",
		Status:      status,
		Priority:    workflow.PriorityMedium,
	}
	_ = f.incidents.Create(context.Background(), incident)
	if assignedTo != nil {
		incident.AssignedAgentID = assignedTo
		_ = f.incidents.Update(context.Background(), incident)
	}
	return incident
}
