package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/repository"
)

// casGate holds every Update call until n callers have arrived, so racing
// commands all read the same status before any of them writes.
type casGate struct {
	wg sync.WaitGroup
}

func newCASGate(n int) *casGate {
	g := &casGate{}
	g.wg.Add(n)
	return g
}

func (g *casGate) arrive() {
	if g == nil {
		return
	}
	g.wg.Done()
	g.wg.Wait()
}

type examStoreStub struct {
	mu      sync.Mutex
	items   map[string]models.ExamRequest
	history []repository.TransitionStep
	filter  models.ExamRequestFilter
	gate    *casGate
	gets    int
	err     error
}

func newExamStoreStub() *examStoreStub {
	return &examStoreStub{items: make(map[string]models.ExamRequest)}
}

func (s *examStoreStub) Create(ctx context.Context, req *models.ExamRequest, step repository.TransitionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	s.items[req.ID] = *req
	s.history = append(s.history, step)
	return nil
}

func (s *examStoreStub) GetByID(ctx context.Context, id string) (*models.ExamRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *examStoreStub) Update(ctx context.Context, id string, expected models.ExamRequestStatus, step repository.TransitionStep, mutate func(*models.ExamRequest) error) (*models.ExamRequest, error) {
	s.gate.arrive()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if item.Status != expected {
		return nil, repository.ErrStatusChanged
	}
	if err := mutate(&item); err != nil {
		return nil, err
	}
	item.UpdatedAt = step.At
	s.items[id] = item
	s.history = append(s.history, step)
	return &item, nil
}

func (s *examStoreStub) List(ctx context.Context, filter models.ExamRequestFilter) ([]models.ExamRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	var out []models.ExamRequest
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

type lessonStoreStub struct {
	mu      sync.Mutex
	items   map[string]models.LessonRequest
	history []repository.TransitionStep
	filter  models.LessonRequestFilter
	gate    *casGate
	gets    int
	err     error
}

func newLessonStoreStub() *lessonStoreStub {
	return &lessonStoreStub{items: make(map[string]models.LessonRequest)}
}

func (s *lessonStoreStub) Create(ctx context.Context, req *models.LessonRequest, step repository.TransitionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	s.items[req.ID] = *req
	s.history = append(s.history, step)
	return nil
}

func (s *lessonStoreStub) GetByID(ctx context.Context, id string) (*models.LessonRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *lessonStoreStub) Update(ctx context.Context, id string, expected models.LessonRequestStatus, step repository.TransitionStep, mutate func(*models.LessonRequest) error) (*models.LessonRequest, error) {
	s.gate.arrive()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if item.Status != expected {
		return nil, repository.ErrStatusChanged
	}
	if err := mutate(&item); err != nil {
		return nil, err
	}
	item.UpdatedAt = step.At
	s.items[id] = item
	s.history = append(s.history, step)
	return &item, nil
}

func (s *lessonStoreStub) List(ctx context.Context, filter models.LessonRequestFilter) ([]models.LessonRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	var out []models.LessonRequest
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

type rosterStub struct {
	mu       sync.Mutex
	students map[string][]string
	calls    int
	err      error
}

func (r *rosterStub) StudentIDs(ctx context.Context, instructorID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.students[instructorID], nil
}

func (r *rosterStub) IsAssigned(ctx context.Context, instructorID, studentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	for _, id := range r.students[instructorID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

type historyStub struct {
	items []models.RequestTransition
	kind  models.RequestKind
}

func (h *historyStub) ListByRequest(ctx context.Context, kind models.RequestKind, requestID string) ([]models.RequestTransition, error) {
	h.kind = kind
	return h.items, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.WorkflowEvent
}

func (d *recordingDispatcher) Dispatch(event models.WorkflowEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Events() []models.WorkflowEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.WorkflowEvent(nil), d.events...)
}

func student(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func instructor(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleInstructor}
}

func admin(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func defaultRoster() *rosterStub {
	return &rosterStub{students: map[string][]string{"ins-1": {"stu-1"}}}
}
