package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-request-workflow/internal/dto"
	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/repository"
	"github.com/noah-isme/sma-request-workflow/internal/workflow"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
	"github.com/noah-isme/sma-request-workflow/pkg/middleware/requestid"
)

type examRequestStore interface {
	Create(ctx context.Context, req *models.ExamRequest, step repository.TransitionStep) error
	GetByID(ctx context.Context, id string) (*models.ExamRequest, error)
	Update(ctx context.Context, id string, expected models.ExamRequestStatus, step repository.TransitionStep, mutate func(*models.ExamRequest) error) (*models.ExamRequest, error)
	List(ctx context.Context, filter models.ExamRequestFilter) ([]models.ExamRequest, error)
}

// ExamRequestService handles exam-access requests: student creation,
// instructor forwarding and admin decisions.
type ExamRequestService struct {
	repo       examRequestStore
	history    historyReader
	roster     rosterChecker
	policy     accessPolicy
	dispatcher EventDispatcher
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewExamRequestService constructs the service.
func NewExamRequestService(repo examRequestStore, history historyReader, roster rosterChecker, dispatcher EventDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExamRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &ExamRequestService{
		repo:       repo,
		history:    history,
		roster:     roster,
		policy:     accessPolicy{roster: roster},
		dispatcher: dispatcher,
		metrics:    metrics,
		validate:   validate,
		logger:     logger,
	}
}

// Create files a new request on behalf of the calling student.
func (s *ExamRequestService) Create(ctx context.Context, req dto.CreateExamRequest, actor *models.JWTClaims) (*models.ExamRequest, error) {
	result, err := s.create(ctx, req, actor)
	s.metrics.ObserveTransition(string(models.RequestKindExam), string(models.ActionCreate), outcomeOf(err))
	return result, err
}

func (s *ExamRequestService) create(ctx context.Context, req dto.CreateExamRequest, actor *models.JWTClaims) (*models.ExamRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can request exam access")
	}
	req.ExamID = strings.TrimSpace(req.ExamID)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	status, err := workflow.NextExamStatus("", actor.Role, models.ActionCreate)
	if err != nil {
		return nil, translateError(ctx, err, "")
	}

	record := &models.ExamRequest{
		StudentID:   actor.UserID,
		ExamID:      req.ExamID,
		Status:      status,
		StudentNote: optionalString(req.StudentNote),
	}
	step := repository.TransitionStep{
		Action:    models.ActionCreate,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Note:      record.StudentNote,
	}
	if err := s.repo.Create(ctx, record, step); err != nil {
		return nil, translateError(ctx, err, "failed to create exam request")
	}

	s.logger.Info("exam request created",
		zap.String("request_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("exam_id", record.ExamID),
	)
	s.dispatcher.Dispatch(newEvent(models.RequestKindExam, record.ID, record.StudentID, models.ActionCreate, "", string(record.Status), actor, record.CreatedAt))
	return record, nil
}

// Act applies an instructor or admin decision to a request.
func (s *ExamRequestService) Act(ctx context.Context, id string, req dto.ActRequest, actor *models.JWTClaims) (*models.ExamRequest, error) {
	action := models.Action(strings.ToLower(strings.TrimSpace(string(req.Action))))
	result, err := s.act(ctx, id, action, req, actor)
	s.metrics.ObserveTransition(string(models.RequestKindExam), string(action), outcomeOf(err))
	return result, err
}

func (s *ExamRequestService) act(ctx context.Context, id string, action models.Action, req dto.ActRequest, actor *models.JWTClaims) (*models.ExamRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if err := checkRequestID(id); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load exam request")
	}
	if err := s.policy.authorize(ctx, current.StudentID, actor); err != nil {
		return nil, err
	}
	next, err := workflow.NextExamStatus(current.Status, actor.Role, action)
	if err != nil {
		return nil, invalidTransition(err, action, string(current.Status), current.Status.Terminal())
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	note := optionalString(req.Note)
	step := repository.TransitionStep{
		Action:    action,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Note:      note,
		At:        time.Now().UTC(),
	}
	updated, err := s.repo.Update(ctx, id, current.Status, step, func(r *models.ExamRequest) error {
		r.Status = next
		switch actor.Role {
		case models.RoleInstructor:
			if note != nil && r.InstructorNote == nil {
				r.InstructorNote = note
			}
			r.InstructorID = stringPtr(actor.UserID)
		case models.RoleAdmin:
			if note != nil && r.AdminNote == nil {
				r.AdminNote = note
			}
			r.AdminID = stringPtr(actor.UserID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, conflictError(s.latestStatus(ctx, id))
		}
		return nil, translateError(ctx, err, "failed to update exam request")
	}

	s.logger.Info("exam request transitioned",
		zap.String("request_id", id),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.UserID),
		zap.String("correlation_id", requestid.FromContext(ctx)),
	)
	s.dispatcher.Dispatch(newEvent(models.RequestKindExam, id, updated.StudentID, action, string(current.Status), string(updated.Status), actor, step.At))
	return updated, nil
}

func (s *ExamRequestService) latestStatus(ctx context.Context, id string) string {
	latest, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return string(latest.Status)
}

// List returns the requests visible to actor. Instructors see pending
// requests of their students plus the ones they already forwarded; admins see
// requests awaiting them unless query.All or a status filter is given.
func (s *ExamRequestService) List(ctx context.Context, query dto.ExamRequestQuery, actor *models.JWTClaims) ([]models.ExamRequest, *models.Pagination, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, nil, err
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown exam request status "+string(status))
		}
	}

	filter := models.ExamRequestFilter{Status: query.Status, Limit: query.Limit, Offset: query.Offset}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	case models.RoleInstructor:
		ids, err := s.roster.StudentIDs(ctx, actor.UserID)
		if err != nil {
			return nil, nil, translateError(ctx, err, "failed to load instructor roster")
		}
		if len(ids) == 0 {
			return []models.ExamRequest{}, pagination(filter.Limit, filter.Offset, 0), nil
		}
		filter.StudentIDs = ids
		if len(filter.Status) == 0 {
			filter.Status = []models.ExamRequestStatus{models.ExamStatusPendingInstructor}
			filter.IncludeActedBy = actor.UserID
		}
	case models.RoleAdmin:
		if len(filter.Status) == 0 && !query.All {
			filter.Status = []models.ExamRequestStatus{models.ExamStatusPendingAdmin}
		}
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, translateError(ctx, err, "failed to list exam requests")
	}
	if items == nil {
		items = []models.ExamRequest{}
	}
	return items, pagination(filter.Limit, filter.Offset, len(items)), nil
}

// Get returns one request if actor may see it.
func (s *ExamRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExamRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if err := checkRequestID(id); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load exam request")
	}
	if err := s.policy.authorize(ctx, record.StudentID, actor); err != nil {
		return nil, err
	}
	return record, nil
}

// History returns the committed transitions of a request, oldest first.
func (s *ExamRequestService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RequestTransition, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	items, err := s.history.ListByRequest(ctx, models.RequestKindExam, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load request history")
	}
	if items == nil {
		items = []models.RequestTransition{}
	}
	return items, nil
}

func pagination(limit, offset, count int) *models.Pagination {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return &models.Pagination{Limit: limit, Offset: offset, Count: count}
}
