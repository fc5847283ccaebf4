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

type lessonRequestStore interface {
	Create(ctx context.Context, req *models.LessonRequest, step repository.TransitionStep) error
	GetByID(ctx context.Context, id string) (*models.LessonRequest, error)
	Update(ctx context.Context, id string, expected models.LessonRequestStatus, step repository.TransitionStep, mutate func(*models.LessonRequest) error) (*models.LessonRequest, error)
	List(ctx context.Context, filter models.LessonRequestFilter) ([]models.LessonRequest, error)
}

// LessonRequestService handles tutoring session bookings.
type LessonRequestService struct {
	repo       lessonRequestStore
	history    historyReader
	roster     rosterChecker
	policy     accessPolicy
	dispatcher EventDispatcher
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewLessonRequestService constructs the service.
func NewLessonRequestService(repo lessonRequestStore, history historyReader, roster rosterChecker, dispatcher EventDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LessonRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &LessonRequestService{
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

// Create books a lesson request for the calling student.
func (s *LessonRequestService) Create(ctx context.Context, req dto.CreateLessonRequest, actor *models.JWTClaims) (*models.LessonRequest, error) {
	result, err := s.create(ctx, req, actor)
	s.metrics.ObserveTransition(string(models.RequestKindLesson), string(models.ActionCreate), outcomeOf(err))
	return result, err
}

func (s *LessonRequestService) create(ctx context.Context, req dto.CreateLessonRequest, actor *models.JWTClaims) (*models.LessonRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can request lessons")
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	draft := workflow.LessonDraft{
		Topic:           strings.TrimSpace(req.Topic),
		PreferredDate:   strings.TrimSpace(req.PreferredDate),
		PreferredTime:   strings.TrimSpace(req.PreferredTime),
		AltDate:         strings.TrimSpace(req.AltDate),
		AltTime:         strings.TrimSpace(req.AltTime),
		DurationMinutes: req.DurationMinutes,
	}
	if err := workflow.ValidateLessonDraft(draft); err != nil {
		return nil, translateError(ctx, err, "")
	}
	status, err := workflow.NextLessonStatus("", actor.Role, models.ActionCreate)
	if err != nil {
		return nil, translateError(ctx, err, "")
	}

	record := &models.LessonRequest{
		StudentID:       actor.UserID,
		Topic:           draft.Topic,
		PreferredDate:   draft.PreferredDate,
		PreferredTime:   draft.PreferredTime,
		AltDate:         optionalString(draft.AltDate),
		AltTime:         optionalString(draft.AltTime),
		DurationMinutes: draft.DurationMinutes,
		Status:          status,
		StudentMessage:  optionalString(req.StudentMessage),
	}
	step := repository.TransitionStep{
		Action:    models.ActionCreate,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Note:      record.StudentMessage,
	}
	if err := s.repo.Create(ctx, record, step); err != nil {
		return nil, translateError(ctx, err, "failed to create lesson request")
	}

	s.logger.Info("lesson request created",
		zap.String("request_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("preferred_date", record.PreferredDate),
	)
	s.dispatcher.Dispatch(newEvent(models.RequestKindLesson, record.ID, record.StudentID, models.ActionCreate, "", string(record.Status), actor, record.CreatedAt))
	return record, nil
}

// Act applies an instructor decision to a lesson request. confirm requires a
// Zoom link. The link and the instructor note are stored once and never
// replaced; later notes are kept only in the history.
func (s *LessonRequestService) Act(ctx context.Context, id string, req dto.ActRequest, actor *models.JWTClaims) (*models.LessonRequest, error) {
	action := models.Action(strings.ToLower(strings.TrimSpace(string(req.Action))))
	result, err := s.act(ctx, id, action, req, actor)
	s.metrics.ObserveTransition(string(models.RequestKindLesson), string(action), outcomeOf(err))
	return result, err
}

func (s *LessonRequestService) act(ctx context.Context, id string, action models.Action, req dto.ActRequest, actor *models.JWTClaims) (*models.LessonRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if err := checkRequestID(id); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load lesson request")
	}
	if err := s.policy.authorize(ctx, current.StudentID, actor); err != nil {
		return nil, err
	}
	next, err := workflow.NextLessonStatus(current.Status, actor.Role, action)
	if err != nil {
		return nil, invalidTransition(err, action, string(current.Status), current.Status.Terminal())
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	var zoomLink *string
	if action == models.ActionConfirm {
		if err := workflow.ValidateZoomLink(req.ZoomLink); err != nil {
			return nil, translateError(ctx, err, "")
		}
		zoomLink = optionalString(req.ZoomLink)
	}

	note := optionalString(req.Note)
	step := repository.TransitionStep{
		Action:    action,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Note:      note,
		At:        time.Now().UTC(),
	}
	updated, err := s.repo.Update(ctx, id, current.Status, step, func(r *models.LessonRequest) error {
		r.Status = next
		if note != nil && r.InstructorNote == nil {
			r.InstructorNote = note
		}
		if zoomLink != nil && r.ZoomLink == nil {
			r.ZoomLink = zoomLink
		}
		r.InstructorID = stringPtr(actor.UserID)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, conflictError(s.latestStatus(ctx, id))
		}
		return nil, translateError(ctx, err, "failed to update lesson request")
	}

	s.logger.Info("lesson request transitioned",
		zap.String("request_id", id),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.UserID),
		zap.String("correlation_id", requestid.FromContext(ctx)),
	)
	s.dispatcher.Dispatch(newEvent(models.RequestKindLesson, id, updated.StudentID, action, string(current.Status), string(updated.Status), actor, step.At))
	return updated, nil
}

func (s *LessonRequestService) latestStatus(ctx context.Context, id string) string {
	latest, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return string(latest.Status)
}

// List returns the lesson requests visible to actor.
func (s *LessonRequestService) List(ctx context.Context, query dto.LessonRequestQuery, actor *models.JWTClaims) ([]models.LessonRequest, *models.Pagination, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, nil, err
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson request status "+string(status))
		}
	}

	filter := models.LessonRequestFilter{Status: query.Status, Limit: query.Limit, Offset: query.Offset}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	case models.RoleInstructor:
		ids, err := s.roster.StudentIDs(ctx, actor.UserID)
		if err != nil {
			return nil, nil, translateError(ctx, err, "failed to load instructor roster")
		}
		if len(ids) == 0 {
			return []models.LessonRequest{}, pagination(filter.Limit, filter.Offset, 0), nil
		}
		filter.StudentIDs = ids
	case models.RoleAdmin:
		// all lesson requests
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, translateError(ctx, err, "failed to list lesson requests")
	}
	if items == nil {
		items = []models.LessonRequest{}
	}
	return items, pagination(filter.Limit, filter.Offset, len(items)), nil
}

// Get returns one lesson request if actor may see it.
func (s *LessonRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LessonRequest, error) {
	if err := checkActor(ctx, actor); err != nil {
		return nil, err
	}
	if err := checkRequestID(id); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load lesson request")
	}
	if err := s.policy.authorize(ctx, record.StudentID, actor); err != nil {
		return nil, err
	}
	return record, nil
}

// History returns the committed transitions of a lesson request.
func (s *LessonRequestService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RequestTransition, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	items, err := s.history.ListByRequest(ctx, models.RequestKindLesson, id)
	if err != nil {
		return nil, translateError(ctx, err, "failed to load request history")
	}
	if items == nil {
		items = []models.RequestTransition{}
	}
	return items, nil
}
