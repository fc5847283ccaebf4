package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/repository"
	"github.com/noah-isme/sma-request-workflow/internal/workflow"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
)

// EventDispatcher receives workflow events after they are committed. It must
// not block the caller.
type EventDispatcher interface {
	Dispatch(event models.WorkflowEvent)
}

type rosterChecker interface {
	StudentIDs(ctx context.Context, instructorID string) ([]string, error)
	IsAssigned(ctx context.Context, instructorID, studentID string) (bool, error)
}

type historyReader interface {
	ListByRequest(ctx context.Context, kind models.RequestKind, requestID string) ([]models.RequestTransition, error)
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(models.WorkflowEvent) {}

// accessPolicy decides whether an actor has authority over a student's
// requests.
type accessPolicy struct {
	roster rosterChecker
}

func (p accessPolicy) authorize(ctx context.Context, studentID string, actor *models.JWTClaims) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if studentID == actor.UserID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "you can only view or change your own requests")
	case models.RoleInstructor:
		ok, err := p.roster.IsAssigned(ctx, actor.UserID, studentID)
		if err != nil {
			return translateError(ctx, err, "failed to check instructor roster")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "this student is not assigned to you")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// checkActor rejects anonymous calls and calls whose deadline already passed.
func checkActor(ctx context.Context, actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return translateError(ctx, err, "")
	}
	return nil
}

// checkRequestID rejects ids that cannot name a stored request. Ids are UUIDs,
// so anything else is reported as not found rather than reaching the store.
func checkRequestID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.ErrNotFound
	}
	return nil
}

// translateError maps store and validator failures onto the typed errors
// returned to callers. internalMsg labels anything unrecognised.
func translateError(ctx context.Context, err error, internalMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	var vErr *workflow.ValidationError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrStatusChanged):
		return appErrors.ErrConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	case errors.As(err, &vErr):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, vErr.Message)
	case errors.Is(err, workflow.ErrInvalidTransition):
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, appErrors.ErrInvalidTransition.Message)
	}
	if internalMsg == "" {
		internalMsg = appErrors.ErrInternal.Message
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
}

// invalidTransition produces the boundary message for a replayed or
// out-of-order action.
func invalidTransition(err error, action models.Action, status string, terminal bool) error {
	state := "is " + strings.ReplaceAll(status, "_", " ")
	if terminal {
		state = "is already " + strings.ReplaceAll(status, "_", " ")
	}
	msg := "this request " + state + " and cannot be " + pastTense(action) + " by you"
	return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, msg)
}

func pastTense(action models.Action) string {
	switch action {
	case models.ActionForward:
		return "forwarded"
	case models.ActionApprove:
		return "approved"
	case models.ActionDeny:
		return "denied"
	case models.ActionConfirm:
		return "confirmed"
	case models.ActionReject:
		return "rejected"
	case models.ActionComplete:
		return "completed"
	case "":
		return "changed without an action"
	}
	return "handled with action " + string(action)
}

// conflictError reports a lost compare-and-swap race in terms of what the
// winner did.
func conflictError(status string) error {
	verb := statusVerb(status)
	if verb == "" {
		return appErrors.ErrConflict
	}
	return appErrors.Clone(appErrors.ErrConflict, "this request was already "+verb+" by someone else")
}

// statusVerb names the action that leads into status.
func statusVerb(status string) string {
	switch status {
	case string(models.ExamStatusPendingAdmin):
		return "forwarded"
	case string(models.ExamStatusApproved), string(models.ExamStatusDenied),
		string(models.LessonStatusConfirmed), string(models.LessonStatusRejected), string(models.LessonStatusCompleted):
		return status
	}
	return ""
}

func validateStruct(v *validator.Validate, payload interface{}) error {
	if err := v.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fieldMessage(fe))
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	}
	return field + " is invalid"
}

// optionalString trims s and returns nil when nothing is left.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringPtr(s string) *string {
	return &s
}

func newEvent(kind models.RequestKind, id, studentID string, action models.Action, from, to string, actor *models.JWTClaims, at time.Time) models.WorkflowEvent {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return models.WorkflowEvent{
		RequestKind: kind,
		RequestID:   id,
		StudentID:   studentID,
		Action:      action,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Timestamp:   at,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, appErrors.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, appErrors.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, appErrors.ErrInternal):
		return OutcomeError
	}
	return OutcomeRejected
}
