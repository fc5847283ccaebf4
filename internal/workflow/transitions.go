package workflow

import (
	"fmt"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

type examTransition struct {
	From   models.ExamRequestStatus
	Role   models.UserRole
	Action models.Action
	To     models.ExamRequestStatus
}

type lessonTransition struct {
	From   models.LessonRequestStatus
	Role   models.UserRole
	Action models.Action
	To     models.LessonRequestStatus
}

// An empty From marks the creation row. Instructors have no deny edge on exam
// requests: they may only forward, and only an admin can refuse access.
var examTransitions = []examTransition{
	{From: "", Role: models.RoleStudent, Action: models.ActionCreate, To: models.ExamStatusPendingInstructor},
	{From: models.ExamStatusPendingInstructor, Role: models.RoleInstructor, Action: models.ActionForward, To: models.ExamStatusPendingAdmin},
	{From: models.ExamStatusPendingAdmin, Role: models.RoleAdmin, Action: models.ActionApprove, To: models.ExamStatusApproved},
	{From: models.ExamStatusPendingAdmin, Role: models.RoleAdmin, Action: models.ActionDeny, To: models.ExamStatusDenied},
}

var lessonTransitions = []lessonTransition{
	{From: "", Role: models.RoleStudent, Action: models.ActionCreate, To: models.LessonStatusPending},
	{From: models.LessonStatusPending, Role: models.RoleInstructor, Action: models.ActionConfirm, To: models.LessonStatusConfirmed},
	{From: models.LessonStatusPending, Role: models.RoleInstructor, Action: models.ActionReject, To: models.LessonStatusRejected},
	{From: models.LessonStatusConfirmed, Role: models.RoleInstructor, Action: models.ActionComplete, To: models.LessonStatusCompleted},
}

// NextExamStatus returns the status an exam request moves to when role issues
// action while it is in current. Pass an empty current for creation.
func NextExamStatus(current models.ExamRequestStatus, role models.UserRole, action models.Action) (models.ExamRequestStatus, error) {
	for _, tr := range examTransitions {
		if tr.From == current && tr.Role == role && tr.Action == action {
			return tr.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s cannot %s an exam request in status %q", ErrInvalidTransition, roleName(role), action, current)
}

// NextLessonStatus returns the status a lesson request moves to when role
// issues action while it is in current. Pass an empty current for creation.
func NextLessonStatus(current models.LessonRequestStatus, role models.UserRole, action models.Action) (models.LessonRequestStatus, error) {
	for _, tr := range lessonTransitions {
		if tr.From == current && tr.Role == role && tr.Action == action {
			return tr.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s cannot %s a lesson request in status %q", ErrInvalidTransition, roleName(role), action, current)
}

// ExamActions lists the actions role may take on an exam request in status.
func ExamActions(status models.ExamRequestStatus, role models.UserRole) []models.Action {
	var actions []models.Action
	for _, tr := range examTransitions {
		if tr.From == status && tr.Role == role {
			actions = append(actions, tr.Action)
		}
	}
	return actions
}

// LessonActions lists the actions role may take on a lesson request in status.
func LessonActions(status models.LessonRequestStatus, role models.UserRole) []models.Action {
	var actions []models.Action
	for _, tr := range lessonTransitions {
		if tr.From == status && tr.Role == role {
			actions = append(actions, tr.Action)
		}
	}
	return actions
}

func roleName(role models.UserRole) string {
	if role == "" {
		return "unknown role"
	}
	return string(role)
}
