package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

func TestNextExamStatus(t *testing.T) {
	cases := []struct {
		name    string
		current models.ExamRequestStatus
		role    models.UserRole
		action  models.Action
		want    models.ExamRequestStatus
		wantErr bool
	}{
		{"student creates", "", models.RoleStudent, models.ActionCreate, models.ExamStatusPendingInstructor, false},
		{"instructor forwards", models.ExamStatusPendingInstructor, models.RoleInstructor, models.ActionForward, models.ExamStatusPendingAdmin, false},
		{"admin approves", models.ExamStatusPendingAdmin, models.RoleAdmin, models.ActionApprove, models.ExamStatusApproved, false},
		{"admin denies", models.ExamStatusPendingAdmin, models.RoleAdmin, models.ActionDeny, models.ExamStatusDenied, false},
		{"admin cannot forward", models.ExamStatusPendingInstructor, models.RoleAdmin, models.ActionForward, "", true},
		{"instructor cannot deny", models.ExamStatusPendingInstructor, models.RoleInstructor, models.ActionDeny, "", true},
		{"instructor cannot approve", models.ExamStatusPendingAdmin, models.RoleInstructor, models.ActionApprove, "", true},
		{"second approve", models.ExamStatusApproved, models.RoleAdmin, models.ActionApprove, "", true},
		{"deny after approve", models.ExamStatusApproved, models.RoleAdmin, models.ActionDeny, "", true},
		{"forward twice", models.ExamStatusPendingAdmin, models.RoleInstructor, models.ActionForward, "", true},
		{"student cannot approve", models.ExamStatusPendingAdmin, models.RoleStudent, models.ActionApprove, "", true},
		{"lesson action on exam", models.ExamStatusPendingInstructor, models.RoleInstructor, models.ActionConfirm, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextExamStatus(tc.current, tc.role, tc.action)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextLessonStatus(t *testing.T) {
	cases := []struct {
		name    string
		current models.LessonRequestStatus
		role    models.UserRole
		action  models.Action
		want    models.LessonRequestStatus
		wantErr bool
	}{
		{"student creates", "", models.RoleStudent, models.ActionCreate, models.LessonStatusPending, false},
		{"instructor confirms", models.LessonStatusPending, models.RoleInstructor, models.ActionConfirm, models.LessonStatusConfirmed, false},
		{"instructor rejects", models.LessonStatusPending, models.RoleInstructor, models.ActionReject, models.LessonStatusRejected, false},
		{"instructor completes", models.LessonStatusConfirmed, models.RoleInstructor, models.ActionComplete, models.LessonStatusCompleted, false},
		{"complete while pending", models.LessonStatusPending, models.RoleInstructor, models.ActionComplete, "", true},
		{"complete after reject", models.LessonStatusRejected, models.RoleInstructor, models.ActionComplete, "", true},
		{"confirm twice", models.LessonStatusConfirmed, models.RoleInstructor, models.ActionConfirm, "", true},
		{"reject after confirm", models.LessonStatusConfirmed, models.RoleInstructor, models.ActionReject, "", true},
		{"admin confirms", models.LessonStatusPending, models.RoleAdmin, models.ActionConfirm, "", true},
		{"student completes", models.LessonStatusConfirmed, models.RoleStudent, models.ActionComplete, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextLessonStatus(tc.current, tc.role, tc.action)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExamStatusNeverMovesBackwards(t *testing.T) {
	rank := map[models.ExamRequestStatus]int{
		models.ExamStatusPendingInstructor: 1,
		models.ExamStatusPendingAdmin:      2,
		models.ExamStatusApproved:          3,
		models.ExamStatusDenied:            3,
	}
	statuses := []models.ExamRequestStatus{models.ExamStatusPendingInstructor, models.ExamStatusPendingAdmin, models.ExamStatusApproved, models.ExamStatusDenied}
	roles := []models.UserRole{models.RoleStudent, models.RoleInstructor, models.RoleAdmin}
	actions := []models.Action{models.ActionCreate, models.ActionForward, models.ActionApprove, models.ActionDeny, models.ActionConfirm, models.ActionReject, models.ActionComplete}

	for _, status := range statuses {
		for _, role := range roles {
			for _, action := range actions {
				next, err := NextExamStatus(status, role, action)
				if err != nil {
					continue
				}
				assert.Greater(t, rank[next], rank[status], "%s %s %s", status, role, action)
				assert.NotEqual(t, models.ExamStatusPendingInstructor, next)
			}
		}
	}
}

func TestCompletedOnlyReachableFromConfirmed(t *testing.T) {
	statuses := []models.LessonRequestStatus{models.LessonStatusPending, models.LessonStatusConfirmed, models.LessonStatusRejected, models.LessonStatusCompleted}
	roles := []models.UserRole{models.RoleStudent, models.RoleInstructor, models.RoleAdmin}
	for _, status := range statuses {
		for _, role := range roles {
			next, err := NextLessonStatus(status, role, models.ActionComplete)
			if err == nil {
				assert.Equal(t, models.LessonStatusConfirmed, status)
				assert.Equal(t, models.LessonStatusCompleted, next)
			}
		}
	}
}

func TestAvailableActions(t *testing.T) {
	assert.Equal(t, []models.Action{models.ActionForward}, ExamActions(models.ExamStatusPendingInstructor, models.RoleInstructor))
	assert.Equal(t, []models.Action{models.ActionApprove, models.ActionDeny}, ExamActions(models.ExamStatusPendingAdmin, models.RoleAdmin))
	assert.Empty(t, ExamActions(models.ExamStatusApproved, models.RoleAdmin))
	assert.Equal(t, []models.Action{models.ActionConfirm, models.ActionReject}, LessonActions(models.LessonStatusPending, models.RoleInstructor))
	assert.Empty(t, LessonActions(models.LessonStatusCompleted, models.RoleInstructor))
}
