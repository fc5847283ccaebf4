package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

func TestRosterRepositoryStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRosterRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM instructor_students")).
		WithArgs("instructor-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("student-1").AddRow("student-2"))

	ids, err := repo.StudentIDs(context.Background(), "instructor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1", "student-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryIsAssigned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRosterRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructor_students")).
		WithArgs("instructor-1", "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructor_students")).
		WithArgs("instructor-1", "student-9").
		WillReturnError(sql.ErrNoRows)

	ok, err := repo.IsAssigned(context.Background(), "instructor-1", "student-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsAssigned(context.Background(), "instructor-1", "student-9")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRepositoryListByRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTransitionRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM request_transitions WHERE request_kind = $1 AND request_id = $2")).
		WithArgs(models.RequestKindExam, "req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_kind", "request_id", "action", "from_status", "to_status", "actor_id", "actor_role", "note", "created_at"}).
			AddRow("t-1", "exam", "req-1", "create", "", "pending_instructor", "student-1", "STUDENT", nil, now).
			AddRow("t-2", "exam", "req-1", "forward", "pending_instructor", "pending_admin", "instructor-1", "INSTRUCTOR", "good attendance", now))

	history, err := repo.ListByRequest(context.Background(), models.RequestKindExam, "req-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionForward, history[1].Action)
	require.NotNil(t, history[1].Note)
	assert.Equal(t, "good attendance", *history[1].Note)
	require.NoError(t, mock.ExpectationsWereMet())
}
