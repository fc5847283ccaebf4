package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

const lessonRequestColumns = `id, student_id, topic, preferred_date, preferred_time, alt_date, alt_time, duration_minutes,
       status, zoom_link, instructor_note, student_message, instructor_id, created_at, updated_at`

// LessonRequestRepository persists tutoring session requests and their history.
type LessonRequestRepository struct {
	db *sqlx.DB
}

// NewLessonRequestRepository constructs the repository.
func NewLessonRequestRepository(db *sqlx.DB) *LessonRequestRepository {
	return &LessonRequestRepository{db: db}
}

// Create inserts a new request together with its creation history row.
func (r *LessonRequestRepository) Create(ctx context.Context, req *models.LessonRequest, step TransitionStep) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	step.At = req.CreatedAt

	const query = `INSERT INTO lesson_requests
	(id, student_id, topic, preferred_date, preferred_time, alt_date, alt_time, duration_minutes,
	 status, zoom_link, instructor_note, student_message, instructor_id, created_at, updated_at)
	VALUES (:id, :student_id, :topic, :preferred_date, :preferred_time, :alt_date, :alt_time, :duration_minutes,
	 :status, :zoom_link, :instructor_note, :student_message, :instructor_id, :created_at, :updated_at)`
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
			return fmt.Errorf("create lesson request: %w", err)
		}
		return insertTransition(ctx, tx, models.RequestKindLesson, req.ID, "", string(req.Status), step)
	})
}

// GetByID fetches a request by identifier. Missing rows yield sql.ErrNoRows.
func (r *LessonRequestRepository) GetByID(ctx context.Context, id string) (*models.LessonRequest, error) {
	query := `SELECT ` + lessonRequestColumns + ` FROM lesson_requests WHERE id = $1`
	var req models.LessonRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// Update locks the request, checks it is still in expected, applies mutate and
// writes the result guarded by the same status.
func (r *LessonRequestRepository) Update(ctx context.Context, id string, expected models.LessonRequestStatus, step TransitionStep, mutate func(*models.LessonRequest) error) (*models.LessonRequest, error) {
	var updated models.LessonRequest
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `SELECT ` + lessonRequestColumns + ` FROM lesson_requests WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &updated, query, id); err != nil {
			return err
		}
		if updated.Status != expected {
			return ErrStatusChanged
		}
		if err := mutate(&updated); err != nil {
			return err
		}
		if step.At.IsZero() {
			step.At = time.Now().UTC()
		}
		updated.UpdatedAt = step.At

		const update = `UPDATE lesson_requests SET status = $1, zoom_link = $2, instructor_note = $3,
	instructor_id = $4, updated_at = $5
	WHERE id = $6 AND status = $7`
		result, err := tx.ExecContext(ctx, update,
			updated.Status, updated.ZoomLink, updated.InstructorNote,
			updated.InstructorID, updated.UpdatedAt,
			id, expected,
		)
		if err != nil {
			return fmt.Errorf("update lesson request: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check lesson request update rows: %w", err)
		}
		if rows == 0 {
			return ErrStatusChanged
		}
		return insertTransition(ctx, tx, models.RequestKindLesson, id, string(expected), string(updated.Status), step)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns requests matching the filter, most recently updated first.
func (r *LessonRequestRepository) List(ctx context.Context, filter models.LessonRequestFilter) ([]models.LessonRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + lessonRequestColumns + ` FROM lesson_requests`)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.StudentIDs != nil {
		args = append(args, pq.Array(filter.StudentIDs))
		conditions = append(conditions, fmt.Sprintf("student_id = ANY($%d)", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY updated_at DESC, created_at ASC, id ASC")

	limit, offset := normaliseLimit(filter.Limit, filter.Offset)
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.LessonRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list lesson requests: %w", err)
	}
	return requests, nil
}
