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

const examRequestColumns = `id, student_id, exam_id, status, student_note, instructor_note, admin_note,
       instructor_id, admin_id, created_at, updated_at`

// ExamRequestRepository persists exam-access requests and their history.
type ExamRequestRepository struct {
	db *sqlx.DB
}

// NewExamRequestRepository constructs the repository.
func NewExamRequestRepository(db *sqlx.DB) *ExamRequestRepository {
	return &ExamRequestRepository{db: db}
}

// Create inserts a new request together with its creation history row.
func (r *ExamRequestRepository) Create(ctx context.Context, req *models.ExamRequest, step TransitionStep) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = req.CreatedAt
	step.At = req.CreatedAt

	const query = `INSERT INTO exam_requests
	(id, student_id, exam_id, status, student_note, instructor_note, admin_note, instructor_id, admin_id, created_at, updated_at)
	VALUES (:id, :student_id, :exam_id, :status, :student_note, :instructor_note, :admin_note, :instructor_id, :admin_id, :created_at, :updated_at)`
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
			return fmt.Errorf("create exam request: %w", err)
		}
		return insertTransition(ctx, tx, models.RequestKindExam, req.ID, "", string(req.Status), step)
	})
}

// GetByID fetches a request by identifier. Missing rows yield sql.ErrNoRows.
func (r *ExamRequestRepository) GetByID(ctx context.Context, id string) (*models.ExamRequest, error) {
	query := `SELECT ` + examRequestColumns + ` FROM exam_requests WHERE id = $1`
	var req models.ExamRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// Update locks the request, checks it is still in expected, applies mutate and
// writes the result guarded by the same status. The history row is appended
// in the same transaction.
func (r *ExamRequestRepository) Update(ctx context.Context, id string, expected models.ExamRequestStatus, step TransitionStep, mutate func(*models.ExamRequest) error) (*models.ExamRequest, error) {
	var updated models.ExamRequest
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `SELECT ` + examRequestColumns + ` FROM exam_requests WHERE id = $1 FOR UPDATE`
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

		const update = `UPDATE exam_requests SET status = $1, instructor_note = $2, admin_note = $3,
	instructor_id = $4, admin_id = $5, updated_at = $6
	WHERE id = $7 AND status = $8`
		result, err := tx.ExecContext(ctx, update,
			updated.Status, updated.InstructorNote, updated.AdminNote,
			updated.InstructorID, updated.AdminID, updated.UpdatedAt,
			id, expected,
		)
		if err != nil {
			return fmt.Errorf("update exam request: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check exam request update rows: %w", err)
		}
		if rows == 0 {
			return ErrStatusChanged
		}
		return insertTransition(ctx, tx, models.RequestKindExam, id, string(expected), string(updated.Status), step)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns requests matching the filter, most recently updated first.
func (r *ExamRequestRepository) List(ctx context.Context, filter models.ExamRequestFilter) ([]models.ExamRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + examRequestColumns + ` FROM exam_requests`)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		statusClause := fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ","))
		if filter.IncludeActedBy != "" {
			args = append(args, filter.IncludeActedBy)
			statusClause = fmt.Sprintf("(%s OR instructor_id = $%d)", statusClause, len(args))
		}
		conditions = append(conditions, statusClause)
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

	var requests []models.ExamRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list exam requests: %w", err)
	}
	return requests, nil
}
