package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

// ErrStatusChanged is returned by compare-and-swap updates when the stored
// status no longer matches the status the caller acted on.
var ErrStatusChanged = errors.New("request status changed concurrently")

// TransitionStep describes who moved a request and why; the store fills in
// the request reference and the from/to statuses.
type TransitionStep struct {
	Action    models.Action
	ActorID   string
	ActorRole models.UserRole
	Note      *string
	At        time.Time
}

// TransitionRepository reads and appends request history rows.
type TransitionRepository struct {
	db *sqlx.DB
}

// NewTransitionRepository constructs the repository.
func NewTransitionRepository(db *sqlx.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// ListByRequest returns the history of one request, oldest first.
func (r *TransitionRepository) ListByRequest(ctx context.Context, kind models.RequestKind, requestID string) ([]models.RequestTransition, error) {
	const query = `SELECT id, request_kind, request_id, action, from_status, to_status, actor_id, actor_role, note, created_at
	FROM request_transitions WHERE request_kind = $1 AND request_id = $2 ORDER BY created_at ASC, id ASC`
	var transitions []models.RequestTransition
	if err := r.db.SelectContext(ctx, &transitions, query, kind, requestID); err != nil {
		return nil, fmt.Errorf("list request transitions: %w", err)
	}
	return transitions, nil
}

func insertTransition(ctx context.Context, tx *sqlx.Tx, kind models.RequestKind, requestID, from, to string, step TransitionStep) error {
	at := step.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	record := models.RequestTransition{
		ID:          uuid.NewString(),
		RequestKind: kind,
		RequestID:   requestID,
		Action:      step.Action,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     step.ActorID,
		ActorRole:   step.ActorRole,
		Note:        step.Note,
		CreatedAt:   at,
	}
	const query = `INSERT INTO request_transitions
	(id, request_kind, request_id, action, from_status, to_status, actor_id, actor_role, note, created_at)
	VALUES (:id, :request_kind, :request_id, :action, :from_status, :to_status, :actor_id, :actor_role, :note, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert request transition: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction bound to ctx. An expired ctx rolls the
// transaction back before commit.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func normaliseLimit(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
