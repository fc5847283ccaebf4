package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RosterRepository reads instructor ↔ student assignments. The roster is
// owned by the school roster service; this service only reads it.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// StudentIDs returns the students assigned to instructorID.
func (r *RosterRepository) StudentIDs(ctx context.Context, instructorID string) ([]string, error) {
	const query = `SELECT student_id FROM instructor_students WHERE instructor_id = $1 ORDER BY student_id`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, instructorID); err != nil {
		return nil, fmt.Errorf("list roster students: %w", err)
	}
	return ids, nil
}

// IsAssigned reports whether studentID is on instructorID's roster.
func (r *RosterRepository) IsAssigned(ctx context.Context, instructorID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM instructor_students WHERE instructor_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, instructorID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check roster assignment: %w", err)
	}
	return true, nil
}
