package models

import "time"

// ExamRequestStatus captures the exam-access workflow states.
type ExamRequestStatus string

const (
	ExamStatusPendingInstructor ExamRequestStatus = "pending_instructor"
	ExamStatusPendingAdmin      ExamRequestStatus = "pending_admin"
	ExamStatusApproved          ExamRequestStatus = "approved"
	ExamStatusDenied            ExamRequestStatus = "denied"
)

// Valid reports whether s is a known exam request status.
func (s ExamRequestStatus) Valid() bool {
	switch s {
	case ExamStatusPendingInstructor, ExamStatusPendingAdmin, ExamStatusApproved, ExamStatusDenied:
		return true
	}
	return false
}

// Terminal reports whether no further action is possible.
func (s ExamRequestStatus) Terminal() bool {
	return s == ExamStatusApproved || s == ExamStatusDenied
}

// ExamRequest is a student's request for a seat at an external exam sitting.
// ExamID references the exam catalog and is never resolved here.
type ExamRequest struct {
	ID             string            `db:"id" json:"id"`
	StudentID      string            `db:"student_id" json:"studentId"`
	ExamID         string            `db:"exam_id" json:"examId"`
	Status         ExamRequestStatus `db:"status" json:"status"`
	StudentNote    *string           `db:"student_note" json:"studentNote,omitempty"`
	InstructorNote *string           `db:"instructor_note" json:"instructorNote,omitempty"`
	AdminNote      *string           `db:"admin_note" json:"adminNote,omitempty"`
	InstructorID   *string           `db:"instructor_id" json:"instructorId,omitempty"`
	AdminID        *string           `db:"admin_id" json:"adminId,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`
}

// ExamRequestFilter constrains listing queries.
type ExamRequestFilter struct {
	Status     []ExamRequestStatus
	StudentID  string
	StudentIDs []string
	// IncludeActedBy widens a status-restricted query with requests the given
	// instructor already forwarded.
	IncludeActedBy string
	Limit          int
	Offset         int
}
