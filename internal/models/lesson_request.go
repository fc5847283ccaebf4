package models

import "time"

// LessonRequestStatus captures the tutoring session workflow states.
type LessonRequestStatus string

const (
	LessonStatusPending   LessonRequestStatus = "pending"
	LessonStatusConfirmed LessonRequestStatus = "confirmed"
	LessonStatusRejected  LessonRequestStatus = "rejected"
	LessonStatusCompleted LessonRequestStatus = "completed"
)

// Valid reports whether s is a known lesson request status.
func (s LessonRequestStatus) Valid() bool {
	switch s {
	case LessonStatusPending, LessonStatusConfirmed, LessonStatusRejected, LessonStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further action is possible.
func (s LessonRequestStatus) Terminal() bool {
	return s == LessonStatusRejected || s == LessonStatusCompleted
}

// LessonDurations lists the bookable session lengths in minutes.
var LessonDurations = []int{30, 45, 60, 90}

// LessonRequest is a student's request for a personal tutoring session.
type LessonRequest struct {
	ID              string              `db:"id" json:"id"`
	StudentID       string              `db:"student_id" json:"studentId"`
	Topic           string              `db:"topic" json:"topic"`
	PreferredDate   string              `db:"preferred_date" json:"preferredDate"`
	PreferredTime   string              `db:"preferred_time" json:"preferredTime"`
	AltDate         *string             `db:"alt_date" json:"altDate,omitempty"`
	AltTime         *string             `db:"alt_time" json:"altTime,omitempty"`
	DurationMinutes int                 `db:"duration_minutes" json:"durationMinutes"`
	Status          LessonRequestStatus `db:"status" json:"status"`
	ZoomLink        *string             `db:"zoom_link" json:"zoomLink,omitempty"`
	InstructorNote  *string             `db:"instructor_note" json:"instructorNote,omitempty"`
	StudentMessage  *string             `db:"student_message" json:"studentMessage,omitempty"`
	InstructorID    *string             `db:"instructor_id" json:"instructorId,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updatedAt"`
}

// LessonRequestFilter constrains listing queries.
type LessonRequestFilter struct {
	Status     []LessonRequestStatus
	StudentID  string
	StudentIDs []string
	Limit      int
	Offset     int
}
