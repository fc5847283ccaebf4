package dto

import "github.com/noah-isme/sma-request-workflow/internal/models"

// CreateExamRequest is the student payload for requesting an exam seat.
type CreateExamRequest struct {
	ExamID      string `json:"examId" validate:"required,max=64"`
	StudentNote string `json:"studentNote" validate:"max=2000"`
}

// CreateLessonRequest is the student payload for booking a tutoring session.
type CreateLessonRequest struct {
	Topic           string `json:"topic" validate:"max=200"`
	PreferredDate   string `json:"preferredDate"`
	PreferredTime   string `json:"preferredTime"`
	AltDate         string `json:"altDate"`
	AltTime         string `json:"altTime"`
	DurationMinutes int    `json:"durationMinutes"`
	StudentMessage  string `json:"studentMessage" validate:"max=2000"`
}

// ActRequest carries an instructor or admin decision on a request.
// ZoomLink is only read by the lesson confirm action.
type ActRequest struct {
	Action   models.Action `json:"action"`
	Note     string        `json:"note" validate:"max=2000"`
	ZoomLink string        `json:"zoomLink" validate:"max=500"`
}

// ExamRequestQuery mirrors supported exam listing filters.
type ExamRequestQuery struct {
	Status []models.ExamRequestStatus
	// All widens the admin default of requests awaiting admin action.
	All    bool
	Limit  int
	Offset int
}

// LessonRequestQuery mirrors supported lesson listing filters.
type LessonRequestQuery struct {
	Status []models.LessonRequestStatus
	Limit  int
	Offset int
}
