package models

import "time"

// RequestKind distinguishes the two workflows sharing the history table.
type RequestKind string

const (
	RequestKindExam   RequestKind = "exam"
	RequestKindLesson RequestKind = "lesson"
)

// Action is a command issued against a request.
type Action string

const (
	ActionCreate   Action = "create"
	ActionForward  Action = "forward"
	ActionApprove  Action = "approve"
	ActionDeny     Action = "deny"
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

// RequestTransition is one committed step in a request's history.
type RequestTransition struct {
	ID          string      `db:"id" json:"id"`
	RequestKind RequestKind `db:"request_kind" json:"requestKind"`
	RequestID   string      `db:"request_id" json:"requestId"`
	Action      Action      `db:"action" json:"action"`
	FromStatus  string      `db:"from_status" json:"fromStatus"`
	ToStatus    string      `db:"to_status" json:"toStatus"`
	ActorID     string      `db:"actor_id" json:"actorId"`
	ActorRole   UserRole    `db:"actor_role" json:"actorRole"`
	Note        *string     `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// WorkflowEvent is emitted after a transition commits.
type WorkflowEvent struct {
	RequestKind RequestKind `json:"requestKind"`
	RequestID   string      `json:"requestId"`
	StudentID   string      `json:"studentId"`
	Action      Action      `json:"action"`
	FromStatus  string      `json:"fromStatus"`
	ToStatus    string      `json:"toStatus"`
	ActorID     string      `json:"actorId"`
	ActorRole   UserRole    `json:"actorRole"`
	Timestamp   time.Time   `json:"timestamp"`
}
