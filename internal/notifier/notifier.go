// Package notifier hands workflow notifications to delivery channels. The
// channels themselves (email, toast, SMS) live outside this service.
package notifier

import (
	"context"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

// Audience names who a notification is meant for.
type Audience string

const (
	AudienceStudent    Audience = "student"
	AudienceInstructor Audience = "instructor"
	AudienceAdmin      Audience = "admin"
)

// Notification is the delivery-ready form of a workflow event.
type Notification struct {
	ID       string               `json:"id"`
	Subject  string               `json:"subject"`
	Message  string               `json:"message"`
	Audience []Audience           `json:"audience"`
	Event    models.WorkflowEvent `json:"event"`
}

// Notifier delivers a notification to an external channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
