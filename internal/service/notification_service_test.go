package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/notifier"
	"github.com/noah-isme/sma-request-workflow/pkg/jobs"
)

type capturingNotifier struct {
	mu    sync.Mutex
	sent  []notifier.Notification
	fail  int
	panic bool
	done  chan struct{}
}

func (c *capturingNotifier) Notify(ctx context.Context, n notifier.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panic {
		c.panic = false
		panic("smtp exploded")
	}
	if c.fail > 0 {
		c.fail--
		return errors.New("delivery refused")
	}
	c.sent = append(c.sent, n)
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	return nil
}

func (c *capturingNotifier) Sent() []notifier.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notifier.Notification(nil), c.sent...)
}

func TestComposeMessages(t *testing.T) {
	cases := []struct {
		event    models.WorkflowEvent
		message  string
		audience []notifier.Audience
	}{
		{
			event:    models.WorkflowEvent{RequestKind: models.RequestKindExam, Action: models.ActionForward, ActorRole: models.RoleInstructor},
			message:  "Request forwarded to admin",
			audience: []notifier.Audience{notifier.AudienceStudent, notifier.AudienceAdmin},
		},
		{
			event:    models.WorkflowEvent{RequestKind: models.RequestKindExam, Action: models.ActionApprove, ActorRole: models.RoleAdmin},
			message:  "Approved — student notified",
			audience: []notifier.Audience{notifier.AudienceStudent, notifier.AudienceInstructor},
		},
		{
			event:    models.WorkflowEvent{RequestKind: models.RequestKindLesson, Action: models.ActionConfirm, ActorRole: models.RoleInstructor},
			message:  "Lesson confirmed — Zoom link shared with the student",
			audience: []notifier.Audience{notifier.AudienceStudent},
		},
		{
			event:    models.WorkflowEvent{RequestKind: models.RequestKindLesson, Action: "archive", ActorRole: models.RoleAdmin, FromStatus: "completed", ToStatus: "archived"},
			message:  "Request moved from completed to archived",
			audience: []notifier.Audience{notifier.AudienceStudent},
		},
	}
	for _, tc := range cases {
		n := Compose(tc.event)
		assert.Equal(t, tc.message, n.Message)
		assert.Equal(t, tc.audience, n.Audience)
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, tc.event, n.Event)
	}
	assert.Equal(t, "Exam access request", Compose(cases[0].event).Subject)
}

func TestNotificationServiceDelivers(t *testing.T) {
	done := make(chan struct{})
	sink := &capturingNotifier{done: done}
	metrics := NewMetricsService(nil)
	svc := NewNotificationService(sink, metrics, nil, jobs.QueueConfig{Workers: 1, BufferSize: 4})
	svc.Start(context.Background())

	svc.Dispatch(models.WorkflowEvent{RequestKind: models.RequestKindExam, RequestID: "r1", Action: models.ActionApprove, ActorRole: models.RoleAdmin, ToStatus: "approved"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(stopCtx)

	sent := sink.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "r1", sent[0].Event.RequestID)
	assert.Equal(t, float64(1), counterValue(t, metrics.notifications.WithLabelValues(NotificationDelivered)))
}

func TestNotificationServiceAbsorbsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	done := make(chan struct{})
	sink := &capturingNotifier{fail: 1, panic: true, done: done}
	metrics := NewMetricsService(nil)
	svc := NewNotificationService(sink, metrics, zap.New(core), jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	svc.Start(context.Background())

	assert.NotPanics(t, func() {
		svc.Dispatch(models.WorkflowEvent{RequestKind: models.RequestKindLesson, RequestID: "l1", Action: models.ActionReject, ActorRole: models.RoleInstructor})
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not retried")
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(stopCtx)

	assert.Len(t, sink.Sent(), 1)
	assert.Equal(t, float64(2), counterValue(t, metrics.notifications.WithLabelValues(NotificationFailed)))
	assert.GreaterOrEqual(t, logs.FilterMessage("notification delivery failed").Len(), 2)
}

func TestNotificationServiceDropsWhenQueueUnavailable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	metrics := NewMetricsService(nil)
	svc := NewNotificationService(&capturingNotifier{}, metrics, zap.New(core), jobs.QueueConfig{Workers: 1, BufferSize: 1})

	// never started
	svc.Dispatch(models.WorkflowEvent{RequestKind: models.RequestKindExam, RequestID: "r2", Action: models.ActionForward})

	assert.Equal(t, 1, logs.FilterMessage("notification dropped").Len())
	assert.Equal(t, float64(1), counterValue(t, metrics.notifications.WithLabelValues(NotificationDropped)))
	assert.Equal(t, 0, svc.Pending())
}

func TestNotificationServiceDiscardsAfterRetries(t *testing.T) {
	sink := &capturingNotifier{fail: 10}
	metrics := NewMetricsService(nil)
	svc := NewNotificationService(sink, metrics, nil, jobs.QueueConfig{Workers: 1, BufferSize: 2, MaxRetries: 1, RetryDelay: 5 * time.Millisecond})
	svc.Start(context.Background())

	svc.Dispatch(models.WorkflowEvent{RequestKind: models.RequestKindExam, RequestID: "r3", Action: models.ActionDeny, ActorRole: models.RoleAdmin})

	discarded := metrics.notifications.WithLabelValues(NotificationDiscarded)
	require.Eventually(t, func() bool {
		return counterValue(t, discarded) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(stopCtx)
	assert.Empty(t, sink.Sent())
}
