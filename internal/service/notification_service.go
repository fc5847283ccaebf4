package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/notifier"
	"github.com/noah-isme/sma-request-workflow/pkg/jobs"
)

const notificationJobType = "workflow.notification"

type notificationQueue interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Enqueue(job jobs.Job) error
	Pending() int
}

type messageTemplate struct {
	message  string
	audience []notifier.Audience
}

type templateKey struct {
	kind   models.RequestKind
	action models.Action
	role   models.UserRole
}

var notificationTemplates = map[templateKey]messageTemplate{
	{models.RequestKindExam, models.ActionCreate, models.RoleStudent}: {
		"New exam access request awaiting instructor review", []notifier.Audience{notifier.AudienceInstructor},
	},
	{models.RequestKindExam, models.ActionForward, models.RoleInstructor}: {
		"Request forwarded to admin", []notifier.Audience{notifier.AudienceStudent, notifier.AudienceAdmin},
	},
	{models.RequestKindExam, models.ActionApprove, models.RoleAdmin}: {
		"Approved — student notified", []notifier.Audience{notifier.AudienceStudent, notifier.AudienceInstructor},
	},
	{models.RequestKindExam, models.ActionDeny, models.RoleAdmin}: {
		"Denied — student notified", []notifier.Audience{notifier.AudienceStudent, notifier.AudienceInstructor},
	},
	{models.RequestKindLesson, models.ActionCreate, models.RoleStudent}: {
		"New lesson request awaiting confirmation", []notifier.Audience{notifier.AudienceInstructor},
	},
	{models.RequestKindLesson, models.ActionConfirm, models.RoleInstructor}: {
		"Lesson confirmed — Zoom link shared with the student", []notifier.Audience{notifier.AudienceStudent},
	},
	{models.RequestKindLesson, models.ActionReject, models.RoleInstructor}: {
		"Lesson request rejected — student notified", []notifier.Audience{notifier.AudienceStudent},
	},
	{models.RequestKindLesson, models.ActionComplete, models.RoleInstructor}: {
		"Lesson marked as completed", []notifier.Audience{notifier.AudienceStudent},
	},
}

var notificationSubjects = map[models.RequestKind]string{
	models.RequestKindExam:   "Exam access request",
	models.RequestKindLesson: "Lesson request",
}

// NotificationService turns committed workflow events into notifications and
// hands them to the delivery channel on background workers. Nothing it does
// is reported back to the command that produced the event.
type NotificationService struct {
	notifier notifier.Notifier
	queue    notificationQueue
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
}

// NotificationServiceOption configures the service.
type NotificationServiceOption func(*NotificationService)

// WithNotificationQueue replaces the default in-memory queue.
func WithNotificationQueue(queue notificationQueue) NotificationServiceOption {
	return func(s *NotificationService) {
		if queue != nil {
			s.queue = queue
		}
	}
}

// WithDeliveryTimeout bounds a single delivery attempt.
func WithDeliveryTimeout(timeout time.Duration) NotificationServiceOption {
	return func(s *NotificationService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewNotificationService constructs the dispatcher. cfg tunes the default
// queue; its Logger and OnDiscard fields are set by the service.
func NewNotificationService(n notifier.Notifier, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notifier.NewLogNotifier(logger)
	}
	svc := &NotificationService{
		notifier: n,
		metrics:  metrics,
		logger:   logger,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if svc.queue == nil {
		cfg.Logger = logger
		cfg.OnDiscard = func(job jobs.Job, err error) {
			svc.metrics.ObserveNotification(NotificationDiscarded)
		}
		svc.queue = jobs.NewQueue("notifications", svc.handle, cfg)
	}
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains queued notifications until ctx is done.
func (s *NotificationService) Stop(ctx context.Context) {
	s.queue.Stop(ctx)
}

// Pending reports notifications waiting for a worker.
func (s *NotificationService) Pending() int {
	if s == nil || s.queue == nil {
		return 0
	}
	return s.queue.Pending()
}

// Dispatch queues a notification for event. It never blocks and never fails
// the caller; a full or stopped queue drops the event with a log line.
func (s *NotificationService) Dispatch(event models.WorkflowEvent) {
	if s == nil {
		return
	}
	n := Compose(event)
	err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: notificationJobType, Payload: n})
	if err != nil {
		s.metrics.ObserveNotification(NotificationDropped)
		s.logger.Warn("notification dropped",
			zap.String("request_id", event.RequestID),
			zap.String("action", string(event.Action)),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) (err error) {
	n, ok := job.Payload.(notifier.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
		if err != nil {
			s.metrics.ObserveNotification(NotificationFailed)
			s.logger.Warn("notification delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("request_id", n.Event.RequestID),
				zap.Int("attempt", job.Attempt+1),
				zap.Error(err),
			)
			return
		}
		s.metrics.ObserveNotification(NotificationDelivered)
	}()

	deliverCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.notifier.Notify(deliverCtx, n)
}

// Compose maps a workflow event to its human-readable notification.
func Compose(event models.WorkflowEvent) notifier.Notification {
	subject, ok := notificationSubjects[event.RequestKind]
	if !ok {
		subject = "Request update"
	}
	tpl, ok := notificationTemplates[templateKey{event.RequestKind, event.Action, event.ActorRole}]
	if !ok {
		tpl = messageTemplate{
			message:  fmt.Sprintf("Request moved from %s to %s", displayStatus(event.FromStatus), displayStatus(event.ToStatus)),
			audience: []notifier.Audience{notifier.AudienceStudent},
		}
	}
	return notifier.Notification{
		ID:       uuid.NewString(),
		Subject:  subject,
		Message:  tpl.message,
		Audience: append([]notifier.Audience(nil), tpl.audience...),
		Event:    event,
	}
}

func displayStatus(status string) string {
	if status == "" {
		return "new"
	}
	return status
}
