package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It is the default
// channel when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	audience := make([]string, len(n.Audience))
	for i, a := range n.Audience {
		audience[i] = string(a)
	}
	l.logger.Info("workflow notification",
		zap.String("notification_id", n.ID),
		zap.String("subject", n.Subject),
		zap.String("message", n.Message),
		zap.Strings("audience", audience),
		zap.String("request_kind", string(n.Event.RequestKind)),
		zap.String("request_id", n.Event.RequestID),
		zap.String("action", string(n.Event.Action)),
		zap.String("from_status", n.Event.FromStatus),
		zap.String("to_status", n.Event.ToStatus),
	)
	return nil
}
