package notifier

import (
	"context"
	"fmt"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPNotifier publishes notifications to a topic exchange where the delivery
// service consumes them. Routing keys look like workflow.exam.approve.
type AMQPNotifier struct {
	publisher jsonPublisher
}

// NewAMQPNotifier wraps a publisher such as *mq.Publisher.
func NewAMQPNotifier(publisher jsonPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

// RoutingKey returns the topic key for n.
func RoutingKey(n Notification) string {
	return fmt.Sprintf("workflow.%s.%s", n.Event.RequestKind, n.Event.Action)
}

// Notify implements Notifier.
func (a *AMQPNotifier) Notify(ctx context.Context, n Notification) error {
	if a.publisher == nil {
		return fmt.Errorf("amqp notifier: publisher not configured")
	}
	return a.publisher.PublishJSON(ctx, RoutingKey(n), n)
}
