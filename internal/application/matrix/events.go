package matrix

import (
	"context"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
)

// publish sends an event keyed by dashboard.  Failures are logged and
// counted; the triggering operation has already been stored.
func (s *serviceImpl) publish(ctx context.Context, topic, eventType string, clientID int64, year int, payload interface{}) {
	if s.publisher == nil {
		return
	}
	err := s.sendEvent(ctx, topic, eventType, clientID, year, payload)
	prometheus.RecordEventPublished(s.metrics, topic, err)
	if err != nil {
		s.logger.Warn("failed to publish event",
			logging.String("topic", topic),
			logging.Int64(logging.FieldClientID, clientID),
			logging.Int(logging.FieldYear, year),
			logging.Err(err))
	}
}

func (s *serviceImpl) sendEvent(ctx context.Context, topic, eventType string, clientID int64, year int, payload interface{}) error {
	env, err := kafka.NewEventEnvelope(eventType, kafka.EventSourceAPIServer, payload)
	if err != nil {
		return err
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		env.TraceID = id
	}
	msg, err := env.ToMessage(topic, kafka.DashboardKey(clientID, year))
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}
