// Package worker holds the Kafka message handlers run by the export worker.
package worker

import (
	"context"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// Exporter is the part of the matrix service the worker needs.
type Exporter interface {
	ExportSnapshot(ctx context.Context, req *appmatrix.ExportRequest) (*appmatrix.ExportResult, error)
}

// ExportHandler turns matrix.computed events into archived snapshots.
type ExportHandler struct {
	exporter Exporter
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewExportHandler creates the handler.  metrics may be nil.
func NewExportHandler(exporter Exporter, metrics *prometheus.AppMetrics, logger logging.Logger) *ExportHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExportHandler{exporter: exporter, metrics: metrics, logger: logger.Named("export-worker")}
}

// Topic is the topic the handler consumes.
func (h *ExportHandler) Topic() string { return kafka.TopicMatrixComputed }

// Handle exports the snapshot described by one event.  Events for a
// dashboard that has changed since the matrix was built are dropped; any
// other failure is returned so the consumer retries and finally
// dead-letters the message.
func (h *ExportHandler) Handle(ctx context.Context, msg *kafka.Message) (err error) {
	defer func() { prometheus.RecordEventConsumed(h.metrics, msg.Topic, err) }()

	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventTypeMatrixComputed {
		h.logger.Debug("ignoring event", logging.String("event_type", env.EventType))
		return nil
	}

	var p kafka.MatrixComputedPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}

	log := h.logger.With(
		logging.String(logging.FieldSessionID, p.SessionID),
		logging.Int64(logging.FieldClientID, p.ClientID),
		logging.Int(logging.FieldYear, p.Year),
		logging.String("event_id", env.EventID))

	opts := p.Options
	res, err := h.exporter.ExportSnapshot(ctx, &appmatrix.ExportRequest{
		ClientID:        p.ClientID,
		Year:            p.Year,
		SessionID:       p.SessionID,
		SelectedGroups:  p.SelectedGroups,
		Options:         &opts,
		ExpectedVersion: p.DashboardVersion,
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeConflict {
			log.Warn("dropping stale matrix event",
				logging.Int64("dashboard_version", p.DashboardVersion), logging.Err(err))
			return nil
		}
		return err
	}

	log.Info("snapshot exported from event",
		logging.String("snapshot_id", res.Snapshot.ID),
		logging.Int("points", res.Snapshot.PointCount))
	return nil
}
