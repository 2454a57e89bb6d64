package kafkahandlers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"global-app/internal/events"
	"global-app/internal/metrics"
)

// ActivityAuditHandler writes every consumed activity event to a structured audit log.
type ActivityAuditHandler struct {
	log *zap.Logger
}

// NewActivityAuditHandler creates a handler writing to log.
func NewActivityAuditHandler(log *zap.Logger) *ActivityAuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityAuditHandler{log: log.Named("audit")}
}

// HandleMessage is a kafka.MessageHandler. Undecodable payloads are logged and
// skipped so the offset still advances.
func (h *ActivityAuditHandler) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	return h.Handle(ctx, msg.Key, msg.Value)
}

// Handle processes one raw payload.
func (h *ActivityAuditHandler) Handle(_ context.Context, key, value []byte) error {
	e, err := events.Decode(value)
	if err != nil {
		h.log.Warn("skipping malformed activity event", zap.ByteString("key", key), zap.Error(err))
		metrics.EventsConsumed.WithLabelValues("unknown", "skipped").Inc()
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.Uint("actor_id", e.ActorID),
		zap.Time("occurred_at", e.OccurredAt),
	}
	if e.TargetID != 0 {
		fields = append(fields, zap.Uint("target_id", e.TargetID))
	}
	if e.ResourceID != 0 {
		fields = append(fields, zap.Uint("resource_id", e.ResourceID))
	}
	if e.Status != "" {
		fields = append(fields, zap.String("status", e.Status))
	}
	h.log.Info("activity", fields...)
	metrics.EventsConsumed.WithLabelValues(string(e.Type), "success").Inc()
	return nil
}
